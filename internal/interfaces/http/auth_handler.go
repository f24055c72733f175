package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-interno/internal/application/dto"
	"github.com/jhoicas/portal-interno/internal/application/session"
	"github.com/jhoicas/portal-interno/internal/application/usecase"
	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/domain/access"
)

// AuthHandler login, logout, estado de sesión y redefinición de contraseña.
// Acepta JSON (frontend) o formulario (páginas del servidor).
type AuthHandler struct {
	users    *usecase.UserUseCase
	table    *access.Table
	pages    *PageHandler
	sessions *session.Manager
	cookie   CookieConfig
	loadWait time.Duration
	log      zerolog.Logger
}

// AuthHandlerConfig dependencias de AuthHandler.
type AuthHandlerConfig struct {
	Users    *usecase.UserUseCase
	Table    *access.Table
	Pages    *PageHandler
	Sessions *session.Manager
	Cookie   CookieConfig
	LoadWait time.Duration // espera por la carga inicial en Session
	Log      zerolog.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		users:    cfg.Users,
		table:    cfg.Table,
		pages:    cfg.Pages,
		sessions: cfg.Sessions,
		cookie:   cfg.Cookie,
		loadWait: cfg.LoadWait,
		log:      cfg.Log.With().Str("component", "auth").Logger(),
	}
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "usuário ou email, senha"
// @Success      200   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	oldSid := GetSessionID(c)
	old := GetProvider(c)
	if old == nil {
		return fiber.ErrInternalServerError
	}

	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return h.loginFailed(c, fiber.StatusBadRequest, "INVALID_BODY", "corpo inválido", domain.ErrInvalidInput)
	}
	if msg := validationMessage(in); msg != "" {
		return h.loginFailed(c, fiber.StatusBadRequest, "VALIDATION", msg, domain.ErrInvalidInput)
	}

	// El login siempre ocurre bajo un id de sesión nuevo: un id fijado en el
	// navegador antes del login nunca queda autenticado.
	sid := uuid.NewString()
	p := h.sessions.Get(sid)
	err := p.Login(c.UserContext(), session.Credentials{Identifier: in.Identifier, Password: in.Password})
	if err != nil {
		h.sessions.Forget(sid)
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return h.loginFailed(c, fiber.StatusBadRequest, "VALIDATION", session.UserMessage(err), err)
		case errors.Is(err, domain.ErrInvalidCredentials):
			return h.loginFailed(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", session.UserMessage(err), err)
		default:
			return h.loginFailed(c, fiber.StatusServiceUnavailable, "IDENTITY_UNAVAILABLE", session.UserMessage(err), err)
		}
	}

	// La sesión anterior se descarta con sus tokens.
	if err := old.Logout(c.UserContext()); err != nil {
		h.log.Warn().Err(err).Msg("descartar sesión anterior al login")
	}
	h.sessions.Forget(oldSid)
	h.cookie.set(c, sid)
	c.Locals(LocalSessionID, sid)
	c.Locals(LocalProvider, p)

	if !wantsJSON(c) {
		return c.Redirect(access.LandingPath, fiber.StatusSeeOther)
	}
	return c.JSON(h.sessionResponse(p.State(), ""))
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, status int, code, msg string, err error) error {
	if wantsJSON(c) {
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
	}
	return h.pages.renderLogin(c.Status(status), session.UserMessage(err))
}

// Logout godoc
// @Summary      Cerrar sesión
// @Tags         auth
// @Produce      json
// @Success      200   {object}  dto.StatusResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if p := GetProvider(c); p != nil {
		// El estado local queda limpio aunque falle la revocación remota.
		_ = p.Logout(c.UserContext())
	}
	if !wantsJSON(c) {
		return c.Redirect(access.LoginPath, fiber.StatusSeeOther)
	}
	return c.JSON(dto.StatusResponse{Status: "signed_out"})
}

// Session godoc
// @Summary      Estado de la sesión
// @Description  Con ?path= incluye la redirección que aplicaría el guard a esa ruta.
// @Tags         auth
// @Produce      json
// @Param        path  query  string  false  "ruta a evaluar"
// @Success      200   {object}  dto.SessionResponse
// @Router       /api/auth/session [get]
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	if p := GetProvider(c); p != nil {
		waitReady(c.UserContext(), p, h.loadWait)
	}
	st := GetState(c)
	redirect := ""
	if path := c.Query("path"); path != "" {
		if d := access.Evaluate(h.table, path, st); d.Outcome == access.OutcomeRedirect {
			redirect = d.Target
		}
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(h.sessionResponse(st, redirect))
}

func (h *AuthHandler) sessionResponse(st access.State, redirect string) dto.SessionResponse {
	out := dto.SessionResponse{
		IsAuthenticated: st.IsAuthenticated,
		IsLoading:       st.IsLoading,
		Redirect:        redirect,
	}
	if st.Profile != nil {
		out.Profile = &dto.ProfileResponse{
			Username: st.Profile.Username,
			Email:    st.Profile.Email,
			Cargo:    st.Profile.RawCargo,
		}
	}
	return out
}

// Recover godoc
// @Summary      Solicitar redefinición de contraseña
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecoverRequest  true  "usuário ou email"
// @Success      202   {object}  dto.StatusResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/auth/recover [post]
func (h *AuthHandler) Recover(c *fiber.Ctx) error {
	var in dto.RecoverRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	if msg := validationMessage(in); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
	}

	status, code, msg := fiber.StatusAccepted, "", "Se o usuário existir, enviaremos um email com o link de redefinição."
	if err := h.users.RequestPasswordReset(c.UserContext(), in.Identifier); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			status, code, msg = fiber.StatusBadRequest, "VALIDATION", session.UserMessage(err)
		} else {
			status, code, msg = fiber.StatusServiceUnavailable, "IDENTITY_UNAVAILABLE", session.MsgUnavailable
		}
	}

	if !wantsJSON(c) {
		return h.pages.renderForgot(c.Status(status), msg)
	}
	if code != "" {
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
	}
	return c.Status(status).JSON(dto.StatusResponse{Status: "sent"})
}
