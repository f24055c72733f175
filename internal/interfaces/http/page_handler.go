package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-interno/internal/domain/access"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageConfig datos de las páginas.
type PageConfig struct {
	AppName string
	// Embeds URL embebida por ruta (BI, mural de avisos). Las páginas sin
	// entrada se muestran vacías.
	Embeds map[string]string
}

// PageHandler renderiza las páginas del portal. La autorización ya la hizo RouteGuard.
type PageHandler struct {
	tmpl  *template.Template
	table *access.Table
	cfg   PageConfig
	log   zerolog.Logger
}

type pageData struct {
	AppName  string
	Title    string
	Refresh  int
	Profile  *entity.Profile
	Message  string
	Links    []access.Route
	EmbedURL string
}

// NewPageHandler parsea las plantillas embebidas.
func NewPageHandler(table *access.Table, cfg PageConfig, log zerolog.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsear plantillas: %w", err)
	}
	if cfg.AppName == "" {
		cfg.AppName = "Portal"
	}
	return &PageHandler{
		tmpl:  tmpl,
		table: table,
		cfg:   cfg,
		log:   log.With().Str("component", "pages").Logger(),
	}, nil
}

func (h *PageHandler) render(c *fiber.Ctx, name string, data pageData) error {
	data.AppName = h.cfg.AppName
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error().Err(err).Str("template", name).Msg("render")
		return fiber.ErrInternalServerError
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// Loading placeholder mientras la sesión carga; se recarga sola.
func (h *PageHandler) Loading(c *fiber.Ctx) error {
	return h.render(c, "loading", pageData{Title: "Carregando", Refresh: 1})
}

// Login GET / y /login.
func (h *PageHandler) Login(c *fiber.Ctx) error {
	return h.renderLogin(c, "")
}

func (h *PageHandler) renderLogin(c *fiber.Ctx, msg string) error {
	return h.render(c, "login", pageData{Title: "Login", Message: msg})
}

// Forgot GET /esqueci-senha.
func (h *PageHandler) Forgot(c *fiber.Ctx) error {
	return h.renderForgot(c, "")
}

func (h *PageHandler) renderForgot(c *fiber.Ctx, msg string) error {
	return h.render(c, "forgot", pageData{Title: "Esqueci minha senha", Message: msg})
}

// Reset GET /redefinir-senha: destino del enlace del email.
func (h *PageHandler) Reset(c *fiber.Ctx) error {
	return h.render(c, "reset", pageData{Title: "Redefinir senha"})
}

// Hub lista solo las áreas que el cargo puede abrir.
func (h *PageHandler) Hub(c *fiber.Ctx) error {
	st := GetState(c)
	role := entity.RoleUnknown
	if st.Profile != nil {
		role = st.Profile.Cargo
	}
	return h.render(c, "hub", pageData{
		Title:   "Hub",
		Profile: st.Profile,
		Links:   h.table.Visible(role),
	})
}

// Page cualquier otra ruta de la tabla. Las rutas fuera de la tabla dan 404.
func (h *PageHandler) Page(c *fiber.Ctx) error {
	st := GetState(c)
	route, found := h.table.Lookup(c.Path())
	if !found {
		return h.render(c.Status(fiber.StatusNotFound), "notfound", pageData{Title: "Não encontrada", Profile: st.Profile})
	}
	return h.render(c, "page", pageData{
		Title:    route.Title,
		Profile:  st.Profile,
		EmbedURL: h.cfg.Embeds[route.Path],
	})
}
