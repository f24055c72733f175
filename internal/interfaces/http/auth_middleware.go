package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/jhoicas/portal-interno/internal/application/session"
	"github.com/jhoicas/portal-interno/internal/domain/access"
)

// Locals keys en Fiber.
const (
	LocalSessionID = "session_id"
	LocalProvider  = "session_provider"
	LocalState     = "session_state"
	LocalRoute     = "route"
)

// CookieConfig cookie de sesión de navegador.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration // 0 = 30 días
}

func (cfg CookieConfig) set(c *fiber.Ctx, sid string) {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// SessionMiddleware asigna (o recupera) el id de sesión de la cookie y deja el
// Provider correspondiente en c.Locals. Si el token expiró lo revalida.
func SessionMiddleware(m *session.Manager, cfg CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Cookies devuelve memoria de fasthttp; el id se guarda en el LRU y hay que copiarlo.
		sid := utils.CopyString(c.Cookies(cfg.Name))
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			cfg.set(c, sid)
		}

		p := m.Get(sid)
		p.Revalidate(c.UserContext())

		c.Locals(LocalSessionID, sid)
		c.Locals(LocalProvider, p)
		return c.Next()
	}
}

// GetSessionID devuelve el id de sesión (después de SessionMiddleware).
func GetSessionID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalSessionID).(string)
	return s
}

// GetProvider devuelve el Provider de la sesión o nil.
func GetProvider(c *fiber.Ctx) *session.Provider {
	p, _ := c.Locals(LocalProvider).(*session.Provider)
	return p
}

// GetState estado evaluado por el guard; si no pasó por el guard lo lee del Provider.
func GetState(c *fiber.Ctx) access.State {
	if st, ok := c.Locals(LocalState).(access.State); ok {
		return st
	}
	if p := GetProvider(c); p != nil {
		return p.State()
	}
	return access.State{}
}

// GetRoute ruta de la tabla que autorizó la petición.
func GetRoute(c *fiber.Ctx) (access.Route, bool) {
	r, ok := c.Locals(LocalRoute).(access.Route)
	return r, ok
}
