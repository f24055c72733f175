package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-interno/internal/application/session"
	"github.com/jhoicas/portal-interno/internal/domain/access"
)

// GuardConfig dependencias del guard de páginas.
type GuardConfig struct {
	Table       *access.Table
	LoadWait    time.Duration // espera por la carga inicial antes de mostrar el placeholder
	Placeholder fiber.Handler // página "carregando..."
	Log         zerolog.Logger
}

// RouteGuard decide por cada navegación: placeholder, redirección o render.
// Debe usarse DESPUÉS de SessionMiddleware. En redirección no se ejecuta el handler,
// así que el contenido protegido nunca sale en la respuesta.
func RouteGuard(cfg GuardConfig) fiber.Handler {
	log := cfg.Log.With().Str("component", "guard").Logger()
	return func(c *fiber.Ctx) error {
		p := GetProvider(c)
		st := access.State{}
		if p != nil {
			waitReady(c.UserContext(), p, cfg.LoadWait)
			st = p.State()
		}

		path := c.Path()
		d := access.Evaluate(cfg.Table, path, st)
		if d.Err != nil {
			ev := log.Warn().Err(d.Err).Str("path", path)
			if st.Profile != nil {
				ev = ev.Str("user_id", st.Profile.UserID).Str("cargo", st.Profile.RawCargo)
			}
			ev.Msg("cargo desconocido en ruta restringida")
		}

		switch d.Outcome {
		case access.OutcomePlaceholder:
			c.Set(fiber.HeaderCacheControl, "no-store")
			return cfg.Placeholder(c)
		case access.OutcomeRedirect:
			log.Debug().
				Str("path", path).
				Str("target", d.Target).
				Bool("authenticated", st.IsAuthenticated).
				Msg("navegación redirigida")
			c.Set(fiber.HeaderCacheControl, "no-store")
			return c.Redirect(d.Target, fiber.StatusSeeOther)
		}

		c.Locals(LocalState, st)
		c.Locals(LocalRoute, d.Route)
		return c.Next()
	}
}

func waitReady(ctx context.Context, p *session.Provider, wait time.Duration) {
	if wait <= 0 {
		return
	}
	select {
	case <-p.Ready():
	default:
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-p.Ready():
		case <-t.C:
		case <-ctx.Done():
		}
	}
}
