package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-interno/internal/application/dto"
	"github.com/jhoicas/portal-interno/internal/domain/access"
)

// RequireAccess protege endpoints de API con la misma tabla que las páginas:
// el endpoint hereda las reglas de la página pagePath.
// Debe usarse DESPUÉS de SessionMiddleware. Espera hasta wait por la carga inicial.
//
// Comportamiento:
//   - 503 Service Unavailable → la sesión sigue cargando.
//   - 401 Unauthorized → sin sesión.
//   - 403 Forbidden → el cargo no tiene acceso a pagePath.
func RequireAccess(table *access.Table, pagePath string, wait time.Duration, log zerolog.Logger) fiber.Handler {
	route, _ := table.Lookup(pagePath)
	return func(c *fiber.Ctx) error {
		st := access.State{}
		if p := GetProvider(c); p != nil {
			waitReady(c.UserContext(), p, wait)
			st = p.State()
		}
		if st.IsLoading {
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code: "SESSION_LOADING", Message: "sessão carregando, tente novamente",
			})
		}
		if route.Public() {
			return c.Next()
		}
		if !st.IsAuthenticated || st.Profile == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code: "UNAUTHORIZED", Message: "sessão requerida",
			})
		}
		ok, err := route.Allows(st.Profile.Cargo)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Path()).Str("cargo", st.Profile.RawCargo).Msg("cargo desconocido en API")
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code: "UNKNOWN_ROLE", Message: "cargo '" + st.Profile.RawCargo + "' não reconhecido",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code: "FORBIDDEN", Message: "o cargo não tem acesso a " + route.Path,
			})
		}
		c.Locals(LocalState, st)
		c.Locals(LocalRoute, route)
		return c.Next()
	}
}
