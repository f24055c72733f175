package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-interno/internal/application/dto"
	"github.com/jhoicas/portal-interno/internal/application/session"
	"github.com/jhoicas/portal-interno/internal/application/usecase"
	"github.com/jhoicas/portal-interno/internal/domain/access"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sessions *session.Manager
	Table    *access.Table
	UserUC   *usecase.UserUseCase
	Cookie   CookieConfig
	Pages    PageConfig
	LoadWait time.Duration
	Log      zerolog.Logger
}

// Router registra la API y las páginas. Las páginas pasan todas por RouteGuard;
// la API protegida usa RequireAccess con la misma tabla.
func Router(app *fiber.App, deps RouterDeps) error {
	pages, err := NewPageHandler(deps.Table, deps.Pages, deps.Log)
	if err != nil {
		return fmt.Errorf("páginas: %w", err)
	}
	sessionMW := SessionMiddleware(deps.Sessions, deps.Cookie)

	api := app.Group("/api", sessionMW)

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(AuthHandlerConfig{
		Users:    deps.UserUC,
		Table:    deps.Table,
		Pages:    pages,
		Sessions: deps.Sessions,
		Cookie:   deps.Cookie,
		LoadWait: deps.LoadWait,
		Log:      deps.Log,
	})
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Get("/session", authHandler.Session)
	authGroup.Post("/recover", authHandler.Recover)

	// Admin: mismas reglas que la página de usuarios
	admin := api.Group("/admin")
	userHandler := NewUserHandler(deps.UserUC, deps.Log)
	admin.Post("/users", RequireAccess(deps.Table, "/usuarios", deps.LoadWait, deps.Log), userHandler.Create)

	// Cualquier otra ruta de la API: 404 en JSON, nunca la página HTML.
	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "rota não encontrada"})
	})

	// Páginas (RouteGuard decide antes de cada handler)
	web := app.Group("/", sessionMW, RouteGuard(GuardConfig{
		Table:       deps.Table,
		LoadWait:    deps.LoadWait,
		Placeholder: pages.Loading,
		Log:         deps.Log,
	}))
	web.Get("/", pages.Login)
	web.Get("/login", pages.Login)
	web.Get("/esqueci-senha", pages.Forgot)
	web.Get("/redefinir-senha", pages.Reset)
	web.Get("/hub", pages.Hub)
	web.Get("/*", pages.Page)
	return nil
}
