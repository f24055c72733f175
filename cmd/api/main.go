package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/portal-interno/docs"
	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/application/session"
	"github.com/jhoicas/portal-interno/internal/application/usecase"
	"github.com/jhoicas/portal-interno/internal/domain/access"
	"github.com/jhoicas/portal-interno/internal/infrastructure/memory"
	"github.com/jhoicas/portal-interno/internal/infrastructure/postgres"
	"github.com/jhoicas/portal-interno/internal/infrastructure/supabase"
	httpRouter "github.com/jhoicas/portal-interno/internal/interfaces/http"
	"github.com/jhoicas/portal-interno/pkg/config"
	"github.com/jhoicas/portal-interno/pkg/logger"
)

// Sesiones sin uso por más tiempo se borran al arrancar.
const staleSessions = 30 * 24 * time.Hour

// @title        Portal Interno API
// @version      1.0
// @description  Sessão, login e controle de acesso do portal interno.
// @BasePath     /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Tokens por sesión de navegador: Postgres si hay base, si no memoria.
	var store ports.TokenStorage
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		sessionStore := postgres.NewSessionStore(pool)
		if err := sessionStore.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("esquema de sesiones")
		}
		if n, err := sessionStore.PurgeStale(ctx, time.Now().Add(-staleSessions)); err != nil {
			log.Warn().Err(err).Msg("purgar sesiones viejas")
		} else if n > 0 {
			log.Info().Int64("deleted", n).Msg("sesiones viejas purgadas")
		}
		store = sessionStore
	} else {
		log.Warn().Msg("sin base de datos: las sesiones se pierden al reiniciar")
		store = memory.NewTokenStore()
	}

	identity := supabase.NewClient(supabase.Config{
		URL:            cfg.Supabase.URL,
		AnonKey:        cfg.Supabase.AnonKey,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		JWTSecret:      cfg.Supabase.JWTSecret,
	}, log.Zerolog())

	sessions, err := session.NewManager(
		func(sid string) ports.AuthClient { return identity.ForSession(sid, store) },
		cfg.Portal.MaxSessions,
		session.Options{EmailDomain: cfg.Portal.EmailDomain},
		log.Zerolog(),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("manager de sesiones")
	}
	defer sessions.Close()

	userUC := usecase.NewUserUseCase(identity, cfg.Portal.EmailDomain, cfg.Portal.PublicURL+"/redefinir-senha", log.Zerolog())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Portal Interno API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	err = httpRouter.Router(app, httpRouter.RouterDeps{
		Sessions: sessions,
		Table:    access.DefaultTable(),
		UserUC:   userUC,
		Cookie: httpRouter.CookieConfig{
			Name:   cfg.Portal.SessionCookie,
			Secure: cfg.Portal.CookieSecure,
		},
		Pages: httpRouter.PageConfig{
			AppName: cfg.App.Name,
			Embeds: map[string]string{
				"/dashboard": cfg.Portal.DashboardURL,
				"/rankings":  cfg.Portal.RankingsURL,
				"/mural":     cfg.Portal.MuralURL,
			},
		},
		LoadWait: cfg.Portal.LoadWait,
		Log:      log.Zerolog(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("registrar rutas")
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
