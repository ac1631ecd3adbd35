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

	_ "github.com/Hacerfak/CoreMDFeApp/docs"
	"github.com/Hacerfak/CoreMDFeApp/internal/bootstrap"
	httpRouter "github.com/Hacerfak/CoreMDFeApp/internal/interfaces/http"
	"github.com/Hacerfak/CoreMDFeApp/pkg/config"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicação")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET não definido")
	}
	if cfg.Gateway.URL == "" {
		log.Warn().Msg("SEFAZ_GATEWAY_URL não definido: emissões e eventos vão falhar com erro de transporte")
	}

	ctx := context.Background()
	c, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicialização")
	}
	defer c.Close()

	jm := c.Jobs()
	if err := jm.StartAll(); err != nil {
		log.Fatal().Err(err).Msg("rotinas agendadas")
	}
	defer jm.StopAll()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // emissão espera a autoridade
		IdleTimeout:  time.Second * 60,
		BodyLimit:    4 << 20,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Core MDF-e API",
	}))

	app.Get("/health", func(fc *fiber.Ctx) error {
		if err := c.Pool.Ping(fc.UserContext()); err != nil {
			return fc.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db_unavailable"})
		}
		return fc.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ManifestUC:  c.Manifests,
		DocumentsUC: c.Documents,
		CompanyUC:   c.CompanyUC,
		Companies:   c.Companies,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("desligamento do servidor")
	}

	log.Info().Msg("aplicação parada")
}
