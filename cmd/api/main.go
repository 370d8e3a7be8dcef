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

	"github.com/contasol/sunat-registro/internal/application/auth"
	"github.com/contasol/sunat-registro/internal/application/facturas"
	"github.com/contasol/sunat-registro/internal/infrastructure/backend"
	"github.com/contasol/sunat-registro/internal/infrastructure/credenciales"
	"github.com/contasol/sunat-registro/internal/infrastructure/memoria"
	httpRouter "github.com/contasol/sunat-registro/internal/interfaces/http"
	"github.com/contasol/sunat-registro/pkg/config"
	"github.com/contasol/sunat-registro/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	store := memoria.New()
	credStore := credenciales.New(cfg.Sunat.ClaveOfuscacion)
	backendClient := backend.New(backend.Config{
		BaseURL:          cfg.Backend.BaseURL,
		TimeoutListado:   cfg.Backend.TimeoutListado,
		TimeoutDetalle:   cfg.Backend.TimeoutDetalle,
		TimeoutOperacion: cfg.Backend.TimeoutOperacion,
	}, log)

	facturasUC := facturas.New(store, credStore, backendClient, facturas.Config{
		AutoRegistroDelay: cfg.Sunat.AutoRegistroDelay,
		DetalleTodasDelay: cfg.Sunat.DetalleTodasDelay,
		DetalleTodasMax:   cfg.Sunat.DetalleTodasMax,
		UsarCola:          cfg.Sunat.UsarCola,
		PollIntervalo:     cfg.Sunat.PollIntervalo,
		PollMaxIntentos:   cfg.Sunat.PollMaxIntentos,
	}, log)
	authUC := auth.New(credStore, backendClient, cfg.JWT, log)

	// Observador de registro automático: factura en CON DETALLE más el delay
	// configurado sin intervención del usuario -> registro en el backend.
	autoCtx, detenerAuto := context.WithCancel(context.Background())
	defer detenerAuto()
	go facturasUC.EjecutarAutoRegistro(autoCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 120,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "SUNAT Registro API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		FacturasUC: facturasUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	detenerAuto()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
