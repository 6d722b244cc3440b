package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/zulaiy/zutax-api/internal/application/einvoice"
	infrafirs "github.com/zulaiy/zutax-api/internal/infrastructure/firs"
	infrahost "github.com/zulaiy/zutax-api/internal/infrastructure/host"
	infrapdf "github.com/zulaiy/zutax-api/internal/infrastructure/pdf"
	"github.com/zulaiy/zutax-api/internal/infrastructure/postgres"
	"github.com/zulaiy/zutax-api/internal/infrastructure/qrsign"
	httpRouter "github.com/zulaiy/zutax-api/internal/interfaces/http"
	"github.com/zulaiy/zutax-api/pkg/config"
	"github.com/zulaiy/zutax-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("firs_env", cfg.FIRS.Environment).
		Msg("starting application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection")
	}
	defer pool.Close()

	recordRepo := postgres.NewSubmissionRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	signer, err := qrsign.NewSigner(cfg.FIRS.KeyPath, cfg.FIRS.CertPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load signing material")
	}

	gateway := infrafirs.NewClient(infrafirs.Config{
		BaseURL:     cfg.FIRS.BaseURL,
		APIKey:      cfg.FIRS.APIKey,
		APISecret:   cfg.FIRS.APISecret,
		Environment: cfg.FIRS.Environment,
		Timeout:     cfg.FIRS.RequestTimeout,
	}, log.Z())

	hostClient := infrahost.NewClient(cfg.Host)

	svc := einvoice.NewService(
		recordRepo, auditRepo, hostClient, gateway, signer,
		einvoice.NewConverter(cfg.FIRS.SupplierTIN),
		cfg.FIRS.ServiceID,
		einvoice.RetryPolicy{
			MaxAttempts: cfg.FIRS.MaxRetries,
			BaseDelay:   cfg.FIRS.RetryBaseDelay,
			MaxDelay:    cfg.FIRS.RetryMaxDelay,
		},
		nil, // wall clock
		log.Z(),
	)

	// Background reconciliation: authority status polling and due retries.
	pollCtx, stopPoller := context.WithCancel(ctx)
	poller := einvoice.NewPoller(svc, cfg.FIRS.PollInterval, int(cfg.Worker.MaxConcurrent))
	go func() {
		if err := poller.Run(pollCtx); err != nil && pollCtx.Err() == nil {
			log.Error().Err(err).Msg("poller stopped")
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Service:        svc,
		Renderer:       infrapdf.NewRenderer(),
		JWTSecret:      cfg.JWT.Secret,
		WebhookKeyHash: cfg.Webhook.APIKeyHash,
		Log:            log.Z(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping server...")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
