package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"donations/internal/backend"
	"donations/internal/cache"
	"donations/internal/cli"
	apphttp "donations/internal/http"
	"donations/internal/log"
	"donations/internal/services"
	"donations/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.MustLoadConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	reports := services.NewReportService(result.Store, cfg.ReportCacheTTL)
	opts := []services.Option{services.WithReportCache(reports)}
	if result.Publisher != nil {
		opts = append(opts, services.WithPublisher(result.Publisher))
	}
	donations := services.NewDonationService(result.Store, opts...)

	caches := cache.NewManager()
	caches.Register("reports", reports.Cache())
	caches.StartCleanup(10 * time.Minute)

	var sessions *session.Store
	if cfg.AuthEnabled {
		sessions = session.NewStore(session.Gate{Username: cfg.AuthUsername, Password: cfg.AuthPassword})
	} else {
		logger.Warn("Login gate disabled; every visitor can record donations")
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Donations:          donations,
		Reports:            reports,
		Sessions:           sessions,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to create HTTP server", err)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) error {
		caches.Stop()
		return errors.Join(srv.Shutdown(ctx), result.Cleanup())
	})

	logger.Info("Starting donations server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auth", cfg.AuthEnabled,
		"events", result.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
