package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"donations/internal/amqp"
	"donations/internal/cli"
	"donations/internal/config"
	"donations/internal/log"
	gsheet "donations/internal/sheets/google"
	"donations/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.MustLoadConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		cli.Fatal(logger, "Worker configuration validation failed", err)
	}

	logger.Info("Starting donations-worker", log.FieldOperation, log.OpStartup)

	mirror, err := gsheet.New(context.Background(), sheetConfig(cfg))
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets mirror", err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	syncer := worker.NewSyncWorker(mirror)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) error {
		return client.Close()
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeDonationCreated(gctx, syncer.HandleDonationCreated)
	})
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := syncer.Cache().CleanExpired(); n > 0 {
					logger.Debug("Expired mirrored message ids", "entries_removed", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		_ = client.Close()
		cli.Fatal(logger, "Message consumption failed", err)
	}
	<-done
	logger.Info("Worker stopped")
}

// sheetConfig carries both credential kinds; the client prefers the
// service account and falls back to the OAuth user token.
func sheetConfig(cfg *config.Config) gsheet.Config {
	return gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	}
}
