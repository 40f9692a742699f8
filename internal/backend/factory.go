package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"donations/internal/amqp"
	"donations/internal/storage"
	"donations/internal/storage/csvfile"
	"donations/internal/storage/memory"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured store and, when AMQPURL is set, the
// event publisher. A broker that cannot be reached is logged and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store   storage.RecordStore
		closers []func() error
	)
	switch config.Type {
	case CSVBackend:
		store = csvfile.New(config.CSVPath)
		f.logger.InfoContext(ctx, "Using CSV backend", "path", config.CSVPath)
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store = repo
		closers = append(closers, repo.Close)
		f.logger.InfoContext(ctx, "Using SQLite backend", "path", config.SQLiteDBPath)
	case MemoryBackend:
		mem := memory.NewFromFile(config.SeedPath)
		store = mem
		f.logger.InfoContext(ctx, "Using memory backend", "seeded_records", mem.Len())
	}

	result := &BackendResult{Store: store}
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "AMQP unavailable, donation events disabled", "error", err)
		} else {
			// Assigned only when non-nil so the interface stays nil otherwise.
			result.Publisher = client
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Donation events enabled", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return result, nil
}
