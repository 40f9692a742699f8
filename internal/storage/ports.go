package storage

import (
	"context"

	"donations/internal/core"
)

// Ports for record stores.
type (
	// RecordStore persists the whole donation log.
	RecordStore interface {
		// Load returns every stored donation in insertion order.
		Load(ctx context.Context) ([]core.Donation, error)
		// Save replaces the stored log with records.
		Save(ctx context.Context, records []core.Donation) error
	}

	// Appender is implemented by stores that can add one record without
	// rewriting the log.
	Appender interface {
		Append(ctx context.Context, d core.Donation) error
	}

	// Versioner is implemented by stores whose contents can change outside
	// this process. Version changes whenever the stored log may have.
	Versioner interface {
		Version(ctx context.Context) (string, error)
	}

	// Pinger is implemented by stores that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
