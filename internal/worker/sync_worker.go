package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"donations/internal/amqp"
	"donations/internal/cache"
	"donations/internal/sheets"
)

// SyncWorker copies donation.created events to an external mirror.
type SyncWorker struct {
	mirror sheets.DonationMirror
	// seen holds recently mirrored message ids so a redelivery after a
	// lost ack does not write a duplicate row.
	seen *cache.LRUCache[string]
}

func NewSyncWorker(mirror sheets.DonationMirror) *SyncWorker {
	return &SyncWorker{
		mirror: mirror,
		seen:   cache.NewLRUCache[string](1024, time.Hour),
	}
}

// Cache exposes the dedupe cache for periodic cleanup.
func (w *SyncWorker) Cache() *cache.LRUCache[string] {
	return w.seen
}

// HandleDonationCreated mirrors a single event. Errors cause a redelivery.
func (w *SyncWorker) HandleDonationCreated(ctx context.Context, msg *amqp.DonationCreatedMessage) error {
	if msg.MessageID != "" {
		if ref, ok := w.seen.Get(msg.MessageID); ok {
			slog.InfoContext(ctx, "Skipping already mirrored donation", "message_id", msg.MessageID, "ref", ref)
			return nil
		}
	}

	d, err := msg.Donation()
	if err != nil {
		// A bad purpose will never succeed; drop it instead of looping.
		slog.ErrorContext(ctx, "Discarding invalid donation message", "message_id", msg.MessageID, "error", err)
		return nil
	}

	start := time.Now()
	ref, err := w.mirror.Append(ctx, d)
	if err != nil {
		return fmt.Errorf("mirror donation %s: %w", msg.MessageID, err)
	}
	if msg.MessageID != "" {
		w.seen.Set(msg.MessageID, ref)
	}

	slog.InfoContext(ctx, "Mirrored donation",
		"message_id", msg.MessageID,
		"ref", ref,
		"amount_paise", d.Amount.Paise,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
