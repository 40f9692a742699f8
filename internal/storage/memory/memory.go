package memory

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"donations/internal/core"
	"donations/internal/storage/csvfile"
)

// Store keeps the donation log in process memory. Nothing survives a restart.
type Store struct {
	mu    sync.Mutex
	items []core.Donation
}

func New(seed ...core.Donation) *Store {
	return &Store{items: append([]core.Donation(nil), seed...)}
}

// NewFromFile seeds the store from a donations CSV when one exists.
// A missing or unreadable seed file yields an empty store.
func NewFromFile(path string) *Store {
	f, err := os.Open(path)
	if err != nil {
		return New()
	}
	defer f.Close()

	records, _, err := csvfile.Decode(f, time.Local)
	if err != nil {
		slog.Warn("Ignoring unreadable seed file", "path", path, "error", err)
		return New()
	}
	return New(records...)
}

// Load returns a copy of the stored log.
func (s *Store) Load(_ context.Context) ([]core.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Donation{}, s.items...), nil
}

// Save replaces the stored log.
func (s *Store) Save(_ context.Context, records []core.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.Donation(nil), records...)
	return nil
}

// Append adds one donation.
func (s *Store) Append(_ context.Context, d core.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, d)
	return nil
}

// Len is the number of stored donations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
