package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"donations/internal/core"
	"donations/internal/log"
	"donations/internal/storage"
)

// Publisher announces newly recorded donations. *amqp.Client satisfies it.
type Publisher interface {
	PublishDonationCreated(ctx context.Context, d core.Donation) error
}

// Invalidator drops derived state after the log changes.
type Invalidator interface {
	Invalidate()
}

// DonationService records donations and reads the log back.
type DonationService struct {
	store     storage.RecordStore
	publisher Publisher
	reports   Invalidator
	now       func() time.Time

	// mu serialises read-modify-write appends within this process. Two
	// processes sharing one CSV file can still lose writes.
	mu sync.Mutex
}

type Option func(*DonationService)

// WithPublisher enables donation.created events.
func WithPublisher(p Publisher) Option {
	return func(s *DonationService) { s.publisher = p }
}

// WithReportCache registers a cache to invalidate after each append.
func WithReportCache(i Invalidator) Option {
	return func(s *DonationService) { s.reports = i }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *DonationService) { s.now = now }
}

func NewDonationService(store storage.RecordStore, opts ...Option) *DonationService {
	s := &DonationService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append validates in, stamps it with the current time and persists it.
// On failure the stored log is unchanged.
func (s *DonationService) Append(ctx context.Context, in core.DonationInput) (core.Donation, error) {
	if err := in.Validate(); err != nil {
		return core.Donation{}, err
	}
	d := in.Stamp(s.now().Truncate(time.Second))

	if err := s.persist(ctx, d); err != nil {
		return core.Donation{}, asStorageError("append", err)
	}

	if s.reports != nil {
		s.reports.Invalidate()
	}

	logger := log.FromContext(ctx).WithComponent(log.ComponentDonation)
	fields := log.NewFields().
		WithDonation(d.Name, d.Amount.Paise, string(d.Purpose), d.Location).
		WithOperation(log.OpAppend)
	logger.InfoContext(ctx, "Donation recorded", fields.ToSlice()...)

	// Publishing is best effort; the record is already stored.
	if s.publisher != nil {
		if err := s.publisher.PublishDonationCreated(ctx, d); err != nil {
			logger.ErrorContext(ctx, "Failed to publish donation created event", log.FieldError, err)
		}
	}
	return d, nil
}

func (s *DonationService) persist(ctx context.Context, d core.Donation) error {
	if a, ok := s.store.(storage.Appender); ok {
		return a.Append(ctx, d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	next := make([]core.Donation, 0, len(records)+1)
	next = append(next, records...)
	next = append(next, d)
	return s.store.Save(ctx, next)
}

// List returns the records matching f in stored order.
func (s *DonationService) List(ctx context.Context, f core.Filter) ([]core.Donation, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, asStorageError("load", err)
	}
	return f.Apply(records), nil
}

// Ping reports whether the backing store is usable.
func (s *DonationService) Ping(ctx context.Context) error {
	if p, ok := s.store.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := s.store.Load(ctx)
	return err
}

func asStorageError(op string, err error) error {
	var se *core.StorageError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &core.StorageError{Op: op, Err: err}
}
