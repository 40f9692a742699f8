package services

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"donations/internal/cache"
	"donations/internal/core"
	"donations/internal/storage"
)

// ReportService builds filtered reports and caches them per filter.
// Cached reports are shared; callers must not modify them.
type ReportService struct {
	store      storage.RecordStore
	cache      *cache.LRUCache[core.Report]
	group      singleflight.Group
	generation atomic.Uint64
}

func NewReportService(store storage.RecordStore, ttl time.Duration) *ReportService {
	return &ReportService{
		store: store,
		cache: cache.NewLRUCache[core.Report](64, ttl),
	}
}

// Report returns the aggregated view of the records matching f. Stores
// that implement storage.Versioner are consulted on every call so writes
// from other processes are picked up immediately.
func (s *ReportService) Report(ctx context.Context, f core.Filter) (core.Report, error) {
	// Reading the generation first means a build that races with an
	// invalidation is stored under a key nobody will ask for again.
	key := strconv.FormatUint(s.generation.Load(), 10)
	if v, ok := s.store.(storage.Versioner); ok {
		version, err := v.Version(ctx)
		if err != nil {
			return core.Report{}, asStorageError("version", err)
		}
		key += "@" + version
	}
	key += "|" + f.Key()

	if r, ok := s.cache.Get(key); ok {
		r.Filter = f
		return r, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		records, err := s.store.Load(ctx)
		if err != nil {
			return nil, asStorageError("load", err)
		}
		r := core.BuildReport(records, f)
		s.cache.Set(key, r)
		return r, nil
	})
	if err != nil {
		return core.Report{}, err
	}
	r := v.(core.Report)
	// Callers sharing a key may have spelled the filter differently.
	r.Filter = f
	return r, nil
}

// Invalidate forgets every cached report.
func (s *ReportService) Invalidate() {
	s.generation.Add(1)
	s.cache.Purge()
}

func (s *ReportService) Stats() cache.Stats {
	return s.cache.Stats()
}

// Cache exposes the underlying cache for periodic cleanup.
func (s *ReportService) Cache() *cache.LRUCache[core.Report] {
	return s.cache
}
