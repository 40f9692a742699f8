package backend

import (
	"context"
	"path/filepath"
	"testing"

	"donations/internal/config"
	"donations/internal/core"
	"donations/internal/storage"
	"donations/internal/storage/csvfile"
	"donations/internal/storage/memory"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("unknown backend should fail")
	}
	c, err := FromAppConfig(&config.Config{DataBackend: "csv", DataPath: "d.csv"})
	if err != nil || c.Type != CSVBackend || c.CSVPath != "d.csv" {
		t.Errorf("config = %+v, err = %v", c, err)
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		cfg   Config
		check func(t *testing.T, s storage.RecordStore)
	}{
		{
			name: "csv",
			cfg:  Config{Type: CSVBackend, CSVPath: filepath.Join(dir, "donations.csv")},
			check: func(t *testing.T, s storage.RecordStore) {
				if _, ok := s.(*csvfile.Store); !ok {
					t.Errorf("store = %T", s)
				}
			},
		},
		{
			name: "sqlite",
			cfg:  Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "donations.db")},
			check: func(t *testing.T, s storage.RecordStore) {
				if _, ok := s.(storage.Appender); !ok {
					t.Errorf("sqlite store should append, got %T", s)
				}
			},
		},
		{
			name: "memory",
			cfg:  Config{Type: MemoryBackend, SeedPath: filepath.Join(dir, "missing.csv")},
			check: func(t *testing.T, s storage.RecordStore) {
				if m, ok := s.(*memory.Store); !ok || m.Len() != 0 {
					t.Errorf("store = %T", s)
				}
			},
		},
	}

	f := NewFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(context.Background(), tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			defer res.Cleanup()

			tt.check(t, res.Store)
			if res.Publisher != nil {
				t.Error("publisher should be nil without AMQP")
			}

			ctx := context.Background()
			d := core.Donation{Name: "A", Amount: core.Rupees(100), Purpose: core.PurposeFood, Location: "Pune"}
			if err := res.Store.Save(ctx, []core.Donation{d}); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := res.Store.Load(ctx)
			if err != nil || len(got) != 1 {
				t.Errorf("Load = %v, %v", got, err)
			}
		})
	}
}
