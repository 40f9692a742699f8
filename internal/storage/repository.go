package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"donations/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps the donation log as an append-only table.
// Row order by id is insertion order.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

var (
	_ RecordStore = (*SQLiteRepository)(nil)
	_ Appender    = (*SQLiteRepository)(nil)
	_ Pinger      = (*SQLiteRepository)(nil)
	_ Versioner   = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection and that the schema is not left dirty by a
// failed migration.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return err
	}
	version, dirty, err := SchemaVersion(r.path)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	return nil
}

// Version changes on every insert or rewrite: ids only grow, and Save
// reinserts every row under new ids.
func (r *SQLiteRepository) Version(ctx context.Context) (string, error) {
	var count, maxID int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(MAX(id), 0) FROM donations`).Scan(&count, &maxID)
	if err != nil {
		return "", r.storageErr("version", err)
	}
	return fmt.Sprintf("%d.%d", count, maxID), nil
}

// Load returns all donations ordered by insertion.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Donation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, amount_paise, purpose, location, donated_at FROM donations ORDER BY id`)
	if err != nil {
		return nil, r.storageErr("load", err)
	}
	defer rows.Close()

	out := []core.Donation{}
	for rows.Next() {
		var (
			d       core.Donation
			purpose string
			at      sql.NullString
		)
		if err := rows.Scan(&d.Name, &d.Amount.Paise, &purpose, &d.Location, &at); err != nil {
			return nil, r.storageErr("load", err)
		}
		p, err := core.ParsePurpose(purpose)
		if err != nil {
			return nil, r.storageErr("load", fmt.Errorf("%w %q", err, purpose))
		}
		d.Purpose = p
		d.Name = strings.TrimSpace(d.Name)
		d.Location = strings.TrimSpace(d.Location)
		if at.Valid {
			if t, err := time.Parse(time.RFC3339Nano, at.String); err == nil {
				d.Date = t
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, r.storageErr("load", err)
	}
	return out, nil
}

// Save replaces the table contents in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, records []core.Donation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.storageErr("save", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM donations`); err != nil {
		return r.storageErr("save", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertDonation)
	if err != nil {
		return r.storageErr("save", err)
	}
	defer stmt.Close()

	for _, d := range records {
		if _, err := stmt.ExecContext(ctx, insertArgs(d)...); err != nil {
			return r.storageErr("save", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return r.storageErr("save", err)
	}
	return nil
}

// Append inserts one donation without touching existing rows.
func (r *SQLiteRepository) Append(ctx context.Context, d core.Donation) error {
	res, err := r.db.ExecContext(ctx, insertDonation, insertArgs(d)...)
	if err != nil {
		return r.storageErr("append", err)
	}
	id, _ := res.LastInsertId()

	slog.InfoContext(ctx, "Donation saved to SQLite",
		"id", id,
		"donor_name", d.Name,
		"amount_paise", d.Amount.Paise,
		"purpose", d.Purpose,
		"location", d.Location)
	return nil
}

const insertDonation = `INSERT INTO donations (name, amount_paise, purpose, location, donated_at) VALUES (?, ?, ?, ?, ?)`

func insertArgs(d core.Donation) []any {
	var at sql.NullString
	if d.HasDate() {
		at = sql.NullString{String: d.Date.Format(time.RFC3339Nano), Valid: true}
	}
	return []any{d.Name, d.Amount.Paise, string(d.Purpose), d.Location, at}
}

func (r *SQLiteRepository) storageErr(op string, err error) error {
	return &core.StorageError{Op: op, Path: r.path, Err: err}
}
