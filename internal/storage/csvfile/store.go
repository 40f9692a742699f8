// Package csvfile stores the donation log as a CSV flat file.
//
// The canonical layout is Name,Amount,Purpose,Location,Date. Files written
// by older versions without the Date column are still readable; their rows
// load undated and the file is upgraded on the next save.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"donations/internal/core"
)

// DateLayout is how dates are written to the file.
const DateLayout = "2006-01-02 15:04:05"

var (
	// Header is the canonical column set.
	Header = []string{"Name", "Amount", "Purpose", "Location", "Date"}

	legacyHeader = []string{"Name", "Amount", "Purpose", "Location"}

	readLayouts = []string{DateLayout, time.RFC3339, "2006-01-02"}

	ErrUnknownHeader = errors.New("unrecognised header")
	ErrColumnCount   = errors.New("wrong number of columns")
)

// Store is a RecordStore backed by one CSV file.
type Store struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

// New returns a store for path. Dates without a zone are read in local time.
func New(path string) *Store {
	return &Store{path: path, loc: time.Local}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the log. A missing or empty file is initialised with the header.
func (s *Store) Load(ctx context.Context) ([]core.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0):
		if err := s.writeFile(nil); err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Initialised donation file", "path", s.path)
		return []core.Donation{}, nil
	case err != nil:
		return nil, &core.StorageError{Op: "load", Path: s.path, Err: err}
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, &core.StorageError{Op: "load", Path: s.path, Err: err}
	}
	defer f.Close()

	records, undated, err := Decode(f, s.loc)
	if err != nil {
		var se *core.StorageError
		if errors.As(err, &se) {
			se.Op, se.Path = "load", s.path
			return nil, se
		}
		return nil, &core.StorageError{Op: "load", Path: s.path, Err: err}
	}
	if undated > 0 {
		slog.DebugContext(ctx, "Loaded records without a parseable date", "path", s.path, "count", undated)
	}
	return records, nil
}

// Version identifies the file contents by modification time and size, so
// edits by other processes are noticed. A missing file has version "absent".
func (s *Store) Version(context.Context) (string, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "absent", nil
	}
	if err != nil {
		return "", &core.StorageError{Op: "stat", Path: s.path, Err: err}
	}
	return strconv.FormatInt(info.ModTime().UnixNano(), 36) + "." + strconv.FormatInt(info.Size(), 36), nil
}

// Save rewrites the whole file through a temp file and rename.
func (s *Store) Save(ctx context.Context, records []core.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &core.StorageError{Op: "save", Path: s.path, Err: err}
	}
	return s.writeFile(records)
}

func (s *Store) writeFile(records []core.Donation) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &core.StorageError{Op: "save", Path: s.path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".donations-*.csv")
	if err != nil {
		return &core.StorageError{Op: "save", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, records); err != nil {
		tmp.Close()
		return &core.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &core.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &core.StorageError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// Encode writes the canonical header followed by one row per record.
func Encode(w io.Writer, records []core.Donation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, d := range records {
		if err := cw.Write(Row(d)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row is the canonical column values for d.
func Row(d core.Donation) []string {
	date := ""
	if d.HasDate() {
		date = d.Date.Format(DateLayout)
	}
	return []string{d.Name, d.Amount.String(), string(d.Purpose), d.Location, date}
}

// Decode parses a CSV stream in either layout. It returns the records and
// how many of them had no usable date. Row-level problems are reported as
// *core.StorageError carrying the 1-based line number.
func Decode(r io.Reader, loc *time.Location) ([]core.Donation, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []core.Donation{}, 0, nil
	}
	if err != nil {
		return nil, 0, &core.StorageError{Line: 1, Err: err}
	}
	for i := range head {
		head[i] = strings.TrimSpace(strings.TrimPrefix(head[i], "\ufeff"))
	}

	var withDate bool
	switch {
	case equalFields(head, Header):
		withDate = true
	case equalFields(head, legacyHeader):
		withDate = false
	default:
		return nil, 0, &core.StorageError{Line: 1, Err: fmt.Errorf("%w: %s", ErrUnknownHeader, strings.Join(head, ","))}
	}

	records := []core.Donation{}
	undated := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line, _ := cr.FieldPos(0)
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, 0, &core.StorageError{Line: line, Err: err}
		}
		if len(row) != len(head) {
			return nil, 0, &core.StorageError{Line: line, Err: fmt.Errorf("%w: got %d, want %d", ErrColumnCount, len(row), len(head))}
		}

		amount, err := core.ParseAmount(row[1])
		if err == nil && amount.Paise < core.MinAmount.Paise {
			err = core.ErrInvalidAmount
		}
		if err != nil {
			return nil, 0, &core.StorageError{Line: line, Err: fmt.Errorf("%w %q", core.ErrInvalidAmount, row[1])}
		}
		purpose, err := core.ParsePurpose(row[2])
		if err != nil {
			return nil, 0, &core.StorageError{Line: line, Err: fmt.Errorf("%w %q", core.ErrInvalidPurpose, row[2])}
		}

		// Hand-edited files often carry stray spaces; filters match exactly.
		d := core.Donation{
			Name:     strings.TrimSpace(row[0]),
			Amount:   amount,
			Purpose:  purpose,
			Location: strings.TrimSpace(row[3]),
		}
		if withDate {
			d.Date = parseDate(row[4], loc)
		}
		if !d.HasDate() {
			undated++
		}
		records = append(records, d)
	}
	return records, undated, nil
}

// parseDate returns the zero time for blank or unparseable values.
func parseDate(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range readLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
