package memory

import (
	"context"
	"fmt"
	"sync"

	"donations/internal/core"
	ports "donations/internal/sheets"
)

var _ ports.DonationMirror = (*Mirror)(nil)

// Mirror keeps appended rows in memory. Useful for tests and local runs
// without Google credentials.
type Mirror struct {
	mu   sync.Mutex
	rows []core.Donation
	fail error
}

func New() *Mirror {
	return &Mirror{}
}

// FailWith makes subsequent appends return err until cleared with nil.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *Mirror) Append(ctx context.Context, d core.Donation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", m.fail
	}
	m.rows = append(m.rows, d)
	// Row 1 is the header in the real sheet.
	return fmt.Sprintf("mem!A%d", len(m.rows)+1), nil
}

// Rows returns a copy of everything appended so far.
func (m *Mirror) Rows() []core.Donation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Donation(nil), m.rows...)
}
