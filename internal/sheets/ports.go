package sheets

import (
	"context"

	"donations/internal/core"
)

// DonationMirror is an outbound copy of the donation log.
type DonationMirror interface {
	// Append writes one record and returns a reference to where it landed.
	Append(ctx context.Context, d core.Donation) (rowRef string, err error)
}
