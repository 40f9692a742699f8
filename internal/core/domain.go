package core

import (
	"strings"
	"time"
)

const (
	PurposeEducation Purpose = "Education"
	PurposeHealth    Purpose = "Health"
	PurposeFood      Purpose = "Food"
	PurposeShelter   Purpose = "Shelter"
	PurposeOther     Purpose = "Other"
)

// Purposes lists every allowed purpose in display order.
var Purposes = []Purpose{
	PurposeEducation,
	PurposeHealth,
	PurposeFood,
	PurposeShelter,
	PurposeOther,
}

type (
	// Purpose is the category a donation is earmarked for.
	Purpose string

	// Donation is one immutable entry of the donation log.
	// A zero Date means the stored date was missing or unparseable.
	Donation struct {
		Name     string
		Amount   Money
		Purpose  Purpose
		Location string
		Date     time.Time
	}

	// DonationInput carries the fields a user supplies when recording a donation.
	DonationInput struct {
		Name     string
		Amount   Money
		Purpose  Purpose
		Location string
	}
)

// ParsePurpose maps user or file input onto the purpose enum.
// Matching ignores case and surrounding whitespace.
func ParsePurpose(s string) (Purpose, error) {
	s = strings.TrimSpace(s)
	for _, p := range Purposes {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", ErrInvalidPurpose
}

// Valid reports whether p is one of the enumerated purposes.
func (p Purpose) Valid() bool {
	return p.rank() >= 0
}

func (p Purpose) rank() int {
	for i, q := range Purposes {
		if p == q {
			return i
		}
	}
	return -1
}

func (p Purpose) String() string { return string(p) }

// HasDate reports whether the donation carries a usable timestamp.
func (d Donation) HasDate() bool {
	return !d.Date.IsZero()
}

// Validate checks the required-field rules for a new donation.
// All problems are reported together in a single ValidationError.
func (in DonationInput) Validate() error {
	var fields []string
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, "name")
	}
	if in.Amount.Paise < MinAmount.Paise {
		fields = append(fields, "amount")
	}
	if !in.Purpose.Valid() {
		fields = append(fields, "purpose")
	}
	if strings.TrimSpace(in.Location) == "" {
		fields = append(fields, "location")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Stamp turns a validated input into a stored donation dated at.
func (in DonationInput) Stamp(at time.Time) Donation {
	return Donation{
		Name:     strings.TrimSpace(in.Name),
		Amount:   in.Amount,
		Purpose:  in.Purpose,
		Location: strings.TrimSpace(in.Location),
		Date:     at,
	}
}
