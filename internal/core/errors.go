package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidPurpose    = errors.New("invalid purpose")
	ErrNoDatedRecords    = errors.New("no records with a parseable date")
	ErrMissingCoordinate = errors.New("location has no known coordinate")
	ErrStorage           = errors.New("storage failure")
)

// MissingFieldsMessage is shown to users when required fields are blank.
const MissingFieldsMessage = "Please fill all the fields."

// ValidationError lists the input fields that failed the required-field rules.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid donation: missing or invalid " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UserMessage is the text shown next to the form.
func (e *ValidationError) UserMessage() string { return MissingFieldsMessage }

// DateParseError reports that no record in a non-empty set had a usable date,
// so no trend can be drawn.
type DateParseError struct {
	Skipped int
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("daily trend unavailable: %d records have no parseable date", e.Skipped)
}

func (e *DateParseError) Is(target error) bool { return target == ErrNoDatedRecords }

// MissingCoordinateError names a location absent from the known-location table.
type MissingCoordinateError struct {
	Location string
}

func (e *MissingCoordinateError) Error() string {
	return fmt.Sprintf("no coordinate for location %q", e.Location)
}

func (e *MissingCoordinateError) Is(target error) bool { return target == ErrMissingCoordinate }

// StorageError wraps a failure to read or write the backing store.
// Line is the 1-based row number when the failure is tied to one row.
type StorageError struct {
	Op   string
	Path string
	Line int
	Err  error
}

func (e *StorageError) Error() string {
	var b strings.Builder
	b.WriteString("storage ")
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
