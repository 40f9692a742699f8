package core

import (
	"sort"
	"strings"
)

// Filter narrows a donation set. Each empty field leaves that dimension
// unconstrained; non-empty fields are combined with AND.
type Filter struct {
	Locations []string
	Purposes  []Purpose
	Name      string
}

// IsZero reports whether the filter lets every record through.
func (f Filter) IsZero() bool {
	return len(f.Locations) == 0 && len(f.Purposes) == 0 && strings.TrimSpace(f.Name) == ""
}

// Match reports whether a single donation satisfies every active constraint.
func (f Filter) Match(d Donation) bool {
	if len(f.Locations) > 0 && !containsString(f.Locations, d.Location) {
		return false
	}
	if len(f.Purposes) > 0 && !containsPurpose(f.Purposes, d.Purpose) {
		return false
	}
	if needle := strings.TrimSpace(f.Name); needle != "" {
		if !strings.Contains(strings.ToLower(d.Name), strings.ToLower(needle)) {
			return false
		}
	}
	return true
}

// Apply returns the records matching f in their original order.
// The input is never modified and the result never aliases it.
func (f Filter) Apply(records []Donation) []Donation {
	out := make([]Donation, 0, len(records))
	for _, d := range records {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

// Key is a canonical form of the filter, equal for filters that select
// the same records regardless of set order or duplicates.
func (f Filter) Key() string {
	locs := uniqueSorted(f.Locations)
	raw := make([]string, len(f.Purposes))
	for i, p := range f.Purposes {
		raw[i] = string(p)
	}
	purposes := uniqueSorted(raw)

	return strings.Join(locs, "\x1f") + "\x1e" +
		strings.Join(purposes, "\x1f") + "\x1e" +
		strings.ToLower(strings.TrimSpace(f.Name))
}

func uniqueSorted(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsPurpose(set []Purpose, v Purpose) bool {
	for _, p := range set {
		if p == v {
			return true
		}
	}
	return false
}
