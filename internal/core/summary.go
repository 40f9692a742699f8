package core

import (
	"sort"
	"time"
)

type (
	// PurposeTotals maps each purpose present in a set to its summed amount.
	PurposeTotals map[Purpose]Money

	// PurposeAmount is one slice of the by-purpose breakdown.
	PurposeAmount struct {
		Purpose Purpose
		Amount  Money
	}

	// LocationPurposeAmount is one cell of the location by purpose grid.
	LocationPurposeAmount struct {
		Location string
		Purpose  Purpose
		Amount   Money
	}

	// DailyTotal is the amount donated on one calendar day.
	DailyTotal struct {
		Day    time.Time
		Amount Money
	}

	// Summary holds headline figures for a donation set.
	Summary struct {
		Count int
		Total Money
	}
)

// ByPurpose sums amounts per purpose. Purposes absent from the input
// have no key.
func ByPurpose(records []Donation) PurposeTotals {
	totals := make(PurposeTotals)
	for _, d := range records {
		totals[d.Purpose] = totals[d.Purpose].Add(d.Amount)
	}
	return totals
}

// Ordered lists the totals in purpose display order.
func (t PurposeTotals) Ordered() []PurposeAmount {
	out := make([]PurposeAmount, 0, len(t))
	for _, p := range Purposes {
		if amt, ok := t[p]; ok {
			out = append(out, PurposeAmount{Purpose: p, Amount: amt})
		}
	}
	return out
}

// Total is the sum across all purposes.
func (t PurposeTotals) Total() Money {
	var sum Money
	for _, m := range t {
		sum = sum.Add(m)
	}
	return sum
}

// ByLocationAndPurpose sums amounts per (location, purpose) pair present in
// the input, ordered by location then purpose display order.
func ByLocationAndPurpose(records []Donation) []LocationPurposeAmount {
	type key struct {
		loc string
		p   Purpose
	}
	sums := make(map[key]Money)
	for _, d := range records {
		k := key{d.Location, d.Purpose}
		sums[k] = sums[k].Add(d.Amount)
	}

	out := make([]LocationPurposeAmount, 0, len(sums))
	for k, amt := range sums {
		out = append(out, LocationPurposeAmount{Location: k.loc, Purpose: k.p, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		ri, rj := out[i].Purpose.rank(), out[j].Purpose.rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Purpose < out[j].Purpose
	})
	return out
}

// DailyTrend sums amounts per calendar day in ascending day order.
// Undated records are left out. When the input is non-empty but none of it
// is dated, DailyTrend returns a *DateParseError instead of an empty trend.
func DailyTrend(records []Donation) ([]DailyTotal, error) {
	byDay := make(map[string]*DailyTotal)
	skipped := 0
	for _, d := range records {
		if !d.HasDate() {
			skipped++
			continue
		}
		k := d.Date.Format("2006-01-02")
		dt, ok := byDay[k]
		if !ok {
			y, m, day := d.Date.Date()
			dt = &DailyTotal{Day: time.Date(y, m, day, 0, 0, 0, 0, d.Date.Location())}
			byDay[k] = dt
		}
		dt.Amount = dt.Amount.Add(d.Amount)
	}

	if len(byDay) == 0 && skipped > 0 {
		return nil, &DateParseError{Skipped: skipped}
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DailyTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byDay[k])
	}
	return out, nil
}

// Summarize counts records and sums their amounts.
func Summarize(records []Donation) Summary {
	s := Summary{Count: len(records)}
	for _, d := range records {
		s.Total = s.Total.Add(d.Amount)
	}
	return s
}

// UndatedCount is the number of records without a usable date.
func UndatedCount(records []Donation) int {
	n := 0
	for _, d := range records {
		if !d.HasDate() {
			n++
		}
	}
	return n
}

// DistinctLocations returns each location once, in first-seen order.
func DistinctLocations(records []Donation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range records {
		if !seen[d.Location] {
			seen[d.Location] = true
			out = append(out, d.Location)
		}
	}
	return out
}

// DistinctPurposes returns each purpose once, in first-seen order.
func DistinctPurposes(records []Donation) []Purpose {
	seen := make(map[Purpose]bool)
	var out []Purpose
	for _, d := range records {
		if !seen[d.Purpose] {
			seen[d.Purpose] = true
			out = append(out, d.Purpose)
		}
	}
	return out
}
