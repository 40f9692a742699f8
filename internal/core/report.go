package core

// Report is everything the dashboard shows for one filter.
// Options are computed over the whole log so the sidebar never shrinks
// as filters are applied.
type Report struct {
	Filter  Filter
	Records []Donation
	Summary Summary

	ByPurpose            []PurposeAmount
	ByLocationAndPurpose []LocationPurposeAmount
	Trend                []DailyTotal
	TrendWarning         string
	Geo                  []GeoPoint

	TotalRecords    int
	UndatedRecords  int
	LocationOptions []string
	PurposeOptions  []Purpose
}

// BuildReport runs the filter and every aggregation over all.
func BuildReport(all []Donation, f Filter) Report {
	filtered := f.Apply(all)
	r := Report{
		Filter:               f,
		Records:              filtered,
		Summary:              Summarize(filtered),
		ByPurpose:            ByPurpose(filtered).Ordered(),
		ByLocationAndPurpose: ByLocationAndPurpose(filtered),
		Geo:                  GeoProject(filtered),
		TotalRecords:         len(all),
		UndatedRecords:       UndatedCount(filtered),
		LocationOptions:      DistinctLocations(all),
		PurposeOptions:       DistinctPurposes(all),
	}
	trend, err := DailyTrend(filtered)
	if err != nil {
		r.TrendWarning = err.Error()
	}
	r.Trend = trend
	return r
}

// Empty reports whether the filtered set has no records.
func (r Report) Empty() bool { return len(r.Records) == 0 }
