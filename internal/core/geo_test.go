package core

import (
	"errors"
	"math/rand"
	"testing"
)

func TestLookupCoordinate(t *testing.T) {
	c, err := LookupCoordinate("Kolkata")
	if err != nil || c.Lat != 22.5726 || c.Lon != 88.3639 {
		t.Fatalf("Kolkata = %+v, %v", c, err)
	}
	for _, loc := range []string{"delhi", "Pune", ""} {
		_, err := LookupCoordinate(loc)
		if !errors.Is(err, ErrMissingCoordinate) {
			t.Errorf("LookupCoordinate(%q) err = %v, want ErrMissingCoordinate", loc, err)
		}
	}
}

func TestGeoProjectSubset(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		records := randomDonations(rng, rng.Intn(40))
		points := GeoProject(records)

		known := 0
		for _, d := range records {
			if _, err := LookupCoordinate(d.Location); err == nil {
				known++
			}
		}
		if len(points) != known {
			t.Fatalf("GeoProject kept %d points, want %d", len(points), known)
		}
		j := 0
		for _, d := range records {
			if j < len(points) && points[j].Donation == d {
				want, _ := LookupCoordinate(d.Location)
				if points[j].Coordinate != want {
					t.Fatalf("wrong coordinate for %s", d.Location)
				}
				j++
			}
		}
		if j != len(points) {
			t.Fatal("GeoProject did not preserve order")
		}
	}
}

func TestBuildReport(t *testing.T) {
	records := []Donation{
		{Name: "Alice", Amount: Rupees(100), Purpose: PurposeHealth, Location: "Delhi"},
		{Name: "Bob", Amount: Rupees(50), Purpose: PurposeFood, Location: "Pune"},
	}
	r := BuildReport(records, Filter{Purposes: []Purpose{PurposeHealth}})
	if r.TotalRecords != 2 || r.Summary.Count != 1 || r.Summary.Total != Rupees(100) {
		t.Errorf("summary = %+v total=%d", r.Summary, r.TotalRecords)
	}
	if len(r.LocationOptions) != 2 {
		t.Errorf("options should come from the unfiltered set, got %v", r.LocationOptions)
	}
	if len(r.Geo) != 1 || r.Geo[0].Location != "Delhi" {
		t.Errorf("Geo = %+v", r.Geo)
	}
	if r.TrendWarning == "" || len(r.Trend) != 0 {
		t.Errorf("undated records should produce a trend warning, got %q / %v", r.TrendWarning, r.Trend)
	}
}
