package core

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

var sampleLocations = []string{"Delhi", "Mumbai", "Kolkata", "Chennai", "Bangalore", "Pune", "delhi", "Jaipur"}
var sampleNames = []string{"Alice", "Bob", "Ali Khan", "ALINA", "Priya", "Ravi", "Meera", "bob jr"}

func randomDonations(rng *rand.Rand, n int) []Donation {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	out := make([]Donation, n)
	for i := range out {
		d := Donation{
			Name:     sampleNames[rng.Intn(len(sampleNames))],
			Amount:   Money{Paise: int64(100 + rng.Intn(100000))},
			Purpose:  Purposes[rng.Intn(len(Purposes))],
			Location: sampleLocations[rng.Intn(len(sampleLocations))],
		}
		if rng.Intn(5) != 0 {
			d.Date = base.Add(time.Duration(rng.Intn(240)) * time.Hour)
		}
		out[i] = d
	}
	return out
}

func randomFilter(rng *rand.Rand) Filter {
	var f Filter
	for _, l := range sampleLocations {
		if rng.Intn(4) == 0 {
			f.Locations = append(f.Locations, l)
		}
	}
	for _, p := range Purposes {
		if rng.Intn(3) == 0 {
			f.Purposes = append(f.Purposes, p)
		}
	}
	needles := []string{"", "", "ali", "BOB", "r", "zzz"}
	f.Name = needles[rng.Intn(len(needles))]
	return f
}

func TestFilterAliceBobScenario(t *testing.T) {
	records := []Donation{
		{Name: "Alice", Amount: Rupees(100), Purpose: PurposeHealth, Location: "Delhi"},
		{Name: "Bob", Amount: Rupees(50), Purpose: PurposeFood, Location: "Mumbai"},
	}
	got := Filter{Locations: []string{"Delhi"}}.Apply(records)
	if len(got) != 1 || got[0].Name != "Alice" {
		t.Fatalf("got %+v, want only Alice", got)
	}
}

func TestFilterNameSubstringIsCaseInsensitive(t *testing.T) {
	records := []Donation{
		{Name: "Alice"}, {Name: "Bob"}, {Name: "ALINA"}, {Name: "Ali Khan"},
	}
	got := Filter{Name: "ali"}.Apply(records)
	want := []string{"Alice", "ALINA", "Ali Khan"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.Name != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, d.Name, want[i])
		}
	}
}

func TestFilterLocationIsExactMatch(t *testing.T) {
	records := []Donation{{Location: "Delhi"}, {Location: "delhi"}, {Location: "New Delhi"}}
	got := Filter{Locations: []string{"Delhi"}}.Apply(records)
	if len(got) != 1 || got[0].Location != "Delhi" {
		t.Fatalf("got %+v", got)
	}
}

func TestFilterIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		records := randomDonations(rng, rng.Intn(40))
		got := Filter{}.Apply(records)
		if len(got) != len(records) {
			t.Fatalf("identity filter dropped records: %d vs %d", len(got), len(records))
		}
		for j := range records {
			if got[j] != records[j] {
				t.Fatalf("identity filter changed record %d", j)
			}
		}
	}
}

func TestFilterComposability(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		records := randomDonations(rng, 30)
		f := randomFilter(rng)

		locOnly := Filter{Locations: f.Locations}
		purposeOnly := Filter{Purposes: f.Purposes}
		nameOnly := Filter{Name: f.Name}

		combined := f.Apply(records)
		chained := nameOnly.Apply(purposeOnly.Apply(locOnly.Apply(records)))
		reordered := locOnly.Apply(nameOnly.Apply(purposeOnly.Apply(records)))

		if !sameDonations(combined, chained) || !sameDonations(combined, reordered) {
			t.Fatalf("filter %+v is not composable", f)
		}
	}
}

func TestFilterPreservesOrderAndInput(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	records := randomDonations(rng, 60)
	snapshot := append([]Donation(nil), records...)

	f := Filter{Purposes: []Purpose{PurposeFood, PurposeHealth}}
	got := f.Apply(records)

	if !reflect.DeepEqual(records, snapshot) {
		t.Fatal("Apply mutated its input")
	}
	// got must be a subsequence of records
	j := 0
	for _, d := range records {
		if j < len(got) && d == got[j] {
			j++
		}
	}
	if j != len(got) {
		t.Fatal("Apply did not preserve input order")
	}
	if len(got) > 0 {
		got[0].Name = "changed"
		if !reflect.DeepEqual(records, snapshot) {
			t.Fatal("result aliases the input")
		}
	}
}

func TestFilterKey(t *testing.T) {
	a := Filter{Locations: []string{"Mumbai", "Delhi", "Delhi"}, Purposes: []Purpose{PurposeFood, PurposeHealth}, Name: " Ali "}
	b := Filter{Locations: []string{"Delhi", "Mumbai"}, Purposes: []Purpose{PurposeHealth, PurposeFood}, Name: "ali"}
	if a.Key() != b.Key() {
		t.Errorf("equivalent filters produced different keys: %q vs %q", a.Key(), b.Key())
	}
	if (Filter{}).Key() == (Filter{Purposes: []Purpose{"Water"}}).Key() {
		t.Error("unknown purpose should not collapse to the empty filter key")
	}
	if !(Filter{Name: "  "}).IsZero() {
		t.Error("blank name should count as no filter")
	}
}

func sameDonations(a, b []Donation) bool {
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
