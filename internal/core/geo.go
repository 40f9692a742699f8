package core

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// GeoPoint is a donation placed on the map.
type GeoPoint struct {
	Donation
	Coordinate
}

// knownLocations is the fixed city table. Keys match stored locations
// exactly, case included.
var knownLocations = map[string]Coordinate{
	"Delhi":     {Lat: 28.6139, Lon: 77.2090},
	"Mumbai":    {Lat: 19.0760, Lon: 72.8777},
	"Kolkata":   {Lat: 22.5726, Lon: 88.3639},
	"Chennai":   {Lat: 13.0827, Lon: 80.2707},
	"Bangalore": {Lat: 12.9716, Lon: 77.5946},
}

// KnownLocations lists the mappable cities.
func KnownLocations() []string {
	return []string{"Delhi", "Mumbai", "Kolkata", "Chennai", "Bangalore"}
}

// LookupCoordinate returns the coordinate for a location or a
// *MissingCoordinateError when the table has no entry.
func LookupCoordinate(location string) (Coordinate, error) {
	c, ok := knownLocations[location]
	if !ok {
		return Coordinate{}, &MissingCoordinateError{Location: location}
	}
	return c, nil
}

// GeoProject keeps the records whose location is in the known table,
// attaching coordinates and preserving input order.
func GeoProject(records []Donation) []GeoPoint {
	out := make([]GeoPoint, 0, len(records))
	for _, d := range records {
		c, err := LookupCoordinate(d.Location)
		if err != nil {
			continue
		}
		out = append(out, GeoPoint{Donation: d, Coordinate: c})
	}
	return out
}
