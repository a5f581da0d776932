package geo

import (
	"errors"
	"math"
)

// MetersPerKilometer converts the kilometer radii accepted at the API
// boundary into the meters the store operates in. Every conversion in the
// codebase goes through KilometersToMeters; nothing else multiplies by 1000.
const MetersPerKilometer = 1000.0

const earthRadiusMeters = 6371000.0

var (
	ErrInvalidLongitude = errors.New("longitude must be a finite value between -180 and 180")
	ErrInvalidLatitude  = errors.New("latitude must be a finite value between -90 and 90")
)

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Validate reports whether the point holds finite, in-range coordinates.
func (p Point) Validate() error {
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || p.Longitude < -180 || p.Longitude > 180 {
		return ErrInvalidLongitude
	}
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) || p.Latitude < -90 || p.Latitude > 90 {
		return ErrInvalidLatitude
	}
	return nil
}

// KilometersToMeters converts a radius from kilometers to meters.
func KilometersToMeters(km float64) float64 {
	return km * MetersPerKilometer
}

// Distance returns the great-circle distance between two points in meters,
// using the haversine formula. The same formula is expressed in SQL by the
// Postgres stores; both must agree on the earth radius.
func Distance(a, b Point) float64 {
	latA := a.Latitude * math.Pi / 180
	latB := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(latA)*math.Cos(latB)*math.Pow(math.Sin(dLon/2), 2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
