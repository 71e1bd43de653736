package geo

import (
	"fmt"
	"math"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate is within WGS84 ranges.
func (l LatLng) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Bounds is a rectangular geographic region defined by its
// south-west and north-east corners.
type Bounds struct {
	SouthWest LatLng `json:"southwest"`
	NorthEast LatLng `json:"northeast"`
}

// Valid reports whether both corners are valid coordinates and the
// north-east corner is north of the south-west corner.
func (b Bounds) Valid() bool {
	return b.SouthWest.Valid() && b.NorthEast.Valid() &&
		b.NorthEast.Latitude >= b.SouthWest.Latitude
}

// Contains reports whether the point lies within the bounds.
func (b Bounds) Contains(p LatLng) bool {
	return p.Latitude >= b.SouthWest.Latitude && p.Latitude <= b.NorthEast.Latitude &&
		p.Longitude >= b.SouthWest.Longitude && p.Longitude <= b.NorthEast.Longitude
}

func (b Bounds) String() string {
	return fmt.Sprintf("(%.6f,%.6f)-(%.6f,%.6f)",
		b.SouthWest.Latitude, b.SouthWest.Longitude,
		b.NorthEast.Latitude, b.NorthEast.Longitude)
}

// Viewport is the visible map region plus zoom level.
type Viewport struct {
	Bounds Bounds  `json:"bounds"`
	Zoom   float64 `json:"zoom"`
}

const earthRadiusKm = 6371.0

// DistanceKm calculates the great-circle distance between two points
// using the Haversine formula.
func DistanceKm(a, b LatLng) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
