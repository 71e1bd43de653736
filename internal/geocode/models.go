package geocode

import (
	"strings"

	"github.com/richxcame/busymap/pkg/geo"
)

// Suggestion is one display-ready candidate for the search box.
// Coordinates are nil when the provider returned no center; such a
// suggestion is listable but cannot recenter the map.
type Suggestion struct {
	Label       string      `json:"label"`
	PlaceName   string      `json:"place_name,omitempty"`
	Coordinates *geo.LatLng `json:"coordinates,omitempty"`
}

// provider response shapes (Mapbox forward geocoding)

// Feature is one raw geocoding candidate from the provider.
type Feature struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Address   string    `json:"address"`
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"`
}

type apiResponse struct {
	Features []Feature `json:"features"`
}

// Label derives the display label: house number plus street, trimmed.
// An empty label marks the feature as unusable for display.
func (f Feature) Label() string {
	return strings.TrimSpace(strings.TrimSpace(f.Address) + " " + strings.TrimSpace(f.Text))
}

// LatLng extracts the feature center as lat/lng, if present. Provider
// centers come as [lng, lat].
func (f Feature) LatLng() *geo.LatLng {
	if len(f.Center) < 2 {
		return nil
	}
	return &geo.LatLng{
		Latitude:  f.Center[1],
		Longitude: f.Center[0],
	}
}
