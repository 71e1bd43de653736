package prediction

import (
	"fmt"
	"time"

	"github.com/richxcame/busymap/pkg/geo"
)

// Features are the normalized model inputs echoed back by upstream.
type Features struct {
	Weather    float64 `json:"weather"`
	Events     float64 `json:"events"`
	Historical float64 `json:"historical"`
}

// Prediction is the busyness forecast for a place on a date. Summary
// is only populated by the LLM variant.
type Prediction struct {
	Score    float64  `json:"score"`
	Label    string   `json:"label"`
	Features Features `json:"features"`
	Summary  string   `json:"summary,omitempty"`
}

// Request identifies one forecast: a place, its coordinates and a date.
type Request struct {
	PlaceQuery  string
	Coordinates geo.LatLng
	Date        *time.Time
	WithSummary bool
}

// Key builds the canonical cache key for a forecast request. Dates
// participate at day precision; coordinates are rounded to 6 decimals
// like every other spatial key.
func (r Request) Key() string {
	date := "-"
	if r.Date != nil {
		date = r.Date.Format("2006-01-02")
	}
	variant := "base"
	if r.WithSummary {
		variant = "llm"
	}
	return fmt.Sprintf("predict:%s:%s:%.6f:%.6f:%s",
		variant,
		r.PlaceQuery,
		r.Coordinates.Latitude,
		r.Coordinates.Longitude,
		date,
	)
}
