package traffic

import "github.com/richxcame/busymap/pkg/geo"

// BusynessLevel buckets a 0-100 busyness score for display.
type BusynessLevel string

const (
	LevelQuiet    BusynessLevel = "quiet"
	LevelModerate BusynessLevel = "moderate"
	LevelBusy     BusynessLevel = "busy"
)

// Classification thresholds for average busyness.
const (
	moderateThreshold = 40
	busyThreshold     = 65
)

// ClassifyBusyness maps a 0-100 score to its display bucket.
func ClassifyBusyness(score float64) BusynessLevel {
	switch {
	case score >= busyThreshold:
		return LevelBusy
	case score >= moderateThreshold:
		return LevelModerate
	default:
		return LevelQuiet
	}
}

// Point is one place with its averaged busyness inside the queried bounds.
type Point struct {
	Name        string        `json:"name"`
	Coordinates geo.LatLng    `json:"coordinates"`
	AvgBusyness float64       `json:"avg_busyness"`
	Level       BusynessLevel `json:"level"`
	Types       []string      `json:"types,omitempty"`
}

// Filters are the optional time filters applied to a bounds query.
type Filters struct {
	DayOfWeek *int
	HourOfDay *int
}

// upstream response shapes

type apiCoordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type apiPlace struct {
	Name        string          `json:"name"`
	Coordinates *apiCoordinates `json:"coordinates"`
	AvgBusyness float64         `json:"avg_busyness"`
	Types       []string        `json:"types"`
}

type apiData struct {
	Places []apiPlace `json:"places"`
	Source string     `json:"source"`
}

type apiResponse struct {
	Data  *apiData `json:"data"`
	Error string   `json:"error"`
}
