package traffic

import (
	"fmt"
	"strconv"

	"github.com/richxcame/busymap/pkg/geo"
)

// BoundsKey builds the canonical cache key for a bounds query.
// Coordinates are rounded to 6 decimals so two structurally equal
// viewports always produce byte-identical keys; unset filters encode
// as "-".
func BoundsKey(b geo.Bounds, f Filters) string {
	return fmt.Sprintf("traffic:%.6f:%.6f:%.6f:%.6f:%s:%s",
		b.SouthWest.Latitude,
		b.SouthWest.Longitude,
		b.NorthEast.Latitude,
		b.NorthEast.Longitude,
		filterPart(f.DayOfWeek),
		filterPart(f.HourOfDay),
	)
}

func filterPart(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
