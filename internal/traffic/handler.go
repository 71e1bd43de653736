package traffic

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/geo"
)

// Handler handles HTTP requests for foot-traffic data
type Handler struct {
	service *Service
}

// NewHandler creates a new traffic handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetTraffic handles bounds queries for busyness points
func (h *Handler) GetTraffic(c *gin.Context) {
	bounds, ok := parseBounds(c)
	if !ok {
		return
	}

	var filters Filters
	if dow, ok, valid := parseOptionalInt(c, "dow", 0, 6); !valid {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid dow")
		return
	} else if ok {
		filters.DayOfWeek = &dow
	}
	if hour, ok, valid := parseOptionalInt(c, "hour", 0, 23); !valid {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid hour")
		return
	} else if ok {
		filters.HourOfDay = &hour
	}

	points := h.service.Points(c.Request.Context(), bounds, filters)

	common.SuccessResponse(c, gin.H{
		"points": points,
	})
}

func parseBounds(c *gin.Context) (geo.Bounds, bool) {
	var bounds geo.Bounds
	coords := []struct {
		name string
		dest *float64
	}{
		{"sw_lat", &bounds.SouthWest.Latitude},
		{"sw_lng", &bounds.SouthWest.Longitude},
		{"ne_lat", &bounds.NorthEast.Latitude},
		{"ne_lng", &bounds.NorthEast.Longitude},
	}

	for _, coord := range coords {
		value, err := strconv.ParseFloat(c.Query(coord.name), 64)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid "+coord.name)
			return geo.Bounds{}, false
		}
		*coord.dest = value
	}

	if !bounds.Valid() {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid bounds")
		return geo.Bounds{}, false
	}

	return bounds, true
}

func parseOptionalInt(c *gin.Context, name string, min, max int) (value int, present bool, valid bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < min || parsed > max {
		return 0, false, false
	}
	return parsed, true, true
}
