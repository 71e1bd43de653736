package weather

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/geo"
)

// Handler handles HTTP requests for weather forecasts
type Handler struct {
	service *Service
}

// NewHandler creates a new weather handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetWeather handles forecast requests
func (h *Handler) GetWeather(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid latitude")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid longitude")
		return
	}

	forecast, err := h.service.Forecast(c.Request.Context(), geo.LatLng{Latitude: lat, Longitude: lng})
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, forecast)
}
