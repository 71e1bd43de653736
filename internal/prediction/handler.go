package prediction

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/geo"
)

// Handler handles HTTP requests for busyness forecasts
type Handler struct {
	service *Service
}

// NewHandler creates a new prediction handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetPrediction handles forecast requests
func (h *Handler) GetPrediction(c *gin.Context) {
	h.predict(c, false)
}

// GetPredictionWithSummary handles forecast requests with an LLM summary
func (h *Handler) GetPredictionWithSummary(c *gin.Context) {
	h.predict(c, true)
}

func (h *Handler) predict(c *gin.Context, withSummary bool) {
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

	req := Request{
		PlaceQuery:  c.Query("place_query"),
		Coordinates: geo.LatLng{Latitude: lat, Longitude: lng},
		WithSummary: withSummary,
	}

	if dateISO := c.Query("date_iso"); dateISO != "" {
		date, err := time.Parse("2006-01-02", dateISO)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid date_iso, want YYYY-MM-DD")
			return
		}
		req.Date = &date
	}

	pred, err := h.service.Predict(c.Request.Context(), req)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, pred)
}
