package events

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/busymap/pkg/common"
)

// Handler handles HTTP requests for local events
type Handler struct {
	service *Service
}

// NewHandler creates a new events handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetEvents handles event search requests
func (h *Handler) GetEvents(c *gin.Context) {
	var date *time.Time
	if dateISO := c.Query("date_iso"); dateISO != "" {
		parsed, err := time.Parse("2006-01-02", dateISO)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid date_iso, want YYYY-MM-DD")
			return
		}
		date = &parsed
	}

	events, err := h.service.Events(c.Request.Context(), c.Query("q"), date)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, gin.H{
		"events": events,
	})
}
