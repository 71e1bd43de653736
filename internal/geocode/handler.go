package geocode

import (
	"github.com/gin-gonic/gin"
	"github.com/richxcame/busymap/pkg/common"
)

// Handler handles HTTP requests for geocoding
type Handler struct {
	service *Service
}

// NewHandler creates a new geocode handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetSuggestions handles autocomplete requests. Short queries and
// provider failures both answer with an empty list.
func (h *Handler) GetSuggestions(c *gin.Context) {
	suggestions := h.service.Suggest(c.Request.Context(), c.Query("q"))
	if suggestions == nil {
		suggestions = []Suggestion{}
	}

	common.SuccessResponse(c, gin.H{
		"suggestions": suggestions,
	})
}
