package session

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/richxcame/busymap/internal/geocode"
	"github.com/richxcame/busymap/internal/prediction"
	"github.com/richxcame/busymap/internal/traffic"
	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/logger"
	ws "github.com/richxcame/busymap/pkg/websocket"
	"go.uber.org/zap"
)

// Handler upgrades connections and runs one engine per client.
type Handler struct {
	cfg        *config.EngineConfig
	registry   *ws.Registry
	traffic    *traffic.Service
	geocode    *geocode.Service
	prediction *prediction.Service
	upgrader   gorilla.Upgrader
}

// NewHandler creates the WebSocket session handler
func NewHandler(
	cfg *config.EngineConfig,
	registry *ws.Registry,
	trafficSvc *traffic.Service,
	geocodeSvc *geocode.Service,
	predictionSvc *prediction.Service,
) *Handler {
	return &Handler{
		cfg:        cfg,
		registry:   registry,
		traffic:    trafficSvc,
		geocode:    geocodeSvc,
		prediction: predictionSvc,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Cross-origin policy is enforced by the CORS middleware;
			// the upgrade itself accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Connect handles GET /ws
func (h *Handler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "websocket upgrade failed")
		return
	}

	sessionID := uuid.New().String()
	client := ws.NewClient(sessionID, conn)
	h.registry.Register(client)

	engine := NewEngine(sessionID, client, h.cfg, h.traffic, h.geocode, h.prediction)

	// The request context dies when this handler returns, so the
	// session gets its own; the read pump closing Inbound is what ends
	// the engine loop.
	ctx, cancel := context.WithCancel(context.Background())

	go client.WritePump()
	go func() {
		defer cancel()
		defer h.registry.Unregister(client)

		go client.ReadPump()

		engine.Run(ctx)
	}()

	logger.InfoContext(c.Request.Context(), "websocket session connected",
		zap.String("session_id", sessionID),
	)
}
