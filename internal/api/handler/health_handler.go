package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/parkapi/internal/api/dto"
	"github.com/martijn/parkapi/pkg/logger"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
//
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Failure      503  {object}  dto.HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Msg("health check: database unreachable")
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Database: "down"})
		return
	}

	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: "up"})
}
