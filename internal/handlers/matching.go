package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"stamp-match-backend/internal/models"
	"stamp-match-backend/internal/services"
)

type MatchingHandler struct {
	pipeline *services.MatchPipeline
}

func NewMatchingHandler(pipeline *services.MatchPipeline) *MatchingHandler {
	return &MatchingHandler{pipeline: pipeline}
}

// Health godoc
// @Summary     Probe the external matching service
// @Description Runs the liveness probe and reports whether a matching run
// @Description would currently be attempted.
// @Tags        matching
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.MatchingHealthResponse
// @Router      /matching/health [get]
func (h *MatchingHandler) Health(c *gin.Context) {
	if err := h.pipeline.CheckHealth(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, models.MatchingHealthResponse{
			Available: false,
			Detail:    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.MatchingHealthResponse{Available: true})
}
