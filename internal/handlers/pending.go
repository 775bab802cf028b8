package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"stamp-match-backend/internal/matching"
	"stamp-match-backend/internal/models"
	"stamp-match-backend/internal/services"
)

type PendingHandler struct {
	confirm  *services.ConfirmationService
	pipeline *services.MatchPipeline
}

func NewPendingHandler(confirm *services.ConfirmationService, pipeline *services.MatchPipeline) *PendingHandler {
	return &PendingHandler{
		confirm:  confirm,
		pipeline: pipeline,
	}
}

// List godoc
// @Summary     List pending photos
// @Description Returns the pending queue, optionally filtered by text.
// @Tags        pending
// @Produce     json
// @Security    Bearer
// @Param       q query string false "Filter on filename or uploader"
// @Success     200 {object} models.PendingListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /pending [get]
func (h *PendingHandler) List(c *gin.Context) {
	photos, err := h.confirm.ListPending(c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list pending photos",
			Message: err.Error(),
		})
		return
	}
	if photos == nil {
		photos = []models.PendingInfo{}
	}

	c.JSON(http.StatusOK, models.PendingListResponse{Photos: photos})
}

// Assign godoc
// @Summary     Manually assign a pending photo to an order
// @Description Binds the photo directly to the chosen order, bypassing the
// @Description matched state. Equivalent to a confirmation.
// @Tags        pending
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       photo_id query string true "Photo ID (storage path)"
// @Param       request body models.AssignRequest true "Target order"
// @Success     200 {object} models.ConfirmResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /pending/assign [post]
func (h *PendingHandler) Assign(c *gin.Context) {
	photoID := c.Query("photo_id")
	if photoID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "photo_id is required"})
		return
	}

	var req models.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := h.confirm.AssignPending(photoID, req.OrderID); err != nil {
		var confErr *services.ConfirmationError
		if errors.As(err, &confErr) {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "assignment failed",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "could not assign photo",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ConfirmResponse{
		PhotoID: photoID,
		OrderID: req.OrderID,
		Status:  string(models.StatusConfirmed),
	})
}

// Delete godoc
// @Summary     Delete a pending photo
// @Description Removes the photo blob and its queue entry together.
// @Tags        pending
// @Produce     json
// @Security    Bearer
// @Param       photo_id query string true "Photo ID (storage path)"
// @Success     204
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /pending [delete]
func (h *PendingHandler) Delete(c *gin.Context) {
	photoID := c.Query("photo_id")
	if photoID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "photo_id is required"})
		return
	}

	if err := h.confirm.DeletePending(photoID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "could not delete pending photo",
			Message: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// Rematch godoc
// @Summary     Re-run matching over the pending queue
// @Description Submits the current pending set against the current design
// @Description corpus and returns proposed matches for confirmation.
// @Tags        pending
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.MatchRunResponse
// @Failure     502 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /pending/rematch [post]
func (h *PendingHandler) Rematch(c *gin.Context) {
	matches, err := h.pipeline.RematchPending(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, matching.ErrServiceUnavailable) {
			status = http.StatusBadGateway
		}
		var svcErr *matching.ServiceError
		if errors.As(err, &svcErr) {
			status = http.StatusBadGateway
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "rematch failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.MatchRunResponse{
		Matches: matches,
		Pending: []models.PendingInfo{},
	})
}

// SignedURL godoc
// @Summary     Create a signed preview link for a pending photo
// @Tags        pending
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       photo_id query string true "Photo ID (storage path)"
// @Param       request body models.SignedURLRequest false "TTL"
// @Success     200 {object} models.SignedURLResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /pending/signed-url [post]
func (h *PendingHandler) SignedURL(c *gin.Context) {
	photoID := c.Query("photo_id")
	if photoID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "photo_id is required"})
		return
	}

	// Body is optional; a missing or malformed body falls back to the
	// default TTL.
	var req models.SignedURLRequest
	_ = c.ShouldBindJSON(&req)

	url, err := h.confirm.SignedPendingURL(photoID, req.TTLSeconds)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "could not create signed url",
			Message: err.Error(),
		})
		return
	}

	ttl := req.TTLSeconds
	if ttl <= 0 {
		ttl = 3600
	}
	c.JSON(http.StatusOK, models.SignedURLResponse{
		SignedURL: url,
		ExpiresIn: ttl,
	})
}
