package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"stamp-match-backend/internal/middleware"
	"stamp-match-backend/internal/models"
	"stamp-match-backend/internal/services"
)

type PhotosHandler struct {
	pipeline *services.MatchPipeline
	confirm  *services.ConfirmationService
}

func NewPhotosHandler(pipeline *services.MatchPipeline, confirm *services.ConfirmationService) *PhotosHandler {
	return &PhotosHandler{
		pipeline: pipeline,
		confirm:  confirm,
	}
}

// Match godoc
// @Summary     Upload stamp photos and match them against order designs
// @Description Uploads a batch of photos, runs one matching pass against the
// @Description design corpus, and returns proposed matches plus everything
// @Description that fell back to the pending queue.
// @Tags        photos
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       fotos formData file true "Stamp photos (multiple files allowed)"
// @Success     200 {object} models.MatchRunResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos/match [post]
func (h *PhotosHandler) Match(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	form := c.Request.MultipartForm
	if form == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: "multipart form is nil",
		})
		return
	}

	var files []*multipart.FileHeader
	for _, fieldName := range []string{"fotos", "photos", "files", "images"} {
		if f := form.File[fieldName]; len(f) > 0 {
			files = f
			break
		}
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no files uploaded",
			Message: "provide files in a 'fotos' form field",
		})
		return
	}

	uploadedBy, _ := c.Get(middleware.UserIDKey)
	userID, _ := uploadedBy.(string)

	resp, err := h.pipeline.Run(c.Request.Context(), files, userID)
	if err != nil {
		if errors.Is(err, services.ErrNoFilesUploaded) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "no files uploaded",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "match run failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Confirm godoc
// @Summary     Confirm a matched photo
// @Description Binds the photo to its matched order and clears it from the
// @Description pending queue. Retryable when the order write fails.
// @Tags        photos
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.ConfirmRequest true "Confirmation"
// @Success     200 {object} models.ConfirmResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /photos/confirm [post]
func (h *PhotosHandler) Confirm(c *gin.Context) {
	var req models.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := h.confirm.Confirm(req.PhotoID, req.OrderID, req.StoragePath); err != nil {
		var confErr *services.ConfirmationError
		if errors.As(err, &confErr) {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "confirmation failed, photo remains matched",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "invalid photo state",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ConfirmResponse{
		PhotoID: req.PhotoID,
		OrderID: req.OrderID,
		Status:  string(models.StatusConfirmed),
	})
}

// Reject godoc
// @Summary     Reject a matched photo
// @Description Sends the photo to the pending queue; the order is untouched.
// @Tags        photos
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.RejectRequest true "Rejection"
// @Success     200 {object} models.ConfirmResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /photos/reject [post]
func (h *PhotosHandler) Reject(c *gin.Context) {
	var req models.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	uploadedBy, _ := c.Get(middleware.UserIDKey)
	userID, _ := uploadedBy.(string)

	filename := req.Filename
	if filename == "" {
		filename = req.PhotoID
	}

	err := h.confirm.Reject(&models.PendingPhoto{
		PhotoID:     req.PhotoID,
		Filename:    filename,
		StoragePath: req.StoragePath,
		UploadedBy:  userID,
		UploadedAt:  time.Now().UTC(),
	})
	if err != nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "could not reject photo",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ConfirmResponse{
		PhotoID: req.PhotoID,
		Status:  string(models.StatusPending),
	})
}
