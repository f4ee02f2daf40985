package handlers

import (
	"context"
	"fmt"
	"net/http"

	"signage-service/internal/models"
	"signage-service/internal/services"

	"github.com/gin-gonic/gin"
)

const maxUploadSize = 512 << 20

type MediaAPI interface {
	Upload(ctx context.Context, in services.UploadInput) (*models.MediaResponse, error)
	ListMedia(ctx context.Context) ([]models.MediaResponse, error)
	GetMedia(ctx context.Context, id uint) (*models.MediaResponse, error)
	DeleteMedia(ctx context.Context, id uint) error
}

type MediaHandler struct {
	mediaService MediaAPI
}

func NewMediaHandler(mediaService MediaAPI) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadMedia godoc
// @Summary Upload an image or video
// @Description Stores the file in object storage and tags it
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Media file"
// @Param name formData string false "Display name, defaults to the file name"
// @Success 201 {object} models.MediaResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 415 {object} models.ErrorResponse
// @Router /media [post]
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "file is required")
		return
	}
	if fileHeader.Size > maxUploadSize {
		abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", maxUploadSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "cannot read uploaded file")
		return
	}
	defer file.Close()

	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}

	media, err := h.mediaService.Upload(c.Request.Context(), services.UploadInput{
		Name:        name,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

// ListMedia godoc
// @Summary List media
// @Tags media
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.MediaResponse
// @Router /media [get]
func (h *MediaHandler) ListMedia(c *gin.Context) {
	media, err := h.mediaService.ListMedia(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

// GetMedia godoc
// @Summary Get a media asset
// @Tags media
// @Produce json
// @Security BearerAuth
// @Param id path int true "Media ID"
// @Success 200 {object} models.MediaResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /media/{id} [get]
func (h *MediaHandler) GetMedia(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	media, err := h.mediaService.GetMedia(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

// DeleteMedia godoc
// @Summary Delete a media asset
// @Tags media
// @Security BearerAuth
// @Param id path int true "Media ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /media/{id} [delete]
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.mediaService.DeleteMedia(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
