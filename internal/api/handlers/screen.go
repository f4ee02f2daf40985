package handlers

import (
	"context"
	"net/http"

	"signage-service/internal/models"

	"github.com/gin-gonic/gin"
)

type ScreenAPI interface {
	CreateScreen(ctx context.Context, req *models.CreateScreenRequest) (*models.ScreenResponse, error)
	ListScreens(ctx context.Context) ([]models.ScreenResponse, error)
	ListOnlineScreens(ctx context.Context) ([]models.ScreenResponse, error)
	GetScreen(ctx context.Context, id uint) (*models.ScreenResponse, error)
	UpdateScreen(ctx context.Context, id uint, req *models.UpdateScreenRequest) (*models.ScreenResponse, error)
	RotateDeviceKey(ctx context.Context, id uint) (*models.ScreenResponse, error)
	DeleteScreen(ctx context.Context, id uint) error
}

type ScreenHandler struct {
	screenService ScreenAPI
}

func NewScreenHandler(screenService ScreenAPI) *ScreenHandler {
	return &ScreenHandler{screenService: screenService}
}

// CreateScreen godoc
// @Summary Register a screen
// @Description Creates a screen and issues the device key its player must announce
// @Tags screens
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateScreenRequest true "Screen data"
// @Success 201 {object} models.ScreenResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /screens [post]
func (h *ScreenHandler) CreateScreen(c *gin.Context) {
	var req models.CreateScreenRequest
	if !bindJSON(c, &req) {
		return
	}
	screen, err := h.screenService.CreateScreen(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, screen)
}

// ListScreens godoc
// @Summary List screens
// @Tags screens
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ScreenResponse
// @Router /screens [get]
func (h *ScreenHandler) ListScreens(c *gin.Context) {
	screens, err := h.screenService.ListScreens(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, screens)
}

// ListOnlineScreens godoc
// @Summary List screens with a live connection
// @Tags screens
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ScreenResponse
// @Router /screens/online [get]
func (h *ScreenHandler) ListOnlineScreens(c *gin.Context) {
	screens, err := h.screenService.ListOnlineScreens(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, screens)
}

// GetScreen godoc
// @Summary Get a screen
// @Tags screens
// @Produce json
// @Security BearerAuth
// @Param id path int true "Screen ID"
// @Success 200 {object} models.ScreenResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /screens/{id} [get]
func (h *ScreenHandler) GetScreen(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	screen, err := h.screenService.GetScreen(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, screen)
}

// UpdateScreen godoc
// @Summary Update a screen
// @Tags screens
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Screen ID"
// @Param request body models.UpdateScreenRequest true "Fields to change"
// @Success 200 {object} models.ScreenResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /screens/{id} [put]
func (h *ScreenHandler) UpdateScreen(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.UpdateScreenRequest
	if !bindJSON(c, &req) {
		return
	}
	screen, err := h.screenService.UpdateScreen(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, screen)
}

// RotateDeviceKey godoc
// @Summary Issue a new device key
// @Description Players announcing the old key can no longer be targeted
// @Tags screens
// @Produce json
// @Security BearerAuth
// @Param id path int true "Screen ID"
// @Success 200 {object} models.ScreenResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /screens/{id}/device-key [post]
func (h *ScreenHandler) RotateDeviceKey(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	screen, err := h.screenService.RotateDeviceKey(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, screen)
}

// DeleteScreen godoc
// @Summary Delete a screen
// @Tags screens
// @Security BearerAuth
// @Param id path int true "Screen ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /screens/{id} [delete]
func (h *ScreenHandler) DeleteScreen(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.screenService.DeleteScreen(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
