package handlers

import (
	"context"
	"net/http"
	"strconv"

	"signage-service/internal/models"
	"signage-service/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultBroadcastLimit = 50
	maxBroadcastLimit     = 500
)

type BroadcastAPI interface {
	Broadcast(ctx context.Context, req *models.CreateBroadcastRequest) (*services.BroadcastOutcome, error)
	GetBroadcast(ctx context.Context, id uint) (*models.BroadcastResponse, error)
	ListBroadcasts(ctx context.Context, limit int) ([]models.BroadcastResponse, error)
}

type BroadcastHandler struct {
	broadcastService BroadcastAPI
}

func NewBroadcastHandler(broadcastService BroadcastAPI) *BroadcastHandler {
	return &BroadcastHandler{broadcastService: broadcastService}
}

// CreateBroadcast godoc
// @Summary Push a playlist to screens
// @Description Sends LOAD_PLAYLIST to every listed screen that is connected. Succeeds even when no screen is reachable; the response lists per-screen outcomes.
// @Tags broadcasts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateBroadcastRequest true "Playlist and target screens"
// @Success 201 {object} services.BroadcastOutcome
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Playlist not found"
// @Router /broadcasts [post]
func (h *BroadcastHandler) CreateBroadcast(c *gin.Context) {
	var req models.CreateBroadcastRequest
	if !bindJSON(c, &req) {
		return
	}
	outcome, err := h.broadcastService.Broadcast(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

// GetBroadcast godoc
// @Summary Get a broadcast record
// @Tags broadcasts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Broadcast ID"
// @Success 200 {object} models.BroadcastResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /broadcasts/{id} [get]
func (h *BroadcastHandler) GetBroadcast(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	b, err := h.broadcastService.GetBroadcast(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBroadcasts godoc
// @Summary Recent broadcasts, newest first
// @Tags broadcasts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum records" default(50)
// @Success 200 {array} models.BroadcastResponse
// @Router /broadcasts [get]
func (h *BroadcastHandler) ListBroadcasts(c *gin.Context) {
	limit := defaultBroadcastLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxBroadcastLimit)
	}
	list, err := h.broadcastService.ListBroadcasts(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
