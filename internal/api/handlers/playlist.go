package handlers

import (
	"context"
	"net/http"

	"signage-service/internal/models"

	"github.com/gin-gonic/gin"
)

type PlaylistAPI interface {
	CreatePlaylist(ctx context.Context, req *models.CreatePlaylistRequest) (*models.PlaylistResponse, error)
	ListPlaylists(ctx context.Context) ([]models.PlaylistResponse, error)
	GetPlaylistWithItems(ctx context.Context, id uint) (*models.PlaylistResponse, error)
	UpdatePlaylist(ctx context.Context, id uint, req *models.UpdatePlaylistRequest) (*models.PlaylistResponse, error)
	DeletePlaylist(ctx context.Context, id uint) error
	SetItems(ctx context.Context, id uint, req *models.SetPlaylistItemsRequest) (*models.PlaylistResponse, error)
	Suggest(ctx context.Context, req *models.SuggestPlaylistRequest) (*models.PlaylistSuggestion, error)
}

type PlaylistHandler struct {
	playlistService PlaylistAPI
}

func NewPlaylistHandler(playlistService PlaylistAPI) *PlaylistHandler {
	return &PlaylistHandler{playlistService: playlistService}
}

// CreatePlaylist godoc
// @Summary Create a playlist
// @Tags playlists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePlaylistRequest true "Playlist data"
// @Success 201 {object} models.PlaylistResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /playlists [post]
func (h *PlaylistHandler) CreatePlaylist(c *gin.Context) {
	var req models.CreatePlaylistRequest
	if !bindJSON(c, &req) {
		return
	}
	playlist, err := h.playlistService.CreatePlaylist(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, playlist)
}

// ListPlaylists godoc
// @Summary List playlists
// @Tags playlists
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PlaylistResponse
// @Router /playlists [get]
func (h *PlaylistHandler) ListPlaylists(c *gin.Context) {
	playlists, err := h.playlistService.ListPlaylists(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlists)
}

// GetPlaylist godoc
// @Summary Get a playlist with its ordered items
// @Tags playlists
// @Produce json
// @Security BearerAuth
// @Param id path int true "Playlist ID"
// @Success 200 {object} models.PlaylistResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /playlists/{id} [get]
func (h *PlaylistHandler) GetPlaylist(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	playlist, err := h.playlistService.GetPlaylistWithItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// UpdatePlaylist godoc
// @Summary Rename or describe a playlist
// @Tags playlists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Playlist ID"
// @Param request body models.UpdatePlaylistRequest true "Fields to change"
// @Success 200 {object} models.PlaylistResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /playlists/{id} [put]
func (h *PlaylistHandler) UpdatePlaylist(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.UpdatePlaylistRequest
	if !bindJSON(c, &req) {
		return
	}
	playlist, err := h.playlistService.UpdatePlaylist(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// DeletePlaylist godoc
// @Summary Delete a playlist
// @Tags playlists
// @Security BearerAuth
// @Param id path int true "Playlist ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /playlists/{id} [delete]
func (h *PlaylistHandler) DeletePlaylist(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.playlistService.DeletePlaylist(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetItems godoc
// @Summary Replace the items of a playlist
// @Description Items are stored in request order
// @Tags playlists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Playlist ID"
// @Param request body models.SetPlaylistItemsRequest true "Ordered items"
// @Success 200 {object} models.PlaylistResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /playlists/{id}/items [put]
func (h *PlaylistHandler) SetItems(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.SetPlaylistItemsRequest
	if !bindJSON(c, &req) {
		return
	}
	playlist, err := h.playlistService.SetItems(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// SuggestPlaylist godoc
// @Summary Draft a playlist from a prompt
// @Description The draft is returned, not saved
// @Tags playlists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SuggestPlaylistRequest true "Prompt"
// @Success 200 {object} models.PlaylistSuggestion
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /playlists/suggest [post]
func (h *PlaylistHandler) SuggestPlaylist(c *gin.Context) {
	var req models.SuggestPlaylistRequest
	if !bindJSON(c, &req) {
		return
	}
	suggestion, err := h.playlistService.Suggest(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}
