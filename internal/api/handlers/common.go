package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"signage-service/internal/models"
	"signage-service/internal/services"
	"signage-service/internal/utils"
	"signage-service/pkg/response"

	"github.com/gin-gonic/gin"
)

func abortWithError(c *gin.Context, status int, details string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Code:    status,
		Message: response.Message(status),
		Details: details,
	})
}

// statusFor maps service sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrScreenNotFound),
		errors.Is(err, services.ErrMediaNotFound),
		errors.Is(err, services.ErrPlaylistNotFound),
		errors.Is(err, services.ErrBroadcastNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrTaggingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err using statusFor. Internal errors are logged and
// their details hidden from the caller.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		abortWithError(c, status, "An unexpected error occurred.")
		return
	}
	abortWithError(c, status, err.Error())
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}
