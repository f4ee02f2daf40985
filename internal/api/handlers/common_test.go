package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"signage-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidRequest, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrScreenNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", services.ErrPlaylistNotFound), http.StatusNotFound},
		{services.ErrUserAlreadyExists, http.StatusConflict},
		{services.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{services.ErrTaggingUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Pinger
		want   int
		body   string
	}{
		{
			name:   "all healthy",
			checks: map[string]Pinger{"database": pingFunc(func(context.Context) error { return nil })},
			want:   http.StatusOK,
			body:   `{"status":"ok","checks":{"database":"ok"}}`,
		},
		{
			name: "redis down",
			checks: map[string]Pinger{
				"database": pingFunc(func(context.Context) error { return nil }),
				"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			want: http.StatusServiceUnavailable,
			body: `{"status":"degraded","checks":{"database":"ok","redis":"connection refused"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/readyz", NewHealthHandler(tt.checks, nil).Ready)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.want, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}
