package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"signage-service/internal/config"
	"signage-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, content string, status int, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func remoteTagger(url string) *TaggingService {
	return NewTaggingService(config.AIConfig{BaseURL: url, APIKey: "test-key", Model: "test-model", Timeout: time.Second})
}

func TestFallbackTags(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		want        []string
	}{
		{name: "image with words", file: "Summer_Sale-2024 banner.PNG", contentType: "image/png", want: []string{"image", "summer", "sale", "banner"}},
		{name: "stop words and numbers dropped", file: "the final copy 001.mp4", contentType: "video/mp4", want: []string{"video"}},
		{name: "duplicates collapse", file: "menu-menu-MENU.jpg", contentType: "image/jpeg", want: []string{"image", "menu"}},
		{name: "no content type", file: "lobby.png", contentType: "", want: []string{"lobby"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackTags(tt.file, tt.contentType))
		})
	}
}

func TestTaggingService_WithoutKeyUsesFallback(t *testing.T) {
	svc := NewTaggingService(config.AIConfig{})

	tags, err := svc.TagMedia(context.Background(), "welcome.png", "image/png")

	require.NoError(t, err)
	assert.Equal(t, []string{"image", "welcome"}, tags)
}

func TestTaggingService_RemoteTags(t *testing.T) {
	var calls int32
	srv := completionServer(t, `{"tags":["Lobby"," welcome ","lobby"]}`, http.StatusOK, &calls)

	tags, err := remoteTagger(srv.URL).TagMedia(context.Background(), "welcome.png", "image/png")

	require.NoError(t, err)
	assert.Equal(t, []string{"lobby", "welcome"}, tags)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTaggingService_RemoteFailureFallsBackAndTripsBreaker(t *testing.T) {
	var calls int32
	srv := completionServer(t, "", http.StatusInternalServerError, &calls)
	svc := remoteTagger(srv.URL)

	for i := 0; i < 5; i++ {
		tags, err := svc.TagMedia(context.Background(), "welcome.png", "image/png")
		require.NoError(t, err)
		assert.Equal(t, []string{"image", "welcome"}, tags)
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "breaker should open after three failures")
}

func TestTaggingService_RemoteSuggestionFiltersUnknownMedia(t *testing.T) {
	var calls int32
	srv := completionServer(t, `{"name":"Morning","items":[{"mediaId":2,"durationSeconds":20},{"mediaId":99},{"mediaId":1}]}`, http.StatusOK, &calls)
	library := []models.Media{testMedia(1, "a.png"), testMedia(2, "b.png")}

	s, err := remoteTagger(srv.URL).SuggestPlaylist(context.Background(), "morning", library, 5)

	require.NoError(t, err)
	assert.Equal(t, "Morning", s.Name)
	assert.Equal(t, []models.PlaylistItemInput{
		{MediaID: 2, DurationSeconds: 20},
		{MediaID: 1, DurationSeconds: defaultItemDuration},
	}, s.Items)
}

func TestTaggingService_SuggestFallbackWithoutMatches(t *testing.T) {
	svc := NewTaggingService(config.AIConfig{})
	library := []models.Media{testMedia(2, "zebra.png"), testMedia(1, "apple.png"), testMedia(3, "mango.png")}

	s, err := svc.SuggestPlaylist(context.Background(), "quarterly results", library, 2)

	require.NoError(t, err)
	assert.Equal(t, []models.PlaylistItemInput{
		{MediaID: 1, DurationSeconds: defaultItemDuration},
		{MediaID: 3, DurationSeconds: defaultItemDuration},
	}, s.Items)
}

func TestTaggingService_SuggestEmptyLibrary(t *testing.T) {
	svc := NewTaggingService(config.AIConfig{})

	s, err := svc.SuggestPlaylist(context.Background(), "", nil, 0)

	require.NoError(t, err)
	assert.Equal(t, "Suggested playlist", s.Name)
	assert.Empty(t, s.Items)
}
