package services

import (
	"context"
	"testing"

	"signage-service/internal/adapters/kafka"
	"signage-service/internal/config"
	"signage-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlaylistService(media ...models.Media) (*PlaylistService, *recordingPublisher) {
	mediaRepo := newFakeMediaRepo(media...)
	events := &recordingPublisher{}
	svc := NewPlaylistService(newFakePlaylistRepo(mediaRepo), mediaRepo, NewTaggingService(config.AIConfig{}), events)
	return svc, events
}

func TestPlaylistService_SetItemsOrdersAndResolvesMedia(t *testing.T) {
	svc, events := newTestPlaylistService(testMedia(1, "a.png"), testMedia(2, "b.png"))
	ctx := context.Background()

	created, err := svc.CreatePlaylist(ctx, &models.CreatePlaylistRequest{Name: "Lobby"})
	require.NoError(t, err)

	got, err := svc.SetItems(ctx, created.ID, &models.SetPlaylistItemsRequest{Items: []models.PlaylistItemInput{
		{MediaID: 2, DurationSeconds: 15},
		{MediaID: 1},
	}})
	require.NoError(t, err)

	require.Len(t, got.Items, 2)
	assert.Equal(t, 0, got.Items[0].Position)
	assert.Equal(t, uint(2), got.Items[0].Media.ID)
	assert.Equal(t, 15, got.Items[0].DurationSeconds)
	assert.Equal(t, "b.png", got.Items[0].Media.Name)
	assert.Equal(t, 1, got.Items[1].Position)
	assert.Equal(t, defaultItemDuration, got.Items[1].DurationSeconds)
	assert.Equal(t, []string{kafka.EventPlaylistUpdated}, events.Types())
}

func TestPlaylistService_SetItemsRejectsUnknownMedia(t *testing.T) {
	svc, _ := newTestPlaylistService(testMedia(1, "a.png"))
	ctx := context.Background()
	created, err := svc.CreatePlaylist(ctx, &models.CreatePlaylistRequest{Name: "Lobby"})
	require.NoError(t, err)

	_, err = svc.SetItems(ctx, created.ID, &models.SetPlaylistItemsRequest{Items: []models.PlaylistItemInput{{MediaID: 99}}})

	assert.ErrorIs(t, err, ErrMediaNotFound)
}

func TestPlaylistService_NotFound(t *testing.T) {
	svc, _ := newTestPlaylistService()
	ctx := context.Background()

	_, err := svc.GetPlaylistWithItems(ctx, 5)
	assert.ErrorIs(t, err, ErrPlaylistNotFound)

	_, err = svc.SetItems(ctx, 5, &models.SetPlaylistItemsRequest{})
	assert.ErrorIs(t, err, ErrPlaylistNotFound)

	assert.ErrorIs(t, svc.DeletePlaylist(ctx, 5), ErrPlaylistNotFound)
}

func TestPlaylistService_UpdateAndList(t *testing.T) {
	svc, _ := newTestPlaylistService()
	ctx := context.Background()
	created, err := svc.CreatePlaylist(ctx, &models.CreatePlaylistRequest{Name: "Lobby"})
	require.NoError(t, err)

	desc := "Shown at reception"
	updated, err := svc.UpdatePlaylist(ctx, created.ID, &models.UpdatePlaylistRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Lobby", updated.Name)
	assert.Equal(t, desc, updated.Description)

	list, err := svc.ListPlaylists(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, desc, list[0].Description)
}

func TestPlaylistService_SuggestUsesLibrary(t *testing.T) {
	svc, _ := newTestPlaylistService(
		testMedia(1, "menu-breakfast.png", "breakfast", "menu"),
		testMedia(2, "safety-briefing.mp4", "safety"),
		testMedia(3, "menu-lunch.png", "lunch", "menu"),
	)

	suggestion, err := svc.Suggest(context.Background(), &models.SuggestPlaylistRequest{Prompt: "cafe menu", MaxItems: 5})

	require.NoError(t, err)
	ids := make([]uint, 0, len(suggestion.Items))
	for _, it := range suggestion.Items {
		ids = append(ids, it.MediaID)
	}
	assert.Equal(t, []uint{1, 3}, ids)
	assert.Equal(t, "cafe menu", suggestion.Name)
}
