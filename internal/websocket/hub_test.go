package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"signage-service/internal/metrics"
	"signage-service/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlaylist() models.PlaylistResponse {
	return models.PlaylistResponse{
		ID:   7,
		Name: "Lobby loop",
		Items: []models.PlaylistItemResponse{
			{ID: 1, Position: 0, DurationSeconds: 10, Media: models.MediaResponse{ID: 3, Name: "welcome.png", URL: "http://minio/m/welcome.png", Tags: []string{"image"}}},
			{ID: 2, Position: 1, DurationSeconds: 30, Media: models.MediaResponse{ID: 4, Name: "promo.mp4", URL: "http://minio/m/promo.mp4", Tags: []string{}}},
		},
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func register(t *testing.T, h *Hub, conn Conn, key string) {
	t.Helper()
	h.HandleMessage(context.Background(), conn, []byte(`{"type":"PLAYER_REGISTER","payload":{"deviceKey":"`+key+`"}}`))
	got, ok := h.Registry().Lookup(key)
	require.True(t, ok)
	require.Same(t, conn, got)
}

func TestHub_DispatchWithNoRegisteredTargets(t *testing.T) {
	h := NewHub(nil, nil, nil)

	result, err := h.Dispatch([]string{"a", "b"}, NewLoadPlaylistMessage(samplePlaylist(), "x"))

	require.NoError(t, err)
	assert.Zero(t, result.DeliveredCount())
	assert.Equal(t, []string{"a", "b"}, result.Missing)

	empty, err := h.Dispatch(nil, NewLoadPlaylistMessage(samplePlaylist(), "x"))
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, empty)
}

func TestHub_DispatchOnlyReachesRegisteredOpenConnections(t *testing.T) {
	tests := []struct {
		name          string
		targets       []string
		wantDelivered []string
	}{
		{name: "in registration order", targets: []string{"a", "b", "c", "d"}, wantDelivered: []string{"a"}},
		{name: "reversed", targets: []string{"d", "c", "b", "a"}, wantDelivered: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHub(nil, nil, nil)
			open := newFakeConn("open")
			closed := newFakeConn("closed")
			failing := newFakeConn("failing")
			failing.sendErr = errSendFailed

			register(t, h, open, "a")
			register(t, h, closed, "b")
			register(t, h, failing, "c")
			require.NoError(t, closed.Close())

			result, err := h.Dispatch(tt.targets, NewLoadPlaylistMessage(samplePlaylist(), "x"))

			require.NoError(t, err)
			assert.Equal(t, tt.wantDelivered, result.Delivered)
			assert.Equal(t, []string{"b"}, result.Skipped)
			assert.Equal(t, []string{"c"}, result.Failed)
			assert.Equal(t, []string{"d"}, result.Missing)
			assert.Len(t, open.Frames(), 1)
			assert.Empty(t, closed.Frames())
		})
	}
}

func TestHub_DispatchSendsIdenticalLoadPlaylistFrame(t *testing.T) {
	h := NewHub(nil, nil, nil)
	a, b := newFakeConn("A"), newFakeConn("B")
	register(t, h, a, "A")
	register(t, h, b, "B")

	playlist := samplePlaylist()
	result, err := h.Dispatch([]string{"A", "B", "C"}, NewLoadPlaylistMessage(playlist, "x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, result.Delivered)
	assert.Equal(t, []string{"C"}, result.Missing)

	expected, err := json.Marshal(map[string]interface{}{
		"type": "LOAD_PLAYLIST",
		"payload": map[string]interface{}{
			"playlist":    playlist,
			"broadcastId": "x",
		},
	})
	require.NoError(t, err)

	for _, conn := range []*fakeConn{a, b} {
		frames := conn.Frames()
		require.Len(t, frames, 1, conn.ID())
		assert.JSONEq(t, string(expected), string(frames[0]))
	}
	assert.Equal(t, a.Frames()[0], b.Frames()[0])
}

func TestHub_DispatchCollapsesDuplicateKeys(t *testing.T) {
	h := NewHub(nil, nil, nil)
	a := newFakeConn("A")
	register(t, h, a, "A")

	result, err := h.Dispatch([]string{"A", "A", "A"}, NewLoadPlaylistMessage(samplePlaylist(), "x"))

	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, result.Delivered)
	assert.Len(t, a.Frames(), 1)
}

func TestHub_DispatchRecordsOutcomeMetrics(t *testing.T) {
	m := metrics.NewWebSocketMetrics(prometheus.NewRegistry())
	h := NewHub(nil, nil, m)
	register(t, h, newFakeConn("A"), "A")

	_, err := h.Dispatch([]string{"A", "missing"}, NewLoadPlaylistMessage(samplePlaylist(), "x"))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchOutcomes.WithLabelValues(metrics.OutcomeDelivered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchOutcomes.WithLabelValues(metrics.OutcomeMissing)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegisteredScreens))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InboundMessages.WithLabelValues("PLAYER_REGISTER")))
}

func TestHub_PlayerStatusLeavesRegistryUnchanged(t *testing.T) {
	sink := &fakeStatusSink{}
	h := NewHub(nil, sink, nil)
	a := newFakeConn("A")
	register(t, h, a, "A")

	h.HandleMessage(context.Background(), a, []byte(`{"type":"PLAYER_STATUS","payload":{"deviceKey":"A","status":{"playing":3}}}`))

	got, ok := h.Registry().Lookup("A")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 1, h.Registry().Count())
	assert.Empty(t, a.Frames())
	assert.Equal(t, []statusRecord{{deviceKey: "A", status: `{"playing":3}`}}, sink.Records())
}

func TestHub_PlayerStatusFromUnregisteredConnectionIsForwarded(t *testing.T) {
	sink := &fakeStatusSink{}
	h := NewHub(nil, sink, nil)
	a := newFakeConn("A")

	h.HandleMessage(context.Background(), a, []byte(`{"type":"PLAYER_STATUS","payload":{"deviceKey":"A"}}`))

	assert.Equal(t, 0, h.Registry().Count())
	assert.Equal(t, []statusRecord{{deviceKey: "A", status: "null"}}, sink.Records())
}

func TestHub_ProtocolErrorsKeepConnectionRegistered(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantCode string
	}{
		{name: "not json", frame: `{"type":`, wantCode: ErrCodeInvalidMessage},
		{name: "json array", frame: `[1,2,3]`, wantCode: ErrCodeInvalidMessage},
		{name: "unknown type", frame: `{"type":"REBOOT"}`, wantCode: ErrCodeUnknownType},
		{name: "outbound type", frame: `{"type":"LOAD_PLAYLIST","payload":{}}`, wantCode: ErrCodeUnknownType},
		{name: "register without key", frame: `{"type":"PLAYER_REGISTER","payload":{}}`, wantCode: ErrCodeMissingDeviceKey},
		{name: "register without payload", frame: `{"type":"PLAYER_REGISTER"}`, wantCode: ErrCodeMissingDeviceKey},
		{name: "register bad payload", frame: `{"type":"PLAYER_REGISTER","payload":"A"}`, wantCode: ErrCodeInvalidMessage},
		{name: "status without key", frame: `{"type":"PLAYER_STATUS","payload":{"status":1}}`, wantCode: ErrCodeMissingDeviceKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHub(nil, &fakeStatusSink{}, nil)
			a := newFakeConn("A")
			register(t, h, a, "A")

			require.NotPanics(t, func() {
				h.HandleMessage(context.Background(), a, []byte(tt.frame))
			})

			payload, ok := a.lastError()
			require.True(t, ok, "expected an ERROR frame")
			assert.Equal(t, tt.wantCode, payload.Code)
			assert.True(t, a.IsOpen())
			got, ok := h.Registry().Lookup("A")
			require.True(t, ok)
			assert.Same(t, a, got)
		})
	}
}

func TestHub_RunAppliesPresenceChanges(t *testing.T) {
	store := newFakePresenceStore()
	h := NewHub(store, nil, nil)
	go h.Run()
	defer h.Stop()

	a := newFakeConn("A")
	require.NoError(t, h.Attach(a))
	register(t, h, a, "screen-1")

	require.Eventually(t, func() bool {
		online, known := store.Online("screen-1")
		return known && online
	}, time.Second, 10*time.Millisecond)

	h.Unregister(a)

	require.Eventually(t, func() bool {
		online, known := store.Online("screen-1")
		return known && !online
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, h.ConnectionCount())
}

func TestHub_SupersededConnectionCloseDoesNotMarkOffline(t *testing.T) {
	store := newFakePresenceStore()
	h := NewHub(store, nil, nil)
	go h.Run()
	defer h.Stop()

	a, b := newFakeConn("A"), newFakeConn("B")
	register(t, h, a, "screen-1")
	register(t, h, b, "screen-1")
	h.Unregister(a)

	require.Eventually(t, func() bool {
		online, known := store.Online("screen-1")
		return known && online
	}, time.Second, 10*time.Millisecond)

	store.mu.Lock()
	for _, c := range store.history {
		assert.True(t, c.Online, "unexpected offline update %+v", c)
	}
	store.mu.Unlock()
}

func TestHub_StopClosesConnectionsAndFlushesOffline(t *testing.T) {
	store := newFakePresenceStore()
	h := NewHub(store, nil, nil)
	go h.Run()

	a := newFakeConn("A")
	require.NoError(t, h.Attach(a))
	register(t, h, a, "screen-1")

	h.Stop()

	assert.False(t, a.IsOpen())
	assert.Equal(t, 0, h.Registry().Count())
	online, known := store.Online("screen-1")
	assert.True(t, known)
	assert.False(t, online)
}

func TestHub_RejectsConnectionsAfterStop(t *testing.T) {
	store := newFakePresenceStore()
	h := NewHub(store, nil, nil)
	go h.Run()

	a := newFakeConn("A")
	require.NoError(t, h.Attach(a))
	register(t, h, a, "screen-1")
	h.Stop()

	late := newFakeConn("B")
	assert.ErrorIs(t, h.Attach(late), ErrHubStopped)
	assert.Equal(t, 0, h.ConnectionCount())

	h.HandleMessage(context.Background(), late, []byte(`{"type":"PLAYER_REGISTER","payload":{"deviceKey":"screen-2"}}`))
	_, ok := h.Registry().Lookup("screen-2")
	assert.False(t, ok)
	assert.Equal(t, 0, h.Registry().Count())

	_, known := store.Online("screen-2")
	assert.False(t, known)
	online, known := store.Online("screen-1")
	assert.True(t, known)
	assert.False(t, online)
}

func TestPresenceQueue_CoalescesPerKey(t *testing.T) {
	q := newPresenceQueue()
	q.push(PresenceChange{DeviceKey: "a", Online: true})
	q.push(PresenceChange{DeviceKey: "b", Online: true})
	q.push(PresenceChange{DeviceKey: "a", Online: false})

	assert.Equal(t, []PresenceChange{
		{DeviceKey: "a", Online: false},
		{DeviceKey: "b", Online: true},
	}, q.drain())
	assert.Nil(t, q.drain())
}
