package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"signage-service/internal/metrics"
)

var (
	ErrClientDisconnected = errors.New("client disconnected")
	ErrSendBufferFull     = errors.New("send buffer full")
	ErrHubStopped         = errors.New("hub stopped")
)

const storeTimeout = 5 * time.Second

// PresenceStore persists whether a device key is currently connected.
type PresenceStore interface {
	UpdateScreenOnlineStatus(ctx context.Context, deviceKey string, online bool) error
}

// StatusSink receives PLAYER_STATUS payloads.
type StatusSink interface {
	RecordStatus(ctx context.Context, deviceKey string, status json.RawMessage) error
}

// DispatchResult lists, per outcome, the device keys of one dispatch.
type DispatchResult struct {
	Delivered []string `json:"delivered"`
	Missing   []string `json:"missing"`
	Skipped   []string `json:"skipped"`
	Failed    []string `json:"failed"`
}

func (r DispatchResult) DeliveredCount() int {
	return len(r.Delivered)
}

// Hub owns the screen registry, tracks open connections and routes inbound
// player messages. Presence writes are applied from Run.
type Hub struct {
	registry *Registry
	presence PresenceStore
	status   StatusSink
	metrics  *metrics.WebSocketMetrics
	queue    *presenceQueue

	connMu   sync.Mutex
	conns    map[Conn]struct{}
	stopping bool

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// NewHub creates a hub. Any of presence, status and m may be nil.
func NewHub(presence PresenceStore, status StatusSink, m *metrics.WebSocketMetrics) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		presence: presence,
		status:   status,
		metrics:  m,
		queue:    newPresenceQueue(),
		conns:    make(map[Conn]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	h.registry = NewRegistry(h.queue.push)
	return h
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run applies queued presence changes until Stop is called.
func (h *Hub) Run() {
	if !h.running.CompareAndSwap(false, true) {
		return
	}
	defer close(h.done)

	slog.Info("WebSocket hub started")
	for {
		select {
		case <-h.queue.signal:
			h.applyPresence(h.queue.drain())
		case <-h.ctx.Done():
			h.applyPresence(h.queue.drain())
			slog.Info("WebSocket hub stopped")
			return
		}
	}
}

// Stop closes every open connection, flushes the resulting offline updates
// and stops Run. Later Attach calls and registrations are rejected.
func (h *Hub) Stop() {
	h.connMu.Lock()
	h.stopping = true
	conns := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.connMu.Unlock()

	for _, c := range conns {
		h.Unregister(c)
		if err := c.Close(); err != nil {
			slog.Debug("Error closing connection during shutdown", "connID", c.ID(), "error", err)
		}
	}

	h.cancel()
	if !h.running.Load() {
		h.applyPresence(h.queue.drain())
		return
	}
	select {
	case <-h.done:
	case <-time.After(10 * time.Second):
		slog.Warn("Timeout waiting for hub to stop")
	}
}

// Attach starts tracking an open connection. It returns ErrHubStopped once
// Stop has been called; the caller owns closing conn in that case.
func (h *Hub) Attach(conn Conn) error {
	h.connMu.Lock()
	if h.stopping {
		h.connMu.Unlock()
		return ErrHubStopped
	}
	h.conns[conn] = struct{}{}
	n := len(h.conns)
	h.connMu.Unlock()

	if h.metrics != nil {
		h.metrics.ActiveConnections.Set(float64(n))
	}
	slog.Debug("Connection attached", "connID", conn.ID(), "connections", n)
	return nil
}

// Unregister forgets conn and every device key it holds. Safe to call more
// than once.
func (h *Hub) Unregister(conn Conn) {
	h.connMu.Lock()
	delete(h.conns, conn)
	n := len(h.conns)
	h.connMu.Unlock()

	keys := h.registry.Unregister(conn)
	if h.metrics != nil {
		h.metrics.ActiveConnections.Set(float64(n))
		h.metrics.RegisteredScreens.Set(float64(h.registry.Count()))
	}
	if len(keys) > 0 {
		slog.Info("Screen connection closed", "connID", conn.ID(), "deviceKeys", keys)
	}
}

func (h *Hub) ConnectionCount() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return len(h.conns)
}

// Dispatch sends msg to each device key's current connection. The message is
// serialized once. Targets are independent: a missing, closed or failing
// target never prevents delivery to the others. Duplicate keys are sent once.
func (h *Hub) Dispatch(deviceKeys []string, msg Message) (DispatchResult, error) {
	var result DispatchResult

	data, err := json.Marshal(msg)
	if err != nil {
		return result, fmt.Errorf("marshal %s: %w", msg.Type, err)
	}

	seen := make(map[string]struct{}, len(deviceKeys))
	for _, key := range deviceKeys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		conn, ok := h.registry.Lookup(key)
		switch {
		case !ok:
			result.Missing = append(result.Missing, key)
			h.countOutcome(metrics.OutcomeMissing)
		case !conn.IsOpen():
			result.Skipped = append(result.Skipped, key)
			h.countOutcome(metrics.OutcomeSkipped)
		default:
			if err := conn.Send(data); err != nil {
				slog.Warn("Dispatch to screen failed", "deviceKey", key, "connID", conn.ID(), "type", msg.Type, "error", err)
				result.Failed = append(result.Failed, key)
				h.countOutcome(metrics.OutcomeFailed)
				continue
			}
			result.Delivered = append(result.Delivered, key)
			h.countOutcome(metrics.OutcomeDelivered)
		}
	}

	slog.Debug("Dispatch finished",
		"type", msg.Type,
		"targets", len(seen),
		"delivered", len(result.Delivered),
		"missing", len(result.Missing),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed))
	return result, nil
}

// HandleMessage processes one inbound frame from conn. Protocol errors are
// answered with an ERROR frame; the connection stays open.
func (h *Hub) HandleMessage(ctx context.Context, conn Conn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic while handling message", "connID", conn.ID(), "panic", r)
		}
	}()

	var in inboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		h.countInbound("invalid")
		slog.Warn("Failed to unmarshal message", "connID", conn.ID(), "error", err)
		h.replyError(conn, ErrCodeInvalidMessage, "message must be a JSON object with a type")
		return
	}
	if in.Type.IsInbound() {
		h.countInbound(in.Type.String())
	} else {
		h.countInbound("unknown")
	}

	switch in.Type {
	case MessageTypePlayerRegister:
		h.handleRegister(conn, in.Payload)
	case MessageTypePlayerStatus:
		h.handleStatus(ctx, conn, in.Payload)
	default:
		slog.Warn("Unknown message type", "connID", conn.ID(), "type", in.Type)
		h.replyError(conn, ErrCodeUnknownType, fmt.Sprintf("unsupported message type %q", in.Type))
	}
}

func (h *Hub) handleRegister(conn Conn, raw json.RawMessage) {
	var p RegisterPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			h.replyError(conn, ErrCodeInvalidMessage, "invalid PLAYER_REGISTER payload")
			return
		}
	}

	h.connMu.Lock()
	if h.stopping {
		h.connMu.Unlock()
		slog.Debug("Ignoring registration during shutdown", "connID", conn.ID(), "deviceKey", p.DeviceKey)
		return
	}
	err := h.registry.Register(p.DeviceKey, conn)
	h.connMu.Unlock()
	if err != nil {
		slog.Warn("Rejected registration", "connID", conn.ID(), "error", err)
		h.replyError(conn, ErrCodeMissingDeviceKey, "deviceKey is required")
		return
	}
	if h.metrics != nil {
		h.metrics.RegisteredScreens.Set(float64(h.registry.Count()))
	}
	slog.Info("Screen registered", "deviceKey", p.DeviceKey, "connID", conn.ID())
}

func (h *Hub) handleStatus(ctx context.Context, conn Conn, raw json.RawMessage) {
	var p StatusPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			h.replyError(conn, ErrCodeInvalidMessage, "invalid PLAYER_STATUS payload")
			return
		}
	}
	if p.DeviceKey == "" {
		h.replyError(conn, ErrCodeMissingDeviceKey, "deviceKey is required")
		return
	}

	current, ok := h.registry.Lookup(p.DeviceKey)
	registered := ok && current == conn
	slog.Info("Player status", "deviceKey", p.DeviceKey, "connID", conn.ID(), "registered", registered, "status", string(p.Status))

	if h.status == nil {
		return
	}
	status := p.Status
	if len(status) == 0 {
		status = json.RawMessage("null")
	}
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := h.status.RecordStatus(sctx, p.DeviceKey, status); err != nil {
		slog.Warn("Failed to record player status", "deviceKey", p.DeviceKey, "error", err)
	}
}

func (h *Hub) replyError(conn Conn, code, message string) {
	data, err := json.Marshal(NewErrorMessage(code, message))
	if err != nil {
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Debug("Failed to send error frame", "connID", conn.ID(), "code", code, "error", err)
	}
}

func (h *Hub) applyPresence(changes []PresenceChange) {
	if h.presence == nil {
		return
	}
	for _, change := range changes {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		err := h.presence.UpdateScreenOnlineStatus(ctx, change.DeviceKey, change.Online)
		cancel()

		result := "ok"
		if err != nil {
			result = "error"
			slog.Warn("Presence update not applied", "deviceKey", change.DeviceKey, "online", change.Online, "error", err)
		}
		if h.metrics != nil {
			h.metrics.PresenceUpdates.WithLabelValues(result).Inc()
		}
	}
}

func (h *Hub) countOutcome(outcome string) {
	if h.metrics != nil {
		h.metrics.DispatchOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (h *Hub) countInbound(msgType string) {
	if h.metrics != nil {
		h.metrics.InboundMessages.WithLabelValues(msgType).Inc()
	}
}
