package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

type fakeConn struct {
	id      string
	mu      sync.Mutex
	frames  [][]byte
	closed  bool
	sendErr error
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	if f.closed {
		return ErrClientDisconnected
	}
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) Frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.frames))
	copy(out, f.frames)
	return out
}

// lastError decodes the most recent frame as an ERROR message.
func (f *fakeConn) lastError() (ErrorPayload, bool) {
	frames := f.Frames()
	if len(frames) == 0 {
		return ErrorPayload{}, false
	}
	var msg struct {
		Type    MessageType  `json:"type"`
		Payload ErrorPayload `json:"payload"`
	}
	if err := json.Unmarshal(frames[len(frames)-1], &msg); err != nil || msg.Type != MessageTypeError {
		return ErrorPayload{}, false
	}
	return msg.Payload, true
}

var errSendFailed = errors.New("boom")

type fakePresenceStore struct {
	mu      sync.Mutex
	state   map[string]bool
	history []PresenceChange
	err     error
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{state: make(map[string]bool)}
}

func (f *fakePresenceStore) UpdateScreenOnlineStatus(ctx context.Context, deviceKey string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, PresenceChange{DeviceKey: deviceKey, Online: online})
	if f.err != nil {
		return f.err
	}
	f.state[deviceKey] = online
	return nil
}

func (f *fakePresenceStore) Online(deviceKey string) (online, known bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	online, known = f.state[deviceKey]
	return online, known
}

type statusRecord struct {
	deviceKey string
	status    string
}

type fakeStatusSink struct {
	mu      sync.Mutex
	records []statusRecord
}

func (f *fakeStatusSink) RecordStatus(ctx context.Context, deviceKey string, status json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, statusRecord{deviceKey: deviceKey, status: string(status)})
	return nil
}

func (f *fakeStatusSink) Records() []statusRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]statusRecord(nil), f.records...)
}
