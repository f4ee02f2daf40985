package websocket

import (
	"errors"
	"sort"
	"sync"
)

var ErrEmptyDeviceKey = errors.New("device key is required")

// Conn is a live screen connection as seen by the registry and dispatcher.
type Conn interface {
	ID() string
	Send(data []byte) error
	IsOpen() bool
	Close() error
}

// PresenceChange is emitted for every registry mutation that affects whether
// a device key is reachable.
type PresenceChange struct {
	DeviceKey string
	Online    bool
}

// Registry maps device keys to the connection that most recently announced
// them. A reverse index lets Unregister find a connection's keys without
// scanning.
type Registry struct {
	mu     sync.RWMutex
	byKey  map[string]Conn
	byConn map[Conn]map[string]struct{}
	notify func(PresenceChange)
}

// NewRegistry creates an empty registry. notify, if non-nil, is called with
// the registry lock held, so it must not block or call back into the registry.
func NewRegistry(notify func(PresenceChange)) *Registry {
	return &Registry{
		byKey:  make(map[string]Conn),
		byConn: make(map[Conn]map[string]struct{}),
		notify: notify,
	}
}

// Register maps deviceKey to conn, replacing any previous mapping. The
// previous connection is left open.
func (r *Registry) Register(deviceKey string, conn Conn) error {
	if deviceKey == "" {
		return ErrEmptyDeviceKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byKey[deviceKey]; ok && prev != conn {
		r.dropReverse(prev, deviceKey)
	}
	r.byKey[deviceKey] = conn

	keys, ok := r.byConn[conn]
	if !ok {
		keys = make(map[string]struct{})
		r.byConn[conn] = keys
	}
	keys[deviceKey] = struct{}{}

	r.emit(PresenceChange{DeviceKey: deviceKey, Online: true})
	return nil
}

// Unregister removes every key currently mapped to conn and returns them in
// sorted order. Keys since taken over by another connection are untouched.
func (r *Registry) Unregister(conn Conn) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.byConn[conn]
	if !ok {
		return nil
	}
	delete(r.byConn, conn)

	removed := make([]string, 0, len(keys))
	for k := range keys {
		if r.byKey[k] == conn {
			delete(r.byKey, k)
			removed = append(removed, k)
		}
	}
	sort.Strings(removed)

	for _, k := range removed {
		r.emit(PresenceChange{DeviceKey: k, Online: false})
	}
	return removed
}

func (r *Registry) Lookup(deviceKey string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byKey[deviceKey]
	return conn, ok
}

// KeysFor returns the device keys currently mapped to conn.
func (r *Registry) KeysFor(conn Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byConn[conn]))
	for k := range r.byConn[conn] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) DeviceKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

func (r *Registry) dropReverse(conn Conn, deviceKey string) {
	keys := r.byConn[conn]
	delete(keys, deviceKey)
	if len(keys) == 0 {
		delete(r.byConn, conn)
	}
}

func (r *Registry) emit(change PresenceChange) {
	if r.notify != nil {
		r.notify(change)
	}
}
