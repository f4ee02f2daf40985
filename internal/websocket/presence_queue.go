package websocket

import "sync"

// presenceQueue coalesces presence changes per device key. Producers never
// block; the consumer always sees the latest state for each key, and keys are
// handed out in the order they first became pending.
type presenceQueue struct {
	mu      sync.Mutex
	pending map[string]bool
	order   []string
	signal  chan struct{}
}

func newPresenceQueue() *presenceQueue {
	return &presenceQueue{
		pending: make(map[string]bool),
		signal:  make(chan struct{}, 1),
	}
}

func (q *presenceQueue) push(change PresenceChange) {
	q.mu.Lock()
	if _, ok := q.pending[change.DeviceKey]; !ok {
		q.order = append(q.order, change.DeviceKey)
	}
	q.pending[change.DeviceKey] = change.Online
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *presenceQueue) drain() []PresenceChange {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return nil
	}
	out := make([]PresenceChange, 0, len(q.order))
	for _, k := range q.order {
		out = append(out, PresenceChange{DeviceKey: k, Online: q.pending[k]})
	}
	q.pending = make(map[string]bool)
	q.order = nil
	return out
}
