package kafka

import (
	"context"
	"encoding/json"
	"time"
)

// Event types written to the events topic.
const (
	EventScreenOnline     = "screen.online"
	EventScreenOffline    = "screen.offline"
	EventScreenStatus     = "screen.status"
	EventBroadcastCreated = "broadcast.created"
	EventMediaUploaded    = "media.uploaded"
	EventPlaylistUpdated  = "playlist.updated"
)

// Event is the envelope published for every domain change. Key picks the
// partition so events for one screen or broadcast stay ordered.
type Event struct {
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals data into an Event stamped with the current time.
func NewEvent(eventType, key string, data interface{}) (Event, error) {
	ev := Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		ev.Data = raw
	}
	return ev, nil
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
