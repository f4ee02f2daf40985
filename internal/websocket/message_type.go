package websocket

import (
	"encoding/json"

	"signage-service/internal/models"
)

// MessageType is the "type" field of every frame exchanged with a player.
type MessageType string

const (
	// Player to server
	MessageTypePlayerRegister MessageType = "PLAYER_REGISTER"
	MessageTypePlayerStatus   MessageType = "PLAYER_STATUS"

	// Server to player
	MessageTypeLoadPlaylist MessageType = "LOAD_PLAYLIST"
	MessageTypeError        MessageType = "ERROR"
)

func (mt MessageType) String() string {
	return string(mt)
}

// IsInbound reports whether players may send this type.
func (mt MessageType) IsInbound() bool {
	switch mt {
	case MessageTypePlayerRegister, MessageTypePlayerStatus:
		return true
	default:
		return false
	}
}

// Error codes carried in ERROR frames.
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeUnknownType      = "UNKNOWN_TYPE"
	ErrCodeMissingDeviceKey = "MISSING_DEVICE_KEY"
	ErrCodeRateLimited      = "RATE_LIMITED"
)

// Message is an outbound frame.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// inboundMessage defers payload decoding until the type is known.
type inboundMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type RegisterPayload struct {
	DeviceKey string `json:"deviceKey"`
}

// StatusPayload carries an opaque, player defined status value.
type StatusPayload struct {
	DeviceKey string          `json:"deviceKey"`
	Status    json.RawMessage `json:"status"`
}

type LoadPlaylistPayload struct {
	Playlist    models.PlaylistResponse `json:"playlist"`
	BroadcastID string                  `json:"broadcastId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewLoadPlaylistMessage(playlist models.PlaylistResponse, broadcastID string) Message {
	return Message{
		Type: MessageTypeLoadPlaylist,
		Payload: LoadPlaylistPayload{
			Playlist:    playlist,
			BroadcastID: broadcastID,
		},
	}
}

func NewErrorMessage(code, message string) Message {
	return Message{
		Type:    MessageTypeError,
		Payload: ErrorPayload{Code: code, Message: message},
	}
}
