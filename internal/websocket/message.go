package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/photo-gallery/internal/domain"
)

type MessageType string

const (
	MessageTypeImageUploaded  MessageType = MessageType(domain.EventImageUploaded)
	MessageTypeImageDeleted   MessageType = MessageType(domain.EventImageDeleted)
	MessageTypeLikeToggled    MessageType = MessageType(domain.EventLikeToggled)
	MessageTypeCommentAdded   MessageType = MessageType(domain.EventCommentAdded)
	MessageTypeCommentDeleted MessageType = MessageType(domain.EventCommentDeleted)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}
