package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageType categorizes entries in the encouragement feed.
type MessageType string

const (
	TypeCheckIn       MessageType = "check_in"
	TypeCrisis        MessageType = "crisis"
	TypeEncouragement MessageType = "encouragement"
)

// Message is one entry in a user's encouragement feed.
type Message struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"userId"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
	AIGenerated bool        `json:"aiGenerated"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Repository defines persistence for feed messages.
type Repository interface {
	Create(ctx context.Context, message Message) (Message, error)
	// ListRecent returns the user's newest messages first, at most limit.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]Message, error)
}

// New builds a feed message with a fresh id and timestamp.
func New(userID uuid.UUID, content string, messageType MessageType, aiGenerated bool) Message {
	return Message{
		ID:          uuid.New(),
		UserID:      userID,
		Content:     content,
		MessageType: messageType,
		AIGenerated: aiGenerated,
		CreatedAt:   time.Now().UTC(),
	}
}
