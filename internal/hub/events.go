package hub

import (
	"time"

	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
)

type ConnectedEvent struct {
	Event    string    `json:"event"`
	ClientID string    `json:"client_id"`
	UserID   uuid.UUID `json:"user_id"`
}

type RoomEvent struct {
	Event  string    `json:"event"`
	RoomID uuid.UUID `json:"roomId"`
	Online []Member  `json:"online,omitempty"`
}

type ChatEvent struct {
	Event     string    `json:"event"`
	RoomID    uuid.UUID `json:"roomId"`
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"authorId"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorEvent struct {
	Event    string `json:"event"`
	Message  string `json:"message"`
	RefEvent string `json:"ref_event,omitempty"`
}

func NewChatEvent(event string, m *models.Message) ChatEvent {
	return ChatEvent{
		Event:     event,
		RoomID:    m.RoomID,
		ID:        m.ID,
		AuthorID:  m.AuthorID,
		Username:  m.Username,
		Message:   m.Body,
		CreatedAt: m.CreatedAt,
	}
}

func NewErrorEvent(message, ref string) ErrorEvent {
	return ErrorEvent{Event: EventError, Message: message, RefEvent: ref}
}
