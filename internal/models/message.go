package models

import (
	"time"

	"github.com/google/uuid"
)

const MaxMessageLength = 500

// Message is one entry of a room's append-only chat log. Username is the
// sender's display name at send time.
type Message struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Username  string    `json:"username"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Seq       int64     `json:"-"`
}
