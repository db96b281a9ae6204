package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	MaxLogContentLength = 500
	MaxLogTags          = 10
	FeedLimit           = 50
)

type Log struct {
	ID        uuid.UUID   `json:"id"`
	AuthorID  uuid.UUID   `json:"author_id"`
	Content   string      `json:"content"`
	Tags      []string    `json:"tags"`
	ImageURL  *string     `json:"image_url,omitempty"`
	Likes     []uuid.UUID `json:"likes"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Author    *Author     `json:"author,omitempty"`
}

// Author is the public slice of a user shown next to their content.
type Author struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	ProfileImage string    `json:"profile_image"`
}

func (l *Log) LikedBy(userID uuid.UUID) bool {
	return slices.Contains(l.Likes, userID)
}
