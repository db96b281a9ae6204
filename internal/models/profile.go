package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a user with their streaks computed. Email is only set when the
// profile is viewed by its owner.
type Profile struct {
	ID            uuid.UUID   `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email,omitempty"`
	ProfileImage  string      `json:"profile_image"`
	Provider      string      `json:"provider,omitempty"`
	Streak        []time.Time `json:"streak"`
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
	CreatedAt     time.Time   `json:"created_at"`
}

type UserCollabs struct {
	Authored []CollabProject `json:"authored"`
	Joined   []CollabProject `json:"joined"`
}
