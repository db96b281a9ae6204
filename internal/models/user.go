package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProviderLocal  = "local"
	ProviderGitHub = "github"
	ProviderGoogle = "google"
)

const DefaultProfileImage = "/images/profilePic.png"

type User struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash *string     `json:"-"`
	ProfileImage string      `json:"profile_image"`
	Provider     string      `json:"provider"`
	ProviderID   *string     `json:"-"`
	Streak       []time.Time `json:"streak"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// LastActivity returns the most recent streak entry, if any.
func (u *User) LastActivity() (time.Time, bool) {
	if len(u.Streak) == 0 {
		return time.Time{}, false
	}
	return u.Streak[len(u.Streak)-1], true
}
