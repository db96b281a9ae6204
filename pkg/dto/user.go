package dto

import (
	"time"

	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
)

type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profile_image"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		Provider:     u.Provider,
		CreatedAt:    u.CreatedAt,
	}
}
