package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CollabStatusOpen       = "open"
	CollabStatusClosed     = "closed"
	CollabStatusInProgress = "in-progress"
)

// Membership roles of a user relative to one project.
const (
	CollabRoleAuthor       = "author"
	CollabRoleCollaborator = "collaborator"
	CollabRolePending      = "pending"
	CollabRoleNone         = "none"
)

type CollabProject struct {
	ID              uuid.UUID   `json:"id"`
	AuthorID        uuid.UUID   `json:"author_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	RequiredSkills  []string    `json:"required_skills"`
	Status          string      `json:"status"`
	Collaborators   []uuid.UUID `json:"collaborators"`
	PendingRequests []uuid.UUID `json:"pending_requests"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func IsValidCollabStatus(status string) bool {
	switch status {
	case CollabStatusOpen, CollabStatusClosed, CollabStatusInProgress:
		return true
	}
	return false
}
