package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/devex-hq/devex-api/internal/database"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser inserts a local user without a password.
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Username:     fmt.Sprintf("user%d", f.counter),
		Email:        fmt.Sprintf("user%d@example.com", f.counter),
		ProfileImage: models.DefaultProfileImage,
		Provider:     models.ProviderLocal,
		Streak:       []time.Time{},
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (username, email, profile_image, provider, streak)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, user.Username, user.Email, user.ProfileImage, user.Provider, user.Streak).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

func WithUsername(username string) UserOption {
	return func(u *models.User) {
		u.Username = username
	}
}

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithStreak seeds the user's activity dates, oldest first.
func WithStreak(days ...time.Time) UserOption {
	return func(u *models.User) {
		u.Streak = days
	}
}

// CreateCollab inserts an open project owned by author.
func (f *Fixtures) CreateCollab(t *testing.T, author uuid.UUID, opts ...CollabOption) *models.CollabProject {
	t.Helper()
	f.counter++

	p := &models.CollabProject{
		AuthorID:        author,
		Title:           fmt.Sprintf("Project %d", f.counter),
		RequiredSkills:  []string{"go"},
		Status:          models.CollabStatusOpen,
		Collaborators:   []uuid.UUID{},
		PendingRequests: []uuid.UUID{},
	}

	for _, opt := range opts {
		opt(p)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO collab_projects (author_id, title, description, required_skills, status, collaborators, pending_requests)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.AuthorID, p.Title, p.Description, p.RequiredSkills, p.Status, p.Collaborators, p.PendingRequests).Scan(
		&p.ID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create collab project: %v", err)
	}

	return p
}

// CollabOption configures a test project
type CollabOption func(*models.CollabProject)

func WithStatus(status string) CollabOption {
	return func(p *models.CollabProject) {
		p.Status = status
	}
}

func WithCollaborators(ids ...uuid.UUID) CollabOption {
	return func(p *models.CollabProject) {
		p.Collaborators = ids
	}
}
