package services

import (
	"context"
	"time"

	"github.com/devex-hq/devex-api/internal/models"
	"github.com/devex-hq/devex-api/internal/streak"
	"github.com/google/uuid"
)

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type AuthorLogs interface {
	ByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Log, error)
}

type UserProjects interface {
	ListByUser(ctx context.Context, userID uuid.UUID) (authored, joined []models.CollabProject, err error)
}

// ProfileService joins users with their computed streaks, logs and projects.
type ProfileService struct {
	users    UserLookup
	logs     AuthorLogs
	projects UserProjects
	loc      *time.Location
	now      func() time.Time
}

func NewProfileService(users UserLookup, logs AuthorLogs, projects UserProjects, loc *time.Location) *ProfileService {
	return &ProfileService{users: users, logs: logs, projects: projects, loc: loc, now: time.Now}
}

func (s *ProfileService) GetSelf(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := s.build(user)
	p.Email = user.Email
	p.Provider = user.Provider
	return p, nil
}

func (s *ProfileService) GetPublicProfile(ctx context.Context, username string) (*models.Profile, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.build(user), nil
}

func (s *ProfileService) GetUserLogs(ctx context.Context, username string) ([]models.Log, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.logs.ByAuthor(ctx, user.ID)
}

func (s *ProfileService) GetUserCollabs(ctx context.Context, username string) (*models.UserCollabs, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	authored, joined, err := s.projects.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.UserCollabs{Authored: authored, Joined: joined}, nil
}

func (s *ProfileService) build(user *models.User) *models.Profile {
	return &models.Profile{
		ID:            user.ID,
		Username:      user.Username,
		ProfileImage:  user.ProfileImage,
		Streak:        user.Streak,
		CurrentStreak: streak.Current(user.Streak, s.now(), s.loc),
		LongestStreak: streak.Longest(user.Streak, s.loc),
		CreatedAt:     user.CreatedAt,
	}
}
