package handlers

import (
	"context"
	"time"

	"github.com/devex-hq/devex-api/internal/collab"
	"github.com/devex-hq/devex-api/internal/hub"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/devex-hq/devex-api/internal/oauth"
	"github.com/devex-hq/devex-api/internal/services"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Signup(ctx context.Context, username, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, username string) (*services.TokenPair, error)
	ValidateAccessToken(token string) (*services.Claims, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

type ProfileServiceInterface interface {
	GetSelf(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetPublicProfile(ctx context.Context, username string) (*models.Profile, error)
	GetUserLogs(ctx context.Context, username string) ([]models.Log, error)
	GetUserCollabs(ctx context.Context, username string) (*models.UserCollabs, error)
}

type LogServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, content string, tags []string, imageURL *string) (*models.Log, error)
	Feed(ctx context.Context) ([]models.Log, error)
	Delete(ctx context.Context, logID, actorID uuid.UUID) error
	ToggleLike(ctx context.Context, logID, userID uuid.UUID) (*models.Log, error)
}

type CollabServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, title, description string, skills []string) (*models.CollabProject, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CollabProject, error)
	ListOpen(ctx context.Context) ([]models.CollabProject, error)
	RequestJoin(ctx context.Context, id, requester uuid.UUID) (*models.CollabProject, error)
	ManageRequest(ctx context.Context, id, actor, applicant uuid.UUID, action collab.Action) (*models.CollabProject, error)
	RemoveCollaborator(ctx context.Context, id, actor, member uuid.UUID) (*models.CollabProject, error)
	UpdateStatus(ctx context.Context, id, actor uuid.UUID, status string) (*models.CollabProject, error)
	Delete(ctx context.Context, id, actor uuid.UUID) error
}

// ChatServiceInterface is the room chat used by the websocket, SSE and
// history endpoints.
type ChatServiceInterface interface {
	Join(ctx context.Context, client *hub.Client, roomID uuid.UUID) ([]hub.Member, error)
	Leave(client *hub.Client, roomID uuid.UUID)
	Send(ctx context.Context, client *hub.Client, roomID uuid.UUID, body string) (*models.Message, error)
	History(ctx context.Context, roomID, requester uuid.UUID) ([]models.Message, error)
}

// HubInterface defines the connection registry calls made by the transports
type HubInterface interface {
	Register(client *hub.Client)
	Unregister(client *hub.Client)
}
