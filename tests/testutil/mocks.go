package testutil

import (
	"context"
	"time"

	"github.com/devex-hq/devex-api/internal/collab"
	"github.com/devex-hq/devex-api/internal/hub"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/devex-hq/devex-api/internal/oauth"
	"github.com/devex-hq/devex-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, userID, tokenHash, expiresAt).Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	return m.Called(ctx, userID, oldHash, newHash, expiresAt).Error(0)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, username string) (*services.TokenPair, error) {
	args := m.Called(userID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateAccessToken(token string) (*services.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Claims), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	return m.Called().Get(0).(time.Duration)
}

// MockProfileService mocks the ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetSelf(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) GetPublicProfile(ctx context.Context, username string) (*models.Profile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) GetUserLogs(ctx context.Context, username string) ([]models.Log, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Log), args.Error(1)
}

func (m *MockProfileService) GetUserCollabs(ctx context.Context, username string) (*models.UserCollabs, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserCollabs), args.Error(1)
}

// MockLogService mocks the LogService
type MockLogService struct {
	mock.Mock
}

func (m *MockLogService) Create(ctx context.Context, authorID uuid.UUID, content string, tags []string, imageURL *string) (*models.Log, error) {
	args := m.Called(ctx, authorID, content, tags, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Log), args.Error(1)
}

func (m *MockLogService) Feed(ctx context.Context) ([]models.Log, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Log), args.Error(1)
}

func (m *MockLogService) Delete(ctx context.Context, logID, actorID uuid.UUID) error {
	return m.Called(ctx, logID, actorID).Error(0)
}

func (m *MockLogService) ToggleLike(ctx context.Context, logID, userID uuid.UUID) (*models.Log, error) {
	args := m.Called(ctx, logID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Log), args.Error(1)
}

// MockCollabService mocks the CollabService
type MockCollabService struct {
	mock.Mock
}

func (m *MockCollabService) project(args mock.Arguments) (*models.CollabProject, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CollabProject), args.Error(1)
}

func (m *MockCollabService) Create(ctx context.Context, authorID uuid.UUID, title, description string, skills []string) (*models.CollabProject, error) {
	return m.project(m.Called(ctx, authorID, title, description, skills))
}

func (m *MockCollabService) GetByID(ctx context.Context, id uuid.UUID) (*models.CollabProject, error) {
	return m.project(m.Called(ctx, id))
}

func (m *MockCollabService) ListOpen(ctx context.Context) ([]models.CollabProject, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CollabProject), args.Error(1)
}

func (m *MockCollabService) RequestJoin(ctx context.Context, id, requester uuid.UUID) (*models.CollabProject, error) {
	return m.project(m.Called(ctx, id, requester))
}

func (m *MockCollabService) ManageRequest(ctx context.Context, id, actor, applicant uuid.UUID, action collab.Action) (*models.CollabProject, error) {
	return m.project(m.Called(ctx, id, actor, applicant, action))
}

func (m *MockCollabService) RemoveCollaborator(ctx context.Context, id, actor, member uuid.UUID) (*models.CollabProject, error) {
	return m.project(m.Called(ctx, id, actor, member))
}

func (m *MockCollabService) UpdateStatus(ctx context.Context, id, actor uuid.UUID, status string) (*models.CollabProject, error) {
	return m.project(m.Called(ctx, id, actor, status))
}

func (m *MockCollabService) Delete(ctx context.Context, id, actor uuid.UUID) error {
	return m.Called(ctx, id, actor).Error(0)
}

// MockChatService mocks the ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Join(ctx context.Context, client *hub.Client, roomID uuid.UUID) ([]hub.Member, error) {
	args := m.Called(ctx, client, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]hub.Member), args.Error(1)
}

func (m *MockChatService) Leave(client *hub.Client, roomID uuid.UUID) {
	m.Called(client, roomID)
}

func (m *MockChatService) Send(ctx context.Context, client *hub.Client, roomID uuid.UUID, body string) (*models.Message, error) {
	args := m.Called(ctx, client, roomID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, roomID, requester uuid.UUID) ([]models.Message, error) {
	args := m.Called(ctx, roomID, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// MockOAuthProvider mocks an oauth.Provider
type MockOAuthProvider struct {
	mock.Mock
	ProviderName string
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	return m.ProviderName
}
