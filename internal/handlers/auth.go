package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"sync"
	"time"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/devex-hq/devex-api/internal/config"
	"github.com/devex-hq/devex-api/internal/middleware"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/devex-hq/devex-api/internal/oauth"
	"github.com/devex-hq/devex-api/internal/services"
	"github.com/devex-hq/devex-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

const (
	stateTTL    = 10 * time.Minute
	authCodeTTL = 30 * time.Second
)

type AuthHandler struct {
	cfg          *config.Config
	providers    map[string]oauth.Provider
	userService  UserServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
	log          *zap.Logger
	states       sync.Map
	authCodes    sync.Map
}

type stateData struct {
	expiresAt time.Time
}

type authCodeData struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func NewAuthHandler(
	cfg *config.Config,
	providers map[string]oauth.Provider,
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		cfg:          cfg,
		providers:    providers,
		userService:  userService,
		tokenService: tokenService,
		jwtService:   jwtService,
		log:          log,
	}
}

// CleanupStates drops expired OAuth states and auth codes until ctx is done.
func (h *AuthHandler) CleanupStates(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.states.Range(func(key, value any) bool {
				if sd, ok := value.(stateData); ok && now.After(sd.expiresAt) {
					h.states.Delete(key)
				}
				return true
			})
			h.authCodes.Range(func(key, value any) bool {
				if acd, ok := value.(authCodeData); ok && now.After(acd.expiresAt) {
					h.authCodes.Delete(key)
				}
				return true
			})
		}
	}
}

func (h *AuthHandler) Signup(c *drift.Context) {
	var req dto.SignupRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	user, err := h.userService.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.respondWithSession(c, 201, user)
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.respondWithSession(c, 200, user)
}

func (h *AuthHandler) respondWithSession(c *drift.Context, status int, user *models.User) {
	tokens, err := h.issueTokens(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(status, dto.AuthResponse{
		TokenResponse: *tokens,
		User:          dto.NewUserResponse(user),
	})
}

// issueTokens signs a new pair and records the refresh token's hash.
func (h *AuthHandler) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := h.jwtService.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(ctx, user.ID, services.HashToken(pair.RefreshToken), expiresAt); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}

	h.states.Store(state, stateData{expiresAt: time.Now().Add(stateTTL)})

	_ = c.JSON(200, dto.ConsentURLResponse{URL: p.GetConsentURL(state)})
}

func (h *AuthHandler) Callback(c *drift.Context) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		h.redirectWithError(c, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.redirectWithError(c, "missing state parameter")
		return
	}

	sd, ok := h.states.LoadAndDelete(state)
	if !ok {
		h.redirectWithError(c, "invalid or expired state")
		return
	}
	if data, ok := sd.(stateData); !ok || time.Now().After(data.expiresAt) {
		h.redirectWithError(c, "state expired")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, "missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	info, err := p.ExchangeCode(ctx, code)
	if err != nil {
		h.log.Warn("oauth code exchange failed", zap.String("provider", p.Name()), zap.Error(err))
		h.redirectWithError(c, "failed to exchange code")
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(ctx, info)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			h.redirectWithError(c, "an account with this email already exists")
			return
		}
		h.log.Error("oauth user lookup failed", zap.String("provider", p.Name()), zap.Error(err))
		h.redirectWithError(c, "failed to sign in")
		return
	}

	authCode, err := oauth.GenerateState()
	if err != nil {
		h.redirectWithError(c, "failed to generate auth code")
		return
	}

	h.authCodes.Store(authCode, authCodeData{
		userID:    user.ID,
		expiresAt: time.Now().Add(authCodeTTL),
	})

	redirectURL := fmt.Sprintf("%s?code=%s", h.cfg.FrontendCallbackURL, url.QueryEscape(authCode))
	h.renderCallbackPage(c, 200, redirectURL, "Signed in", "Taking you back to DevEx...")
}

// ExchangeCode trades the one-time code from the callback page for tokens.
func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Code == "" {
		c.BadRequest("code is required")
		return
	}

	acd, ok := h.authCodes.LoadAndDelete(req.Code)
	if !ok {
		c.Unauthorized("invalid or expired code")
		return
	}
	data, ok := acd.(authCodeData)
	if !ok || time.Now().After(data.expiresAt) {
		c.Unauthorized("code expired")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), data.userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	tokens, err := h.issueTokens(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, tokens)
}

// RefreshToken rotates the refresh token: the presented one is consumed and
// a new pair is returned.
func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Unauthorized("invalid refresh token")
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		c.InternalServerError("failed to generate tokens")
		return
	}

	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	err = h.tokenService.RotateRefreshToken(ctx, user.ID,
		services.HashToken(req.RefreshToken), services.HashToken(pair.RefreshToken), expiresAt)
	if err != nil {
		if errors.Is(err, services.ErrRefreshTokenNotFound) {
			c.Unauthorized("refresh token not found or expired")
			return
		}
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(200, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken != "" {
		if err := h.tokenService.RevokeRefreshToken(c.Request.Context(), services.HashToken(req.RefreshToken)); err != nil {
			h.log.Warn("failed to revoke refresh token", zap.Error(err))
		}
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "all sessions logged out"})
}

func (h *AuthHandler) redirectWithError(c *drift.Context, msg string) {
	redirectURL := fmt.Sprintf("%s?error=%s", h.cfg.FrontendCallbackURL, url.QueryEscape(msg))
	h.renderCallbackPage(c, 400, redirectURL, "Sign-in failed", msg)
}

func (h *AuthHandler) renderCallbackPage(c *drift.Context, status int, redirectURL, heading, detail string) {
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>DevEx - %[1]s</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; background: #0f172a; color: #e2e8f0; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; }
        .card { background: #1e293b; border-radius: 12px; padding: 40px 32px; max-width: 380px; text-align: center; }
        h1 { font-size: 20px; margin: 0 0 8px 0; }
        p { color: #94a3b8; font-size: 14px; margin: 0; }
        a { color: #38bdf8; }
    </style>
</head>
<body>
    <div class="card">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
        <p><a href="%[3]s">Continue</a></p>
    </div>
    <script>window.location.href = %[4]q;</script>
</body>
</html>`, html.EscapeString(heading), html.EscapeString(detail), html.EscapeString(redirectURL), redirectURL)

	_ = c.HTML(status, page)
}
