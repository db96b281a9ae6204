package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devex-hq/devex-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute, 24*time.Hour)
}

func accessToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, username string) string {
	t.Helper()
	pair, err := jwtSvc.GenerateTokenPair(userID, username)
	require.NoError(t, err)
	return pair.AccessToken
}

func protectedApp(jwtSvc *services.JWTService, onOK func(c *drift.Context)) http.Handler {
	app := drift.New()
	app.Use(Auth(jwtSvc))
	app.Get("/protected", func(c *drift.Context) {
		if onOK != nil {
			onOK(c)
		}
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return app
}

func TestAuth_Rejections(t *testing.T) {
	jwtSvc := newTestJWTService()
	other := services.NewJWTService("another-secret", 15*time.Minute, 24*time.Hour)
	shortLived := services.NewJWTService("test-secret-key", time.Millisecond, 24*time.Hour)

	foreign := accessToken(t, other, uuid.New(), "mallory")
	expired := accessToken(t, shortLived, uuid.New(), "late")
	refreshPair, err := jwtSvc.GenerateTokenPair(uuid.New(), "alice")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "missing authorization header"},
		{"wrong scheme", "Token abc", "invalid authorization header format"},
		{"scheme only", "Bearer", "invalid authorization header format"},
		{"blank token", "Bearer   ", "invalid authorization header format"},
		{"garbage token", "Bearer not-a-jwt", "invalid or expired token"},
		{"expired", "Bearer " + expired, "invalid or expired token"},
		{"signed with another secret", "Bearer " + foreign, "invalid or expired token"},
		{"refresh token", "Bearer " + refreshPair.RefreshToken, "invalid or expired token"},
	}

	app := protectedApp(jwtSvc, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestAuth_ValidToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	userID := uuid.New()
	token := accessToken(t, jwtSvc, userID, "alice")

	var gotID uuid.UUID
	var gotName string
	app := protectedApp(jwtSvc, func(c *drift.Context) {
		gotID = GetUserID(c)
		gotName = GetUsername(c)
	})

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		t.Run(scheme, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", scheme+" "+token)
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, userID, gotID)
			assert.Equal(t, "alice", gotName)
		})
	}
}

func TestGetters_NotSet(t *testing.T) {
	app := drift.New()

	var gotID uuid.UUID
	gotName := "unset"
	app.Get("/test", func(c *drift.Context) {
		gotID = GetUserID(c)
		gotName = GetUsername(c)
		_ = c.JSON(http.StatusOK, nil)
	})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, uuid.Nil, gotID)
	assert.Equal(t, "", gotName)
}
