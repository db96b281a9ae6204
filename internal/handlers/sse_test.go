package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devex-hq/devex-api/internal/collab"
	"github.com/devex-hq/devex-api/internal/hub"
	"github.com/devex-hq/devex-api/internal/middleware"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/devex-hq/devex-api/internal/services"
	"github.com/devex-hq/devex-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// streamRecorder lets the test read the body while the handler is still writing.
type streamRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *streamRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(b)
}

func (r *streamRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.Flush()
}

func (r *streamRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func setupSSETest(t *testing.T) (*hub.Hub, *testutil.MockChatService, http.Handler, *services.JWTService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(zap.NewNop())
	go h.Run(ctx)

	chat := new(testutil.MockChatService)
	handler := NewSSEHandler(h, chat, zap.NewNop())
	jwtSvc := newTestJWTService()

	app := drift.New()
	protected := app.Group("")
	protected.Use(middleware.Auth(jwtSvc))
	protected.Get("/collabs/:id/events", handler.Connect)

	return h, chat, app, jwtSvc
}

func TestSSEHandler_Connect_Unauthenticated(t *testing.T) {
	_, _, app, _ := setupSSETest(t)

	rec := testutil.NewHTTPTestClient(t, app).GET("/collabs/"+uuid.New().String()+"/events", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSSEHandler_Connect_InvalidID(t *testing.T) {
	_, _, app, jwtSvc := setupSSETest(t)
	token := generateTestToken(t, jwtSvc, uuid.New(), "alice")

	rec := testutil.NewHTTPTestClient(t, app).GET("/collabs/not-a-uuid/events", testutil.AuthHeader(token))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSSEHandler_Connect_NotMember(t *testing.T) {
	h, chat, app, jwtSvc := setupSSETest(t)
	roomID := uuid.New()
	chat.On("Join", mock.Anything, mock.Anything, roomID).Return(nil, collab.ErrNotMember)

	token := generateTestToken(t, jwtSvc, uuid.New(), "mallory")
	rec := testutil.NewHTTPTestClient(t, app).GET("/collabs/"+roomID.String()+"/events", testutil.AuthHeader(token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSSEHandler_Connect_StreamsRoomMessages(t *testing.T) {
	h, chat, app, jwtSvc := setupSSETest(t)
	roomID, userID := uuid.New(), uuid.New()

	joined := make(chan *hub.Client, 1)
	chat.On("Join", mock.Anything, mock.Anything, roomID).Run(func(args mock.Arguments) {
		client := args.Get(1).(*hub.Client)
		h.JoinRoom(client.ID, roomID)
		joined <- client
	}).Return([]hub.Member{{UserID: userID, Username: "alice"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/collabs/"+roomID.String()+"/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, jwtSvc, userID, "alice"))
	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.ServeHTTP(rec, req)
	}()

	var client *hub.Client
	select {
	case client = <-joined:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never joined the room")
	}
	assert.Equal(t, userID, client.UserID)
	assert.Equal(t, "alice", client.Username)

	msg := &models.Message{ID: uuid.New(), RoomID: roomID, AuthorID: uuid.New(), Username: "bob", Body: "standup in 5"}
	require.True(t, h.Broadcast(roomID, "", hub.NewChatEvent(hub.EventMessageReceived, msg)))

	assert.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "standup in 5")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after the request ended")
	}

	body := rec.body()
	assert.Contains(t, body, hub.EventJoinedRoom)
	assert.Contains(t, body, hub.EventMessageReceived)
	assert.Less(t, strings.Index(body, hub.EventJoinedRoom), strings.Index(body, "standup in 5"))
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
