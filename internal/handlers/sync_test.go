package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/devex-hq/devex-api/internal/collab"
	"github.com/devex-hq/devex-api/internal/hub"
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

func newSyncTest() (*SyncHandler, *testutil.MockChatService, *hub.Client) {
	chat := new(testutil.MockChatService)
	h := NewSyncHandler(nil, chat, new(testutil.MockJWTService), zap.NewNop())
	return h, chat, hub.NewClient(uuid.New(), "alice")
}

func TestSyncHandler_Connect_RequiresToken(t *testing.T) {
	jwtSvc := new(testutil.MockJWTService)
	jwtSvc.On("ValidateAccessToken", "forged").Return(nil, services.ErrInvalidToken)
	h := NewSyncHandler(nil, new(testutil.MockChatService), jwtSvc, zap.NewNop())

	app := drift.New()
	app.Get("/ws", h.Connect)
	client := testutil.NewHTTPTestClient(t, app)

	rec := client.GET("/ws", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = client.GET("/ws?token=forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	jwtSvc.AssertExpectations(t)
}

func TestSyncHandler_JoinRoom(t *testing.T) {
	h, chat, client := newSyncTest()
	roomID := uuid.New()
	online := []hub.Member{{UserID: client.UserID, Username: "alice"}}
	chat.On("Join", mock.Anything, client, roomID).Return(online, nil)

	got := h.handleFrame(context.Background(), client, ClientFrame{Event: frameJoinRoom, RoomID: roomID.String()})

	require.IsType(t, hub.RoomEvent{}, got)
	event := got.(hub.RoomEvent)
	assert.Equal(t, hub.EventJoinedRoom, event.Event)
	assert.Equal(t, roomID, event.RoomID)
	assert.Equal(t, online, event.Online)
}

func TestSyncHandler_JoinRoom_NotMember(t *testing.T) {
	h, chat, client := newSyncTest()
	roomID := uuid.New()
	chat.On("Join", mock.Anything, client, roomID).Return(nil, collab.ErrNotMember)

	got := h.handleFrame(context.Background(), client, ClientFrame{Event: frameJoinRoom, RoomID: roomID.String()})

	assert.Equal(t, hub.NewErrorEvent(collab.ErrNotMember.Error(), frameJoinRoom), got)
}

func TestSyncHandler_LeaveRoom(t *testing.T) {
	h, chat, client := newSyncTest()
	roomID := uuid.New()
	chat.On("Leave", client, roomID).Return()

	got := h.handleFrame(context.Background(), client, ClientFrame{Event: frameLeaveRoom, RoomID: roomID.String()})

	assert.Equal(t, hub.RoomEvent{Event: hub.EventLeftRoom, RoomID: roomID}, got)
	chat.AssertExpectations(t)
}

func TestSyncHandler_SendMessage(t *testing.T) {
	h, chat, client := newSyncTest()
	roomID := uuid.New()
	msg := &models.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		AuthorID:  client.UserID,
		Username:  "alice",
		Body:      "hello room",
		CreatedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	chat.On("Send", mock.Anything, client, roomID, "hello room").Return(msg, nil)

	got := h.handleFrame(context.Background(), client, ClientFrame{Event: frameSendMessage, RoomID: roomID.String(), Message: "hello room"})

	assert.Equal(t, hub.NewChatEvent(hub.EventMessageSent, msg), got)
}

func TestSyncHandler_SendMessage_Errors(t *testing.T) {
	h, chat, client := newSyncTest()
	roomID := uuid.New()
	chat.On("Send", mock.Anything, client, roomID, "").Return(nil, services.ErrEmptyMessage)
	chat.On("Send", mock.Anything, client, roomID, "boom").
		Return(nil, apperr.Persistence("append message", errors.New("connection refused")))

	got := h.handleFrame(context.Background(), client, ClientFrame{Event: frameSendMessage, RoomID: roomID.String()})
	assert.Equal(t, hub.NewErrorEvent(services.ErrEmptyMessage.Error(), frameSendMessage), got)

	got = h.handleFrame(context.Background(), client, ClientFrame{Event: frameSendMessage, RoomID: roomID.String(), Message: "boom"})
	assert.Equal(t, hub.NewErrorEvent("internal server error", frameSendMessage), got)
}

func TestSyncHandler_BadFrames(t *testing.T) {
	h, chat, client := newSyncTest()

	tests := []struct {
		name  string
		frame ClientFrame
		want  hub.ErrorEvent
	}{
		{"unknown event", ClientFrame{Event: "dance"}, hub.NewErrorEvent("unknown event", "dance")},
		{"missing room", ClientFrame{Event: frameJoinRoom}, hub.NewErrorEvent("invalid roomId", frameJoinRoom)},
		{"bad room", ClientFrame{Event: frameSendMessage, RoomID: "room-1"}, hub.NewErrorEvent("invalid roomId", frameSendMessage)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.handleFrame(context.Background(), client, tt.frame))
		})
	}
	chat.AssertNotCalled(t, "Join", mock.Anything, mock.Anything, mock.Anything)
	chat.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
