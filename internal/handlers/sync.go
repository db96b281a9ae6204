package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/devex-hq/devex-api/internal/hub"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/websocket"
	"go.uber.org/zap"
)

const (
	syncPingInterval = 30 * time.Second
	syncWriteTimeout = 10 * time.Second
	syncReadTimeout  = 60 * time.Second
	syncReplyBuffer  = 16
)

// Client frame events.
const (
	frameJoinRoom    = "join-room"
	frameLeaveRoom   = "leave-room"
	frameSendMessage = "send-message"
)

// ClientFrame is a message sent by a websocket client. The author is always
// the authenticated connection, never a field of the frame.
type ClientFrame struct {
	Event   string `json:"event"`
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message,omitempty"`
}

type SyncHandler struct {
	hub        HubInterface
	chat       ChatServiceInterface
	jwtService JWTServiceInterface
	log        *zap.Logger
}

func NewSyncHandler(hub HubInterface, chat ChatServiceInterface, jwtService JWTServiceInterface, log *zap.Logger) *SyncHandler {
	return &SyncHandler{
		hub:        hub,
		chat:       chat,
		jwtService: jwtService,
		log:        log,
	}
}

// Connect upgrades an authenticated request to a websocket. Browsers cannot
// set headers on the upgrade, so the access token comes from ?token=.
func (h *SyncHandler) Connect(c *drift.Context) {
	token := c.QueryParam("token")
	if token == "" {
		c.Unauthorized("token is required")
		return
	}

	claims, err := h.jwtService.ValidateAccessToken(token)
	if err != nil {
		c.Unauthorized("invalid token")
		return
	}

	conn, err := websocket.Upgrade(c)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := hub.NewClient(claims.UserID, claims.Username)
	h.hub.Register(client)

	// Only the write pump touches conn for writing. Replies from the read
	// pump go through this queue.
	replies := make(chan []byte, syncReplyBuffer)
	readerDone := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		h.writePump(conn, client, replies, readerDone)
	}()

	reply := func(v any) {
		data, err := json.Marshal(v)
		if err != nil {
			h.log.Error("failed to encode reply", zap.Error(err))
			return
		}
		select {
		case replies <- data:
		case <-writerDone:
		}
	}

	reply(hub.ConnectedEvent{Event: hub.EventConnected, ClientID: client.ID, UserID: client.UserID})

	h.readPump(c.Request.Context(), conn, client, reply)

	close(readerDone)
	h.hub.Unregister(client)
	<-writerDone
}

func (h *SyncHandler) writePump(conn *websocket.Conn, client *hub.Client, replies <-chan []byte, readerDone <-chan struct{}) {
	ticker := time.NewTicker(syncPingInterval)
	defer ticker.Stop()
	defer func() {
		if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
			h.log.Debug("websocket close", zap.String("client_id", client.ID), zap.Error(err))
		}
	}()

	write := func(msg []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(syncWriteTimeout))
		return conn.WriteText(string(msg)) == nil
	}

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				// Unregistered or evicted by the hub.
				return
			}
			if !write(msg) {
				return
			}
		case msg := <-replies:
			if !write(msg) {
				return
			}
		case <-ticker.C:
			if err := conn.Ping(nil); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}

// readPump handles frames one at a time, so a connection's messages are
// persisted and broadcast in the order they were sent.
func (h *SyncHandler) readPump(ctx context.Context, conn *websocket.Conn, client *hub.Client, reply func(any)) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(syncReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			reply(hub.NewErrorEvent("invalid message format", ""))
			continue
		}

		reply(h.handleFrame(ctx, client, frame))
	}
}

// handleFrame returns the event to send back to the client.
func (h *SyncHandler) handleFrame(ctx context.Context, client *hub.Client, frame ClientFrame) any {
	switch frame.Event {
	case frameJoinRoom, frameLeaveRoom, frameSendMessage:
	default:
		return hub.NewErrorEvent("unknown event", frame.Event)
	}

	roomID, err := uuid.Parse(frame.RoomID)
	if err != nil {
		return hub.NewErrorEvent("invalid roomId", frame.Event)
	}

	switch frame.Event {
	case frameJoinRoom:
		online, err := h.chat.Join(ctx, client, roomID)
		if err != nil {
			return h.frameError(client, frame, err)
		}
		return hub.RoomEvent{Event: hub.EventJoinedRoom, RoomID: roomID, Online: online}

	case frameLeaveRoom:
		h.chat.Leave(client, roomID)
		return hub.RoomEvent{Event: hub.EventLeftRoom, RoomID: roomID}

	default:
		msg, err := h.chat.Send(ctx, client, roomID, frame.Message)
		if err != nil {
			return h.frameError(client, frame, err)
		}
		return hub.NewChatEvent(hub.EventMessageSent, msg)
	}
}

func (h *SyncHandler) frameError(client *hub.Client, frame ClientFrame, err error) hub.ErrorEvent {
	if !isKnown(err) {
		h.log.Error("realtime request failed",
			zap.String("event", frame.Event),
			zap.String("client_id", client.ID),
			zap.Error(err),
		)
	}
	return hub.NewErrorEvent(errorMessage(err), frame.Event)
}
