package handlers

import (
	"github.com/devex-hq/devex-api/internal/hub"
	"github.com/devex-hq/devex-api/internal/middleware"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

// SSEHandler streams a room's chat to clients that only need to listen.
type SSEHandler struct {
	hub  HubInterface
	chat ChatServiceInterface
	log  *zap.Logger
}

func NewSSEHandler(hub HubInterface, chat ChatServiceInterface, log *zap.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, chat: chat, log: log}
}

func (h *SSEHandler) Connect(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	client := hub.NewClient(userID, middleware.GetUsername(c))
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	online, err := h.chat.Join(c.Request.Context(), client, roomID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	stream := c.SSE()
	if err := stream.SendJSON(hub.RoomEvent{Event: hub.EventJoinedRoom, RoomID: roomID, Online: online}, hub.EventJoinedRoom, ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := stream.Send(string(msg), hub.EventMessageReceived, ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
