package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SendBufferSize = 256

// Event names shared by the websocket and SSE transports.
const (
	EventConnected       = "connected"
	EventJoinedRoom      = "joined-room"
	EventLeftRoom        = "left-room"
	EventMessageReceived = "message-received"
	EventMessageSent     = "message-sent"
	EventError           = "error"
)

type Client struct {
	ID       string
	UserID   uuid.UUID
	Username string
	Rooms    map[uuid.UUID]bool
	Send     chan []byte
}

func NewClient(userID uuid.UUID, username string) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		Username: username,
		Rooms:    make(map[uuid.UUID]bool),
		Send:     make(chan []byte, SendBufferSize),
	}
}

type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

type RoomMessage struct {
	RoomID uuid.UUID
	Except string
	Data   []byte
}

// Hub tracks live connections and the rooms each one has joined. A single
// dispatch loop fans room messages out in the order they were enqueued.
type Hub struct {
	clients    map[string]*Client
	unregister chan *Client
	broadcast  chan *RoomMessage
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *RoomMessage, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client.ID)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				if id == msg.Except || !client.Rooms[msg.RoomID] {
					continue
				}
				select {
				case client.Send <- msg.Data:
				default:
					// A client that cannot keep up is dropped instead of
					// silently missing messages.
					h.log.Warn("evicting slow client",
						zap.String("client_id", id),
						zap.String("user_id", client.UserID.String()),
						zap.String("room_id", msg.RoomID.String()))
					h.remove(id)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			h.stopped = true
			for id := range h.clients {
				h.remove(id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove deletes the client and closes its queue. Caller holds h.mu.
func (h *Hub) remove(clientID string) {
	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	delete(h.clients, clientID)
	close(client.Send)
}

// Register adds the client immediately so a JoinRoom right after it cannot
// miss. Registering on a stopped hub closes the client's queue.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		close(client.Send)
		return
	}
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// JoinRoom reports false if the client is no longer registered.
func (h *Hub) JoinRoom(clientID string, roomID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return false
	}
	client.Rooms[roomID] = true
	return true
}

func (h *Hub) LeaveRoom(clientID string, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		delete(client.Rooms, roomID)
	}
}

func (h *Hub) IsInRoom(clientID string, roomID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[clientID]
	return ok && client.Rooms[roomID]
}

// LeaveRoomAll removes every connection from roomID, used when the room's
// project is deleted.
func (h *Hub) LeaveRoomAll(roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		delete(client.Rooms, roomID)
	}
}

// RemoveUserFromRoom drops all of userID's connections from roomID.
func (h *Hub) RemoveUserFromRoom(userID, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			delete(client.Rooms, roomID)
		}
	}
}

// RoomMembers lists the distinct users with at least one connection in roomID.
func (h *Hub) RoomMembers(roomID uuid.UUID) []Member {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	members := []Member{}
	for _, client := range h.clients {
		if client.Rooms[roomID] && !seen[client.UserID] {
			seen[client.UserID] = true
			members = append(members, Member{UserID: client.UserID, Username: client.Username})
		}
	}
	return members
}

// Broadcast queues event for every client in roomID except the one with id
// except. It returns false if the event cannot be encoded or the hub has stopped.
func (h *Hub) Broadcast(roomID uuid.UUID, except string, event any) bool {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to encode room event", zap.String("room_id", roomID.String()), zap.Error(err))
		return false
	}

	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.broadcast <- &RoomMessage{RoomID: roomID, Except: except, Data: data}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
