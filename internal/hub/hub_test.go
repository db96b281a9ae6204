package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func newTestClient(name string, buffer int) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   uuid.New(),
		Username: name,
		Rooms:    make(map[uuid.UUID]bool),
		Send:     make(chan []byte, buffer),
	}
}

func receive(t *testing.T, c *Client) ChatEvent {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev ChatEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return ChatEvent{}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func chat(room uuid.UUID, body string) ChatEvent {
	return NewChatEvent(EventMessageReceived, &models.Message{
		ID:        uuid.New(),
		RoomID:    room,
		AuthorID:  uuid.New(),
		Username:  "alice",
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
}

func TestNewHub(t *testing.T) {
	h := NewHub(zap.NewNop())

	assert.NotNil(t, h.clients)
	assert.NotNil(t, h.unregister)
	assert.NotNil(t, h.broadcast)
}

func TestNewClient(t *testing.T) {
	userID := uuid.New()
	c := NewClient(userID, "alice")

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, userID, c.UserID)
	assert.Equal(t, SendBufferSize, cap(c.Send))
	assert.Empty(t, c.Rooms)
}

func TestHub_RegisterAndJoin(t *testing.T) {
	h := startHub(t)
	c := newTestClient("alice", 8)
	room := uuid.New()

	h.Register(c)
	assert.Equal(t, 1, h.ClientCount())

	assert.True(t, h.JoinRoom(c.ID, room))
	assert.True(t, h.IsInRoom(c.ID, room))

	h.LeaveRoom(c.ID, room)
	assert.False(t, h.IsInRoom(c.ID, room))
}

func TestHub_JoinRoom_UnknownClient(t *testing.T) {
	h := startHub(t)

	assert.False(t, h.JoinRoom("missing", uuid.New()))
	assert.False(t, h.IsInRoom("missing", uuid.New()))
	h.LeaveRoom("missing", uuid.New())
}

func TestHub_Unregister_ClosesSendChannel(t *testing.T) {
	h := startHub(t)
	c := newTestClient("alice", 8)

	h.Register(c)
	h.Unregister(c)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Equal(t, 0, h.ClientCount())

	// second unregister is a no-op
	h.Unregister(c)
}

func TestHub_Broadcast_ExcludesSenderAndOtherRooms(t *testing.T) {
	h := startHub(t)
	room, other := uuid.New(), uuid.New()

	sender := newTestClient("alice", 8)
	peer := newTestClient("bob", 8)
	outsider := newTestClient("carol", 8)
	for _, c := range []*Client{sender, peer, outsider} {
		h.Register(c)
	}
	h.JoinRoom(sender.ID, room)
	h.JoinRoom(peer.ID, room)
	h.JoinRoom(outsider.ID, other)

	require.True(t, h.Broadcast(room, sender.ID, chat(room, "hi")))

	ev := receive(t, peer)
	assert.Equal(t, EventMessageReceived, ev.Event)
	assert.Equal(t, "hi", ev.Message)
	assert.Equal(t, room, ev.RoomID)

	assertNothing(t, sender)
	assertNothing(t, outsider)
}

func TestHub_Broadcast_PreservesOrder(t *testing.T) {
	h := startHub(t)
	room := uuid.New()
	peer := newTestClient("bob", 64)
	h.Register(peer)
	h.JoinRoom(peer.ID, room)

	bodies := []string{"one", "two", "three", "four", "five"}
	for _, b := range bodies {
		require.True(t, h.Broadcast(room, "", chat(room, b)))
	}

	for _, want := range bodies {
		assert.Equal(t, want, receive(t, peer).Message)
	}
}

func TestHub_Broadcast_EvictsSlowClient(t *testing.T) {
	h := startHub(t)
	room := uuid.New()

	slow := newTestClient("slow", 1)
	fast := newTestClient("fast", 8)
	h.Register(slow)
	h.Register(fast)
	h.JoinRoom(slow.ID, room)
	h.JoinRoom(fast.ID, room)

	h.Broadcast(room, "", chat(room, "first"))
	h.Broadcast(room, "", chat(room, "second"))

	assert.Equal(t, "first", receive(t, fast).Message)
	assert.Equal(t, "second", receive(t, fast).Message)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	// the slow client saw the first message and then its queue was closed
	first, ok := <-slow.Send
	require.True(t, ok)
	assert.Contains(t, string(first), "first")
	_, ok = <-slow.Send
	assert.False(t, ok)
	assert.False(t, h.IsInRoom(slow.ID, room))
}

func TestHub_Broadcast_ExactlyOncePerConnection(t *testing.T) {
	h := startHub(t)
	room := uuid.New()
	userID := uuid.New()

	// same user on two connections: each gets the message once
	a := newTestClient("alice", 8)
	b := newTestClient("alice", 8)
	a.UserID, b.UserID = userID, userID
	h.Register(a)
	h.Register(b)
	h.JoinRoom(a.ID, room)
	h.JoinRoom(b.ID, room)

	h.Broadcast(room, "", chat(room, "hello"))

	assert.Equal(t, "hello", receive(t, a).Message)
	assert.Equal(t, "hello", receive(t, b).Message)
	assertNothing(t, a)
	assertNothing(t, b)
}

func TestHub_RoomMembers_DeduplicatesUsers(t *testing.T) {
	h := startHub(t)
	room := uuid.New()
	userID := uuid.New()

	a := newTestClient("alice", 8)
	b := newTestClient("alice", 8)
	c := newTestClient("bob", 8)
	a.UserID, b.UserID = userID, userID
	for _, cl := range []*Client{a, b, c} {
		h.Register(cl)
		h.JoinRoom(cl.ID, room)
	}

	members := h.RoomMembers(room)
	assert.Len(t, members, 2)
	assert.Empty(t, h.RoomMembers(uuid.New()))
}

func TestHub_RemoveUserFromRoom(t *testing.T) {
	h := startHub(t)
	room := uuid.New()
	userID := uuid.New()

	a := newTestClient("alice", 8)
	b := newTestClient("alice", 8)
	a.UserID, b.UserID = userID, userID
	peer := newTestClient("bob", 8)
	for _, cl := range []*Client{a, b, peer} {
		h.Register(cl)
		h.JoinRoom(cl.ID, room)
	}

	h.RemoveUserFromRoom(userID, room)

	assert.False(t, h.IsInRoom(a.ID, room))
	assert.False(t, h.IsInRoom(b.ID, room))
	assert.True(t, h.IsInRoom(peer.ID, room))

	h.LeaveRoomAll(room)
	assert.False(t, h.IsInRoom(peer.ID, room))
}

func TestHub_ConcurrentBroadcasts(t *testing.T) {
	h := startHub(t)
	room := uuid.New()
	peer := newTestClient("bob", 512)
	h.Register(peer)
	h.JoinRoom(peer.ID, room)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				h.Broadcast(room, "", chat(room, "x"))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 200; i++ {
		receive(t, peer)
	}
	assertNothing(t, peer)
}

func TestHub_Stop(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := newTestClient("alice", 8)
	h.Register(c)

	cancel()
	<-h.done

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.False(t, h.Broadcast(uuid.New(), "", chat(uuid.New(), "late")))

	late := newTestClient("bob", 8)
	h.Register(late)
	_, ok = <-late.Send
	assert.False(t, ok)

	h.Unregister(late)
}

func TestEvents_WireNames(t *testing.T) {
	room := uuid.New()

	data, err := json.Marshal(chat(room, "hi"))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, room.String(), got["roomId"])
	assert.Equal(t, "hi", got["message"])
	assert.Equal(t, "alice", got["username"])
	assert.Contains(t, got, "authorId")
	assert.Contains(t, got, "created_at")

	data, err = json.Marshal(NewErrorEvent("not a member", "join-room"))
	require.NoError(t, err)
	got = map[string]any{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "join-room", got["ref_event"])

	data, err = json.Marshal(ConnectedEvent{Event: EventConnected, ClientID: "c1", UserID: room})
	require.NoError(t, err)
	got = map[string]any{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "c1", got["client_id"])
	assert.Equal(t, room.String(), got["user_id"])
}
