package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/devex-hq/devex-api/internal/chatlog"
	"github.com/devex-hq/devex-api/internal/collab"
	"github.com/devex-hq/devex-api/internal/hub"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
)

var (
	ErrEmptyMessage  = fmt.Errorf("%w: message is required", apperr.ErrValidation)
	ErrMessageLength = fmt.Errorf("%w: message must be at most %d characters", apperr.ErrValidation, models.MaxMessageLength)
	ErrClientGone    = fmt.Errorf("%w: connection closed", apperr.ErrInvalidState)
)

type ProjectFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.CollabProject, error)
	HoldRoom(ctx context.Context, id, userID uuid.UUID, fn func() error) error
}

// Rooms is the part of the hub the chat service drives.
type Rooms interface {
	JoinRoom(clientID string, roomID uuid.UUID) bool
	LeaveRoom(clientID string, roomID uuid.UUID)
	Broadcast(roomID uuid.UUID, except string, event any) bool
	RoomMembers(roomID uuid.UUID) []hub.Member
}

type ChatService struct {
	projects ProjectFinder
	messages chatlog.Store
	rooms    Rooms
}

func NewChatService(projects ProjectFinder, messages chatlog.Store, rooms Rooms) *ChatService {
	return &ChatService{projects: projects, messages: messages, rooms: rooms}
}

// authorize loads the room's project and checks userID is its author or a
// collaborator. It runs on every call since membership can change while a
// connection stays open.
func (s *ChatService) authorize(ctx context.Context, roomID, userID uuid.UUID) error {
	p, err := s.projects.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	return collab.AuthorizeRoom(*p, userID)
}

// Join subscribes client to the room and returns who is currently online in it.
func (s *ChatService) Join(ctx context.Context, client *hub.Client, roomID uuid.UUID) ([]hub.Member, error) {
	if err := s.authorize(ctx, roomID, client.UserID); err != nil {
		return nil, err
	}
	if !s.rooms.JoinRoom(client.ID, roomID) {
		return nil, ErrClientGone
	}
	return s.rooms.RoomMembers(roomID), nil
}

func (s *ChatService) Leave(client *hub.Client, roomID uuid.UUID) {
	s.rooms.LeaveRoom(client.ID, roomID)
}

// Send persists the message, then fans it out to every other connection in
// the room. Nothing is broadcast if the write fails. Both happen while the
// project is held, so a concurrent delete cannot leave the message behind.
func (s *ChatService) Send(ctx context.Context, client *hub.Client, roomID uuid.UUID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > models.MaxMessageLength {
		return nil, ErrMessageLength
	}

	msg := &models.Message{
		RoomID:   roomID,
		AuthorID: client.UserID,
		Username: client.Username,
		Body:     body,
	}
	err := s.projects.HoldRoom(ctx, roomID, client.UserID, func() error {
		if err := s.messages.Append(ctx, msg); err != nil {
			return apperr.Persistence("append message", err)
		}
		s.rooms.Broadcast(roomID, client.ID, hub.NewChatEvent(hub.EventMessageReceived, msg))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns the room's messages oldest first.
func (s *ChatService) History(ctx context.Context, roomID, requester uuid.UUID) ([]models.Message, error) {
	if err := s.authorize(ctx, roomID, requester); err != nil {
		return nil, err
	}

	messages, err := s.messages.History(ctx, roomID)
	if err != nil {
		return nil, apperr.Persistence("load chat history", err)
	}
	return messages, nil
}
