package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/devex-hq/devex-api/internal/chatlog"
	"github.com/devex-hq/devex-api/internal/collab"
	"github.com/devex-hq/devex-api/internal/database"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrCollabNotFound = fmt.Errorf("%w: project not found", apperr.ErrNotFound)
	ErrEmptyTitle     = fmt.Errorf("%w: title is required", apperr.ErrValidation)
	ErrTitleLength    = fmt.Errorf("%w: title must be at most 255 characters", apperr.ErrValidation)
)

const collabColumns = `id, author_id, title, description, required_skills, status, collaborators, pending_requests, created_at, updated_at`

// RoomRegistry lets membership changes reach live chat connections.
type RoomRegistry interface {
	RemoveUserFromRoom(userID, roomID uuid.UUID)
	LeaveRoomAll(roomID uuid.UUID)
}

type CollabService struct {
	db       *database.DB
	messages chatlog.Store
	rooms    RoomRegistry
}

func NewCollabService(db *database.DB, messages chatlog.Store, rooms RoomRegistry) *CollabService {
	return &CollabService{db: db, messages: messages, rooms: rooms}
}

func scanCollab(row pgx.Row) (*models.CollabProject, error) {
	var p models.CollabProject
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.Title, &p.Description, &p.RequiredSkills, &p.Status,
		&p.Collaborators, &p.PendingRequests, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.RequiredSkills == nil {
		p.RequiredSkills = []string{}
	}
	if p.Collaborators == nil {
		p.Collaborators = []uuid.UUID{}
	}
	if p.PendingRequests == nil {
		p.PendingRequests = []uuid.UUID{}
	}
	return &p, nil
}

func (s *CollabService) Create(ctx context.Context, authorID uuid.UUID, title, description string, skills []string) (*models.CollabProject, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len(title) > 255 {
		return nil, ErrTitleLength
	}

	p, err := scanCollab(s.db.Pool.QueryRow(ctx, `
		INSERT INTO collab_projects (author_id, title, description, required_skills, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+collabColumns,
		authorID, title, strings.TrimSpace(description), normalizeTags(skills), models.CollabStatusOpen,
	))
	if err != nil {
		return nil, apperr.Persistence("create project", err)
	}
	return p, nil
}

func (s *CollabService) GetByID(ctx context.Context, id uuid.UUID) (*models.CollabProject, error) {
	p, err := scanCollab(s.db.Pool.QueryRow(ctx, `SELECT `+collabColumns+` FROM collab_projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCollabNotFound
		}
		return nil, apperr.Persistence("get project", err)
	}
	return p, nil
}

// ListOpen returns projects accepting join requests, newest first.
func (s *CollabService) ListOpen(ctx context.Context) ([]models.CollabProject, error) {
	return s.list(ctx, `
		SELECT `+collabColumns+` FROM collab_projects
		WHERE status = $1
		ORDER BY created_at DESC
	`, models.CollabStatusOpen)
}

// ListByUser returns the projects userID authored and the ones they joined.
func (s *CollabService) ListByUser(ctx context.Context, userID uuid.UUID) (authored, joined []models.CollabProject, err error) {
	authored, err = s.list(ctx, `
		SELECT `+collabColumns+` FROM collab_projects
		WHERE author_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}

	joined, err = s.list(ctx, `
		SELECT `+collabColumns+` FROM collab_projects
		WHERE $1 = ANY(collaborators)
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	return authored, joined, nil
}

func (s *CollabService) list(ctx context.Context, query string, arg any) ([]models.CollabProject, error) {
	rows, err := s.db.Pool.Query(ctx, query, arg)
	if err != nil {
		return nil, apperr.Persistence("list projects", err)
	}
	defer rows.Close()

	projects := []models.CollabProject{}
	for rows.Next() {
		p, err := scanCollab(rows)
		if err != nil {
			return nil, apperr.Persistence("scan project", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list projects", err)
	}
	return projects, nil
}

func (s *CollabService) RequestJoin(ctx context.Context, id, requester uuid.UUID) (*models.CollabProject, error) {
	return s.mutate(ctx, id, func(p models.CollabProject) (models.CollabProject, error) {
		return collab.RequestJoin(p, requester)
	})
}

func (s *CollabService) ManageRequest(ctx context.Context, id, actor, applicant uuid.UUID, action collab.Action) (*models.CollabProject, error) {
	return s.mutate(ctx, id, func(p models.CollabProject) (models.CollabProject, error) {
		return collab.ManageRequest(p, actor, applicant, action)
	})
}

// RemoveCollaborator also drops the member's live connections from the room.
func (s *CollabService) RemoveCollaborator(ctx context.Context, id, actor, member uuid.UUID) (*models.CollabProject, error) {
	p, err := s.mutate(ctx, id, func(p models.CollabProject) (models.CollabProject, error) {
		return collab.RemoveCollaborator(p, actor, member)
	})
	if err != nil {
		return nil, err
	}
	s.rooms.RemoveUserFromRoom(member, id)
	return p, nil
}

func (s *CollabService) UpdateStatus(ctx context.Context, id, actor uuid.UUID, status string) (*models.CollabProject, error) {
	return s.mutate(ctx, id, func(p models.CollabProject) (models.CollabProject, error) {
		return collab.SetStatus(p, actor, status)
	})
}

// Delete removes the project and its chat history under the project's row
// lock. A store sharing the project database purges inside the same
// transaction; any other store is purged first, and its failure leaves the
// project in place.
func (s *CollabService) Delete(ctx context.Context, id, actor uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return apperr.Persistence("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := s.lock(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := collab.AuthorizeDelete(*p, actor); err != nil {
		return err
	}

	if err := s.purgeHistory(ctx, tx, id); err != nil {
		return apperr.Persistence("purge chat history", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM collab_projects WHERE id = $1`, id); err != nil {
		return apperr.Persistence("delete project", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Persistence("commit transaction", err)
	}

	s.rooms.LeaveRoomAll(id)
	return nil
}

func (s *CollabService) purgeHistory(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if store, ok := s.messages.(chatlog.TxStore); ok {
		return store.DeleteRoomTx(ctx, tx, id)
	}
	return s.messages.DeleteRoom(ctx, id)
}

// HoldRoom checks userID may use the project's chat room and runs fn while
// holding a share lock on the project row. Delete and membership changes wait
// for fn to return, and a room deleted meanwhile reports not found.
func (s *CollabService) HoldRoom(ctx context.Context, id, userID uuid.UUID, fn func() error) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return apperr.Persistence("begin transaction", err)
	}
	// The transaction only holds the lock; rolling back releases it.
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := s.selectLocked(ctx, tx, id, "FOR SHARE")
	if err != nil {
		return err
	}
	if err := collab.AuthorizeRoom(*p, userID); err != nil {
		return err
	}
	return fn()
}

// mutate applies fn to the project under a row lock and writes the result
// back. Any error rolls the transaction back, leaving the row untouched.
func (s *CollabService) mutate(ctx context.Context, id uuid.UUID, fn func(models.CollabProject) (models.CollabProject, error)) (*models.CollabProject, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Persistence("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := s.lock(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	next, err := fn(*current)
	if err != nil {
		return nil, err
	}

	updated, err := scanCollab(tx.QueryRow(ctx, `
		UPDATE collab_projects
		SET status = $2, collaborators = $3, pending_requests = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+collabColumns,
		id, next.Status, next.Collaborators, next.PendingRequests,
	))
	if err != nil {
		return nil, apperr.Persistence("update project", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Persistence("commit transaction", err)
	}
	return updated, nil
}

func (s *CollabService) lock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.CollabProject, error) {
	return s.selectLocked(ctx, tx, id, "FOR UPDATE")
}

func (s *CollabService) selectLocked(ctx context.Context, tx pgx.Tx, id uuid.UUID, mode string) (*models.CollabProject, error) {
	p, err := scanCollab(tx.QueryRow(ctx, `SELECT `+collabColumns+` FROM collab_projects WHERE id = $1 `+mode, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCollabNotFound
		}
		return nil, apperr.Persistence("lock project", err)
	}
	return p, nil
}
