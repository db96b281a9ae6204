package chatlog

import (
	"context"
	"fmt"

	"github.com/devex-hq/devex-api/internal/database"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts msg and fills in its id, sequence and creation time.
func (s *PostgresStore) Append(ctx context.Context, msg *models.Message) error {
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO messages (room_id, author_id, username, body)
		VALUES ($1, $2, $3, $4)
		RETURNING seq, id, created_at
	`, msg.RoomID, msg.AuthorID, msg.Username, msg.Body).Scan(&msg.Seq, &msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT seq, id, room_id, author_id, username, body, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at ASC, seq ASC
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.Seq, &m.ID, &m.RoomID, &m.AuthorID, &m.Username, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *PostgresStore) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	return deleteRoom(ctx, s.db.Pool, roomID)
}

// DeleteRoomTx purges the room inside tx, so the purge commits or rolls back
// with the caller's other writes.
func (s *PostgresStore) DeleteRoomTx(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) error {
	return deleteRoom(ctx, tx, roomID)
}

func deleteRoom(ctx context.Context, db execer, roomID uuid.UUID) error {
	if _, err := db.Exec(ctx, `DELETE FROM messages WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("failed to delete room messages: %w", err)
	}
	return nil
}
