// Package chatlog persists room chat messages. The log is append-only:
// messages are never edited, and are removed only when their room is deleted.
package chatlog

import (
	"context"

	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store is the durable message log behind a chat room. History returns
// messages ascending by creation time, ties broken by insertion order.
type Store interface {
	Append(ctx context.Context, msg *models.Message) error
	History(ctx context.Context, roomID uuid.UUID) ([]models.Message, error)
	DeleteRoom(ctx context.Context, roomID uuid.UUID) error
}

// TxStore is implemented by stores living in the project database. Their room
// purge can join the transaction that deletes the project.
type TxStore interface {
	DeleteRoomTx(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) error
}
