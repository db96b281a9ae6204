package chatlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devex-hq/devex-api/internal/database"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresStore(&database.DB{Pool: mock}), mock
}

func TestPostgresStore_Append(t *testing.T) {
	store, mock := setupPostgresStore(t)
	ctx := context.Background()
	roomID, authorID, msgID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(roomID, authorID, "alice", "hello").
		WillReturnRows(pgxmock.NewRows([]string{"seq", "id", "created_at"}).AddRow(int64(7), msgID, now))

	msg := &models.Message{RoomID: roomID, AuthorID: authorID, Username: "alice", Body: "hello"}
	err := store.Append(ctx, msg)

	require.NoError(t, err)
	assert.Equal(t, msgID, msg.ID)
	assert.Equal(t, int64(7), msg.Seq)
	assert.Equal(t, now, msg.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Append_Error(t *testing.T) {
	store, mock := setupPostgresStore(t)
	ctx := context.Background()
	msg := &models.Message{RoomID: uuid.New(), AuthorID: uuid.New(), Username: "alice", Body: "hi"}

	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(msg.RoomID, msg.AuthorID, "alice", "hi").
		WillReturnError(errors.New("connection refused"))

	err := store.Append(ctx, msg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert message")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_History(t *testing.T) {
	store, mock := setupPostgresStore(t)
	ctx := context.Background()
	roomID, authorID := uuid.New(), uuid.New()
	first, second := uuid.New(), uuid.New()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"seq", "id", "room_id", "author_id", "username", "body", "created_at"}).
		AddRow(int64(1), first, roomID, authorID, "alice", "one", at).
		AddRow(int64(2), second, roomID, authorID, "alice", "two", at)

	mock.ExpectQuery(`SELECT .+ FROM messages\s+WHERE room_id = \$1\s+ORDER BY created_at ASC, seq ASC`).
		WithArgs(roomID).
		WillReturnRows(rows)

	messages, err := store.History(ctx, roomID)

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, first, messages[0].ID)
	assert.Equal(t, "two", messages[1].Body)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_History_Empty(t *testing.T) {
	store, mock := setupPostgresStore(t)
	roomID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM messages`).
		WithArgs(roomID).
		WillReturnRows(pgxmock.NewRows([]string{"seq", "id", "room_id", "author_id", "username", "body", "created_at"}))

	messages, err := store.History(context.Background(), roomID)

	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestPostgresStore_DeleteRoom(t *testing.T) {
	store, mock := setupPostgresStore(t)
	roomID := uuid.New()

	mock.ExpectExec(`DELETE FROM messages WHERE room_id = \$1`).
		WithArgs(roomID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, store.DeleteRoom(context.Background(), roomID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteRoomTx(t *testing.T) {
	store, mock := setupPostgresStore(t)
	ctx := context.Background()
	roomID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM messages WHERE room_id = \$1`).
		WithArgs(roomID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectRollback()

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, store.DeleteRoomTx(ctx, tx, roomID))
	require.NoError(t, tx.Rollback(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}
