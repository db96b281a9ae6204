package chatlog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMessageDoc_ToModel(t *testing.T) {
	id, room, author := uuid.New(), uuid.New(), uuid.New()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.FixedZone("IST", 19800))

	m, err := messageDoc{
		OID:       primitive.NewObjectID(),
		ID:        id.String(),
		RoomID:    room.String(),
		AuthorID:  author.String(),
		Username:  "alice",
		Body:      "hello",
		CreatedAt: at,
	}.toModel()

	require.NoError(t, err)
	assert.Equal(t, id, m.ID)
	assert.Equal(t, room, m.RoomID)
	assert.Equal(t, author, m.AuthorID)
	assert.Equal(t, time.UTC, m.CreatedAt.Location())
	assert.True(t, at.Equal(m.CreatedAt))
}

func TestMessageDoc_ToModel_BadID(t *testing.T) {
	_, err := messageDoc{ID: "nope", RoomID: uuid.NewString(), AuthorID: uuid.NewString()}.toModel()
	assert.Error(t, err)
}
