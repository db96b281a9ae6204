package chatlog

import (
	"context"
	"fmt"
	"time"

	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// messageDoc is the stored shape. The ObjectID doubles as the insertion
// order tie-break for messages created in the same millisecond.
type messageDoc struct {
	OID       primitive.ObjectID `bson:"_id,omitempty"`
	ID        string             `bson:"message_id"`
	RoomID    string             `bson:"room_id"`
	AuthorID  string             `bson:"author_id"`
	Username  string             `bson:"username"`
	Body      string             `bson:"body"`
	CreatedAt time.Time          `bson:"created_at"`
}

type MongoStore struct {
	c   *mongo.Collection
	now func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		c:   db.Collection("chat_messages"),
		now: time.Now,
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_chat_room_order"),
		},
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().SetName("idx_chat_message_id").SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Append stores msg and fills in its id and creation time. Mongo keeps
// millisecond precision, so CreatedAt is truncated before it is returned.
func (s *MongoStore) Append(ctx context.Context, msg *models.Message) error {
	doc := messageDoc{
		OID:       primitive.NewObjectID(),
		ID:        uuid.New().String(),
		RoomID:    msg.RoomID.String(),
		AuthorID:  msg.AuthorID.String(),
		Username:  msg.Username,
		Body:      msg.Body,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	msg.ID = uuid.MustParse(doc.ID)
	msg.CreatedAt = doc.CreatedAt
	return nil
}

func (s *MongoStore) History(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"room_id": roomID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := make([]models.Message, 0, len(docs))
	for i, d := range docs {
		m, err := d.toModel()
		if err != nil {
			return nil, err
		}
		m.Seq = int64(i + 1)
		messages = append(messages, m)
	}
	return messages, nil
}

func (s *MongoStore) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	if _, err := s.c.DeleteMany(ctx, bson.M{"room_id": roomID.String()}); err != nil {
		return fmt.Errorf("failed to delete room messages: %w", err)
	}
	return nil
}

func (d messageDoc) toModel() (models.Message, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Message{}, fmt.Errorf("bad message id %q: %w", d.ID, err)
	}
	room, err := uuid.Parse(d.RoomID)
	if err != nil {
		return models.Message{}, fmt.Errorf("bad room id %q: %w", d.RoomID, err)
	}
	author, err := uuid.Parse(d.AuthorID)
	if err != nil {
		return models.Message{}, fmt.Errorf("bad author id %q: %w", d.AuthorID, err)
	}
	return models.Message{
		ID:        id,
		RoomID:    room,
		AuthorID:  author,
		Username:  d.Username,
		Body:      d.Body,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}
