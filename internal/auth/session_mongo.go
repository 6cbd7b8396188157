package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionStore keeps sessions in a "sessions" collection. A TTL index
// lets the server reap expired documents; reads still check expiry because
// the reaper runs only periodically.
type MongoSessionStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{coll: db.Collection("sessions"), now: time.Now}
}

func (s *MongoSessionStore) Initialize(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_token"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("create session indexes: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Save(ctx context.Context, sess Session) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "token", Value: sess.Token}},
		sess,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Get(ctx context.Context, token string) (Session, bool, error) {
	var sess Session
	err := s.coll.FindOne(ctx, bson.D{{Key: "token", Value: token}}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(s.now()) {
		return Session{}, false, nil
	}
	return sess, true, nil
}

func (s *MongoSessionStore) Delete(ctx context.Context, token string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "token", Value: token}}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
