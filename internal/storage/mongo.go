package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one collection per kind. Documents are addressed by the
// application id stored in the "id" field; the server-assigned _id is never
// exposed.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, unavailable("connect mongo", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, unavailable("ping mongo", err)
	}

	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

// Database exposes the underlying database so sessions can share the connection.
func (s *MongoStore) Database() *mongo.Database {
	return s.db
}

func (s *MongoStore) Initialize(ctx context.Context) error {
	for _, kind := range Kinds {
		_, err := s.db.Collection(string(kind)).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_app_id"),
		})
		if err != nil {
			return fmt.Errorf("create index on %s: %w", kind, err)
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return unavailable("ping mongo", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, kind Kind) ([]Document, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.D{{Key: "_id", Value: 0}})
	cur, err := s.db.Collection(string(kind)).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, unavailable("list "+string(kind), err)
	}
	defer cur.Close(ctx)

	var docs []Document
	for cur.Next(ctx) {
		var raw bson.D
		if err := cur.Decode(&raw); err != nil {
			return nil, unavailable("decode "+string(kind), err)
		}
		doc, err := fromBSON(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, unavailable("list "+string(kind), err)
	}

	return docs, nil
}

func (s *MongoStore) Get(ctx context.Context, kind Kind, id string) (Document, error) {
	if err := checkKind(kind); err != nil {
		return Document{}, err
	}

	var raw bson.D
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 0}})
	err := s.db.Collection(string(kind)).FindOne(ctx, bson.D{{Key: "id", Value: id}}, opts).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, unavailable("get "+string(kind), err)
	}

	return fromBSON(raw)
}

func (s *MongoStore) Insert(ctx context.Context, kind Kind, doc Document) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	body, err := toBSON(doc)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(string(kind)).InsertOne(ctx, body); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s %s: %w", kind, doc.ID, ErrDuplicateID)
		}
		return unavailable("insert "+string(kind), err)
	}

	return nil
}

func (s *MongoStore) Replace(ctx context.Context, kind Kind, doc Document) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	body, err := toBSON(doc)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(string(kind)).ReplaceOne(ctx, bson.D{{Key: "id", Value: doc.ID}}, body)
	if err != nil {
		return unavailable("replace "+string(kind), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, doc.ID, ErrNotFound)
	}

	return nil
}

func (s *MongoStore) Delete(ctx context.Context, kind Kind, id string) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	res, err := s.db.Collection(string(kind)).DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	if err != nil {
		return unavailable("delete "+string(kind), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}

	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// toBSON converts a JSON body to a BSON document whose "id" field is doc.ID.
func toBSON(doc Document) (bson.D, error) {
	var body bson.D
	if err := bson.UnmarshalExtJSON(doc.Body, false, &body); err != nil {
		return nil, fmt.Errorf("convert %s to bson: %w", doc.ID, err)
	}

	out := bson.D{{Key: "id", Value: doc.ID}}
	for _, e := range body {
		if e.Key == "id" || e.Key == "_id" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func fromBSON(raw bson.D) (Document, error) {
	var doc Document
	for _, e := range raw {
		if e.Key == "id" {
			doc.ID, _ = e.Value.(string)
			break
		}
	}

	body, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return Document{}, fmt.Errorf("convert %s to json: %w", doc.ID, err)
	}
	doc.Body = body
	return doc, nil
}
