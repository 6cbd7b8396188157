package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrDuplicateID = errors.New("document id already exists")
	ErrUnavailable = errors.New("store unavailable")
	ErrUnknownKind = errors.New("unknown document kind")
)

// Kind names a collection of documents of one entity type.
type Kind string

const (
	KindNews           Kind = "news"
	KindCategories     Kind = "categories"
	KindEstablishments Kind = "establishments"
	KindContacts       Kind = "contacts"
)

// Kinds lists every kind a store must hold.
var Kinds = []Kind{KindNews, KindCategories, KindEstablishments, KindContacts}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Document is a JSON body addressed by an application-assigned id.
type Document struct {
	ID   string
	Body json.RawMessage
}

type Store interface {
	// Initialize prepares tables, indexes or files. It is safe to call repeatedly.
	Initialize(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	// List returns every document of a kind. Order is best-effort insertion order.
	List(ctx context.Context, kind Kind) ([]Document, error)
	Get(ctx context.Context, kind Kind, id string) (Document, error)
	Insert(ctx context.Context, kind Kind, doc Document) error
	// Replace overwrites the whole body of an existing document.
	Replace(ctx context.Context, kind Kind, doc Document) error
	Delete(ctx context.Context, kind Kind, id string) error
}

// Encode marshals v into a document with the given id.
func Encode(id string, v any) (Document, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s: %w", id, err)
	}
	return Document{ID: id, Body: body}, nil
}

// Decode unmarshals a document body into v.
func Decode(doc Document, v any) error {
	if err := json.Unmarshal(doc.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", doc.ID, err)
	}
	return nil
}

// ListAs lists a kind and decodes every document into T.
func ListAs[T any](ctx context.Context, s Store, kind Kind) ([]T, error) {
	docs, err := s.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetAs fetches one document and decodes it into T.
func GetAs[T any](ctx context.Context, s Store, kind Kind, id string) (T, error) {
	var v T
	doc, err := s.Get(ctx, kind, id)
	if err != nil {
		return v, err
	}
	err = Decode(doc, &v)
	return v, err
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

func checkKind(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}
