package storage

import (
	"context"
	"fmt"
	"sync"
)

// collection keeps documents of one kind in insertion order.
type collection struct {
	order []string
	docs  map[string][]byte
}

func newCollection() *collection {
	return &collection{docs: make(map[string][]byte)}
}

func (c *collection) list() []Document {
	out := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Document{ID: id, Body: clone(c.docs[id])})
	}
	return out
}

func (c *collection) get(id string) (Document, bool) {
	body, ok := c.docs[id]
	if !ok {
		return Document{}, false
	}
	return Document{ID: id, Body: clone(body)}, true
}

func (c *collection) insert(doc Document) bool {
	if _, exists := c.docs[doc.ID]; exists {
		return false
	}
	c.order = append(c.order, doc.ID)
	c.docs[doc.ID] = clone(doc.Body)
	return true
}

func (c *collection) replace(doc Document) bool {
	if _, exists := c.docs[doc.ID]; !exists {
		return false
	}
	c.docs[doc.ID] = clone(doc.Body)
	return true
}

func (c *collection) delete(id string) bool {
	if _, exists := c.docs[id]; !exists {
		return false
	}
	delete(c.docs, id)
	filtered := make([]string, 0, len(c.order)-1)
	for _, item := range c.order {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	c.order = filtered
	return true
}

func (c *collection) copy() *collection {
	out := &collection{
		order: append([]string(nil), c.order...),
		docs:  make(map[string][]byte, len(c.docs)),
	}
	for id, body := range c.docs {
		out.docs[id] = body
	}
	return out
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

// collections applies store semantics to one collection per kind.
type collections map[Kind]*collection

func newCollections() collections {
	c := make(collections, len(Kinds))
	for _, kind := range Kinds {
		c[kind] = newCollection()
	}
	return c
}

func (c collections) copy() collections {
	out := make(collections, len(c))
	for kind, col := range c {
		out[kind] = col.copy()
	}
	return out
}

func (c collections) get(kind Kind, id string) (Document, error) {
	doc, ok := c[kind].get(id)
	if !ok {
		return Document{}, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return doc, nil
}

func (c collections) insert(kind Kind, doc Document) error {
	if !c[kind].insert(doc) {
		return fmt.Errorf("%s %s: %w", kind, doc.ID, ErrDuplicateID)
	}
	return nil
}

func (c collections) replace(kind Kind, doc Document) error {
	if !c[kind].replace(doc) {
		return fmt.Errorf("%s %s: %w", kind, doc.ID, ErrNotFound)
	}
	return nil
}

func (c collections) delete(kind Kind, id string) error {
	if !c[kind].delete(id) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// MemoryStore is an in-process, concurrency-safe store.
type MemoryStore struct {
	mu   sync.RWMutex
	data collections
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newCollections()}
}

func (m *MemoryStore) Initialize(context.Context) error { return nil }
func (m *MemoryStore) Ping(context.Context) error       { return nil }
func (m *MemoryStore) Close() error                     { return nil }

func (m *MemoryStore) List(_ context.Context, kind Kind) ([]Document, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[kind].list(), nil
}

func (m *MemoryStore) Get(_ context.Context, kind Kind, id string) (Document, error) {
	if err := checkKind(kind); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.get(kind, id)
}

func (m *MemoryStore) Insert(_ context.Context, kind Kind, doc Document) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.insert(kind, doc)
}

func (m *MemoryStore) Replace(_ context.Context, kind Kind, doc Document) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.replace(kind, doc)
}

func (m *MemoryStore) Delete(_ context.Context, kind Kind, id string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.delete(kind, id)
}
