package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileLayout is the on-disk shape of the single JSON document.
type fileLayout struct {
	News           []json.RawMessage `json:"news"`
	Categories     []json.RawMessage `json:"categories"`
	Establishments []json.RawMessage `json:"establishments"`
	Contacts       json.RawMessage   `json:"contacts,omitempty"`
	// Admin is kept so rewrites do not drop it; it is never read for login.
	Admin json.RawMessage `json:"admin,omitempty"`
}

// FileStore keeps all content in one JSON file and rewrites it on every mutation.
type FileStore struct {
	path  string
	mu    sync.RWMutex
	data  collections
	admin json.RawMessage
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, data: newCollections()}
}

// Initialize loads the file. A missing file yields an empty store.
func (f *FileStore) Initialize(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.data = newCollections()
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return unavailable("create data dir", err)
		}
		return nil
	}
	if err != nil {
		return unavailable("read data file", err)
	}

	data, admin, err := parseFileLayout(raw)
	if err != nil {
		return err
	}
	f.data = data
	f.admin = admin
	return nil
}

func (f *FileStore) Ping(context.Context) error {
	dir := filepath.Dir(f.path)
	if _, err := os.Stat(dir); err != nil {
		return unavailable("stat data dir", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) List(_ context.Context, kind Kind) ([]Document, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.data[kind].list(), nil
}

func (f *FileStore) Get(_ context.Context, kind Kind, id string) (Document, error) {
	if err := checkKind(kind); err != nil {
		return Document{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.data.get(kind, id)
}

func (f *FileStore) Insert(_ context.Context, kind Kind, doc Document) error {
	if kind == KindContacts && doc.ID != contactsDocID {
		return fmt.Errorf("contacts id must be %q, got %q", contactsDocID, doc.ID)
	}
	return f.mutate(kind, func(c collections) error { return c.insert(kind, doc) })
}

func (f *FileStore) Replace(_ context.Context, kind Kind, doc Document) error {
	return f.mutate(kind, func(c collections) error { return c.replace(kind, doc) })
}

func (f *FileStore) Delete(_ context.Context, kind Kind, id string) error {
	return f.mutate(kind, func(c collections) error { return c.delete(kind, id) })
}

// mutate applies fn to a copy and swaps it in only after the file was written.
func (f *FileStore) mutate(kind Kind, fn func(collections) error) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.data.copy()
	if err := fn(next); err != nil {
		return err
	}
	if err := f.write(next); err != nil {
		return err
	}
	f.data = next
	return nil
}

func (f *FileStore) write(data collections) error {
	layout := fileLayout{
		News:           bodies(data[KindNews]),
		Categories:     bodies(data[KindCategories]),
		Establishments: bodies(data[KindEstablishments]),
		Admin:          f.admin,
	}
	if doc, ok := data[KindContacts].get(contactsDocID); ok {
		layout.Contacts = doc.Body
	}

	raw, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return unavailable("create data dir", err)
	}
	tmp, err := os.CreateTemp(dir, ".data-*.json")
	if err != nil {
		return unavailable("create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return unavailable("write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("close temp file", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return unavailable("rename data file", err)
	}
	return nil
}

func bodies(c *collection) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(c.order))
	for _, doc := range c.list() {
		out = append(out, json.RawMessage(doc.Body))
	}
	return out
}

// contactsDocID mirrors models.ContactsID; storage does not import models.
const contactsDocID = "contacts"

func parseFileLayout(raw []byte) (collections, json.RawMessage, error) {
	var layout fileLayout
	if err := json.Unmarshal(raw, &layout); err != nil {
		return nil, nil, fmt.Errorf("parse data file: %w", err)
	}

	data := newCollections()
	load := func(kind Kind, items []json.RawMessage) error {
		for i, item := range items {
			switch kind {
			case KindCategories:
				item = upgradeLegacyCategory(item)
			case KindNews:
				item = upgradeLegacyNews(item)
			}
			var head struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(item, &head); err != nil {
				return fmt.Errorf("parse %s[%d]: %w", kind, i, err)
			}
			if head.ID == "" {
				return fmt.Errorf("parse %s[%d]: missing id", kind, i)
			}
			if err := data.insert(kind, Document{ID: head.ID, Body: item}); err != nil {
				return err
			}
		}
		return nil
	}

	if err := load(KindNews, layout.News); err != nil {
		return nil, nil, err
	}
	if err := load(KindCategories, layout.Categories); err != nil {
		return nil, nil, err
	}
	if err := load(KindEstablishments, layout.Establishments); err != nil {
		return nil, nil, err
	}
	if c := bytes.TrimSpace(layout.Contacts); len(c) > 0 && !bytes.Equal(c, []byte("null")) {
		data[KindContacts].insert(Document{ID: contactsDocID, Body: c})
	}

	return data, layout.Admin, nil
}

// upgradeLegacyCategory turns a bare category name into an {id, name} record
// whose id is the name itself.
func upgradeLegacyCategory(item json.RawMessage) json.RawMessage {
	var name string
	if err := json.Unmarshal(item, &name); err != nil {
		return item
	}
	upgraded, err := json.Marshal(struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}{ID: name, Name: name})
	if err != nil {
		return item
	}
	return upgraded
}

// upgradeLegacyNews moves the single "description" field written by the old
// admin form into shortDescription and fullDescription, unless those are set.
func upgradeLegacyNews(item json.RawMessage) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return item
	}
	desc, ok := fields["description"]
	if !ok {
		return item
	}
	delete(fields, "description")
	for _, key := range []string{"shortDescription", "fullDescription"} {
		if isBlankJSON(fields[key]) {
			fields[key] = desc
		}
	}
	upgraded, err := json.Marshal(fields)
	if err != nil {
		return item
	}
	return upgraded
}

func isBlankJSON(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}
