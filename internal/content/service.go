// Package content enforces the cross-entity rules of the site content on top
// of a document store: category uniqueness, category cascades into
// establishments, and the singleton contacts record.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/romangod6/city-guide/internal/models"
	"github.com/romangod6/city-guide/internal/storage"
)

var (
	ErrNotFound          = storage.ErrNotFound
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrCategoryInUse     = errors.New("category is in use")
)

// CategoryInUseError reports how many establishments block a category delete.
type CategoryInUseError struct {
	Category       string
	Establishments int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category %q is used by %d establishment(s)", e.Category, e.Establishments)
}

func (e *CategoryInUseError) Is(target error) bool {
	return target == ErrCategoryInUse
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

type Service struct {
	store  storage.Store
	logger zerolog.Logger
}

func NewService(store storage.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "content").Logger(),
	}
}

// Snapshot reads every collection for the public page and the admin panel.
func (s *Service) Snapshot(ctx context.Context) (models.Snapshot, error) {
	news, err := s.ListNews(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	establishments, err := s.ListEstablishments(ctx, "")
	if err != nil {
		return models.Snapshot{}, err
	}
	contacts, err := s.GetContacts(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}

	return models.Snapshot{
		News:           news,
		Categories:     categories,
		Establishments: establishments,
		Contacts:       contacts,
	}, nil
}

// GetContacts returns the contacts record, or an empty one if none was saved yet.
func (s *Service) GetContacts(ctx context.Context) (models.Contacts, error) {
	c, err := storage.GetAs[models.Contacts](ctx, s.store, storage.KindContacts, models.ContactsID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Contacts{}, nil
	}
	return c, err
}

// UpsertContacts writes the singleton contacts record, creating it on first write.
func (s *Service) UpsertContacts(ctx context.Context, c models.Contacts) (models.Contacts, error) {
	doc, err := storage.Encode(models.ContactsID, c)
	if err != nil {
		return models.Contacts{}, err
	}

	err = s.store.Replace(ctx, storage.KindContacts, doc)
	if errors.Is(err, storage.ErrNotFound) {
		err = s.store.Insert(ctx, storage.KindContacts, doc)
		if errors.Is(err, storage.ErrDuplicateID) {
			// lost a race with another first write
			err = s.store.Replace(ctx, storage.KindContacts, doc)
		}
	}
	if err != nil {
		return models.Contacts{}, err
	}

	return c, nil
}
