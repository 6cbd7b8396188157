package content

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/romangod6/city-guide/internal/models"
	"github.com/romangod6/city-guide/internal/storage"
)

// ListCategories returns categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := storage.ListAs[models.Category](ctx, s.store, storage.KindCategories)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(cats, func(a, b models.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return cats, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (models.Category, error) {
	return storage.GetAs[models.Category](ctx, s.store, storage.KindCategories, id)
}

// CreateCategory adds a category. Names are compared case-sensitively.
func (s *Service) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	c := models.NewCategory(name)
	if c.Name == "" {
		return models.Category{}, invalid("category name is required")
	}

	if _, err := s.findCategoryByName(ctx, c.Name); err == nil {
		return models.Category{}, fmt.Errorf("%w: %q", ErrDuplicateCategory, c.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Category{}, err
	}

	if err := s.insert(ctx, storage.KindCategories, c.ID, c); err != nil {
		return models.Category{}, err
	}
	return *c, nil
}

// RenameCategory renames a category and every establishment referencing the
// old name. Establishments are rewritten before the category itself, so a
// failure midway leaves the old category in place for a retry.
func (s *Service) RenameCategory(ctx context.Context, id, newName string) (models.Category, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return models.Category{}, invalid("category name is required")
	}

	cat, err := s.GetCategory(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	if cat.Name == newName {
		return cat, nil
	}

	if other, err := s.findCategoryByName(ctx, newName); err == nil && other.ID != id {
		return models.Category{}, fmt.Errorf("%w: %q", ErrDuplicateCategory, newName)
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.Category{}, err
	}

	refs, err := s.ListEstablishments(ctx, cat.Name)
	if err != nil {
		return models.Category{}, err
	}
	renamed := 0
	for _, e := range refs {
		e.Category = newName
		err := s.replace(ctx, storage.KindEstablishments, e.ID, &e)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return models.Category{}, fmt.Errorf("rename category %s: establishment %s: %w", id, e.ID, err)
		}
		renamed++
	}

	oldName := cat.Name
	cat.Name = newName
	if err := s.replace(ctx, storage.KindCategories, cat.ID, &cat); err != nil {
		return models.Category{}, err
	}

	s.logger.Info().
		Str("category_id", id).
		Str("from", oldName).
		Str("to", newName).
		Int("establishments", renamed).
		Msg("category renamed")
	return cat, nil
}

// DeleteCategory removes a category. When establishments still reference it
// the call fails with a *CategoryInUseError unless confirm is set, in which
// case those establishments are deleted first. It returns how many
// establishments were removed.
func (s *Service) DeleteCategory(ctx context.Context, id string, confirm bool) (int, error) {
	cat, err := s.GetCategory(ctx, id)
	if err != nil {
		return 0, err
	}

	refs, err := s.ListEstablishments(ctx, cat.Name)
	if err != nil {
		return 0, err
	}
	if len(refs) > 0 && !confirm {
		return 0, &CategoryInUseError{Category: cat.Name, Establishments: len(refs)}
	}

	removed := 0
	for _, e := range refs {
		err := s.store.Delete(ctx, storage.KindEstablishments, e.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("delete category %s: establishment %s: %w", id, e.ID, err)
		}
		removed++
	}

	if err := s.store.Delete(ctx, storage.KindCategories, cat.ID); err != nil {
		return removed, err
	}

	s.logger.Info().
		Str("category_id", id).
		Str("name", cat.Name).
		Int("establishments", removed).
		Msg("category deleted")
	return removed, nil
}

func (s *Service) findCategoryByName(ctx context.Context, name string) (models.Category, error) {
	cats, err := storage.ListAs[models.Category](ctx, s.store, storage.KindCategories)
	if err != nil {
		return models.Category{}, err
	}
	for _, c := range cats {
		if c.Name == name {
			return c, nil
		}
	}
	return models.Category{}, fmt.Errorf("category %q: %w", name, storage.ErrNotFound)
}
