package content

import (
	"context"

	"github.com/romangod6/city-guide/internal/models"
	"github.com/romangod6/city-guide/internal/storage"
)

// The category reference is not checked against existing categories; the
// admin panel only offers known names.
func validateEstablishment(e *models.Establishment) error {
	if e.Name == "" {
		return invalid("establishment name is required")
	}
	if e.Coordinates != nil && !e.Coordinates.Valid() {
		return invalid("coordinates %v,%v are out of range", e.Coordinates.Latitude, e.Coordinates.Longitude)
	}
	return nil
}

// ListEstablishments returns establishments of one category, or all of them
// when category is empty.
func (s *Service) ListEstablishments(ctx context.Context, category string) ([]models.Establishment, error) {
	all, err := storage.ListAs[models.Establishment](ctx, s.store, storage.KindEstablishments)
	if err != nil || category == "" {
		return all, err
	}

	filtered := make([]models.Establishment, 0, len(all))
	for _, e := range all {
		if e.Category == category {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (s *Service) GetEstablishment(ctx context.Context, id string) (models.Establishment, error) {
	return storage.GetAs[models.Establishment](ctx, s.store, storage.KindEstablishments, id)
}

func (s *Service) CreateEstablishment(ctx context.Context, in models.EstablishmentInput) (models.Establishment, error) {
	e := models.NewEstablishment(in)
	if err := validateEstablishment(e); err != nil {
		return models.Establishment{}, err
	}
	if err := s.insert(ctx, storage.KindEstablishments, e.ID, e); err != nil {
		return models.Establishment{}, err
	}
	return *e, nil
}

func (s *Service) UpdateEstablishment(ctx context.Context, id string, in models.EstablishmentInput) (models.Establishment, error) {
	e := &models.Establishment{ID: id}
	e.Apply(in)
	if err := validateEstablishment(e); err != nil {
		return models.Establishment{}, err
	}
	if err := s.replace(ctx, storage.KindEstablishments, id, e); err != nil {
		return models.Establishment{}, err
	}
	return *e, nil
}

func (s *Service) DeleteEstablishment(ctx context.Context, id string) error {
	return s.store.Delete(ctx, storage.KindEstablishments, id)
}
