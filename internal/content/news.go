package content

import (
	"context"
	"time"

	"github.com/romangod6/city-guide/internal/models"
	"github.com/romangod6/city-guide/internal/storage"
)

// Accepted news date layouts: the admin form's ISO date and the displayed DD.MM.YYYY.
var newsDateLayouts = []string{"2006-01-02", "02.01.2006"}

func validateNews(n *models.News) error {
	if n.Title == "" {
		return invalid("news title is required")
	}
	if n.Date == "" {
		return nil
	}
	for _, layout := range newsDateLayouts {
		if _, err := time.Parse(layout, n.Date); err == nil {
			return nil
		}
	}
	return invalid("news date %q must be YYYY-MM-DD or DD.MM.YYYY", n.Date)
}

func (s *Service) ListNews(ctx context.Context) ([]models.News, error) {
	return storage.ListAs[models.News](ctx, s.store, storage.KindNews)
}

func (s *Service) GetNews(ctx context.Context, id string) (models.News, error) {
	return storage.GetAs[models.News](ctx, s.store, storage.KindNews, id)
}

func (s *Service) CreateNews(ctx context.Context, in models.NewsInput) (models.News, error) {
	n := models.NewNews(in)
	if err := validateNews(n); err != nil {
		return models.News{}, err
	}
	if err := s.insert(ctx, storage.KindNews, n.ID, n); err != nil {
		return models.News{}, err
	}
	return *n, nil
}

// UpdateNews replaces every field of an existing news item.
func (s *Service) UpdateNews(ctx context.Context, id string, in models.NewsInput) (models.News, error) {
	n := &models.News{ID: id}
	n.Apply(in)
	if err := validateNews(n); err != nil {
		return models.News{}, err
	}
	if err := s.replace(ctx, storage.KindNews, id, n); err != nil {
		return models.News{}, err
	}
	return *n, nil
}

func (s *Service) DeleteNews(ctx context.Context, id string) error {
	return s.store.Delete(ctx, storage.KindNews, id)
}

func (s *Service) insert(ctx context.Context, kind storage.Kind, id string, v any) error {
	doc, err := storage.Encode(id, v)
	if err != nil {
		return err
	}
	return s.store.Insert(ctx, kind, doc)
}

func (s *Service) replace(ctx context.Context, kind storage.Kind, id string, v any) error {
	doc, err := storage.Encode(id, v)
	if err != nil {
		return err
	}
	return s.store.Replace(ctx, kind, doc)
}
