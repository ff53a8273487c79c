package events

import (
	"context"
	"fmt"

	"etickets/internal/errs"
	"etickets/internal/models"
)

type DBLayer interface {
	ListActiveEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
}

// CatalogService is the read-only public view of events.
type CatalogService struct {
	DB DBLayer
}

func NewCatalogService(db DBLayer) *CatalogService {
	return &CatalogService{DB: db}
}

func (s *CatalogService) ListActiveEvents(ctx context.Context) ([]models.Event, error) {
	return s.DB.ListActiveEvents(ctx)
}

// GetEvent hides inactive events from the public catalog.
func (s *CatalogService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusActive {
		return nil, fmt.Errorf("%w: event %d", errs.ErrNotFound, id)
	}
	return event, nil
}
