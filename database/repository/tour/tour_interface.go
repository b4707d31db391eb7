package tourRepo

import (
	"context"

	"outlandish/models"
)

// TourRepository defines read access to the catalogue. Getters return nil, nil when missing.
type TourRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tour, error)
	GetByID(ctx context.Context, id string) (*models.Tour, error)
	// ListActive returns active tours, featured first then by title.
	ListActive(ctx context.Context) ([]models.Tour, error)
	// AllowedOptions returns the active extra options linked to a tour, ordered by name.
	AllowedOptions(ctx context.Context, tourID string) ([]models.ExtraOption, error)
}
