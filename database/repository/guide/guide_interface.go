package guideRepo

import (
	"context"

	"outlandish/models"
)

// GuideRepository defines methods for guide data access. Getters return nil, nil when missing.
type GuideRepository interface {
	GetByID(ctx context.Context, id string) (*models.Guide, error)
	// GetByUserID finds the guide profile linked to a login.
	GetByUserID(ctx context.Context, userID string) (*models.Guide, error)
	List(ctx context.Context) ([]models.Guide, error)
	// SetActive flips the guide's active flag; ErrGuideNotFound when no guide has the id.
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}
