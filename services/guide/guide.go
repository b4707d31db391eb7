package guide

import (
	"context"
	"fmt"

	bookingRepo "outlandish/database/repository/booking"
	guideRepo "outlandish/database/repository/guide"
	"outlandish/models"

	"go.uber.org/zap"
)

// GuideService manages staff guide profiles.
type GuideService interface {
	ListGuides(ctx context.Context) ([]models.GuideWithCount, error)
	SetGuideActive(ctx context.Context, id string, active bool) error
	DeleteGuide(ctx context.Context, id string) error
}

// DefaultGuideService is the production implementation.
type DefaultGuideService struct {
	Guides   guideRepo.GuideRepository
	Bookings bookingRepo.BookingRepository
	Logger   *zap.Logger
}

// ListGuides returns every guide with the number of bookings assigned to them.
func (s *DefaultGuideService) ListGuides(ctx context.Context) ([]models.GuideWithCount, error) {
	guides, err := s.Guides.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list guides: %w", err)
	}
	counts, err := s.Bookings.CountByGuide(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count guide bookings: %w", err)
	}

	out := make([]models.GuideWithCount, 0, len(guides))
	for _, g := range guides {
		out = append(out, models.GuideWithCount{Guide: g, BookingCount: counts[g.ID]})
	}
	return out, nil
}

// SetGuideActive marks a guide as available or unavailable. Existing assignments are left alone.
func (s *DefaultGuideService) SetGuideActive(ctx context.Context, id string, active bool) error {
	if err := s.Guides.SetActive(ctx, id, active); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("Guide status updated", zap.String("guideId", id), zap.Bool("isActive", active))
	}
	return nil
}

// DeleteGuide detaches the guide from all of their bookings and then removes the profile.
// Bookings are never deleted along with a guide.
func (s *DefaultGuideService) DeleteGuide(ctx context.Context, id string) error {
	g, err := s.Guides.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load guide %s: %w", id, err)
	}
	if g == nil {
		return guideRepo.ErrGuideNotFound
	}

	detached, err := s.Bookings.DetachGuide(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Guides.Delete(ctx, id); err != nil {
		return err
	}

	if s.Logger != nil {
		s.Logger.Info("Guide deleted", zap.String("guideId", id), zap.Int64("detachedBookings", detached))
	}
	return nil
}
