package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tourRepo "outlandish/database/repository/tour"
	"outlandish/models"

	"go.uber.org/zap"
)

const (
	tourKeyPrefix = "catalog:tour:"
	listKey       = "catalog:tours"
	defaultTTL    = 5 * time.Minute
)

// CatalogService serves tours and their bookable options, read through a cache. Cache
// failures are logged and fall back to the database.
type CatalogService struct {
	tours  tourRepo.TourRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService builds the service. cache may be nil to disable caching.
func NewCatalogService(tours tourRepo.TourRepository, cache Cache, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{tours: tours, cache: cache, ttl: ttl, logger: logger}
}

// TourBySlug returns the tour with its active options, or nil when no tour has the slug.
// Inactive tours are returned too; callers decide whether to show them.
func (s *CatalogService) TourBySlug(ctx context.Context, slug string) (*models.TourListing, error) {
	key := tourKeyPrefix + slug
	var cached models.TourListing
	if s.load(ctx, key, &cached) {
		return &cached, nil
	}

	tour, err := s.tours.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour %q: %w", slug, err)
	}
	if tour == nil {
		return nil, nil
	}
	options, err := s.tours.AllowedOptions(ctx, tour.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load options for tour %q: %w", slug, err)
	}

	listing := &models.TourListing{Tour: *tour, Options: options}
	s.store(ctx, key, listing)
	return listing, nil
}

// TourByID reads straight from the database; it is only used to label bookings.
func (s *CatalogService) TourByID(ctx context.Context, id string) (*models.Tour, error) {
	return s.tours.GetByID(ctx, id)
}

// AllowedOptions reads the tour's active options from the database, bypassing the cache,
// so a deactivated option cannot be priced while a cached listing still shows it.
func (s *CatalogService) AllowedOptions(ctx context.Context, tourID string) ([]models.ExtraOption, error) {
	options, err := s.tours.AllowedOptions(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to load options for tour %q: %w", tourID, err)
	}
	return options, nil
}

// ListTours returns the active tours, featured first.
func (s *CatalogService) ListTours(ctx context.Context) ([]models.Tour, error) {
	var cached []models.Tour
	if s.load(ctx, listKey, &cached) {
		return cached, nil
	}

	tours, err := s.tours.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	s.store(ctx, listKey, tours)
	return tours, nil
}

// Invalidate drops the cached listing for slug and the cached tour list.
func (s *CatalogService) Invalidate(ctx context.Context, slug string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, tourKeyPrefix+slug, listKey)
}

func (s *CatalogService) load(ctx context.Context, key string, dst interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("Discarding unreadable catalog cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *CatalogService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Failed to marshal catalog entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
