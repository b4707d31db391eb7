package tourRepo

import (
	"context"
	"fmt"
	"time"

	"outlandish/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTourRepo implements TourRepository using MongoDB.
type MongoTourRepo struct {
	tourColl   *mongo.Collection
	optionColl *mongo.Collection
	linkColl   *mongo.Collection
}

// NewMongoTourRepo creates a new instance of TourRepository using MongoDB.
func NewMongoTourRepo(db *mongo.Database) (TourRepository, error) {
	repo := &MongoTourRepo{
		tourColl:   db.Collection("tours"),
		optionColl: db.Collection("extra_options"),
		linkColl:   db.Collection("tour_extra_options"),
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoTourRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.tourColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create tour indexes: %w", err)
	}
	if _, err := r.optionColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create extra option indexes: %w", err)
	}
	if _, err := r.linkColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tourId", Value: 1}, {Key: "extraOptionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create tour option link indexes: %w", err)
	}
	return nil
}

func (r *MongoTourRepo) findOne(ctx context.Context, filter bson.M) (*models.Tour, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var tour models.Tour
	if err := r.tourColl.FindOne(ctx, filter).Decode(&tour); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch tour: %w", err)
	}
	return &tour, nil
}

// GetBySlug retrieves a tour by its URL key.
func (r *MongoTourRepo) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// GetByID retrieves a tour by id.
func (r *MongoTourRepo) GetByID(ctx context.Context, id string) (*models.Tour, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

// ListActive returns the public catalogue.
func (r *MongoTourRepo) ListActive(ctx context.Context) ([]models.Tour, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "isFeatured", Value: -1}, {Key: "title", Value: 1}})
	cursor, err := r.tourColl.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tours: %w", err)
	}
	defer cursor.Close(ctx)

	tours := []models.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("failed to decode tours: %w", err)
	}
	return tours, nil
}

// AllowedOptions resolves the tour's option links and keeps only active options.
func (r *MongoTourRepo) AllowedOptions(ctx context.Context, tourID string) ([]models.ExtraOption, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.linkColl.Find(ctx, bson.M{"tourId": tourID})
	if err != nil {
		return nil, fmt.Errorf("failed to load option links for tour %s: %w", tourID, err)
	}
	var links []models.TourExtraOption
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode option links: %w", err)
	}

	ids := make([]string, 0, len(links))
	for _, l := range links {
		if l.ExtraOptionID != "" {
			ids = append(ids, l.ExtraOptionID)
		}
	}
	if len(ids) == 0 {
		return []models.ExtraOption{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	optCursor, err := r.optionColl.Find(ctx, bson.M{
		"id":       bson.M{"$in": ids},
		"isActive": bson.M{"$ne": false},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load extra options: %w", err)
	}
	extras := []models.ExtraOption{}
	if err := optCursor.All(ctx, &extras); err != nil {
		return nil, fmt.Errorf("failed to decode extra options: %w", err)
	}
	return extras, nil
}
