package guideRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outlandish/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrGuideNotFound is returned by writes when no guide has the id.
var ErrGuideNotFound = errors.New("guide not found")

// MongoGuideRepo implements GuideRepository using MongoDB.
type MongoGuideRepo struct {
	coll *mongo.Collection
}

// NewMongoGuideRepo creates a new instance of GuideRepository using MongoDB.
func NewMongoGuideRepo(db *mongo.Database) (GuideRepository, error) {
	repo := &MongoGuideRepo{coll: db.Collection("guides")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create guide indexes: %w", err)
	}
	return repo, nil
}

func (r *MongoGuideRepo) findOne(ctx context.Context, filter bson.M) (*models.Guide, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var guide models.Guide
	if err := r.coll.FindOne(ctx, filter).Decode(&guide); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch guide: %w", err)
	}
	return &guide, nil
}

func (r *MongoGuideRepo) GetByID(ctx context.Context, id string) (*models.Guide, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoGuideRepo) GetByUserID(ctx context.Context, userID string) (*models.Guide, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

// List returns all guides ordered by first name.
func (r *MongoGuideRepo) List(ctx context.Context) ([]models.Guide, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "firstName", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve guides: %w", err)
	}
	guides := []models.Guide{}
	if err := cursor.All(ctx, &guides); err != nil {
		return nil, fmt.Errorf("failed to decode guides: %w", err)
	}
	return guides, nil
}

// SetActive updates isActive and stamps updatedAt.
func (r *MongoGuideRepo) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update guide %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrGuideNotFound
	}
	return nil
}

// Delete removes a guide document by its ID.
func (r *MongoGuideRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete guide with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrGuideNotFound
	}
	return nil
}
