package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"outlandish/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
	paymentColl *mongo.Collection
}

// NewMongoBookingRepo creates a new instance of BookingRepository using MongoDB.
func NewMongoBookingRepo(db *mongo.Database) (BookingRepository, error) {
	repo := &MongoBookingRepo{
		bookingColl: db.Collection("bookings"),
		paymentColl: db.Collection("processed_payments"),
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// GetByID retrieves a booking by its id.
func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking with id %s: %w", id, err)
	}
	return &booking, nil
}

// ListByUser returns a customer's bookings, earliest start date first.
func (r *MongoBookingRepo) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"userId": userID}, byStartDate)
}

// ListByGuide returns the bookings assigned to a guide, earliest start date first.
func (r *MongoBookingRepo) ListByGuide(ctx context.Context, guideID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"guideId": guideID}, byStartDate)
}

// List returns every booking, newest first. A non-empty guideID restricts it to that guide.
func (r *MongoBookingRepo) List(ctx context.Context, guideID string) ([]models.Booking, error) {
	filter := bson.M{}
	if guideID != "" {
		filter["guideId"] = guideID
	}
	return r.find(ctx, filter, newestFirst)
}

var (
	byStartDate = bson.D{{Key: "startDate", Value: 1}}
	newestFirst = bson.D{{Key: "createdAt", Value: -1}}
)

func (r *MongoBookingRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Booking, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(sort)
	cursor, err := r.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// CountByGuide groups assigned bookings by guide id.
func (r *MongoBookingRepo) CountByGuide(ctx context.Context) (map[string]int, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"guideId": bson.M{"$ne": nil}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$guideId"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.bookingColl.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by guide: %w", err)
	}
	defer cursor.Close(ctx)

	counts := map[string]int{}
	for cursor.Next(ctx) {
		var row struct {
			GuideID string `bson:"_id"`
			Count   int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode guide count: %w", err)
		}
		counts[row.GuideID] = row.Count
	}
	return counts, cursor.Err()
}

// SetPickupLocation stores the customer's pickup instructions. An empty location clears them.
func (r *MongoBookingRepo) SetPickupLocation(ctx context.Context, id, location string) error {
	return r.updateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{
		"pickupLocation": location,
		"updatedAt":      time.Now(),
	}})
}

// SetGuide assigns a guide, or detaches one when guideID is nil.
func (r *MongoBookingRepo) SetGuide(ctx context.Context, id string, guideID *string) error {
	return r.updateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{
		"guideId":   guideID,
		"updatedAt": time.Now(),
	}})
}

// DetachGuide nulls guideId on all bookings assigned to guideID.
func (r *MongoBookingRepo) DetachGuide(ctx context.Context, guideID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.bookingColl.UpdateMany(ctx, bson.M{"guideId": guideID}, bson.M{"$set": bson.M{
		"guideId":   nil,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to detach guide %s from bookings: %w", guideID, err)
	}
	return res.ModifiedCount, nil
}

// AppendAdminNote adds a line to the booking's notes without touching earlier lines.
func (r *MongoBookingRepo) AppendAdminNote(ctx context.Context, id, noteLine string) error {
	return r.updateOne(ctx, bson.M{"id": id}, appendNotePipeline(noteLine, bson.E{Key: "updatedAt", Value: time.Now()}))
}

// TransitionStatus only matches the booking while it is still in status from, so two
// concurrent staff actions cannot both succeed.
func (r *MongoBookingRepo) TransitionStatus(ctx context.Context, id string, from, to models.BookingStatus, noteLine string) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	update := appendNotePipeline(noteLine,
		bson.E{Key: "status", Value: to},
		bson.E{Key: "updatedAt", Value: time.Now()},
	)
	res, err := r.bookingColl.UpdateOne(ctx, bson.M{"id": id, "status": from}, update)
	if err != nil {
		return fmt.Errorf("failed to update status of booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		count, err := r.bookingColl.CountDocuments(ctx, bson.M{"id": id})
		if err != nil {
			return fmt.Errorf("failed to check booking %s: %w", id, err)
		}
		if count == 0 {
			return ErrBookingNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

// appendNotePipeline builds an update pipeline that appends a line to adminNotes
// and sets the extra fields in the same stage.
func appendNotePipeline(noteLine string, extra ...bson.E) mongo.Pipeline {
	existing := bson.D{{Key: "$ifNull", Value: bson.A{"$adminNotes", ""}}}
	set := bson.D{
		{Key: "adminNotes", Value: bson.D{
			{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$eq", Value: bson.A{existing, ""}}}},
				{Key: "then", Value: noteLine},
				{Key: "else", Value: bson.D{{Key: "$concat", Value: bson.A{existing, "\n", noteLine}}}},
			}},
		}},
	}
	set = append(set, extra...)
	return mongo.Pipeline{bson.D{{Key: "$set", Value: set}}}
}

func (r *MongoBookingRepo) updateOne(ctx context.Context, filter bson.M, update interface{}) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func upsertOpts() *options.UpdateOptions {
	return options.Update().SetUpsert(true)
}
