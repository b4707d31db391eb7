package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"outlandish/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ApplyPayment records the session as processed and increments amountPaid in one transaction.
// A duplicate session id means the payment was applied by an earlier delivery; the transaction
// is aborted and false is returned.
func (r *MongoBookingRepo) ApplyPayment(ctx context.Context, app models.PaymentApplication) (bool, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	client := r.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return false, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	applied := false
	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		ok, err := r.applyPaymentTxn(sc, app)
		if err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		if !ok {
			_ = sc.AbortTransaction(sc)
			return nil
		}
		if err := sc.CommitTransaction(sc); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("payment transaction failed: %w", err)
	}
	return applied, nil
}

func (r *MongoBookingRepo) applyPaymentTxn(sc mongo.SessionContext, app models.PaymentApplication) (bool, error) {
	now := time.Now()

	record := models.ProcessedPayment{
		SessionID:   app.SessionID,
		BookingID:   app.BookingID,
		Amount:      app.Amount,
		PaymentType: app.PaymentType,
		CreatedAt:   now,
	}
	if _, err := r.paymentColl.InsertOne(sc, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert processed payment failed: %w", err)
	}

	update := bson.M{
		"$inc": bson.M{"amountPaid": app.Amount},
		"$set": bson.M{"updatedAt": now},
	}

	filter := bson.M{"id": app.BookingID}
	if app.Booking == nil {
		res, err := r.bookingColl.UpdateOne(sc, filter, update)
		if err != nil {
			return false, fmt.Errorf("increment amount paid failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return false, ErrBookingNotFound
		}
		return true, nil
	}

	b := app.Booking
	update["$setOnInsert"] = bson.M{
		"id":             app.BookingID,
		"userId":         b.UserID,
		"tourId":         b.TourID,
		"guideId":        nil,
		"startDate":      b.StartDate,
		"guests":         b.Guests,
		"totalAmount":    b.TotalAmount,
		"status":         models.BookingConfirmed,
		"adminNotes":     b.AdminNotes,
		"customerName":   b.CustomerName,
		"customerEmail":  b.CustomerEmail,
		"extraOptionIds": b.ExtraOptionIDs,
		"createdAt":      now,
	}
	if _, err := r.bookingColl.UpdateOne(sc, filter, update, upsertOpts()); err != nil {
		return false, fmt.Errorf("upsert booking failed: %w", err)
	}
	return true, nil
}

// IsSessionProcessed reports whether a checkout session id has been applied.
func (r *MongoBookingRepo) IsSessionProcessed(ctx context.Context, sessionID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.paymentColl.CountDocuments(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return false, fmt.Errorf("failed to check processed payment %s: %w", sessionID, err)
	}
	return count > 0, nil
}
