package booking

import (
	"context"
	"errors"

	bookingRepo "outlandish/database/repository/booking"
	"outlandish/metrics"
	"outlandish/models"
	"outlandish/services/payment"

	"go.uber.org/zap"
)

// WebhookOutcome says what HandleWebhook did with a verified event.
type WebhookOutcome string

const (
	// OutcomeApplied means the payment was added to the booking.
	OutcomeApplied WebhookOutcome = "applied"
	// OutcomeDuplicate means an earlier delivery already applied this session.
	OutcomeDuplicate WebhookOutcome = "duplicate"
	// OutcomeIgnored is an event type nothing here acts on.
	OutcomeIgnored WebhookOutcome = "ignored"
	// OutcomeUnpaid is a completed session whose funds are not yet secured.
	OutcomeUnpaid WebhookOutcome = "unpaid"
	// OutcomeRejected is a genuine event that cannot be applied; retrying will not help.
	OutcomeRejected WebhookOutcome = "rejected"
)

// HandleWebhook verifies a provider event and materializes the booking it pays for.
// Every error it returns except IntegrityError should make the provider retry.
func (s *DefaultBookingService) HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error) {
	log := s.logger()

	event, err := s.Verifier.ConstructEvent(payload, signature)
	if errors.Is(err, payment.ErrWebhookNotConfigured) {
		metrics.IncWebhookEvent("error")
		log.Error("Webhook received but no signing secret is configured")
		return "", dependencyError("verify webhook", err)
	}
	if err != nil {
		metrics.IncWebhookEvent("invalid_signature")
		return "", &IntegrityError{Err: err}
	}

	session, ok, err := payment.CompletedSession(event)
	if !ok {
		metrics.IncWebhookEvent(string(OutcomeIgnored))
		log.Debug("Ignoring webhook event", zap.String("eventId", event.ID), zap.String("type", string(event.Type)))
		return OutcomeIgnored, nil
	}
	if err != nil {
		metrics.IncWebhookEvent(string(OutcomeRejected))
		log.Error("Unreadable checkout session in webhook", zap.String("eventId", event.ID), zap.Error(err))
		return OutcomeRejected, nil
	}
	if !payment.IsSettled(session) {
		metrics.IncWebhookEvent(string(OutcomeUnpaid))
		log.Info("Checkout completed without settled payment",
			zap.String("sessionId", session.ID),
			zap.String("paymentStatus", string(session.PaymentStatus)))
		return OutcomeUnpaid, nil
	}

	md, err := payment.DecodeCheckoutMetadata(session.Metadata)
	if err != nil {
		metrics.IncWebhookEvent(string(OutcomeRejected))
		log.Error("Missing critical metadata, cannot record payment",
			zap.String("sessionId", session.ID),
			zap.Any("metadata", session.Metadata),
			zap.Error(err))
		return OutcomeRejected, nil
	}

	outcome, err := s.applyCheckout(ctx, session.ID, md)
	if err != nil {
		metrics.IncWebhookEvent("error")
		return "", err
	}
	metrics.IncWebhookEvent(string(outcome))
	return outcome, nil
}

// applyCheckout records the session's payment. It is safe to call again with the same
// session: the repository deduplicates by session id.
func (s *DefaultBookingService) applyCheckout(ctx context.Context, sessionID string, md payment.CheckoutMetadata) (WebhookOutcome, error) {
	log := s.logger().With(
		zap.String("sessionId", sessionID),
		zap.String("bookingId", md.BookingID),
		zap.String("paymentType", string(md.PaymentType)))

	if md.CustomerEmail != "" {
		user := &models.User{ID: md.UserID, Email: md.CustomerEmail, Name: md.CustomerName}
		if err := s.Users.Upsert(ctx, user); err != nil {
			log.Error("Error upserting user from checkout", zap.Error(err))
		}
	}

	app := models.PaymentApplication{
		SessionID:   sessionID,
		BookingID:   md.BookingID,
		Amount:      md.DepositAmount,
		PaymentType: md.PaymentType,
	}
	if md.PaymentType == models.PaymentDeposit {
		app.Booking = &models.Booking{
			ID:             md.BookingID,
			UserID:         md.UserID,
			TourID:         md.TourID,
			StartDate:      parseStartDate(md.StartDate),
			Guests:         md.Guests,
			TotalAmount:    md.TotalAmount,
			Status:         models.BookingConfirmed,
			AdminNotes:     md.Notes,
			CustomerName:   md.CustomerName,
			CustomerEmail:  md.CustomerEmail,
			ExtraOptionIDs: md.SelectedOptionIDs,
		}
		if app.Booking.StartDate == nil {
			log.Warn("Unparseable start date, storing booking without one", zap.String("startDate", md.StartDate))
		}
	}

	applied, err := s.Bookings.ApplyPayment(ctx, app)
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		log.Error("Balance payment for a booking that does not exist")
		return OutcomeRejected, nil
	}
	if err != nil {
		log.Error("Failed to record payment", zap.Error(err))
		return "", dependencyError("record payment", err)
	}
	if !applied {
		log.Info("Checkout session already applied")
		return OutcomeDuplicate, nil
	}

	metrics.AddPaymentApplied(string(md.PaymentType), md.DepositAmount)
	log.Info("Payment recorded", zap.Int64("amount", md.DepositAmount))

	if s.Receipts != nil {
		receipt := models.ReceiptPayload{BookingID: md.BookingID, SessionID: sessionID, Amount: md.DepositAmount}
		if err := s.Receipts.EnqueueReceipt(ctx, receipt); err != nil {
			log.Warn("Failed to enqueue payment receipt", zap.Error(err))
		}
	}
	return OutcomeApplied, nil
}
