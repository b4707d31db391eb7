package cron

import (
	"context"
	"fmt"
	"time"

	bookingRepo "outlandish/database/repository/booking"
	userRepo "outlandish/database/repository/user"
	"outlandish/models"
	"outlandish/services/booking"
	"outlandish/services/notification"
	"outlandish/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TourLookup resolves the tour title printed on the receipt.
type TourLookup interface {
	TourByID(ctx context.Context, id string) (*models.Tour, error)
}

// ReceiptWorker turns receipt tasks into emails.
type ReceiptWorker struct {
	Bookings bookingRepo.BookingRepository
	Users    userRepo.UserRepository
	Tours    TourLookup
	Mailer   notification.Mailer
	Logger   *zap.Logger
}

// ProcessTask implements asynq.Handler. Tasks that can never succeed are not retried.
func (w *ReceiptWorker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	p, err := tasks.ParseReceiptTask(task)
	if err != nil {
		return fmt.Errorf("invalid receipt payload: %v: %w", err, asynq.SkipRetry)
	}

	b, err := w.Bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return fmt.Errorf("load booking %s: %w", p.BookingID, err)
	}
	if b == nil {
		return fmt.Errorf("booking %s not found: %w", p.BookingID, asynq.SkipRetry)
	}

	email, name := b.CustomerEmail, b.CustomerName
	if email == "" && b.UserID != "" {
		u, err := w.Users.GetByID(ctx, b.UserID)
		if err != nil {
			return fmt.Errorf("load user %s: %w", b.UserID, err)
		}
		if u != nil {
			email = u.Email
			if name == "" {
				name = u.Name
			}
		}
	}
	if email == "" {
		w.Logger.Warn("No email address for receipt", zap.String("bookingId", b.ID))
		return nil
	}

	title := "your tour"
	if t, err := w.Tours.TourByID(ctx, b.TourID); err != nil {
		w.Logger.Warn("Tour lookup failed for receipt", zap.String("tourId", b.TourID), zap.Error(err))
	} else if t != nil && t.Title != "" {
		title = t.Title
	}

	receipt := notification.Receipt{
		ToEmail:     email,
		ToName:      name,
		ShortRef:    booking.ShortRef(b.ID),
		TourTitle:   title,
		StartDate:   b.StartDate,
		Amount:      p.Amount,
		AmountPaid:  b.AmountPaid,
		TotalAmount: b.TotalAmount,
	}
	if err := w.Mailer.SendReceipt(ctx, receipt); err != nil {
		w.Logger.Error("Receipt email failed", zap.String("bookingId", b.ID), zap.Error(err))
		return err
	}
	w.Logger.Info("Receipt sent", zap.String("bookingId", b.ID), zap.String("sessionId", p.SessionID))
	return nil
}

// StartWorker starts the asynq server in the background. The caller shuts it down.
func StartWorker(redisOpt asynq.RedisClientOpt, worker *ReceiptWorker, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"default": 1},
	})

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypePaymentReceipt, worker)

	go func() {
		const maxAttempts = 5
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				logger.Info("Receipt worker started")
				return
			}
			logger.Warn("Receipt worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
		logger.Error("Receipt worker gave up starting")
	}()
	return srv
}
