package userRepo

import (
	"context"

	"outlandish/models"
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// GetByID retrieves a user by its unique ID; nil, nil when missing.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Upsert creates the user or refreshes its email and name, keyed by id.
	Upsert(ctx context.Context, user *models.User) error
}
