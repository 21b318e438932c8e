// Package repository defines the roster store interface, its in-memory and
// DynamoDB implementations, and a circuit-breaking decorator.
package repository

import (
	"context"

	"github.com/okian/klv/internal/domain/model"
)

// Store provides read/write access to the athlete roster.
//
// List returns a consistent snapshot ordered by ascending athlete key. That
// order is the roster order the scoring engine uses to break ties.
type Store interface {
	List(ctx context.Context) ([]model.Athlete, error)

	// Get returns ErrNotFound for unknown keys.
	Get(ctx context.Context, key string) (model.Athlete, error)

	// Create inserts a new athlete. It returns ErrAlreadyExists when the key is taken.
	Create(ctx context.Context, a model.Athlete) error

	// Update applies fn to the stored athlete atomically and returns the
	// result. An error from fn aborts the update and is returned unchanged.
	Update(ctx context.Context, key string, fn func(*model.Athlete) error) (model.Athlete, error)

	// Delete removes an athlete. It returns ErrNotFound for unknown keys.
	Delete(ctx context.Context, key string) error

	Count(ctx context.Context) (int, error)
}
