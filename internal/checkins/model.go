package checkins

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrValidation is returned when input validation fails.
var ErrValidation = errors.New("validation error")

// ValidationError wraps a validation message so callers can distinguish
// client errors from internal failures.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// CheckIn is one daily sobriety check-in.
type CheckIn struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Mood      string    `json:"mood"`
	Note      string    `json:"note"`
	DidDrink  bool      `json:"didDrink"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository defines persistence for check-ins.
type Repository interface {
	Create(ctx context.Context, checkIn CheckIn) (CheckIn, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]CheckIn, error)
}
