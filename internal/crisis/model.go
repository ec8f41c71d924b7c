package crisis

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Crisis is one help request raised when a member is close to relapsing.
type Crisis struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	Resolved      bool      `json:"resolved"`
	ResponseCount int       `json:"responseCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Repository defines persistence for crisis requests.
type Repository interface {
	Create(ctx context.Context, crisis Crisis) (Crisis, error)
	// FindLatestUnresolved returns the user's most recent open crisis, or nil.
	FindLatestUnresolved(ctx context.Context, userID uuid.UUID) (*Crisis, error)
	MarkResolved(ctx context.Context, id uuid.UUID, resolved bool) error
}
