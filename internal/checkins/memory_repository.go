package checkins

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores check-ins in an in-process slice, ideal for local development or tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data []CheckIn
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Create stores a new check-in.
func (r *InMemoryRepository) Create(_ context.Context, checkIn CheckIn) (CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, checkIn)
	return checkIn, nil
}

// ListByUser returns the user's newest check-ins first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]CheckIn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CheckIn, 0, limit)
	for _, checkIn := range r.data {
		if checkIn.UserID == userID {
			out = append(out, checkIn)
		}
	}

	slices.SortFunc(out, func(a, b CheckIn) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
