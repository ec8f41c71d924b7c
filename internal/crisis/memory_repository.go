package crisis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository stores crises in an in-process slice, ideal for local development or tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data []Crisis
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Create stores a new crisis.
func (r *InMemoryRepository) Create(_ context.Context, crisis Crisis) (Crisis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, crisis)
	return crisis, nil
}

// FindLatestUnresolved returns the user's most recent open crisis, or nil.
func (r *InMemoryRepository) FindLatestUnresolved(_ context.Context, userID uuid.UUID) (*Crisis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Crisis
	for i := range r.data {
		crisis := r.data[i]
		if crisis.UserID != userID || crisis.Resolved {
			continue
		}
		if latest == nil || crisis.CreatedAt.After(latest.CreatedAt) {
			copied := crisis
			latest = &copied
		}
	}
	return latest, nil
}

// MarkResolved closes a crisis.
func (r *InMemoryRepository) MarkResolved(_ context.Context, id uuid.UUID, resolved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.data {
		if r.data[i].ID == id {
			r.data[i].Resolved = resolved
			r.data[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}
