package messages

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores messages in an in-process slice, ideal for local development or tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data []Message
}

// NewInMemoryRepository constructs a repository seeded with optional initial messages.
func NewInMemoryRepository(initial []Message) *InMemoryRepository {
	return &InMemoryRepository{data: slices.Clone(initial)}
}

// Create stores a new message.
func (r *InMemoryRepository) Create(_ context.Context, message Message) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, message)
	return message, nil
}

// ListRecent returns the user's newest messages first.
func (r *InMemoryRepository) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Message, 0, limit)
	for _, message := range r.data {
		if message.UserID == userID {
			out = append(out, message)
		}
	}

	slices.SortFunc(out, func(a, b Message) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
