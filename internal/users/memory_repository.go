package users

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository stores users in an in-process map, ideal for local development or tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	data    map[uuid.UUID]User
	byOAuth map[string]uuid.UUID
}

// NewInMemoryRepository constructs a repository seeded with optional initial users.
func NewInMemoryRepository(initial []User) *InMemoryRepository {
	data := make(map[uuid.UUID]User)
	byOAuth := make(map[string]uuid.UUID, len(initial))
	for _, user := range initial {
		data[user.ID] = user
		byOAuth[user.ProviderUserID] = user.ID
	}
	return &InMemoryRepository{data: data, byOAuth: byOAuth}
}

// FindByID returns a user by local id.
func (r *InMemoryRepository) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	copied := user
	return &copied, nil
}

// FindByProviderID returns a user by provider user id.
func (r *InMemoryRepository) FindByProviderID(_ context.Context, providerUserID string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOAuth[providerUserID]
	if !ok {
		return nil, nil
	}
	user := r.data[id]
	return &user, nil
}

// Create stores a new user.
func (r *InMemoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[user.ID] = user
	r.byOAuth[user.ProviderUserID] = user.ID
	return user, nil
}

// UpdateCredential replaces the stored credential.
func (r *InMemoryRepository) UpdateCredential(_ context.Context, id uuid.UUID, cred Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	user.Credential = cred
	user.UpdatedAt = time.Now().UTC()
	r.data[id] = user
	return nil
}

// UpdateCredentialIf replaces the credential only while the stored expiry still matches.
func (r *InMemoryRepository) UpdateCredentialIf(_ context.Context, id uuid.UUID, cred Credential, prevExpiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.data[id]
	if !ok {
		return false, ErrNotFound
	}
	if !user.Credential.ExpiresAt.Equal(prevExpiresAt) {
		return false, nil
	}
	user.Credential = cred
	user.UpdatedAt = time.Now().UTC()
	r.data[id] = user
	return true, nil
}

// RecordCheckIn stamps the last check-in and optionally bumps the streak.
func (r *InMemoryRepository) RecordCheckIn(_ context.Context, id uuid.UUID, at time.Time, soberDay bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	stamp := at
	user.LastCheckIn = &stamp
	if soberDay {
		user.SoberDays++
	}
	user.UpdatedAt = time.Now().UTC()
	r.data[id] = user
	return nil
}

// IncrementCrisisCount bumps the crisis counter.
func (r *InMemoryRepository) IncrementCrisisCount(_ context.Context, id uuid.UUID) error {
	return r.mutate(id, func(user *User) { user.CrisisCount++ })
}

// IncrementRefusals bumps the successful-refusal counter.
func (r *InMemoryRepository) IncrementRefusals(_ context.Context, id uuid.UUID) error {
	return r.mutate(id, func(user *User) { user.TotalRefusals++ })
}

// ResetSoberDays zeroes the streak.
func (r *InMemoryRepository) ResetSoberDays(_ context.Context, id uuid.UUID) error {
	return r.mutate(id, func(user *User) { user.SoberDays = 0 })
}

// Leaderboard returns the top users by sober days.
func (r *InMemoryRepository) Leaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]LeaderboardEntry, 0, len(r.data))
	for _, user := range r.data {
		entries = append(entries, LeaderboardEntry{Nickname: user.Nickname, SoberDays: user.SoberDays})
	}

	slices.SortFunc(entries, func(a, b LeaderboardEntry) int {
		return b.SoberDays - a.SoberDays
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *InMemoryRepository) mutate(id uuid.UUID, fn func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now().UTC()
	r.data[id] = user
	return nil
}
