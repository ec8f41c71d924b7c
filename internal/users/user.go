package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a user cannot be located.
var ErrNotFound = errors.New("user not found")

// User is one member of the circle. Credential fields are rewritten on every
// login and refresh; nickname and the progress counters are only ever touched
// by their own flows.
type User struct {
	ID             uuid.UUID
	ProviderUserID string
	Nickname       string
	Credential     Credential
	SoberDays      int
	TotalRefusals  int
	CrisisCount    int
	LastCheckIn    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Credential is the provider-issued token pair with its absolute expiry.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the access token is still usable at the given instant.
func (c Credential) Valid(now time.Time) bool {
	return c.AccessToken != "" && c.ExpiresAt.After(now)
}

// LeaderboardEntry is one row of the sober-days leaderboard.
type LeaderboardEntry struct {
	Nickname  string `json:"nickname"`
	SoberDays int    `json:"soberDays"`
}

// Repository defines persistence for users, their credentials, and progress counters.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByProviderID(ctx context.Context, providerUserID string) (*User, error)
	Create(ctx context.Context, user User) (User, error)

	// UpdateCredential unconditionally replaces the stored credential.
	UpdateCredential(ctx context.Context, id uuid.UUID, cred Credential) error

	// UpdateCredentialIf replaces the credential only while the stored expiry
	// still equals prevExpiresAt. Returns false when another writer got there
	// first; the caller should re-read.
	UpdateCredentialIf(ctx context.Context, id uuid.UUID, cred Credential, prevExpiresAt time.Time) (bool, error)

	// RecordCheckIn stamps the last check-in time and, when the day was sober,
	// increments the streak counter.
	RecordCheckIn(ctx context.Context, id uuid.UUID, at time.Time, soberDay bool) error
	IncrementCrisisCount(ctx context.Context, id uuid.UUID) error
	IncrementRefusals(ctx context.Context, id uuid.UUID) error
	ResetSoberDays(ctx context.Context, id uuid.UUID) error

	// Leaderboard returns the top users by sober days, descending.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}
