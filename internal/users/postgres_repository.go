package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `
	id, provider_user_id, nickname, access_token, refresh_token, token_expires_at,
	sober_days, total_refusals, crisis_count, last_check_in, created_at, updated_at
`

// FindByID looks up a user by local id.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toUser(), nil
}

// FindByProviderID looks up a user by the provider-issued id.
func (r *PostgresRepository) FindByProviderID(ctx context.Context, providerUserID string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE provider_user_id = $1`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, providerUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toUser(), nil
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	const query = `
		INSERT INTO users (
			id, provider_user_id, nickname, access_token, refresh_token, token_expires_at,
			sober_days, total_refusals, crisis_count, last_check_in, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.ProviderUserID,
		user.Nickname,
		user.Credential.AccessToken,
		user.Credential.RefreshToken,
		user.Credential.ExpiresAt,
		user.SoberDays,
		user.TotalRefusals,
		user.CrisisCount,
		user.LastCheckIn,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateCredential replaces the stored credential unconditionally.
func (r *PostgresRepository) UpdateCredential(ctx context.Context, id uuid.UUID, cred Credential) error {
	const query = `
		UPDATE users
		SET access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCredentialIf replaces the credential only while the stored expiry still
// equals prevExpiresAt. Other concurrent refreshers lose the write and re-read.
func (r *PostgresRepository) UpdateCredentialIf(ctx context.Context, id uuid.UUID, cred Credential, prevExpiresAt time.Time) (bool, error) {
	const query = `
		UPDATE users
		SET access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = $5
		WHERE id = $1 AND token_expires_at = $6
	`

	result, err := r.db.ExecContext(ctx, query, id, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, time.Now().UTC(), prevExpiresAt)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RecordCheckIn stamps the last check-in and optionally bumps the streak.
func (r *PostgresRepository) RecordCheckIn(ctx context.Context, id uuid.UUID, at time.Time, soberDay bool) error {
	const query = `
		UPDATE users
		SET last_check_in = $2,
		    sober_days = sober_days + CASE WHEN $3 THEN 1 ELSE 0 END,
		    updated_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, at, soberDay, time.Now().UTC())
	return err
}

// IncrementCrisisCount bumps the crisis counter.
func (r *PostgresRepository) IncrementCrisisCount(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE users SET crisis_count = crisis_count + 1, updated_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	return err
}

// IncrementRefusals bumps the successful-refusal counter.
func (r *PostgresRepository) IncrementRefusals(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE users SET total_refusals = total_refusals + 1, updated_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	return err
}

// ResetSoberDays zeroes the streak.
func (r *PostgresRepository) ResetSoberDays(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE users SET sober_days = 0, updated_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	return err
}

// Leaderboard returns the top users by sober days.
func (r *PostgresRepository) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	const query = `
		SELECT nickname, sober_days
		FROM users
		ORDER BY sober_days DESC, nickname ASC
		LIMIT $1
	`

	var rows []leaderboardRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, LeaderboardEntry{Nickname: row.Nickname, SoberDays: row.SoberDays})
	}
	return entries, nil
}

// userRow is a database row representation of User.
type userRow struct {
	ID             uuid.UUID  `db:"id"`
	ProviderUserID string     `db:"provider_user_id"`
	Nickname       string     `db:"nickname"`
	AccessToken    string     `db:"access_token"`
	RefreshToken   string     `db:"refresh_token"`
	TokenExpiresAt time.Time  `db:"token_expires_at"`
	SoberDays      int        `db:"sober_days"`
	TotalRefusals  int        `db:"total_refusals"`
	CrisisCount    int        `db:"crisis_count"`
	LastCheckIn    *time.Time `db:"last_check_in"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (r *userRow) toUser() *User {
	return &User{
		ID:             r.ID,
		ProviderUserID: r.ProviderUserID,
		Nickname:       r.Nickname,
		Credential: Credential{
			AccessToken:  r.AccessToken,
			RefreshToken: r.RefreshToken,
			ExpiresAt:    r.TokenExpiresAt,
		},
		SoberDays:     r.SoberDays,
		TotalRefusals: r.TotalRefusals,
		CrisisCount:   r.CrisisCount,
		LastCheckIn:   r.LastCheckIn,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type leaderboardRow struct {
	Nickname  string `db:"nickname"`
	SoberDays int    `db:"sober_days"`
}
