package crisis

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

// Create inserts a new crisis.
func (r *PostgresRepository) Create(ctx context.Context, crisis Crisis) (Crisis, error) {
	const query = `
		INSERT INTO crises (id, user_id, resolved, response_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		crisis.ID,
		crisis.UserID,
		crisis.Resolved,
		crisis.ResponseCount,
		crisis.CreatedAt,
		crisis.UpdatedAt,
	)
	if err != nil {
		return Crisis{}, err
	}
	return crisis, nil
}

// FindLatestUnresolved returns the user's most recent open crisis, or nil.
func (r *PostgresRepository) FindLatestUnresolved(ctx context.Context, userID uuid.UUID) (*Crisis, error) {
	const query = `
		SELECT id, user_id, resolved, response_count, created_at, updated_at
		FROM crises
		WHERE user_id = $1 AND NOT resolved
		ORDER BY created_at DESC
		LIMIT 1
	`

	var row crisisRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toCrisis(), nil
}

// MarkResolved closes a crisis.
func (r *PostgresRepository) MarkResolved(ctx context.Context, id uuid.UUID, resolved bool) error {
	const query = `UPDATE crises SET resolved = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, resolved, time.Now().UTC())
	return err
}

type crisisRow struct {
	ID            uuid.UUID `db:"id"`
	UserID        uuid.UUID `db:"user_id"`
	Resolved      bool      `db:"resolved"`
	ResponseCount int       `db:"response_count"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *crisisRow) toCrisis() *Crisis {
	return &Crisis{
		ID:            r.ID,
		UserID:        r.UserID,
		Resolved:      r.Resolved,
		ResponseCount: r.ResponseCount,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
