package checkins

import (
	"context"
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

// Create inserts a new check-in.
func (r *PostgresRepository) Create(ctx context.Context, checkIn CheckIn) (CheckIn, error) {
	const query = `
		INSERT INTO check_ins (id, user_id, mood, note, did_drink, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		checkIn.ID,
		checkIn.UserID,
		checkIn.Mood,
		checkIn.Note,
		checkIn.DidDrink,
		checkIn.CreatedAt,
	)
	if err != nil {
		return CheckIn{}, err
	}
	return checkIn, nil
}

// ListByUser returns the user's newest check-ins first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]CheckIn, error) {
	const query = `
		SELECT id, user_id, mood, note, did_drink, created_at
		FROM check_ins
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var rows []checkInRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, err
	}

	out := make([]CheckIn, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCheckIn())
	}
	return out, nil
}

type checkInRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Mood      string    `db:"mood"`
	Note      string    `db:"note"`
	DidDrink  bool      `db:"did_drink"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *checkInRow) toCheckIn() CheckIn {
	return CheckIn{
		ID:        r.ID,
		UserID:    r.UserID,
		Mood:      r.Mood,
		Note:      r.Note,
		DidDrink:  r.DidDrink,
		CreatedAt: r.CreatedAt,
	}
}
