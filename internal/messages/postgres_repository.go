package messages

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

// Create inserts a new message.
func (r *PostgresRepository) Create(ctx context.Context, message Message) (Message, error) {
	const query = `
		INSERT INTO messages (id, user_id, content, message_type, ai_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.UserID,
		message.Content,
		message.MessageType,
		message.AIGenerated,
		message.CreatedAt,
	)
	if err != nil {
		return Message{}, err
	}
	return message, nil
}

// ListRecent returns the user's newest messages first.
func (r *PostgresRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]Message, error) {
	const query = `
		SELECT id, user_id, content, message_type, ai_generated, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toMessage())
	}
	return out, nil
}

type messageRow struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Content     string    `db:"content"`
	MessageType string    `db:"message_type"`
	AIGenerated bool      `db:"ai_generated"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *messageRow) toMessage() Message {
	return Message{
		ID:          r.ID,
		UserID:      r.UserID,
		Content:     r.Content,
		MessageType: MessageType(r.MessageType),
		AIGenerated: r.AIGenerated,
		CreatedAt:   r.CreatedAt,
	}
}
