package checkins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"sobercircle/internal/messages"
	"sobercircle/internal/users"
)

// TokenSource produces a currently valid access token for a user.
type TokenSource interface {
	AccessToken(ctx context.Context, userID uuid.UUID) (string, error)
}

// Companion is the slice of the provider client used for best-effort AI calls.
type Companion interface {
	Chat(ctx context.Context, accessToken, message string) error
	AddNote(ctx context.Context, accessToken, content string) error
}

// Recorder counts recorded check-ins.
type Recorder interface {
	RecordCheckIn()
}

// Service orchestrates validation, persistence, and the best-effort AI calls
// for daily check-ins.
type Service struct {
	repo      Repository
	users     users.Repository
	feed      messages.Repository
	tokens    TokenSource
	companion Companion
	metrics   Recorder
	logger    *slog.Logger
}

// NewService wires a Service with its collaborators.
func NewService(repo Repository, userRepo users.Repository, feed messages.Repository, tokens TokenSource, companion Companion, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     userRepo,
		feed:      feed,
		tokens:    tokens,
		companion: companion,
		metrics:   recorder,
		logger:    logger,
	}
}

// RecordInput is the payload for a new check-in.
type RecordInput struct {
	Mood     string
	Note     string
	DidDrink bool
}

// Record persists a check-in, updates the user's progress counters, forwards
// the note to the AI companion when possible, and publishes a feed message.
// AI failures are logged and never affect the check-in itself.
func (s *Service) Record(ctx context.Context, user *users.User, input RecordInput) (CheckIn, error) {
	mood := strings.TrimSpace(input.Mood)
	if mood == "" {
		return CheckIn{}, &ValidationError{Message: "mood is required"}
	}

	now := time.Now().UTC()
	checkIn := CheckIn{
		ID:        uuid.New(),
		UserID:    user.ID,
		Mood:      mood,
		Note:      strings.TrimSpace(input.Note),
		DidDrink:  input.DidDrink,
		CreatedAt: now,
	}

	created, err := s.repo.Create(ctx, checkIn)
	if err != nil {
		return CheckIn{}, fmt.Errorf("create check-in: %w", err)
	}

	if err := s.users.RecordCheckIn(ctx, user.ID, now, !input.DidDrink); err != nil {
		return CheckIn{}, fmt.Errorf("update progress: %w", err)
	}

	s.shareWithCompanion(ctx, user.ID, created)

	content := fmt.Sprintf("Completed today's check-in, mood: %s", created.Mood)
	if created.Note != "" {
		content += fmt.Sprintf(", note: %s", created.Note)
	}
	if _, err := s.feed.Create(ctx, messages.New(user.ID, content, messages.TypeCheckIn, false)); err != nil {
		return CheckIn{}, fmt.Errorf("publish feed message: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCheckIn()
	}

	return created, nil
}

// History returns the user's recent check-ins, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]CheckIn, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// shareWithCompanion forwards the note to the AI companion, fire-and-forget.
func (s *Service) shareWithCompanion(ctx context.Context, userID uuid.UUID, checkIn CheckIn) {
	if checkIn.Note == "" {
		return
	}

	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		s.logger.Warn("skipping AI calls, no valid access token", "user_id", userID, "error", err)
		return
	}

	chat := fmt.Sprintf("I checked in today feeling %s and wanted to share: %s", checkIn.Mood, checkIn.Note)
	if err := s.companion.Chat(ctx, token, chat); err != nil {
		s.logger.Warn("companion chat failed", "user_id", userID, "error", err)
	}

	if err := s.companion.AddNote(ctx, token, "Check-in note: "+checkIn.Note); err != nil {
		s.logger.Warn("companion note failed", "user_id", userID, "error", err)
	}
}
