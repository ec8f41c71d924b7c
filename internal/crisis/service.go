package crisis

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"sobercircle/internal/messages"
	"sobercircle/internal/users"
)

// Canned peer responses published when a crisis is raised. The circle's other
// members are simulated; a raised crisis should never wait for a human.
var encouragements = []string{
	"Hold on! You can do this. We are all rooting for you.",
	"This moment will pass. You are already stronger than you were yesterday.",
	"Take a deep breath and remember why you started this journey. You deserve a better life.",
}

// Recorder counts raised crises.
type Recorder interface {
	RecordCrisis()
}

// Service orchestrates crisis requests and their resolution.
type Service struct {
	repo    Repository
	users   users.Repository
	feed    messages.Repository
	metrics Recorder
	logger  *slog.Logger
}

// NewService wires a Service with its collaborators.
func NewService(repo Repository, userRepo users.Repository, feed messages.Repository, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		users:   userRepo,
		feed:    feed,
		metrics: recorder,
		logger:  logger,
	}
}

// Raise opens a crisis request for the user, bumps their crisis counter, and
// publishes the request plus immediate encouragement into the feed.
func (s *Service) Raise(ctx context.Context, user *users.User) (Crisis, []messages.Message, error) {
	now := time.Now().UTC()
	crisis := Crisis{
		ID:        uuid.New(),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, crisis)
	if err != nil {
		return Crisis{}, nil, fmt.Errorf("create crisis: %w", err)
	}

	if err := s.users.IncrementCrisisCount(ctx, user.ID); err != nil {
		return Crisis{}, nil, fmt.Errorf("update crisis count: %w", err)
	}

	if _, err := s.feed.Create(ctx, messages.New(user.ID, "Raised a crisis help request and needs everyone's support!", messages.TypeCrisis, false)); err != nil {
		return Crisis{}, nil, fmt.Errorf("publish crisis message: %w", err)
	}

	responses := make([]messages.Message, 0, len(encouragements))
	for _, content := range encouragements {
		message, err := s.feed.Create(ctx, messages.New(user.ID, content, messages.TypeEncouragement, true))
		if err != nil {
			return Crisis{}, nil, fmt.Errorf("publish encouragement: %w", err)
		}
		responses = append(responses, message)
	}

	if s.metrics != nil {
		s.metrics.RecordCrisis()
	}
	s.logger.Info("crisis raised", "user_id", user.ID, "crisis_id", created.ID)

	return created, responses, nil
}

// Resolve closes the user's latest open crisis. A successful refusal bumps the
// refusal counter; a relapse resets the sober-day streak. Either way the feed
// gets a follow-up message. Resolving with no open crisis still records the
// outcome against the user.
func (s *Service) Resolve(ctx context.Context, user *users.User, resolved bool) error {
	open, err := s.repo.FindLatestUnresolved(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("find open crisis: %w", err)
	}

	if open != nil {
		if err := s.repo.MarkResolved(ctx, open.ID, resolved); err != nil {
			return fmt.Errorf("mark crisis resolved: %w", err)
		}
	}

	if resolved {
		if err := s.users.IncrementRefusals(ctx, user.ID); err != nil {
			return fmt.Errorf("update refusals: %w", err)
		}
		if _, err := s.feed.Create(ctx, messages.New(user.ID, "Resisted the temptation, well done!", messages.TypeEncouragement, true)); err != nil {
			return fmt.Errorf("publish message: %w", err)
		}
		return nil
	}

	if _, err := s.feed.Create(ctx, messages.New(user.ID, "It's okay, don't give up. Every attempt brings you closer to making it.", messages.TypeEncouragement, true)); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	if err := s.users.ResetSoberDays(ctx, user.ID); err != nil {
		return fmt.Errorf("reset sober days: %w", err)
	}
	return nil
}
