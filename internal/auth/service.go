// Package auth implements the authenticated-session core: the login upsert,
// session resolution from the user_id cookie, and the access token lifecycle
// against the SecondMe provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"sobercircle/internal/secondme"
	"sobercircle/internal/users"
)

// defaultNickname is assigned when the provider reports no display name.
const defaultNickname = "Circle member"

// ErrNoValidToken is returned when no usable access token can be produced for a user.
var ErrNoValidToken = errors.New("no valid access token")

// TokenRefresher is the slice of the provider client the token lifecycle needs.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (secondme.Token, error)
}

// RefreshRecorder counts refresh attempts by outcome.
type RefreshRecorder interface {
	RecordTokenRefresh(success bool)
}

// Service provides the session and token lifecycle logic.
type Service struct {
	repo      users.Repository
	refresher TokenRefresher
	metrics   RefreshRecorder
	logger    *slog.Logger

	// Collapses concurrent refreshes for the same user into one provider call.
	refreshGroup singleflight.Group
}

// NewService creates a new auth Service.
func NewService(repo users.Repository, refresher TokenRefresher, recorder RefreshRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		refresher: refresher,
		metrics:   recorder,
		logger:    logger,
	}
}

// CreateOrUpdateUser upserts a user after a successful exchange + user-info
// pair, keyed by the provider user id. Re-login rewrites credential fields
// only; nickname and progress counters are set once at creation.
func (s *Service) CreateOrUpdateUser(ctx context.Context, info secondme.UserInfo, token secondme.Token) (*users.User, error) {
	cred := users.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}

	existing, err := s.repo.FindByProviderID(ctx, info.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if existing != nil {
		if err := s.repo.UpdateCredential(ctx, existing.ID, cred); err != nil {
			return nil, fmt.Errorf("update credential: %w", err)
		}
		existing.Credential = cred
		return existing, nil
	}

	nickname := info.Name
	if nickname == "" {
		nickname = defaultNickname
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, users.User{
		ID:             uuid.New(),
		ProviderUserID: info.UserID,
		Nickname:       nickname,
		Credential:     cred,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &created, nil
}

// ResolveSession maps a user_id cookie value to its user. It returns nil for a
// malformed id, an unknown user, a lookup failure, or a user whose token has
// already expired. It never refreshes; refresh only happens when a token is
// actually needed, in AccessToken.
func (s *Service) ResolveSession(ctx context.Context, cookieValue string) (*users.User, error) {
	if cookieValue == "" {
		return nil, nil
	}

	id, err := uuid.Parse(cookieValue)
	if err != nil {
		return nil, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		// Lookup failures deny, never grant.
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	if !user.Credential.ExpiresAt.After(time.Now()) {
		s.logger.Warn("session token expired", "user_id", user.ID)
		return nil, nil
	}

	return user, nil
}

// AccessToken returns a currently valid access token for the user, refreshing
// it through the provider when expired. A single refresh attempt per call;
// every failure mode collapses to ErrNoValidToken (or the wrapped cause) with
// the stored credential untouched. Concurrent callers racing past the same
// expired token share one refresh.
func (s *Service) AccessToken(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return "", ErrNoValidToken
	}

	if user.Credential.Valid(time.Now()) {
		return user.Credential.AccessToken, nil
	}

	token, err, _ := s.refreshGroup.Do(userID.String(), func() (any, error) {
		return s.refresh(ctx, userID)
	})
	if err != nil {
		s.logger.Warn("access token refresh failed", "user_id", userID, "error", err)
		return "", err
	}

	return token.(string), nil
}

func (s *Service) refresh(ctx context.Context, userID uuid.UUID) (string, error) {
	// Re-read inside the flight: a caller that queued behind a completed
	// refresh should use the stored token instead of spending another attempt.
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return "", ErrNoValidToken
	}
	if user.Credential.Valid(time.Now()) {
		return user.Credential.AccessToken, nil
	}

	token, err := s.refresher.Refresh(ctx, user.Credential.RefreshToken)
	if err != nil {
		s.recordRefresh(false)
		return "", fmt.Errorf("%w: %v", ErrNoValidToken, err)
	}

	cred := users.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: user.Credential.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}

	applied, err := s.repo.UpdateCredentialIf(ctx, user.ID, cred, user.Credential.ExpiresAt)
	if err != nil {
		s.recordRefresh(false)
		return "", fmt.Errorf("persist credential: %w", err)
	}

	if !applied {
		// Another writer refreshed first; use their token.
		fresh, err := s.repo.FindByID(ctx, user.ID)
		if err != nil {
			return "", fmt.Errorf("find user: %w", err)
		}
		if fresh == nil || !fresh.Credential.Valid(time.Now()) {
			return "", ErrNoValidToken
		}
		return fresh.Credential.AccessToken, nil
	}

	s.recordRefresh(true)
	s.logger.Info("access token refreshed", "user_id", user.ID, "expires_at", cred.ExpiresAt)
	return token.AccessToken, nil
}

func (s *Service) recordRefresh(success bool) {
	if s.metrics != nil {
		s.metrics.RecordTokenRefresh(success)
	}
}
