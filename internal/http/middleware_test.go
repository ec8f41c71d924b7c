package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"sobercircle/internal/auth"
	"sobercircle/internal/users"
)

func seedUser(t *testing.T, repo *users.InMemoryRepository, expiresAt time.Time) users.User {
	t.Helper()
	user, err := repo.Create(context.Background(), users.User{
		ID:             uuid.New(),
		ProviderUserID: "provider-1",
		Nickname:       "Alice",
		Credential: users.Credential{
			AccessToken:  "tok1",
			RefreshToken: "ref1",
			ExpiresAt:    expiresAt,
		},
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func newAuthTestMiddleware(repo *users.InMemoryRepository) func(http.Handler) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := auth.NewService(repo, nil, nil, logger)
	return newAuthMiddleware(service, logger)
}

func TestAuthMiddlewarePassesUserThrough(t *testing.T) {
	repo := users.NewInMemoryRepository(nil)
	user := seedUser(t, repo, time.Now().Add(time.Hour))

	var seen *users.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: user.ID.String()})
	rec := httptest.NewRecorder()

	newAuthTestMiddleware(repo)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if seen == nil || seen.ID != user.ID {
		t.Fatalf("expected user %s in context, got %+v", user.ID, seen)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	repo := users.NewInMemoryRepository(nil)
	expired := seedUser(t, repo, time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie", cookie: nil},
		{name: "empty cookie", cookie: &http.Cookie{Name: sessionCookieName, Value: ""}},
		{name: "malformed id", cookie: &http.Cookie{Name: sessionCookieName, Value: "not-a-uuid"}},
		{name: "unknown user", cookie: &http.Cookie{Name: sessionCookieName, Value: uuid.NewString()}},
		{name: "expired token", cookie: &http.Cookie{Name: sessionCookieName, Value: expired.ID.String()}},
	}

	middleware := newAuthTestMiddleware(repo)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	})

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()

			middleware(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rec.Code)
			}
		})
	}
}
