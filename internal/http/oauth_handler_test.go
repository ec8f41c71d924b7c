package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sobercircle/internal/auth"
	"sobercircle/internal/config"
	"sobercircle/internal/secondme"
	"sobercircle/internal/users"
)

type fakeProvider struct {
	lastState   string
	exchanged   string
	token       secondme.Token
	exchangeErr error
	info        secondme.UserInfo
	infoErr     error
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	f.lastState = state
	return "https://go.secondme.io/oauth/authorize?state=" + state
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (secondme.Token, error) {
	f.exchanged = code
	if f.exchangeErr != nil {
		return secondme.Token{}, f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeProvider) UserInfo(ctx context.Context, accessToken string) (secondme.UserInfo, error) {
	if f.infoErr != nil {
		return secondme.UserInfo{}, f.infoErr
	}
	return f.info, nil
}

func testSettings() config.SecondMe {
	return config.SecondMe{
		ClientID:      "client",
		ClientSecret:  "secret",
		RedirectURI:   "http://localhost:8080/api/auth/callback",
		OAuthBaseURL:  "https://go.secondme.io",
		TokenEndpoint: "https://go.secondme.io/api/oauth/token",
		APIBaseURL:    "https://app.mindos.com/gate/lab",
	}
}

func newOAuthTestHandler(t *testing.T, provider *fakeProvider) (*OAuthHandler, *users.InMemoryRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := users.NewInMemoryRepository(nil)
	service := auth.NewService(repo, nil, nil, logger)
	return NewOAuthHandler(provider, service, testSettings(), "development", nil, logger), repo
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestInitiateLoginSetsStateCookieAndRedirects(t *testing.T) {
	provider := &fakeProvider{}
	handler, _ := newOAuthTestHandler(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	rec := httptest.NewRecorder()

	handler.InitiateLogin(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status 307, got %d", rec.Code)
	}
	stateCookie := findCookie(t, rec, oauthStateCookieName)
	if stateCookie == nil || stateCookie.Value == "" {
		t.Fatal("expected state cookie to be set")
	}
	if !stateCookie.HttpOnly {
		t.Error("expected state cookie to be HttpOnly")
	}
	if stateCookie.Value != provider.lastState {
		t.Errorf("cookie state %q does not match authorize URL state %q", stateCookie.Value, provider.lastState)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "/oauth/authorize") {
		t.Errorf("expected redirect to authorize URL, got %q", location)
	}
}

func TestInitiateLoginWithoutConfiguration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewOAuthHandler(&fakeProvider{}, nil, config.SecondMe{}, "development", nil, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	rec := httptest.NewRecorder()

	handler.InitiateLogin(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing OAuth configuration") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestCallbackCompletesLogin(t *testing.T) {
	provider := &fakeProvider{
		token: secondme.Token{AccessToken: "tok1", RefreshToken: "ref1", ExpiresIn: 3600},
		info:  secondme.UserInfo{UserID: "u1", Name: "Alice"},
	}
	handler, repo := newOAuthTestHandler(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc123&state=xyz", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "xyz"})
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status 307, got %d: %s", rec.Code, rec.Body.String())
	}
	if location := rec.Header().Get("Location"); location != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %q", location)
	}
	if provider.exchanged != "abc123" {
		t.Errorf("expected code abc123 to be exchanged, got %q", provider.exchanged)
	}

	sessionCookie := findCookie(t, rec, sessionCookieName)
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected session cookie to be set")
	}
	user, err := repo.FindByProviderID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected user to be created: %v", err)
	}
	if sessionCookie.Value != user.ID.String() {
		t.Errorf("session cookie %q does not hold user id %s", sessionCookie.Value, user.ID)
	}
	if user.Nickname != "Alice" {
		t.Errorf("expected nickname Alice, got %q", user.Nickname)
	}

	stateCookie := findCookie(t, rec, oauthStateCookieName)
	if stateCookie == nil || stateCookie.MaxAge != -1 {
		t.Error("expected state cookie to be cleared")
	}
}

func TestCallbackStateMismatchStillSucceeds(t *testing.T) {
	provider := &fakeProvider{
		token: secondme.Token{AccessToken: "tok1", RefreshToken: "ref1", ExpiresIn: 3600},
		info:  secondme.UserInfo{UserID: "u1", Name: "Alice"},
	}
	handler, repo := newOAuthTestHandler(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc123&state=tampered", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "original"})
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status 307, got %d", rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %q", location)
	}
	if _, err := repo.FindByProviderID(context.Background(), "u1"); err != nil {
		t.Fatalf("expected login to complete despite state mismatch: %v", err)
	}
}

func TestCallbackErrorRedirects(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		query    string
		wantCode string
	}{
		{
			name:     "missing code",
			provider: &fakeProvider{},
			query:    "state=xyz",
			wantCode: "missing_code",
		},
		{
			name:     "exchange failure",
			provider: &fakeProvider{exchangeErr: errors.New("boom")},
			query:    "code=abc&state=xyz",
			wantCode: "token_exchange_failed",
		},
		{
			name: "user info transport failure",
			provider: &fakeProvider{
				token:   secondme.Token{AccessToken: "tok1", RefreshToken: "ref1", ExpiresIn: 3600},
				infoErr: errors.New("connection reset"),
			},
			query:    "code=abc&state=xyz",
			wantCode: "fetch_user_failed",
		},
		{
			name: "user info api rejection",
			provider: &fakeProvider{
				token:   secondme.Token{AccessToken: "tok1", RefreshToken: "ref1", ExpiresIn: 3600},
				infoErr: fmt.Errorf("%w: code 40001", secondme.ErrAPIStatus),
			},
			query:    "code=abc&state=xyz",
			wantCode: "user_info_error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, _ := newOAuthTestHandler(t, tc.provider)

			req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?"+tc.query, nil)
			req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "xyz"})
			rec := httptest.NewRecorder()

			handler.Callback(rec, req)

			if rec.Code != http.StatusTemporaryRedirect {
				t.Fatalf("expected status 307, got %d", rec.Code)
			}
			want := "/?error=" + tc.wantCode
			if location := rec.Header().Get("Location"); location != want {
				t.Errorf("expected redirect to %q, got %q", want, location)
			}
			if sessionCookie := findCookie(t, rec, sessionCookieName); sessionCookie != nil {
				t.Error("expected no session cookie on failed login")
			}
		})
	}
}

func TestCallbackStateWarningOnlyOnRealMismatch(t *testing.T) {
	tests := []struct {
		name     string
		cookie   *http.Cookie
		query    string
		wantWarn bool
	}{
		{name: "missing state cookie", cookie: nil, query: "code=abc&state=xyz", wantWarn: false},
		{name: "empty state cookie", cookie: &http.Cookie{Name: oauthStateCookieName, Value: ""}, query: "code=abc&state=xyz", wantWarn: false},
		{name: "missing query state", cookie: &http.Cookie{Name: oauthStateCookieName, Value: "xyz"}, query: "code=abc", wantWarn: false},
		{name: "differing values", cookie: &http.Cookie{Name: oauthStateCookieName, Value: "original"}, query: "code=abc&state=tampered", wantWarn: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{
				token: secondme.Token{AccessToken: "tok1", RefreshToken: "ref1", ExpiresIn: 3600},
				info:  secondme.UserInfo{UserID: "u1", Name: "Alice"},
			}
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			repo := users.NewInMemoryRepository(nil)
			service := auth.NewService(repo, nil, nil, logger)
			handler := NewOAuthHandler(provider, service, testSettings(), "development", nil, logger)

			req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?"+tc.query, nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()

			handler.Callback(rec, req)

			if location := rec.Header().Get("Location"); location != "/dashboard" {
				t.Fatalf("expected login to complete with redirect to /dashboard, got %q", location)
			}
			if got := strings.Contains(logs.String(), "state mismatch"); got != tc.wantWarn {
				t.Errorf("state mismatch warning logged = %v, want %v (logs: %s)", got, tc.wantWarn, logs.String())
			}
		})
	}
}
