package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sobercircle/internal/auth"
	"sobercircle/internal/config"
	"sobercircle/internal/secondme"
)

const (
	oauthStateCookieName = "oauth_state"
	oauthStateCookieTTL  = 10 * time.Minute

	sessionCookieName = "user_id"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

type secondMeAuthenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (secondme.Token, error)
	UserInfo(ctx context.Context, accessToken string) (secondme.UserInfo, error)
}

// LoginRecorder counts completed logins.
type LoginRecorder interface {
	RecordLogin()
}

// OAuthHandler handles the SecondMe OAuth login endpoints.
type OAuthHandler struct {
	provider     secondMeAuthenticator
	authService  *auth.Service
	settings     config.SecondMe
	metrics      LoginRecorder
	logger       *slog.Logger
	secureCookie bool
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(provider secondMeAuthenticator, authService *auth.Service, settings config.SecondMe, env string, metrics LoginRecorder, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		provider:     provider,
		authService:  authService,
		settings:     settings,
		metrics:      metrics,
		logger:       logger,
		secureCookie: !strings.EqualFold(env, "development"),
	}
}

// InitiateLogin handles GET /api/auth/login
// Redirects the user to the SecondMe authorization screen.
func (h *OAuthHandler) InitiateLogin(w http.ResponseWriter, r *http.Request) {
	if !h.settings.Configured() {
		h.logger.Error("oauth login requested without provider configuration")
		writeError(w, http.StatusInternalServerError, "missing OAuth configuration")
		return
	}

	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthStateCookieTTL.Seconds()),
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /api/auth/callback
// Exchanges the authorization code for tokens, upserts the user, and issues
// the session cookie.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.settings.Configured() {
		h.logger.Error("oauth callback without provider configuration")
		h.redirectWithError(w, r, "server_error")
		return
	}

	// State mismatch is logged but does not abort the login. An absent or
	// expired state cookie is not a mismatch.
	stateParam := r.URL.Query().Get("state")
	if stateCookie, err := r.Cookie(oauthStateCookieName); err == nil && stateCookie.Value != "" && stateParam != "" && stateCookie.Value != stateParam {
		h.logger.Warn("oauth callback: state mismatch")
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Warn("oauth callback: missing authorization code")
		h.redirectWithError(w, r, "missing_code")
		return
	}

	token, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", "error", err)
		h.redirectWithError(w, r, "token_exchange_failed")
		return
	}

	info, err := h.provider.UserInfo(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("oauth callback: user info failed", "error", err)
		if errors.Is(err, secondme.ErrAPIStatus) {
			h.redirectWithError(w, r, "user_info_error")
			return
		}
		h.redirectWithError(w, r, "fetch_user_failed")
		return
	}

	user, err := h.authService.CreateOrUpdateUser(r.Context(), info, token)
	if err != nil {
		h.logger.Error("oauth callback: user upsert failed", "error", err)
		h.redirectWithError(w, r, "server_error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    user.ID.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionCookieTTL.Seconds()),
	})

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})

	if h.metrics != nil {
		h.metrics.RecordLogin()
	}
	h.logger.Info("oauth login successful", "user_id", user.ID, "provider_user_id", user.ProviderUserID)

	http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
}

// redirectWithError sends the browser back to the landing page with an error code.
func (h *OAuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?error="+code, http.StatusTemporaryRedirect)
}
