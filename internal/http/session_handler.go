package http

import (
	"net/http"
	"strings"
	"time"
)

// SessionHandler exposes the current-user and logout endpoints.
type SessionHandler struct {
	secureCookie bool
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(env string) *SessionHandler {
	return &SessionHandler{secureCookie: !strings.EqualFold(env, "development")}
}

// Me returns the authenticated user's identity.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":        user.ID,
			"nickname":  user.Nickname,
			"soberDays": user.SoberDays,
		},
	})
}

// Logout removes the session cookie, if present.
func (h *SessionHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
