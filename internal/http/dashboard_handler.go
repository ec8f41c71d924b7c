package http

import (
	"log/slog"
	"net/http"

	"sobercircle/internal/messages"
	"sobercircle/internal/users"
)

const (
	leaderboardSize = 10
	feedPageSize    = 20
)

// DashboardHandler serves the dashboard's read-only views.
type DashboardHandler struct {
	users  users.Repository
	feed   messages.Repository
	logger *slog.Logger
}

// NewDashboardHandler creates a handler.
func NewDashboardHandler(userRepo users.Repository, feed messages.Repository, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{users: userRepo, feed: feed, logger: logger}
}

// Stats handles GET /api/dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats": map[string]any{
			"nickname":      user.Nickname,
			"soberDays":     user.SoberDays,
			"totalRefusals": user.TotalRefusals,
			"crisisCount":   user.CrisisCount,
			"lastCheckIn":   user.LastCheckIn,
		},
	})
}

// Leaderboard handles GET /api/dashboard/leaderboard
func (h *DashboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.users.Leaderboard(r.Context(), leaderboardSize)
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []users.LeaderboardEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

// Messages handles GET /api/dashboard/messages
func (h *DashboardHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	feed, err := h.feed.ListRecent(r.Context(), user.ID, feedPageSize)
	if err != nil {
		h.logger.Error("message feed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	if feed == nil {
		feed = []messages.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": feed})
}
