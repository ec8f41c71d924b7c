package http

import (
	"errors"
	"log/slog"
	"net/http"

	"sobercircle/internal/checkins"
)

// CheckInHandler exposes daily check-in endpoints.
type CheckInHandler struct {
	service *checkins.Service
	logger  *slog.Logger
}

// NewCheckInHandler creates a handler.
func NewCheckInHandler(service *checkins.Service, logger *slog.Logger) *CheckInHandler {
	return &CheckInHandler{service: service, logger: logger}
}

// Create handles POST /api/checkin
func (h *CheckInHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	var payload struct {
		Mood     string `json:"mood"`
		Note     string `json:"note"`
		DidDrink bool   `json:"didDrink"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	checkIn, err := h.service.Record(r.Context(), user, checkins.RecordInput{
		Mood:     payload.Mood,
		Note:     payload.Note,
		DidDrink: payload.DidDrink,
	})
	if err != nil {
		if errors.Is(err, checkins.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("record check-in", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to record check-in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"checkIn": checkIn,
	})
}

// History handles GET /api/checkin
func (h *CheckInHandler) History(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	history, err := h.service.History(r.Context(), user.ID, 0)
	if err != nil {
		h.logger.Error("check-in history", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to load check-ins")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"checkIns": history})
}
