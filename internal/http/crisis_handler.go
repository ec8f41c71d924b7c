package http

import (
	"log/slog"
	"net/http"

	"sobercircle/internal/crisis"
)

// CrisisHandler exposes crisis help endpoints.
type CrisisHandler struct {
	service *crisis.Service
	logger  *slog.Logger
}

// NewCrisisHandler creates a handler.
func NewCrisisHandler(service *crisis.Service, logger *slog.Logger) *CrisisHandler {
	return &CrisisHandler{service: service, logger: logger}
}

// Raise handles POST /api/crisis
func (h *CrisisHandler) Raise(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	raised, support, err := h.service.Raise(r.Context(), user)
	if err != nil {
		h.logger.Error("raise crisis", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to raise crisis")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"crisis":   raised,
		"messages": support,
	})
}

// Resolve handles POST /api/crisis/resolve
func (h *CrisisHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	var payload struct {
		Resolved *bool `json:"resolved"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	if payload.Resolved == nil {
		writeError(w, http.StatusBadRequest, "resolved must be a boolean")
		return
	}

	if err := h.service.Resolve(r.Context(), user, *payload.Resolved); err != nil {
		h.logger.Error("resolve crisis", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to resolve crisis")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
