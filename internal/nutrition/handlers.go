package nutrition

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fdg312/nutri-coach/internal/profiles"
	"github.com/fdg312/nutri-coach/internal/userctx"
	"github.com/rs/zerolog/log"
)

// Handlers handles HTTP requests for nutrition targets.
type Handlers struct {
	service *Service
}

// NewHandlers creates new nutrition handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleGet handles GET /v1/nutrition/targets
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	targets, sp, err := h.service.ForOwner(r.Context(), userctx.OwnerID(r.Context()))
	if err != nil {
		writeTargetsError(w, err)
		return
	}

	rev := sp.Revision
	writeJSON(w, http.StatusOK, newTargetsResponse(targets, &rev))
}

// HandlePreview handles POST /v1/nutrition/targets/preview
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req profiles.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	p, err := profiles.FromRequest(req)
	if err != nil {
		writeTargetsError(w, err)
		return
	}

	targets, err := ComputeTargets(p)
	if err != nil {
		writeTargetsError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTargetsResponse(targets, nil))
}

func newTargetsResponse(t Targets, rev *time.Time) TargetsResponse {
	macro := t.MacroKcal()
	return TargetsResponse{
		Targets:           t,
		ProfileUpdatedAt:  rev,
		MacroKcal:         macro,
		MacroKcalVariance: macro - t.TargetKcal,
	}
}

func writeTargetsError(w http.ResponseWriter, err error) {
	var verr *profiles.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_profile", verr.Error())
	case errors.Is(err, profiles.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile_not_found", "Complete onboarding first")
	default:
		log.Error().Err(err).Msg("nutrition targets failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
