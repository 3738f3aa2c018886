package mealplans

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fdg312/nutri-coach/internal/profiles"
)

// Handler handles HTTP requests for meal plans.
type Handler struct {
	service *Service
}

// NewHandler creates a new meal plans handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGenerate handles POST /v1/meal-plans/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Generate(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCurrent handles GET /v1/meal-plans/current
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Current(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleStatus handles GET /v1/meal-plans/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status(r.Context()))
}

// HandleDelete handles DELETE /v1/meal-plans/current
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *profiles.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_profile", verr.Error())
	case errors.Is(err, profiles.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile_not_found", "Profile not found")
	case errors.Is(err, ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "plan_not_found", "No meal plan yet")
	case errors.Is(err, ErrGenerationInProgress):
		writeError(w, http.StatusConflict, "generation_in_progress", "A meal plan is already being generated")
	case errors.Is(err, ErrPlanDiscarded):
		writeError(w, http.StatusConflict, "plan_discarded", "The plan was discarded while it was being generated")
	case errors.Is(err, ErrMalformedPlan):
		writeError(w, http.StatusBadGateway, "malformed_plan", "Model returned an invalid plan, try again")
	case errors.Is(err, ErrGeneration):
		writeError(w, http.StatusBadGateway, "generation_failed", "Could not generate a meal plan, try again")
	default:
		log.Error().Err(err).Msg("meal plan request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
