package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/nutri-coach/internal/userctx"
	"github.com/rs/zerolog/log"
)

// TargetsSource computes the targets shown next to the profile.
type TargetsSource interface {
	TargetsFor(ctx context.Context, ownerUserID string, sp StoredProfile) (interface{}, error)
}

// Handler содержит HTTP обработчики для профиля
type Handler struct {
	service *Service
	targets TargetsSource
}

// NewHandler создаёт новый handler; targets может быть nil
func NewHandler(service *Service, targets TargetsSource) *Handler {
	return &Handler{service: service, targets: targets}
}

// HandleGet обрабатывает GET /v1/profile
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sp, err := h.service.Get(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, h.response(r, sp))
}

// HandlePut обрабатывает PUT /v1/profile
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	sp, err := h.service.Put(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, h.response(r, sp))
}

// HandleDelete обрабатывает DELETE /v1/profile
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) response(r *http.Request, sp StoredProfile) ProfileResponse {
	resp := ProfileResponse{Profile: sp.Profile, UpdatedAt: sp.Revision}
	if h.targets == nil {
		return resp
	}

	targets, err := h.targets.TargetsFor(r.Context(), userctx.OwnerID(r.Context()), sp)
	if err != nil {
		log.Warn().Err(err).Msg("profile: targets unavailable")
		return resp
	}
	resp.Targets = targets
	return resp
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		h.sendError(w, http.StatusBadRequest, "invalid_profile", verr.Error())
	case errors.Is(err, ErrProfileNotFound):
		h.sendError(w, http.StatusNotFound, "profile_not_found", "Profile not found")
	default:
		log.Error().Err(err).Msg("profile request failed")
		h.sendError(w, http.StatusInternalServerError, "internal_error", "Internal error")
	}
}

// sendJSON отправляет JSON ответ
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError отправляет ошибку в формате ErrorResponse
func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
