package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fdg312/nutri-coach/internal/config"
	"github.com/fdg312/nutri-coach/internal/userctx"
	"github.com/rs/zerolog/log"
)

// publicPrefixes are reachable without a token in every auth mode.
var publicPrefixes = []string{"/v1/auth/"}

// Middleware резолвит владельца запроса из Bearer JWT.
type Middleware struct {
	config  *config.Config
	service *Service
}

func NewMiddleware(cfg *config.Config, service *Service) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
	}
}

// Wrap is a pass-through when auth is off. With AUTH_REQUIRED a missing token
// is rejected; otherwise requests without a token run as the default owner.
// A token that is present but invalid is always rejected.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if !m.config.AuthEnabled {
		return next
	}
	required := m.config.AuthRequired

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" && !required {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.authenticate(header)
		if err != nil {
			msg := "Unauthorized"
			if header != "" {
				msg = "Invalid or expired token"
			}
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", msg)
			return
		}

		log.Debug().Str("sub", userID).Str("method", r.Method).Str("path", r.URL.Path).Msg("auth token accepted")
		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

func (m *Middleware) authenticate(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return m.service.VerifyJWT(strings.TrimSpace(token))
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func isPublicPath(path string) bool {
	if path == "/healthz" {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
