package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fdg312/nutri-coach/internal/config"
)

func TestCORSMiddleware(t *testing.T) {
	const app = "https://app.example.com"

	tests := []struct {
		name        string
		method      string
		origin      string
		credentials bool
		wantCode    int
		wantOrigin  string
		wantMethods bool
		wantCreds   string
		wantInner   bool
	}{
		{name: "preflight allowed", method: http.MethodOptions, origin: app, wantCode: http.StatusNoContent, wantOrigin: app, wantMethods: true},
		{name: "preflight disallowed", method: http.MethodOptions, origin: "https://evil.com", wantCode: http.StatusNoContent},
		{name: "put allowed with credentials", method: http.MethodPut, origin: app, credentials: true, wantCode: http.StatusOK, wantOrigin: app, wantCreds: "true", wantInner: true},
		{name: "get disallowed origin", method: http.MethodGet, origin: "https://evil.com", wantCode: http.StatusOK, wantInner: true},
		{name: "no origin", method: http.MethodGet, wantCode: http.StatusOK, wantInner: true},
		{name: "options without origin", method: http.MethodOptions, wantCode: http.StatusOK, wantInner: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				CORSAllowedOrigins:   []string{" " + app + " "},
				CORSAllowCredentials: tt.credentials,
			}

			innerCalled := false
			handler := CORSMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				innerCalled = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/v1/meal-plans/current", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantInner, innerCalled)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rr.Header().Get("Access-Control-Allow-Credentials"))
			if tt.wantMethods {
				assert.Equal(t, corsAllowMethods, rr.Header().Get("Access-Control-Allow-Methods"))
				assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
			} else {
				assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}
