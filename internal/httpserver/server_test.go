package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/nutri-coach/internal/ai"
	"github.com/fdg312/nutri-coach/internal/auth"
	"github.com/fdg312/nutri-coach/internal/chat"
	"github.com/fdg312/nutri-coach/internal/config"
	"github.com/fdg312/nutri-coach/internal/mealplans"
	"github.com/fdg312/nutri-coach/internal/reports"
	"github.com/fdg312/nutri-coach/internal/storage/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:              "local",
		Port:             8080,
		AuthMode:         "none",
		PlanLocality:     "cl",
		ChatHistoryLimit: 100,
		Blob:             config.BlobConfig{Mode: config.BlobModeLocal},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	srv, err := New(context.Background(), cfg,
		WithStorage(memory.New()),
		WithProvider(ai.NewMockProvider()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const referenceProfileJSON = `{"name":"Ana","age":30,"weight":75,"height":175,"gender":"male","activity_level":"moderate","goal":"lose_weight","diet_type":"omnivore"}`

func TestHealthz(t *testing.T) {
	h := newTestServer(t, testConfig())

	w := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])

	w = do(t, h, http.MethodPost, "/healthz", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPlanFlow(t *testing.T) {
	h := newTestServer(t, testConfig())

	w := do(t, h, http.MethodPost, "/v1/meal-plans/generate", "")
	require.Equal(t, http.StatusNotFound, w.Code, "generate without profile")

	w = do(t, h, http.MethodPut, "/v1/profile", referenceProfileJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/nutrition/targets", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"target_kcal":2268`)

	w = do(t, h, http.MethodPost, "/v1/meal-plans/generate", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plan mealplans.CurrentPlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, 2268, plan.TargetKcal)
	assert.Equal(t, 2268, plan.TotalCalories)
	assert.True(t, plan.WithinTolerance)
	assert.NotEmpty(t, plan.Plan.Breakfast.Name)

	w = do(t, h, http.MethodGet, "/v1/meal-plans/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"success"`)

	// Chat is grounded on the same profile.
	w = do(t, h, http.MethodPost, "/v1/chat/messages", `{"content":"¿Qué como al desayuno?"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reply chat.SendMessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.False(t, reply.Degraded)
	assert.Equal(t, "assistant", reply.AssistantMessage.Role)

	w = do(t, h, http.MethodGet, "/v1/chat/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	var history chat.ListMessagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history.Messages, 2)

	// CSV export served from the metadata storage.
	w = do(t, h, http.MethodPost, "/v1/reports", `{"format":"csv"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var report reports.ReportDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	w = do(t, h, http.MethodGet, "/v1/reports/"+report.ID.String()+"/download", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2268")

	// Profile reset drops plan and chat history.
	w = do(t, h, http.MethodDelete, "/v1/profile", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/v1/meal-plans/current", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/v1/chat/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Empty(t, history.Messages)
}

func TestAuthRequired(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = "dev"
	cfg.AuthEnabled = true
	cfg.AuthRequired = true
	cfg.JWTSecret = "test-secret-key-for-testing-only"
	cfg.JWTIssuer = "nutri-coach-test"
	cfg.JWTTTLMinutes = 60
	h := newTestServer(t, cfg)

	w := do(t, h, http.MethodGet, "/v1/profile", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Public paths stay open.
	w = do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/v1/auth/dev", `{"user_id":"ana"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok auth.DevAuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))

	bearer := "Bearer " + tok.AccessToken
	w = do(t, h, http.MethodPut, "/v1/profile", referenceProfileJSON, "Authorization", bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/profile", "", "Authorization", bearer)
	assert.Equal(t, http.StatusOK, w.Code)

	// Another owner does not see ana's profile.
	w = do(t, h, http.MethodPost, "/v1/auth/dev", `{"user_id":"luis"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))

	w = do(t, h, http.MethodGet, "/v1/profile", "", "Authorization", "Bearer "+tok.AccessToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMiddlewareChain_CORSPreflightBeforeAuth(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = "dev"
	cfg.AuthEnabled = true
	cfg.AuthRequired = true
	cfg.JWTSecret = "test-secret-key-for-testing-only"
	cfg.CORSAllowedOrigins = []string{"http://localhost:3000"}
	h := newTestServer(t, cfg)

	w := do(t, h, http.MethodOptions, "/v1/profile", "", "Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
