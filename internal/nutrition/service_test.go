package nutrition

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/nutri-coach/internal/profiles"
	"github.com/fdg312/nutri-coach/internal/storage/memory"
	"github.com/fdg312/nutri-coach/internal/userctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *profiles.Service) {
	t.Helper()
	ps := profiles.NewService(memory.New())
	svc, err := NewService(ps)
	require.NoError(t, err)
	return svc, ps
}

func TestServiceRecomputesAfterProfileChange(t *testing.T) {
	svc, ps := newTestService(t)
	ctx := context.Background()

	age, weight, height := 30, 75.0, 175.0
	_, err := ps.Put(ctx, profiles.ProfileRequest{Age: &age, Weight: &weight, Height: &height})
	require.NoError(t, err)

	first, _, err := svc.ForOwner(ctx, userctx.DefaultOwnerID)
	require.NoError(t, err)
	assert.Equal(t, 2668, first.TargetKcal)

	_, err = ps.Put(ctx, profiles.ProfileRequest{Age: &age, Weight: &weight, Height: &height, Goal: "reduce"})
	require.NoError(t, err)

	second, _, err := svc.ForOwner(ctx, userctx.DefaultOwnerID)
	require.NoError(t, err)
	assert.Equal(t, 2268, second.TargetKcal)
}

func TestServiceMissingProfile(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.ForOwner(context.Background(), "nobody")
	assert.ErrorIs(t, err, profiles.ErrProfileNotFound)
}

func TestHandleGetTargets(t *testing.T) {
	svc, ps := newTestService(t)
	h := NewHandlers(svc)

	w := httptest.NewRecorder()
	h.HandleGet(w, httptest.NewRequest(http.MethodGet, "/v1/nutrition/targets", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err := ps.Put(context.Background(), profiles.ProfileRequest{})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	h.HandleGet(w, httptest.NewRequest(http.MethodGet, "/v1/nutrition/targets", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp TargetsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotNil(t, resp.ProfileUpdatedAt)
	assert.Positive(t, resp.Targets.TargetKcal)
	assert.LessOrEqual(t, resp.MacroKcalVariance, 3)
	assert.GreaterOrEqual(t, resp.MacroKcalVariance, -3)
}

func TestHandlePreview(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandlers(svc)

	body := `{"age":30,"weight":75,"height":175,"gender":"male","activity_level":"moderate","goal":"build"}`
	w := httptest.NewRecorder()
	h.HandlePreview(w, httptest.NewRequest(http.MethodPost, "/v1/nutrition/targets/preview", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp TargetsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2968, resp.Targets.TargetKcal)
	assert.Nil(t, resp.ProfileUpdatedAt)

	w = httptest.NewRecorder()
	h.HandlePreview(w, httptest.NewRequest(http.MethodPost, "/v1/nutrition/targets/preview", strings.NewReader(`{"height":-1}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_profile")
}
