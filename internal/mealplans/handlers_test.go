package mealplans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/nutri-coach/internal/ai"
	"github.com/fdg312/nutri-coach/internal/nutrition"
	"github.com/fdg312/nutri-coach/internal/profiles"
	"github.com/fdg312/nutri-coach/internal/storage/memory"
)

func newTestService(t *testing.T, provider ai.Provider) (*Service, *profiles.Service) {
	t.Helper()
	st := memory.New()
	ps := profiles.NewService(st)
	ns, err := nutrition.NewService(ps)
	require.NoError(t, err)
	gen := NewGenerator(provider, st, NewPromptBuilder("cl"))
	ps.SetPlanDiscarder(gen)
	return NewService(ns, gen), ps
}

func putReferenceProfile(t *testing.T, ps *profiles.Service, goal string) {
	t.Helper()
	age, weight, height := 30, 75.0, 175.0
	_, err := ps.Put(context.Background(), profiles.ProfileRequest{
		Name: "Ana", Age: &age, Weight: &weight, Height: &height, Goal: goal,
	})
	require.NoError(t, err)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, w, &resp)
	return resp.Error.Code
}

func TestHandleGenerate_NoProfile(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockProvider())
	h := NewHandler(svc)

	w := httptest.NewRecorder()
	h.HandleGenerate(w, httptest.NewRequest(http.MethodPost, "/v1/meal-plans/generate", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "profile_not_found", errorCode(t, w))
}

func TestHandleGenerate_ThenCurrent(t *testing.T) {
	svc, ps := newTestService(t, ai.NewMockProvider())
	putReferenceProfile(t, ps, "maintain")
	h := NewHandler(svc)

	w := httptest.NewRecorder()
	h.HandleGenerate(w, httptest.NewRequest(http.MethodPost, "/v1/meal-plans/generate", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var generated CurrentPlanResponse
	decode(t, w, &generated)
	assert.Equal(t, 2668, generated.TargetKcal)
	assert.Equal(t, 2668, generated.TotalCalories)
	assert.Equal(t, 0, generated.CaloriesDelta)
	assert.True(t, generated.WithinTolerance)
	assert.False(t, generated.Stale)
	assert.Equal(t, StateSuccess, generated.Status.State)
	require.NotNil(t, generated.Targets)

	w = httptest.NewRecorder()
	h.HandleCurrent(w, httptest.NewRequest(http.MethodGet, "/v1/meal-plans/current", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var current CurrentPlanResponse
	decode(t, w, &current)
	assert.Equal(t, generated.Plan, current.Plan)
	assert.False(t, current.Stale)

	// editing the profile marks the plan stale without touching it
	putReferenceProfile(t, ps, "reduce")

	w = httptest.NewRecorder()
	h.HandleCurrent(w, httptest.NewRequest(http.MethodGet, "/v1/meal-plans/current", nil))
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &current)
	assert.True(t, current.Stale)
	assert.Equal(t, generated.Plan, current.Plan)
	assert.Equal(t, 2268, current.Targets.TargetKcal)
}

func TestHandleCurrent_NoPlan(t *testing.T) {
	svc, ps := newTestService(t, ai.NewMockProvider())
	putReferenceProfile(t, ps, "")
	h := NewHandler(svc)

	w := httptest.NewRecorder()
	h.HandleCurrent(w, httptest.NewRequest(http.MethodGet, "/v1/meal-plans/current", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "plan_not_found", errorCode(t, w))
}

func TestHandleGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		provider ai.Provider
		status   int
		code     string
	}{
		{name: "model down", provider: staticProvider("", errors.New("connection refused")), status: http.StatusBadGateway, code: "generation_failed"},
		{name: "malformed", provider: staticProvider(`{"breakfast":{}}`, nil), status: http.StatusBadGateway, code: "malformed_plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ps := newTestService(t, tt.provider)
			putReferenceProfile(t, ps, "")
			h := NewHandler(svc)

			w := httptest.NewRecorder()
			h.HandleGenerate(w, httptest.NewRequest(http.MethodPost, "/v1/meal-plans/generate", nil))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))

			w = httptest.NewRecorder()
			h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/v1/meal-plans/status", nil))
			var status GenerationStatus
			decode(t, w, &status)
			assert.Equal(t, StateFailed, status.State)
			assert.Equal(t, tt.code, status.ErrorKind)
		})
	}
}

func TestHandleGenerate_InProgress(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	provider := ai.ProviderFunc(func(ctx context.Context, req ai.Request) (ai.Response, error) {
		close(started)
		<-release
		return ai.Response{Text: validPlanJSON, Model: "m"}, nil
	})
	svc, ps := newTestService(t, provider)
	putReferenceProfile(t, ps, "")
	h := NewHandler(svc)

	done := make(chan int, 1)
	go func() {
		w := httptest.NewRecorder()
		h.HandleGenerate(w, httptest.NewRequest(http.MethodPost, "/v1/meal-plans/generate", nil))
		done <- w.Code
	}()
	<-started

	w := httptest.NewRecorder()
	h.HandleGenerate(w, httptest.NewRequest(http.MethodPost, "/v1/meal-plans/generate", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "generation_in_progress", errorCode(t, w))

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestHandleDelete(t *testing.T) {
	svc, ps := newTestService(t, ai.NewMockProvider())
	putReferenceProfile(t, ps, "")
	h := NewHandler(svc)

	w := httptest.NewRecorder()
	h.HandleGenerate(w, httptest.NewRequest(http.MethodPost, "/v1/meal-plans/generate", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.HandleDelete(w, httptest.NewRequest(http.MethodDelete, "/v1/meal-plans/current", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.HandleCurrent(w, httptest.NewRequest(http.MethodGet, "/v1/meal-plans/current", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/v1/meal-plans/status", nil))
	assert.JSONEq(t, `{"state":"idle"}`, w.Body.String())
}
