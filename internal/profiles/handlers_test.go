package profiles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/fdg312/nutri-coach/internal/storage/memory"
	"github.com/fdg312/nutri-coach/internal/userctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTargets struct{}

func (fakeTargets) TargetsFor(ctx context.Context, owner string, sp StoredProfile) (interface{}, error) {
	return map[string]int{"age": sp.Profile.Age}, nil
}

func TestHandleGetMissingProfile(t *testing.T) {
	h := NewHandler(NewService(memory.New()), nil)

	w := httptest.NewRecorder()
	h.HandleGet(w, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "profile_not_found")
}

func TestHandlePutThenGet(t *testing.T) {
	h := NewHandler(NewService(memory.New()), fakeTargets{})

	body := `{"name":"Ana","age":28,"weight":62,"height":165,"gender":"female","activity_level":"light","goal":"reduce","diet_type":"vegetarian"}`
	w := httptest.NewRecorder()
	h.HandlePut(w, httptest.NewRequest(http.MethodPut, "/v1/profile", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.HandleGet(w, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Profile UserProfile    `json:"profile"`
		Targets map[string]int `json:"targets"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Ana", resp.Profile.Name)
	assert.Equal(t, GoalLoseWeight, resp.Profile.Goal)
	assert.Equal(t, DietVegetarian, resp.Profile.DietType)
	assert.Equal(t, 28, resp.Targets["age"])
}

func TestHandlePutValidation(t *testing.T) {
	h := NewHandler(NewService(memory.New()), nil)

	w := httptest.NewRecorder()
	h.HandlePut(w, httptest.NewRequest(http.MethodPut, "/v1/profile", strings.NewReader(`{"age":-3}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_profile")

	w = httptest.NewRecorder()
	h.HandlePut(w, httptest.NewRequest(http.MethodPut, "/v1/profile", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfilesAreScopedByOwner(t *testing.T) {
	svc := NewService(memory.New())
	ana := userctx.WithUserID(context.Background(), "ana")

	_, err := svc.Put(ana, ProfileRequest{Name: "Ana"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background())
	assert.ErrorIs(t, err, ErrProfileNotFound)

	sp, err := svc.Get(ana)
	require.NoError(t, err)
	assert.Equal(t, "Ana", sp.Profile.Name)
}

func TestRevisionChangesOnEveryPut(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	first, err := svc.Put(ctx, ProfileRequest{})
	require.NoError(t, err)
	second, err := svc.Put(ctx, ProfileRequest{})
	require.NoError(t, err)

	assert.True(t, second.Revision.After(first.Revision))
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestResetRemovesPlanAndHistory(t *testing.T) {
	store := memory.New()
	svc := NewService(store)
	h := NewHandler(svc, nil)
	ctx := context.Background()

	_, err := svc.Put(ctx, ProfileRequest{})
	require.NoError(t, err)
	_, err = store.PutSnapshot(ctx, userctx.DefaultOwnerID, storage.KeyPlan, []byte(`{}`))
	require.NoError(t, err)
	_, err = store.Chat().InsertMessage(ctx, userctx.DefaultOwnerID, "user", "hola")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.HandleDelete(w, httptest.NewRequest(http.MethodDelete, "/v1/profile", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	_, found, err := store.GetSnapshot(ctx, userctx.DefaultOwnerID, storage.KeyPlan)
	require.NoError(t, err)
	assert.False(t, found)

	msgs, _, err := store.Chat().ListMessages(ctx, userctx.DefaultOwnerID, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = svc.Get(ctx)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
