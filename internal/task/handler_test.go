package task

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth"
	authentity "github.com/ovaphlow/pitchfork/service-task-go/internal/auth/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
)

// newTestMux mounts the handler the way the router does, with the owner
// injected in place of token authentication.
func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	h := NewHandler(newTestService(t), zap.NewNop().Sugar())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", h.List)
	mux.HandleFunc("POST /tasks", h.Create)
	mux.HandleFunc("GET /tasks/{id}", h.Get)
	mux.HandleFunc("PATCH /tasks/{id}/status", h.UpdateStatus)
	mux.HandleFunc("DELETE /tasks/{id}", h.Delete)
	return mux
}

func call(mux http.Handler, owner *authentity.User, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if owner != nil {
		req = req.WithContext(auth.WithUser(req.Context(), owner))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) entity.Task {
	t.Helper()
	var tk entity.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tk))
	return tk
}

func TestHandler_TaskLifecycle(t *testing.T) {
	mux := newTestMux(t)

	rec := call(mux, ownerA, http.MethodPost, "/tasks", `{"title":"Buy milk","description":"2%"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "owner")
	created := decodeTask(t, rec)
	assert.Equal(t, entity.StatusOpen, created.Status)

	rec = call(mux, ownerA, http.MethodGet, "/tasks/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeTask(t, rec).ID)

	rec = call(mux, ownerB, http.MethodGet, "/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(mux, ownerA, http.MethodPatch, "/tasks/"+created.ID+"/status", `{"status":"IN_PROGRESS"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.StatusInProgress, decodeTask(t, rec).Status)

	rec = call(mux, ownerA, http.MethodGet, "/tasks?status=IN_PROGRESS&search=MILK", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []entity.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = call(mux, ownerB, http.MethodDelete, "/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(mux, ownerA, http.MethodDelete, "/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(mux, ownerA, http.MethodGet, "/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ListEmptyIsArray(t *testing.T) {
	mux := newTestMux(t)
	rec := call(mux, ownerA, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_CreateConflict(t *testing.T) {
	mux := newTestMux(t)
	require.Equal(t, http.StatusCreated, call(mux, ownerA, http.MethodPost, "/tasks", `{"title":"Buy milk","description":"2%"}`).Code)

	rec := call(mux, ownerA, http.MethodPost, "/tasks", `{"title":"Buy milk","description":"2%"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_BadRequests(t *testing.T) {
	mux := newTestMux(t)
	rec := call(mux, ownerA, http.MethodPost, "/tasks", `{"title":"Buy milk","description":"2%"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeTask(t, rec).ID

	cases := []struct{ method, target, body string }{
		{http.MethodPost, "/tasks", `{`},
		{http.MethodPost, "/tasks", `{"title":"","description":"x"}`},
		{http.MethodPost, "/tasks", `{"title":"x","description":"  "}`},
		{http.MethodGet, "/tasks?status=ARCHIVED", ""},
		{http.MethodPatch, "/tasks/" + id + "/status", `{"status":"done"}`},
		{http.MethodPatch, "/tasks/" + id + "/status", `nope`},
	}
	for _, c := range cases {
		rec := call(mux, ownerA, c.method, c.target, c.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s %s", c.method, c.target, c.body)
	}
}

func TestHandler_RequiresUser(t *testing.T) {
	mux := newTestMux(t)
	rec := call(mux, nil, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
