package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc, _, _ := newTestService(t)
	return NewHandler(svc, zap.NewNop().Sugar()), svc
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandler_SignUpAndSignIn(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(h.SignUp, `{"username":"alice","password":"correct horse"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = post(h.SignIn, `{"username":"alice","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res SignInResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.NotEmpty(t, res.AccessToken)
}

func TestHandler_SignUpConflict(t *testing.T) {
	h, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, post(h.SignUp, `{"username":"alice","password":"correct horse"}`).Code)

	rec := post(h.SignUp, `{"username":"alice","password":"another one"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
}

func TestHandler_SignUpValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	cases := []string{
		`not json`,
		`{"username":"abc","password":"correct horse"}`,
		`{"username":"alice","password":"short"}`,
		`{"username":"abcdefghijklmnopqrstu","password":"correct horse"}`,
	}
	for _, body := range cases {
		assert.Equal(t, http.StatusBadRequest, post(h.SignUp, body).Code, body)
	}
}

func TestHandler_SignUpInternal(t *testing.T) {
	svc := NewService(&stubStore{createErr: errors.New("boom")}, BcryptHasher{Cost: bcrypt.MinCost}, newTestIssuer(t), nil)
	h := NewHandler(svc, zap.NewNop().Sugar())

	rec := post(h.SignUp, `{"username":"alice","password":"correct horse"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHandler_SignInUnauthorized(t *testing.T) {
	h, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, post(h.SignUp, `{"username":"alice","password":"correct horse"}`).Code)

	wrong := post(h.SignIn, `{"username":"alice","password":"wrong password"}`)
	missing := post(h.SignIn, `{"username":"nobody","password":"correct horse"}`)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, wrong.Body.String(), missing.Body.String())
}

func TestRequireUser(t *testing.T) {
	svc, users, iss := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SignUp(ctx, "alice", "correct horse"))
	res, err := svc.SignIn(ctx, "alice", "correct horse")
	require.NoError(t, err)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		require.True(t, ok)
		seen = u.Username
		w.WriteHeader(http.StatusNoContent)
	})
	mw := RequireUser(iss, users, zap.NewNop().Sugar())(next)

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("Bearer "+res.AccessToken))
	assert.Equal(t, "alice", seen)
	assert.Equal(t, http.StatusNoContent, do("bearer "+res.AccessToken))

	assert.Equal(t, http.StatusUnauthorized, do(""))
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "))
	assert.Equal(t, http.StatusUnauthorized, do("Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, do("Bearer garbage"))

	// valid signature, but the user no longer resolves
	ghost, err := iss.Sign(Payload{Username: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+ghost))
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
}
