package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth/repo"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/database"
)

const testSecret = "test-secret"

func newTestUserRepo(t *testing.T) *repo.UserRepo {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := repo.NewUserRepo(db)
	require.NoError(t, r.EnsureTable(context.Background()))
	return r
}

func newTestIssuer(t *testing.T) *JWTIssuer {
	t.Helper()
	iss, err := NewJWTIssuer(TokenConfig{Secret: testSecret, TTL: time.Hour, Issuer: "test"})
	require.NoError(t, err)
	return iss
}

func newTestService(t *testing.T) (*Service, *repo.UserRepo, *JWTIssuer) {
	t.Helper()
	users := newTestUserRepo(t)
	iss := newTestIssuer(t)
	return NewService(users, BcryptHasher{Cost: bcrypt.MinCost}, iss, nil), users, iss
}

// stubStore lets tests force store failures.
type stubStore struct {
	createErr error
	getErr    error
	user      *entity.User
	created   []*entity.User
}

func (s *stubStore) Create(_ context.Context, u *entity.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, u)
	return nil
}

func (s *stubStore) GetByUsername(_ context.Context, _ string) (*entity.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.user, nil
}
