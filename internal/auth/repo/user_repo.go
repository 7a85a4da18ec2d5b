package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/database"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id VARCHAR(32) PRIMARY KEY,
  username TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  password_algo TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL,
  CONSTRAINT users_username_key UNIQUE (username)
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new user row. A taken username is reported as
// *database.ConstraintViolation; the store is the only judge of uniqueness.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, username, password_hash, password_algo, created_at)
		VALUES (:id, :username, :password_hash, :password_algo, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, u); err != nil {
		if cv, ok := database.AsConstraintViolation(err); ok {
			return cv
		}
		return err
	}
	return nil
}

// GetByUsername fetches by username or returns sql.ErrNoRows.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	q := r.db.Rebind(`SELECT id, username, password_hash, password_algo, created_at
	  FROM users WHERE username = ?`)
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, username); err != nil {
		return nil, err
	}
	return &row, nil
}
