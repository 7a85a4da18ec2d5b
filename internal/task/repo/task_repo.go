package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/database"
)

const taskColumns = `id, title, description, status, owner_id, created_at, updated_at`

// TaskRepo provides data access for the tasks table using sqlx.
// Every read and write is scoped by owner_id.
type TaskRepo struct {
	db *sqlx.DB
}

func NewTaskRepo(db *sqlx.DB) *TaskRepo { return &TaskRepo{db: db} }

// EnsureTable creates the tasks table and its indexes if not exists (idempotent).
// Requires the users table.
func (r *TaskRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
  id VARCHAR(32) PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  status VARCHAR(16) NOT NULL DEFAULT 'OPEN',
  owner_id VARCHAR(32) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL,
  CONSTRAINT tasks_owner_title_description_key UNIQUE (owner_id, title, description)
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_status ON tasks(owner_id, status);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Find lists the owner's tasks narrowed by f, ordered by creation.
func (r *TaskRepo) Find(ctx context.Context, ownerID string, f entity.Filter) ([]*entity.Task, error) {
	q, args := taskListQuery(ownerID, f)
	tasks := []*entity.Task{}
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Exists reports whether the owner already has a task with exactly this title and description.
func (r *TaskRepo) Exists(ctx context.Context, ownerID, title, description string) (bool, error) {
	q := r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM tasks WHERE owner_id = ? AND title = ? AND description = ?)`)
	var ok bool
	if err := r.db.GetContext(ctx, &ok, q, ownerID, title, description); err != nil {
		return false, err
	}
	return ok, nil
}

// Create inserts t. A clash on (owner_id, title, description) is reported as
// *database.ConstraintViolation.
func (r *TaskRepo) Create(ctx context.Context, t *entity.Task) error {
	const q = `INSERT INTO tasks (` + taskColumns + `)
		VALUES (:id, :title, :description, :status, :owner_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, t); err != nil {
		if cv, ok := database.AsConstraintViolation(err); ok {
			return cv
		}
		return err
	}
	return nil
}

// GetByID fetches the task only if it belongs to ownerID, else sql.ErrNoRows.
func (r *TaskRepo) GetByID(ctx context.Context, id, ownerID string) (*entity.Task, error) {
	q := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND owner_id = ?`)
	var t entity.Task
	if err := r.db.GetContext(ctx, &t, q, id, ownerID); err != nil {
		return nil, err
	}
	return &t, nil
}

// Save writes the mutable fields of t back to its row.
func (r *TaskRepo) Save(ctx context.Context, t *entity.Task) error {
	const q = `UPDATE tasks SET title = :title, description = :description, status = :status, updated_at = :updated_at
		WHERE id = :id AND owner_id = :owner_id`
	_, err := r.db.NamedExecContext(ctx, q, t)
	if cv, ok := database.AsConstraintViolation(err); ok {
		return cv
	}
	return err
}

// Delete removes the task if owned by ownerID and returns the affected row count.
func (r *TaskRepo) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
