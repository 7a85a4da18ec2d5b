package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	authentity "github.com/ovaphlow/pitchfork/service-task-go/internal/auth/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/utilities"
)

// TaskStore is the persistence the task service needs. GetByID returns
// sql.ErrNoRows when no task with that id belongs to the owner.
type TaskStore interface {
	Find(ctx context.Context, ownerID string, f entity.Filter) ([]*entity.Task, error)
	Exists(ctx context.Context, ownerID, title, description string) (bool, error)
	Create(ctx context.Context, t *entity.Task) error
	GetByID(ctx context.Context, id, ownerID string) (*entity.Task, error)
	Save(ctx context.Context, t *entity.Task) error
	Delete(ctx context.Context, id, ownerID string) (int64, error)
}

var (
	ErrDuplicateTask = errors.New("task already exists")
	ErrTaskNotFound  = errors.New("task not found")
)

// Service performs owner-scoped task CRUD. A task owned by someone else is
// reported exactly like a missing one.
type Service struct {
	store  TaskStore
	logger *zap.SugaredLogger
	newID  func() string
	now    func() time.Time
}

func NewService(store TaskStore, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		store:  store,
		logger: logger,
		newID:  utilities.NewKSUID,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) GetTasks(ctx context.Context, f entity.Filter, owner *authentity.User) ([]*entity.Task, error) {
	tasks, err := s.store.Find(ctx, owner.ID, f)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask rejects an exact (title, description) repeat for the same owner.
// The check is read-then-write; the store's unique constraint catches the
// concurrent case and is reported the same way.
func (s *Service) CreateTask(ctx context.Context, title, description string, owner *authentity.User) (*entity.Task, error) {
	exists, err := s.store.Exists(ctx, owner.ID, title, description)
	if err != nil {
		return nil, fmt.Errorf("check task: %w", err)
	}
	if exists {
		return nil, duplicateTask(title, description)
	}
	now := s.now()
	t := &entity.Task{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Status:      entity.InitialStatus,
		OwnerID:     owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		var cv *database.ConstraintViolation
		if errors.As(err, &cv) {
			return nil, duplicateTask(title, description)
		}
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.logger.Debugw("task created", "task_id", t.ID, "owner_id", owner.ID)
	return t, nil
}

func (s *Service) GetTaskByID(ctx context.Context, id string, owner *authentity.User) (*entity.Task, error) {
	t, err := s.store.GetByID(ctx, id, owner.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task with id %s: %w", id, ErrTaskNotFound)
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTaskStatusByID sets any status on the owner's task.
func (s *Service) UpdateTaskStatusByID(ctx context.Context, id string, status entity.Status, owner *authentity.User) (*entity.Task, error) {
	t, err := s.GetTaskByID(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	t.Status = status
	t.UpdatedAt = s.now()
	if err := s.store.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	return t, nil
}

// DeleteTaskByID removes the owner's task. Losing a race with another delete
// of the same task after the ownership check still counts as success.
func (s *Service) DeleteTaskByID(ctx context.Context, id string, owner *authentity.User) error {
	if _, err := s.GetTaskByID(ctx, id, owner); err != nil {
		return err
	}
	n, err := s.store.Delete(ctx, id, owner.ID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		s.logger.Debugw("task already deleted", "task_id", id, "owner_id", owner.ID)
	}
	return nil
}

func duplicateTask(title, description string) error {
	return fmt.Errorf("task with title %s and description %s: %w", title, description, ErrDuplicateTask)
}
