package entity

import (
	"fmt"
	"time"
)

// Status is a task lifecycle state. Any status may follow any other.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// InitialStatus is assigned to every new task.
const InitialStatus = StatusOpen

var statuses = []Status{StatusOpen, StatusInProgress, StatusDone}

// ParseStatus returns the Status named by s or an error for unknown values.
func ParseStatus(s string) (Status, error) {
	for _, st := range statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Task represents a row in the `tasks` table. OwnerID is never serialized.
type Task struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Status      Status    `db:"status" json:"status"`
	OwnerID     string    `db:"owner_id" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Filter narrows GetTasks. A nil Status and an empty Search are both "absent".
type Filter struct {
	Status *Status
	Search string
}
