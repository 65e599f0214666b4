package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TaskStatus tracks whether a task is done.
type TaskStatus string

const (
	// TaskStatusPending is the initial status of every task.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusCompleted marks a finished task.
	TaskStatusCompleted TaskStatus = "completed"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

var (
	// ErrNotFound indicates no task with the requested id exists.
	ErrNotFound = errors.New("tasks: task not found")
	// ErrForbidden indicates the task exists but belongs to another user.
	ErrForbidden = errors.New("tasks: access denied")
	// ErrValidation indicates a field violated its bounds.
	ErrValidation = errors.New("tasks: validation failed")
)

// ParseTaskStatus validates a raw status value.
func ParseTaskStatus(value string) (TaskStatus, error) {
	switch TaskStatus(strings.ToLower(strings.TrimSpace(value))) {
	case TaskStatusPending:
		return TaskStatusPending, nil
	case TaskStatusCompleted:
		return TaskStatusCompleted, nil
	default:
		return "", fmt.Errorf("%w: unknown task status %q", ErrValidation, value)
	}
}

// Task models a to-do item.
type Task struct {
	TaskID      string     `gorm:"column:task_id;primaryKey;size:190;not null"`
	UserID      string     `gorm:"column:user_id;size:190;not null;index:idx_tasks_user_status,priority:1;index:idx_tasks_user_created,priority:1"`
	Title       string     `gorm:"column:title;size:200;not null"`
	Description string     `gorm:"column:description;type:text;not null;default:''"`
	Status      TaskStatus `gorm:"column:status;size:16;not null;index:idx_tasks_user_status,priority:2"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_tasks_user_created,priority:2"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

// TableName provides the explicit table binding for GORM.
func (Task) TableName() string {
	return "tasks"
}

// CreateRequest carries the caller-supplied fields for a new task.
type CreateRequest struct {
	Title       string
	Description string
}

// UpdateRequest carries a partial task update. Nil fields were omitted by
// the caller and leave the stored value untouched.
type UpdateRequest struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}

// Stats summarizes a user's tasks for the dashboard.
type Stats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrValidation, maxDescriptionLength)
	}
	return nil
}
