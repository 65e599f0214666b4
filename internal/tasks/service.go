package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingUserID     = errors.New("user identifier is required")
	noOpLogger           = zap.NewNop()
)

const (
	opServiceNew = "tasks.service.new"
	opCreate     = "tasks.create"
	opList       = "tasks.list"
	opGet        = "tasks.get"
	opUpdate     = "tasks.update"
	opToggle     = "tasks.toggle_status"
	opRemove     = "tasks.remove"
	opStats      = "tasks.stats"
)

// ServiceError carries a dotted operation code alongside the causal error.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the dotted operation code for logging and metrics.
func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider issues identifiers for new tasks.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the tasks service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns task persistence and the pending/completed status toggle.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates dependencies and constructs the tasks service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Create persists a new pending task.
func (s *Service) Create(ctx context.Context, userID string, request CreateRequest) (Task, error) {
	if strings.TrimSpace(userID) == "" {
		return Task{}, newServiceError(opCreate, "missing_user_id", errMissingUserID)
	}
	if err := validateTitle(request.Title); err != nil {
		return Task{}, newServiceError(opCreate, "invalid_title", err)
	}
	if err := validateDescription(request.Description); err != nil {
		return Task{}, newServiceError(opCreate, "invalid_description", err)
	}

	taskID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, "id_generation_failed", err, zap.String("user_id", userID))
		return Task{}, newServiceError(opCreate, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	task := Task{
		TaskID:      taskID,
		UserID:      userID,
		Title:       request.Title,
		Description: request.Description,
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		s.logError(opCreate, "task_insert_failed", err, zap.String("user_id", userID))
		return Task{}, newServiceError(opCreate, "task_insert_failed", err)
	}
	return task, nil
}

// List returns the user's tasks, optionally filtered by status, newest first.
func (s *Service) List(ctx context.Context, userID string, statusFilter *TaskStatus) ([]Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, newServiceError(opList, "missing_user_id", errMissingUserID)
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if statusFilter != nil {
		query = query.Where("status = ?", *statusFilter)
	}

	var tasks []Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		s.logError(opList, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opList, "query_failed", err)
	}
	return tasks, nil
}

// Get returns a single task after the existence and ownership checks.
func (s *Service) Get(ctx context.Context, taskID, userID string) (Task, error) {
	return s.loadOwned(ctx, opGet, taskID, userID)
}

// Update applies a partial update to title, description, or status.
func (s *Service) Update(ctx context.Context, taskID, userID string, request UpdateRequest) (Task, error) {
	if request.Title != nil {
		if err := validateTitle(*request.Title); err != nil {
			return Task{}, newServiceError(opUpdate, "invalid_title", err)
		}
	}
	if request.Description != nil {
		if err := validateDescription(*request.Description); err != nil {
			return Task{}, newServiceError(opUpdate, "invalid_description", err)
		}
	}
	if request.Status != nil && *request.Status != TaskStatusPending && *request.Status != TaskStatusCompleted {
		return Task{}, newServiceError(opUpdate, "invalid_status",
			fmt.Errorf("%w: unknown task status %q", ErrValidation, *request.Status))
	}

	task, err := s.loadOwned(ctx, opUpdate, taskID, userID)
	if err != nil {
		return Task{}, err
	}

	if request.Title != nil {
		task.Title = *request.Title
	}
	if request.Description != nil {
		task.Description = *request.Description
	}
	if request.Status != nil {
		task.Status = *request.Status
	}
	task.UpdatedAt = s.clock().UTC()

	if err := s.db.WithContext(ctx).Save(&task).Error; err != nil {
		s.logError(opUpdate, "task_save_failed", err,
			zap.String("user_id", userID), zap.String("task_id", taskID))
		return Task{}, newServiceError(opUpdate, "task_save_failed", err)
	}
	return task, nil
}

// ToggleStatus flips a task between pending and completed.
func (s *Service) ToggleStatus(ctx context.Context, taskID, userID string) (Task, error) {
	task, err := s.loadOwned(ctx, opToggle, taskID, userID)
	if err != nil {
		return Task{}, err
	}

	if task.Status == TaskStatusCompleted {
		task.Status = TaskStatusPending
	} else {
		task.Status = TaskStatusCompleted
	}
	task.UpdatedAt = s.clock().UTC()

	if err := s.db.WithContext(ctx).Save(&task).Error; err != nil {
		s.logError(opToggle, "task_save_failed", err,
			zap.String("user_id", userID), zap.String("task_id", taskID))
		return Task{}, newServiceError(opToggle, "task_save_failed", err)
	}
	return task, nil
}

// Remove permanently deletes a task after the existence and ownership checks.
func (s *Service) Remove(ctx context.Context, taskID, userID string) error {
	task, err := s.loadOwned(ctx, opRemove, taskID, userID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&task).Error; err != nil {
		s.logError(opRemove, "task_delete_failed", err,
			zap.String("user_id", userID), zap.String("task_id", taskID))
		return newServiceError(opRemove, "task_delete_failed", err)
	}
	return nil
}

// GetStats counts the user's tasks by status for the dashboard.
func (s *Service) GetStats(ctx context.Context, userID string) (Stats, error) {
	if strings.TrimSpace(userID) == "" {
		return Stats{}, newServiceError(opStats, "missing_user_id", errMissingUserID)
	}

	var stats Stats
	if err := s.db.WithContext(ctx).Model(&Task{}).
		Where("user_id = ?", userID).
		Count(&stats.Total).Error; err != nil {
		s.logError(opStats, "count_failed", err, zap.String("user_id", userID))
		return Stats{}, newServiceError(opStats, "count_failed", err)
	}
	if err := s.db.WithContext(ctx).Model(&Task{}).
		Where("user_id = ? AND status = ?", userID, TaskStatusCompleted).
		Count(&stats.Completed).Error; err != nil {
		s.logError(opStats, "count_failed", err, zap.String("user_id", userID))
		return Stats{}, newServiceError(opStats, "count_failed", err)
	}
	stats.Pending = stats.Total - stats.Completed
	return stats, nil
}

func (s *Service) loadOwned(ctx context.Context, operation, taskID, userID string) (Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return Task{}, newServiceError(operation, "missing_task_id",
			fmt.Errorf("%w: task id is required", ErrValidation))
	}
	if strings.TrimSpace(userID) == "" {
		return Task{}, newServiceError(operation, "missing_user_id", errMissingUserID)
	}

	var task Task
	err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Take(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Task{}, newServiceError(operation, "task_not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(operation, "task_select_failed", err,
			zap.String("user_id", userID), zap.String("task_id", taskID))
		return Task{}, newServiceError(operation, "task_select_failed", err)
	}
	if task.UserID != userID {
		return Task{}, newServiceError(operation, "task_forbidden", ErrForbidden)
	}
	return task, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("tasks service error", attrs...)
}
