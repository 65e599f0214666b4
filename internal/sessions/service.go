package sessions

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

const (
	opServiceNew = "sessions.service.new"
	opStart      = "sessions.start"
	opEnd        = "sessions.end"
	opGetActive  = "sessions.get_active"
	opListAll    = "sessions.list_all"
	opListRecent = "sessions.list_recent"
	opStats      = "sessions.stats"
	opRemove     = "sessions.remove"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// PreferenceSource resolves a user's stored timer preferences. A not-found
// lookup should return zero-valued preferences rather than an error.
type PreferenceSource interface {
	TimerPreferencesFor(ctx context.Context, userID string) (TimerPreferences, error)
}

// IDProvider issues identifiers for new sessions.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the sessions service.
type ServiceConfig struct {
	Database    *gorm.DB
	Preferences PreferenceSource
	Clock       func() time.Time
	IDProvider  IDProvider
	Logger      *zap.Logger
}

// Service owns focus-session persistence and the per-user state machine:
// at most one active session per user, a single start->end transition, and
// target-duration resolution at start time.
type Service struct {
	db          *gorm.DB
	preferences PreferenceSource
	clock       func() time.Time
	idProvider  IDProvider
	logger      *zap.Logger
}

// NewService validates dependencies and constructs the sessions service.
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
		db:          cfg.Database,
		preferences: cfg.Preferences,
		clock:       clock,
		idProvider:  cfg.IDProvider,
		logger:      logger,
	}, nil
}

// Start creates a new active session. It is rejected with ErrConflict while
// another session is active for the same user. Target duration resolution,
// in priority order: explicit request value, then the owner's stored
// preference (break or work), then the hardcoded defaults; stopwatch
// sessions never carry a target.
func (s *Service) Start(ctx context.Context, userID string, request StartRequest) (FocusSession, error) {
	if strings.TrimSpace(userID) == "" {
		return FocusSession{}, newServiceError(opStart, "missing_user_id", errMissingUserID)
	}

	sessionType := request.SessionType
	if sessionType == "" {
		sessionType = SessionTypePomodoro
	}
	if sessionType != SessionTypePomodoro && sessionType != SessionTypeStopwatch {
		return FocusSession{}, newServiceError(opStart, "invalid_session_type",
			fmt.Errorf("%w: unknown session type %q", ErrValidation, sessionType))
	}
	if request.TargetDurationSeconds != nil && *request.TargetDurationSeconds <= 0 {
		return FocusSession{}, newServiceError(opStart, "invalid_target_duration",
			fmt.Errorf("%w: target duration must be positive", ErrValidation))
	}

	active, err := s.findActive(ctx, opStart, userID)
	if err != nil {
		return FocusSession{}, err
	}
	if active != nil {
		return FocusSession{}, newServiceError(opStart, "already_active", ErrConflict)
	}

	targetDuration, err := s.resolveTargetDuration(ctx, userID, sessionType, request)
	if err != nil {
		s.logError(opStart, "preference_lookup_failed", err, zap.String("user_id", userID))
		return FocusSession{}, newServiceError(opStart, "preference_lookup_failed", err)
	}

	sessionID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opStart, "id_generation_failed", err, zap.String("user_id", userID))
		return FocusSession{}, newServiceError(opStart, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	startTime := now
	if request.StartTime != nil {
		startTime = request.StartTime.UTC()
	}

	session := FocusSession{
		SessionID:             sessionID,
		UserID:                userID,
		StartTime:             startTime,
		IsActive:              true,
		SessionType:           sessionType,
		TargetDurationSeconds: targetDuration,
		IsBreak:               request.IsBreak,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		// The partial unique index on (user_id) WHERE is_active closes the
		// window between the pre-check and this insert.
		if isUniqueViolation(err) {
			return FocusSession{}, newServiceError(opStart, "already_active", ErrConflict)
		}
		s.logError(opStart, "session_insert_failed", err, zap.String("user_id", userID))
		return FocusSession{}, newServiceError(opStart, "session_insert_failed", err)
	}

	return session, nil
}

// End completes the user's active session, fixing its end time and duration.
// It fails with ErrNotFound when no session is active and with ErrValidation
// when a caller-supplied end time precedes the start time.
func (s *Service) End(ctx context.Context, userID string, request EndRequest) (FocusSession, error) {
	if strings.TrimSpace(userID) == "" {
		return FocusSession{}, newServiceError(opEnd, "missing_user_id", errMissingUserID)
	}

	active, err := s.findActive(ctx, opEnd, userID)
	if err != nil {
		return FocusSession{}, err
	}
	if active == nil {
		return FocusSession{}, newServiceError(opEnd, "no_active_session", ErrNotFound)
	}

	now := s.clock().UTC()
	endTime := now
	if request.EndTime != nil {
		endTime = request.EndTime.UTC()
	}
	if endTime.Before(active.StartTime) {
		return FocusSession{}, newServiceError(opEnd, "end_before_start",
			fmt.Errorf("%w: end time precedes start time", ErrValidation))
	}

	duration := int64(endTime.Sub(active.StartTime) / time.Second)
	active.EndTime = &endTime
	active.DurationSeconds = &duration
	active.IsActive = false
	active.UpdatedAt = now

	if err := s.db.WithContext(ctx).Save(active).Error; err != nil {
		s.logError(opEnd, "session_save_failed", err,
			zap.String("user_id", userID), zap.String("session_id", active.SessionID))
		return FocusSession{}, newServiceError(opEnd, "session_save_failed", err)
	}

	return *active, nil
}

// GetActive returns the user's active session, or nil when none is running.
func (s *Service) GetActive(ctx context.Context, userID string) (*FocusSession, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, newServiceError(opGetActive, "missing_user_id", errMissingUserID)
	}
	return s.findActive(ctx, opGetActive, userID)
}

// ListAll returns the user's sessions, active or not, newest start first.
func (s *Service) ListAll(ctx context.Context, userID string, limit int) ([]FocusSession, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, newServiceError(opListAll, "missing_user_id", errMissingUserID)
	}
	if limit <= 0 {
		limit = 50
	}

	var sessions []FocusSession
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		s.logError(opListAll, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opListAll, "query_failed", err)
	}
	return sessions, nil
}

// ListRecent returns the user's most recent completed sessions.
func (s *Service) ListRecent(ctx context.Context, userID string, limit int) ([]FocusSession, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, newServiceError(opListRecent, "missing_user_id", errMissingUserID)
	}
	if limit <= 0 {
		limit = 3
	}

	var sessions []FocusSession
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, false).
		Order("start_time DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		s.logError(opListRecent, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opListRecent, "query_failed", err)
	}
	return sessions, nil
}

// GetStats summarizes the user's completed sessions. Today's figures cover
// sessions started on or after local midnight of the clock's current day.
func (s *Service) GetStats(ctx context.Context, userID string) (Stats, error) {
	if strings.TrimSpace(userID) == "" {
		return Stats{}, newServiceError(opStats, "missing_user_id", errMissingUserID)
	}

	var completed []FocusSession
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, false).
		Find(&completed).Error; err != nil {
		s.logError(opStats, "query_failed", err, zap.String("user_id", userID))
		return Stats{}, newServiceError(opStats, "query_failed", err)
	}

	now := s.clock()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats := Stats{TotalSessions: int64(len(completed))}
	for _, session := range completed {
		duration := int64(0)
		if session.DurationSeconds != nil {
			duration = *session.DurationSeconds
		}
		stats.TotalTime += duration
		if !session.StartTime.Before(midnight) {
			stats.TodaySessions++
			stats.TodayTime += duration
		}
	}
	if stats.TotalSessions > 0 {
		stats.AverageTime = stats.TotalTime / stats.TotalSessions
	}

	return stats, nil
}

// Remove permanently deletes a completed session. Active sessions must be
// ended first; deleting one is rejected with ErrConflict so the state
// machine cannot be bypassed.
func (s *Service) Remove(ctx context.Context, sessionID, userID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return newServiceError(opRemove, "missing_session_id",
			fmt.Errorf("%w: session id is required", ErrValidation))
	}
	if strings.TrimSpace(userID) == "" {
		return newServiceError(opRemove, "missing_user_id", errMissingUserID)
	}

	var session FocusSession
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newServiceError(opRemove, "session_not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opRemove, "session_select_failed", err,
			zap.String("user_id", userID), zap.String("session_id", sessionID))
		return newServiceError(opRemove, "session_select_failed", err)
	}
	if session.UserID != userID {
		return newServiceError(opRemove, "session_forbidden", ErrForbidden)
	}
	if session.IsActive {
		return newServiceError(opRemove, "session_still_active", ErrConflict)
	}

	if err := s.db.WithContext(ctx).Delete(&session).Error; err != nil {
		s.logError(opRemove, "session_delete_failed", err,
			zap.String("user_id", userID), zap.String("session_id", sessionID))
		return newServiceError(opRemove, "session_delete_failed", err)
	}
	return nil
}

func (s *Service) resolveTargetDuration(ctx context.Context, userID string, sessionType SessionType, request StartRequest) (*int64, error) {
	if sessionType == SessionTypeStopwatch {
		return nil, nil
	}
	if request.TargetDurationSeconds != nil {
		value := *request.TargetDurationSeconds
		return &value, nil
	}

	var preferences TimerPreferences
	if s.preferences != nil {
		resolved, err := s.preferences.TimerPreferencesFor(ctx, userID)
		if err != nil {
			return nil, err
		}
		preferences = resolved
	}

	target := DefaultWorkDurationSeconds
	if request.IsBreak {
		target = DefaultBreakDurationSeconds
		if preferences.BreakDurationSeconds != nil {
			target = *preferences.BreakDurationSeconds
		}
	} else if preferences.WorkDurationSeconds != nil {
		target = *preferences.WorkDurationSeconds
	}
	return &target, nil
}

func (s *Service) findActive(ctx context.Context, operation, userID string) (*FocusSession, error) {
	var session FocusSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError(operation, "active_select_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(operation, "active_select_failed", err)
	}
	return &session, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
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
	s.loggerOrDefault().Error("sessions service error", attrs...)
}
