package sessions

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionType distinguishes countdown Pomodoro sessions from open-ended
// stopwatch sessions.
type SessionType string

const (
	// SessionTypePomodoro is a countdown toward a target duration.
	SessionTypePomodoro SessionType = "pomodoro"
	// SessionTypeStopwatch is an open-ended session with no target.
	SessionTypeStopwatch SessionType = "stopwatch"
)

const (
	// DefaultWorkDurationSeconds applies when a Pomodoro work session has no
	// explicit target and the owner stored no preference.
	DefaultWorkDurationSeconds int64 = 1500
	// DefaultBreakDurationSeconds applies to Pomodoro break sessions.
	DefaultBreakDurationSeconds int64 = 300
)

var (
	// ErrNotFound indicates no matching session exists, including ending
	// when no session is active.
	ErrNotFound = errors.New("sessions: session not found")
	// ErrForbidden indicates the session exists but belongs to another user.
	ErrForbidden = errors.New("sessions: access denied")
	// ErrConflict indicates the single-active-session invariant blocks the
	// operation: starting while active, or deleting an active session.
	ErrConflict = errors.New("sessions: active session conflict")
	// ErrValidation indicates a field violated its bounds.
	ErrValidation = errors.New("sessions: validation failed")
)

// ParseSessionType validates a raw session type value.
func ParseSessionType(value string) (SessionType, error) {
	switch SessionType(strings.ToLower(strings.TrimSpace(value))) {
	case SessionTypePomodoro:
		return SessionTypePomodoro, nil
	case SessionTypeStopwatch:
		return SessionTypeStopwatch, nil
	default:
		return "", fmt.Errorf("%w: unknown session type %q", ErrValidation, value)
	}
}

// FocusSession models one timed focus interval. A session is created active
// and transitions exactly once to completed, which fixes EndTime and
// DurationSeconds. At most one session per user may be active at a time.
type FocusSession struct {
	SessionID             string      `gorm:"column:session_id;primaryKey;size:190;not null"`
	UserID                string      `gorm:"column:user_id;size:190;not null;index:idx_sessions_user_active,priority:1;index:idx_sessions_user_start,priority:1"`
	StartTime             time.Time   `gorm:"column:start_time;not null;index:idx_sessions_user_start,priority:2"`
	EndTime               *time.Time  `gorm:"column:end_time"`
	DurationSeconds       *int64      `gorm:"column:duration_s"`
	IsActive              bool        `gorm:"column:is_active;not null;default:false;index:idx_sessions_user_active,priority:2"`
	SessionType           SessionType `gorm:"column:session_type;size:16;not null"`
	TargetDurationSeconds *int64      `gorm:"column:target_duration_s"`
	IsBreak               bool        `gorm:"column:is_break;not null;default:false"`
	CreatedAt             time.Time   `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt             time.Time   `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

// TableName provides the explicit table binding for GORM.
func (FocusSession) TableName() string {
	return "focus_sessions"
}

// StartRequest carries optional overrides for a new session. Zero values
// fall back to defaults: Pomodoro type, "now" start, work (non-break)
// session, target duration from preferences.
type StartRequest struct {
	SessionType           SessionType
	TargetDurationSeconds *int64
	IsBreak               bool
	StartTime             *time.Time
}

// EndRequest carries the optional caller-supplied end time.
type EndRequest struct {
	EndTime *time.Time
}

// Stats summarizes a user's completed sessions.
type Stats struct {
	TotalSessions int64 `json:"totalSessions"`
	TotalTime     int64 `json:"totalTime"`
	AverageTime   int64 `json:"averageTime"`
	TodaySessions int64 `json:"todaySessions"`
	TodayTime     int64 `json:"todayTime"`
}

// TimerPreferences holds a user's default Pomodoro durations in seconds.
type TimerPreferences struct {
	WorkDurationSeconds  *int64
	BreakDurationSeconds *int64
}
