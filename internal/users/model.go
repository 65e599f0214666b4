package users

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	// ThemeLight and ThemeDark are the accepted theme preferences.
	ThemeLight = "light"
	ThemeDark  = "dark"

	minPasswordLength = 8

	// Timer preference bounds in seconds (1 minute to 240 minutes).
	minTimerDurationSeconds int64 = 60
	maxTimerDurationSeconds int64 = 14400
)

var (
	// ErrNotFound indicates no user with the requested id exists.
	ErrNotFound = errors.New("users: user not found")
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrValidation indicates a field violated its bounds.
	ErrValidation = errors.New("users: validation failed")
)

// User models an account. Timer preference columns are nullable: a nil
// value means the user never stored a preference and the hardcoded default
// applies.
type User struct {
	UserID                      string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Email                       string    `gorm:"column:email;size:320;not null;uniqueIndex:idx_users_email"`
	PasswordHash                string    `gorm:"column:password_hash;size:100;not null"`
	Name                        string    `gorm:"column:name;size:200;not null"`
	ThemePreference             string    `gorm:"column:theme_preference;size:16;not null;default:light"`
	DefaultWorkDurationSeconds  *int64    `gorm:"column:default_work_duration_s"`
	DefaultBreakDurationSeconds *int64    `gorm:"column:default_break_duration_s"`
	CreatedAt                   time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt                   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

// RegisterRequest carries the fields for a new account.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// TimerPreferencesUpdate carries a partial preference update. Nil fields
// leave the stored value untouched.
type TimerPreferencesUpdate struct {
	DefaultWorkDurationSeconds  *int64
	DefaultBreakDurationSeconds *int64
}

func (r RegisterRequest) validate() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(r.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

func validateTimerDuration(value int64) error {
	if value < minTimerDurationSeconds || value > maxTimerDurationSeconds {
		return fmt.Errorf("%w: duration must be between %d and %d seconds",
			ErrValidation, minTimerDurationSeconds, maxTimerDurationSeconds)
	}
	return nil
}

func validateTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: unknown theme %q", ErrValidation, theme)
	}
	return nil
}
