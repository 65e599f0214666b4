package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

const (
	opServiceNew  = "users.service.new"
	opRegister    = "users.register"
	opAuth        = "users.authenticate"
	opGet         = "users.get"
	opUpdateTheme = "users.update_theme"
	opUpdateTimer = "users.update_timer_preferences"
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

// IDProvider issues identifiers for new accounts.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the users service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
	BcryptCost int
}

// Service manages accounts, credentials, and user preferences.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
	bcryptCost int
}

// NewService validates dependencies and constructs the users service.
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
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
		bcryptCost: cost,
	}, nil
}

// Register creates a new account, rejecting duplicate emails.
func (s *Service) Register(ctx context.Context, request RegisterRequest) (User, error) {
	if err := request.validate(); err != nil {
		return User{}, newServiceError(opRegister, "invalid_request", err)
	}

	email := strings.ToLower(strings.TrimSpace(request.Email))

	var existing User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	if err == nil {
		return User{}, newServiceError(opRegister, "email_taken", ErrEmailTaken)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logError(opRegister, "email_lookup_failed", err)
		return User{}, newServiceError(opRegister, "email_lookup_failed", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), s.bcryptCost)
	if err != nil {
		s.logError(opRegister, "hash_failed", err)
		return User{}, newServiceError(opRegister, "hash_failed", err)
	}

	userID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opRegister, "id_generation_failed", err)
		return User{}, newServiceError(opRegister, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	user := User{
		UserID:          userID,
		Email:           email,
		PasswordHash:    string(hash),
		Name:            strings.TrimSpace(request.Name),
		ThemePreference: ThemeLight,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return User{}, newServiceError(opRegister, "email_taken", ErrEmailTaken)
		}
		s.logError(opRegister, "user_insert_failed", err)
		return User{}, newServiceError(opRegister, "user_insert_failed", err)
	}

	return user, nil
}

// Authenticate verifies an email/password pair and returns the account.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	var user User
	err := s.db.WithContext(ctx).Where("email = ?", normalized).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, newServiceError(opAuth, "unknown_email", ErrInvalidCredentials)
	}
	if err != nil {
		s.logError(opAuth, "email_lookup_failed", err)
		return User{}, newServiceError(opAuth, "email_lookup_failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, newServiceError(opAuth, "password_mismatch", ErrInvalidCredentials)
	}

	return user, nil
}

// GetByID returns the account for the given identifier.
func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, newServiceError(opGet, "user_not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opGet, "query_failed", err, zap.String("user_id", userID))
		return User{}, newServiceError(opGet, "query_failed", err)
	}
	return user, nil
}

// UpdateThemePreference stores the user's theme choice.
func (s *Service) UpdateThemePreference(ctx context.Context, userID, theme string) (User, error) {
	if err := validateTheme(theme); err != nil {
		return User{}, newServiceError(opUpdateTheme, "invalid_theme", err)
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	user.ThemePreference = theme
	user.UpdatedAt = s.clock().UTC()
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		s.logError(opUpdateTheme, "user_save_failed", err, zap.String("user_id", userID))
		return User{}, newServiceError(opUpdateTheme, "user_save_failed", err)
	}
	return user, nil
}

// UpdateTimerPreferences applies a partial update to the user's default
// Pomodoro durations.
func (s *Service) UpdateTimerPreferences(ctx context.Context, userID string, update TimerPreferencesUpdate) (User, error) {
	if update.DefaultWorkDurationSeconds != nil {
		if err := validateTimerDuration(*update.DefaultWorkDurationSeconds); err != nil {
			return User{}, newServiceError(opUpdateTimer, "invalid_work_duration", err)
		}
	}
	if update.DefaultBreakDurationSeconds != nil {
		if err := validateTimerDuration(*update.DefaultBreakDurationSeconds); err != nil {
			return User{}, newServiceError(opUpdateTimer, "invalid_break_duration", err)
		}
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	if update.DefaultWorkDurationSeconds != nil {
		user.DefaultWorkDurationSeconds = update.DefaultWorkDurationSeconds
	}
	if update.DefaultBreakDurationSeconds != nil {
		user.DefaultBreakDurationSeconds = update.DefaultBreakDurationSeconds
	}
	user.UpdatedAt = s.clock().UTC()

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		s.logError(opUpdateTimer, "user_save_failed", err, zap.String("user_id", userID))
		return User{}, newServiceError(opUpdateTimer, "user_save_failed", err)
	}
	return user, nil
}

// TimerPreferencesFor satisfies the sessions preference source. Unknown
// users resolve to empty preferences so session start falls back to the
// hardcoded defaults.
func (s *Service) TimerPreferencesFor(ctx context.Context, userID string) (sessions.TimerPreferences, error) {
	user, err := s.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return sessions.TimerPreferences{}, nil
	}
	if err != nil {
		return sessions.TimerPreferences{}, err
	}
	return sessions.TimerPreferences{
		WorkDurationSeconds:  user.DefaultWorkDurationSeconds,
		BreakDurationSeconds: user.DefaultBreakDurationSeconds,
	}, nil
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
	s.loggerOrDefault().Error("users service error", attrs...)
}
