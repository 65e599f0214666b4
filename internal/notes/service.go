package notes

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
	errMissingCipher     = errors.New("content cipher is required")
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
	opServiceNew = "notes.service.new"
	opCreate     = "notes.create"
	opList       = "notes.list"
	opGet        = "notes.get"
	opUpdate     = "notes.update"
	opRemove     = "notes.remove"
	opRecent     = "notes.recent"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ContentCipher seals and opens private note content.
type ContentCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// IDProvider issues identifiers for new notes.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the notes service.
type ServiceConfig struct {
	Database   *gorm.DB
	Cipher     ContentCipher
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns note persistence and the encrypt-on-write / decrypt-on-read
// policy for private notes.
type Service struct {
	db         *gorm.DB
	cipher     ContentCipher
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates dependencies and constructs the notes service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.Cipher == nil {
		return nil, newServiceError(opServiceNew, "missing_cipher", errMissingCipher)
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
		cipher:     cfg.Cipher,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Create validates and persists a new note. Private notes are encrypted
// before they reach storage; the returned note always carries plaintext.
func (s *Service) Create(ctx context.Context, userID string, request CreateRequest) (Note, error) {
	if strings.TrimSpace(userID) == "" {
		return Note{}, newServiceError(opCreate, "missing_user_id", errMissingUserID)
	}
	if err := validateTitle(request.Title); err != nil {
		return Note{}, newServiceError(opCreate, "invalid_title", err)
	}
	if err := validateContent(request.Content); err != nil {
		return Note{}, newServiceError(opCreate, "invalid_content", err)
	}
	if request.Type != NoteTypePublic && request.Type != NoteTypePrivate {
		return Note{}, newServiceError(opCreate, "invalid_type",
			fmt.Errorf("%w: unknown note type %q", ErrValidation, request.Type))
	}

	noteID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, "id_generation_failed", err, zap.String("user_id", userID))
		return Note{}, newServiceError(opCreate, "id_generation_failed", err)
	}

	storedContent := request.Content
	isEncrypted := request.Type == NoteTypePrivate
	if isEncrypted {
		storedContent, err = s.cipher.Encrypt(request.Content)
		if err != nil {
			s.logError(opCreate, "encrypt_failed", err, zap.String("user_id", userID))
			return Note{}, newServiceError(opCreate, "encrypt_failed", err)
		}
	}

	now := s.clock().UTC()
	note := Note{
		NoteID:      noteID,
		UserID:      userID,
		Title:       request.Title,
		Content:     storedContent,
		Type:        request.Type,
		IsEncrypted: isEncrypted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		s.logError(opCreate, "note_insert_failed", err, zap.String("user_id", userID))
		return Note{}, newServiceError(opCreate, "note_insert_failed", err)
	}

	return s.presentNote(note), nil
}

// List returns the user's notes, optionally filtered by type, most recently
// updated first, each with plaintext content.
func (s *Service) List(ctx context.Context, userID string, typeFilter *NoteType) ([]Note, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, newServiceError(opList, "missing_user_id", errMissingUserID)
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if typeFilter != nil {
		query = query.Where("note_type = ?", *typeFilter)
	}

	var stored []Note
	if err := query.Order("updated_at DESC").Find(&stored).Error; err != nil {
		s.logError(opList, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opList, "query_failed", err)
	}

	presented := make([]Note, 0, len(stored))
	for _, note := range stored {
		presented = append(presented, s.presentNote(note))
	}
	return presented, nil
}

// Get returns a single note with plaintext content. Existence is resolved
// before ownership: a foreign note yields ErrForbidden, not ErrNotFound.
func (s *Service) Get(ctx context.Context, noteID, userID string) (Note, error) {
	note, err := s.loadOwned(ctx, opGet, noteID, userID)
	if err != nil {
		return Note{}, err
	}
	return s.presentNote(note), nil
}

// Update applies a partial update. A type change re-encrypts or decrypts the
// stored content first, so newly supplied content is stored according to the
// note's post-transition encryption state.
func (s *Service) Update(ctx context.Context, noteID, userID string, request UpdateRequest) (Note, error) {
	if request.Title != nil {
		if err := validateTitle(*request.Title); err != nil {
			return Note{}, newServiceError(opUpdate, "invalid_title", err)
		}
	}
	if request.Content != nil {
		if err := validateContent(*request.Content); err != nil {
			return Note{}, newServiceError(opUpdate, "invalid_content", err)
		}
	}
	if request.Type != nil && *request.Type != NoteTypePublic && *request.Type != NoteTypePrivate {
		return Note{}, newServiceError(opUpdate, "invalid_type",
			fmt.Errorf("%w: unknown note type %q", ErrValidation, *request.Type))
	}

	note, err := s.loadOwned(ctx, opUpdate, noteID, userID)
	if err != nil {
		return Note{}, err
	}

	if request.Type != nil && *request.Type != note.Type {
		currentContent := note.Content
		if note.IsEncrypted {
			currentContent, err = s.cipher.Decrypt(note.Content)
			if err != nil {
				s.logError(opUpdate, "decrypt_failed", err,
					zap.String("user_id", userID), zap.String("note_id", noteID))
				return Note{}, newServiceError(opUpdate, "decrypt_failed", err)
			}
		}

		if *request.Type == NoteTypePrivate {
			note.Content, err = s.cipher.Encrypt(currentContent)
			if err != nil {
				s.logError(opUpdate, "encrypt_failed", err,
					zap.String("user_id", userID), zap.String("note_id", noteID))
				return Note{}, newServiceError(opUpdate, "encrypt_failed", err)
			}
		} else {
			note.Content = currentContent
		}
		note.IsEncrypted = *request.Type == NoteTypePrivate
		note.Type = *request.Type
	}

	if request.Content != nil {
		if note.IsEncrypted {
			note.Content, err = s.cipher.Encrypt(*request.Content)
			if err != nil {
				s.logError(opUpdate, "encrypt_failed", err,
					zap.String("user_id", userID), zap.String("note_id", noteID))
				return Note{}, newServiceError(opUpdate, "encrypt_failed", err)
			}
		} else {
			note.Content = *request.Content
		}
	}

	if request.Title != nil {
		note.Title = *request.Title
	}

	note.UpdatedAt = s.clock().UTC()
	if err := s.db.WithContext(ctx).Save(&note).Error; err != nil {
		s.logError(opUpdate, "note_save_failed", err,
			zap.String("user_id", userID), zap.String("note_id", noteID))
		return Note{}, newServiceError(opUpdate, "note_save_failed", err)
	}

	return s.presentNote(note), nil
}

// Remove permanently deletes a note after the existence and ownership checks.
func (s *Service) Remove(ctx context.Context, noteID, userID string) error {
	note, err := s.loadOwned(ctx, opRemove, noteID, userID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&note).Error; err != nil {
		s.logError(opRemove, "note_delete_failed", err,
			zap.String("user_id", userID), zap.String("note_id", noteID))
		return newServiceError(opRemove, "note_delete_failed", err)
	}
	return nil
}

// Recent returns the user's most recently updated notes for dashboard views.
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]Note, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, newServiceError(opRecent, "missing_user_id", errMissingUserID)
	}
	if limit <= 0 {
		limit = 3
	}

	var stored []Note
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&stored).Error; err != nil {
		s.logError(opRecent, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opRecent, "query_failed", err)
	}

	presented := make([]Note, 0, len(stored))
	for _, note := range stored {
		presented = append(presented, s.presentNote(note))
	}
	return presented, nil
}

func (s *Service) loadOwned(ctx context.Context, operation, noteID, userID string) (Note, error) {
	if strings.TrimSpace(noteID) == "" {
		return Note{}, newServiceError(operation, "missing_note_id",
			fmt.Errorf("%w: note id is required", ErrValidation))
	}
	if strings.TrimSpace(userID) == "" {
		return Note{}, newServiceError(operation, "missing_user_id", errMissingUserID)
	}

	var note Note
	err := s.db.WithContext(ctx).Where("note_id = ?", noteID).Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, newServiceError(operation, "note_not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(operation, "note_select_failed", err,
			zap.String("user_id", userID), zap.String("note_id", noteID))
		return Note{}, newServiceError(operation, "note_select_failed", err)
	}
	if note.UserID != userID {
		return Note{}, newServiceError(operation, "note_forbidden", ErrForbidden)
	}
	return note, nil
}

// presentNote converts a stored note into its API-facing representation with
// plaintext content. Decryption failure is swallowed into a placeholder so a
// single corrupted ciphertext never fails the surrounding call.
func (s *Service) presentNote(note Note) Note {
	if !note.IsEncrypted || note.Content == "" {
		return note
	}

	plaintext, err := s.cipher.Decrypt(note.Content)
	if err != nil {
		s.logError(opGet, "decrypt_failed", err,
			zap.String("user_id", note.UserID), zap.String("note_id", note.NoteID))
		note.Content = DecryptionPlaceholder
		return note
	}

	note.Content = plaintext
	return note
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
	s.loggerOrDefault().Error("notes service error", attrs...)
}
