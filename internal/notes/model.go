package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NoteType distinguishes plain notes from encrypted-at-rest notes.
type NoteType string

const (
	// NoteTypePublic marks a note stored as plaintext.
	NoteTypePublic NoteType = "public"
	// NoteTypePrivate marks a note whose content is encrypted at rest.
	NoteTypePrivate NoteType = "private"
)

const (
	maxTitleLength   = 200
	maxContentLength = 10000
)

// DecryptionPlaceholder substitutes the content of a note whose stored
// ciphertext can no longer be opened, so one corrupted record cannot fail
// an entire listing.
const DecryptionPlaceholder = "[Encrypted - Unable to decrypt]"

var (
	// ErrNotFound indicates that no note with the requested id exists.
	ErrNotFound = errors.New("notes: note not found")
	// ErrForbidden indicates the note exists but belongs to another user.
	ErrForbidden = errors.New("notes: access denied")
	// ErrValidation indicates a field violated its length or enum bounds.
	ErrValidation = errors.New("notes: validation failed")
)

// ParseNoteType validates a raw note type value.
func ParseNoteType(value string) (NoteType, error) {
	switch NoteType(strings.ToLower(strings.TrimSpace(value))) {
	case NoteTypePublic:
		return NoteTypePublic, nil
	case NoteTypePrivate:
		return NoteTypePrivate, nil
	default:
		return "", fmt.Errorf("%w: unknown note type %q", ErrValidation, value)
	}
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

func validateContent(content string) error {
	if content == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if len(content) > maxContentLength {
		return fmt.Errorf("%w: content exceeds %d characters", ErrValidation, maxContentLength)
	}
	return nil
}

// Note models the persisted note record. Content holds ciphertext when
// IsEncrypted is true and plaintext otherwise; the invariant
// IsEncrypted == (Type == NoteTypePrivate) holds after every write.
type Note struct {
	NoteID      string    `gorm:"column:note_id;primaryKey;size:190;not null"`
	UserID      string    `gorm:"column:user_id;size:190;not null;index:idx_notes_user_type,priority:1;index:idx_notes_user_updated,priority:1"`
	Title       string    `gorm:"column:title;size:200;not null"`
	Content     string    `gorm:"column:content;type:text;not null"`
	Type        NoteType  `gorm:"column:note_type;size:16;not null;index:idx_notes_user_type,priority:2"`
	IsEncrypted bool      `gorm:"column:is_encrypted;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false;index:idx_notes_user_updated,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "notes"
}

// CreateRequest carries the caller-supplied fields for a new note.
type CreateRequest struct {
	Title   string
	Content string
	Type    NoteType
}

// UpdateRequest carries a partial note update. Nil fields were omitted by
// the caller and leave the stored value untouched.
type UpdateRequest struct {
	Title   *string
	Content *string
	Type    *NoteType
}
