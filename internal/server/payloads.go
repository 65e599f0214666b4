package server

import (
	"time"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/dashboard"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/notes"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/sessions"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/tasks"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/users"
)

type userPayload struct {
	ID                          string    `json:"id"`
	Email                       string    `json:"email"`
	Name                        string    `json:"name"`
	ThemePreference             string    `json:"themePreference"`
	DefaultWorkDurationSeconds  *int64    `json:"defaultWorkDuration"`
	DefaultBreakDurationSeconds *int64    `json:"defaultBreakDuration"`
	CreatedAt                   time.Time `json:"createdAt"`
}

func presentUser(user users.User) userPayload {
	return userPayload{
		ID:                          user.UserID,
		Email:                       user.Email,
		Name:                        user.Name,
		ThemePreference:             user.ThemePreference,
		DefaultWorkDurationSeconds:  user.DefaultWorkDurationSeconds,
		DefaultBreakDurationSeconds: user.DefaultBreakDurationSeconds,
		CreatedAt:                   user.CreatedAt,
	}
}

type authPayload struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"`
	User      userPayload `json:"user"`
}

type notePayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Type        string    `json:"type"`
	IsEncrypted bool      `json:"isEncrypted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func presentNote(note notes.Note) notePayload {
	return notePayload{
		ID:          note.NoteID,
		Title:       note.Title,
		Content:     note.Content,
		Type:        string(note.Type),
		IsEncrypted: note.IsEncrypted,
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	}
}

func presentNotes(records []notes.Note) []notePayload {
	payloads := make([]notePayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, presentNote(record))
	}
	return payloads
}

type sessionPayload struct {
	ID                    string     `json:"id"`
	StartTime             time.Time  `json:"startTime"`
	EndTime               *time.Time `json:"endTime"`
	DurationSeconds       *int64     `json:"duration"`
	IsActive              bool       `json:"isActive"`
	SessionType           string     `json:"sessionType"`
	TargetDurationSeconds *int64     `json:"targetDuration"`
	IsBreak               bool       `json:"isBreak"`
	CreatedAt             time.Time  `json:"createdAt"`
}

func presentSession(session sessions.FocusSession) sessionPayload {
	return sessionPayload{
		ID:                    session.SessionID,
		StartTime:             session.StartTime,
		EndTime:               session.EndTime,
		DurationSeconds:       session.DurationSeconds,
		IsActive:              session.IsActive,
		SessionType:           string(session.SessionType),
		TargetDurationSeconds: session.TargetDurationSeconds,
		IsBreak:               session.IsBreak,
		CreatedAt:             session.CreatedAt,
	}
}

func presentSessions(records []sessions.FocusSession) []sessionPayload {
	payloads := make([]sessionPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, presentSession(record))
	}
	return payloads
}

type taskPayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func presentTask(task tasks.Task) taskPayload {
	return taskPayload{
		ID:          task.TaskID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func presentTasks(records []tasks.Task) []taskPayload {
	payloads := make([]taskPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, presentTask(record))
	}
	return payloads
}

type dashboardNotesPayload struct {
	Recent []notePayload `json:"recent"`
}

type dashboardSessionsPayload struct {
	Stats  sessions.Stats   `json:"stats"`
	Recent []sessionPayload `json:"recent"`
}

type dashboardPayload struct {
	Tasks    tasks.Stats              `json:"tasks"`
	Notes    dashboardNotesPayload    `json:"notes"`
	Sessions dashboardSessionsPayload `json:"sessions"`
}

func presentDashboard(summary dashboard.Summary) dashboardPayload {
	return dashboardPayload{
		Tasks: summary.Tasks,
		Notes: dashboardNotesPayload{
			Recent: presentNotes(summary.Notes.Recent),
		},
		Sessions: dashboardSessionsPayload{
			Stats:  summary.Sessions.Stats,
			Recent: presentSessions(summary.Sessions.Recent),
		},
	}
}
