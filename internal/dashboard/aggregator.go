// Package dashboard composes read-only summaries over the task, note, and
// session stores for the dashboard view.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/notes"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/sessions"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/tasks"
	"golang.org/x/sync/errgroup"
)

const recentLimit = 3

var (
	errMissingTaskSource    = errors.New("dashboard: task source is required")
	errMissingNoteSource    = errors.New("dashboard: note source is required")
	errMissingSessionSource = errors.New("dashboard: session source is required")
)

// TaskSource supplies task statistics.
type TaskSource interface {
	GetStats(ctx context.Context, userID string) (tasks.Stats, error)
}

// NoteSource supplies recently updated notes.
type NoteSource interface {
	Recent(ctx context.Context, userID string, limit int) ([]notes.Note, error)
}

// SessionSource supplies session statistics and recent completed sessions.
type SessionSource interface {
	GetStats(ctx context.Context, userID string) (sessions.Stats, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]sessions.FocusSession, error)
}

// Summary is the aggregate dashboard payload.
type Summary struct {
	Tasks    tasks.Stats     `json:"tasks"`
	Notes    NotesSummary    `json:"notes"`
	Sessions SessionsSummary `json:"sessions"`
}

// NotesSummary carries the dashboard's note widgets.
type NotesSummary struct {
	Recent []notes.Note `json:"recent"`
}

// SessionsSummary carries the dashboard's session widgets.
type SessionsSummary struct {
	Stats  sessions.Stats          `json:"stats"`
	Recent []sessions.FocusSession `json:"recent"`
}

// AggregatorConfig describes the stores the aggregator composes.
type AggregatorConfig struct {
	Tasks    TaskSource
	Notes    NoteSource
	Sessions SessionSource
}

// Aggregator fans out to the stores concurrently and assembles the summary.
// It holds no state of its own; a failing sub-call fails the whole summary.
type Aggregator struct {
	tasks    TaskSource
	notes    NoteSource
	sessions SessionSource
}

// NewAggregator validates dependencies and constructs the aggregator.
func NewAggregator(cfg AggregatorConfig) (*Aggregator, error) {
	if cfg.Tasks == nil {
		return nil, errMissingTaskSource
	}
	if cfg.Notes == nil {
		return nil, errMissingNoteSource
	}
	if cfg.Sessions == nil {
		return nil, errMissingSessionSource
	}
	return &Aggregator{
		tasks:    cfg.Tasks,
		notes:    cfg.Notes,
		sessions: cfg.Sessions,
	}, nil
}

// GetStats assembles the dashboard summary for a user. The four sub-calls
// run concurrently; the first error cancels the rest and is returned
// unchanged so the caller can map it to a status code.
func (a *Aggregator) GetStats(ctx context.Context, userID string) (Summary, error) {
	var summary Summary

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		stats, err := a.tasks.GetStats(groupCtx, userID)
		if err != nil {
			return fmt.Errorf("task stats: %w", err)
		}
		summary.Tasks = stats
		return nil
	})
	group.Go(func() error {
		recent, err := a.notes.Recent(groupCtx, userID, recentLimit)
		if err != nil {
			return fmt.Errorf("recent notes: %w", err)
		}
		summary.Notes.Recent = recent
		return nil
	})
	group.Go(func() error {
		stats, err := a.sessions.GetStats(groupCtx, userID)
		if err != nil {
			return fmt.Errorf("session stats: %w", err)
		}
		summary.Sessions.Stats = stats
		return nil
	})
	group.Go(func() error {
		recent, err := a.sessions.ListRecent(groupCtx, userID, recentLimit)
		if err != nil {
			return fmt.Errorf("recent sessions: %w", err)
		}
		summary.Sessions.Recent = recent
		return nil
	})

	if err := group.Wait(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
