package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/notes"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/sessions"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/tasks"
)

type stubTaskSource struct {
	stats tasks.Stats
	err   error
}

func (s *stubTaskSource) GetStats(_ context.Context, _ string) (tasks.Stats, error) {
	return s.stats, s.err
}

type stubNoteSource struct {
	recent []notes.Note
	err    error
}

func (s *stubNoteSource) Recent(_ context.Context, _ string, _ int) ([]notes.Note, error) {
	return s.recent, s.err
}

type stubSessionSource struct {
	stats    sessions.Stats
	recent   []sessions.FocusSession
	statsErr error
}

func (s *stubSessionSource) GetStats(_ context.Context, _ string) (sessions.Stats, error) {
	return s.stats, s.statsErr
}

func (s *stubSessionSource) ListRecent(_ context.Context, _ string, _ int) ([]sessions.FocusSession, error) {
	return s.recent, nil
}

func TestNewAggregatorRequiresAllSources(t *testing.T) {
	if _, err := NewAggregator(AggregatorConfig{}); err == nil {
		t.Fatalf("expected constructor to reject missing sources")
	}
}

func TestGetStatsAssemblesSummary(t *testing.T) {
	aggregator, err := NewAggregator(AggregatorConfig{
		Tasks: &stubTaskSource{stats: tasks.Stats{Total: 5, Completed: 2, Pending: 3}},
		Notes: &stubNoteSource{recent: []notes.Note{{NoteID: "n1", Title: "latest"}}},
		Sessions: &stubSessionSource{
			stats:  sessions.Stats{TotalSessions: 3, TotalTime: 360, AverageTime: 120},
			recent: []sessions.FocusSession{{SessionID: "s1"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := aggregator.GetStats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Tasks.Total != 5 || summary.Tasks.Pending != 3 {
		t.Fatalf("unexpected task stats: %+v", summary.Tasks)
	}
	if len(summary.Notes.Recent) != 1 || summary.Notes.Recent[0].NoteID != "n1" {
		t.Fatalf("unexpected recent notes: %#v", summary.Notes.Recent)
	}
	if summary.Sessions.Stats.AverageTime != 120 {
		t.Fatalf("unexpected session stats: %+v", summary.Sessions.Stats)
	}
	if len(summary.Sessions.Recent) != 1 {
		t.Fatalf("unexpected recent sessions: %#v", summary.Sessions.Recent)
	}
}

func TestGetStatsFailsWhenAnySourceFails(t *testing.T) {
	sourceErr := errors.New("store unavailable")
	aggregator, err := NewAggregator(AggregatorConfig{
		Tasks:    &stubTaskSource{err: sourceErr},
		Notes:    &stubNoteSource{},
		Sessions: &stubSessionSource{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := aggregator.GetStats(context.Background(), "u1"); !errors.Is(err, sourceErr) {
		t.Fatalf("expected sub-call error to propagate, got %v", err)
	}
}
