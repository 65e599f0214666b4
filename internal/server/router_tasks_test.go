package server

import (
	"net/http"
	"testing"
)

func TestCreateTaskStartsPending(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.registerUser(t, "tasks-create@example.com")

	recorder := env.perform(t, http.MethodPost, "/tasks", token,
		`{"title":"Write report","description":"quarterly numbers"}`)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d, body %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, recorder, &payload)
	if payload.ID == "" || payload.Status != "pending" {
		t.Fatalf("expected pending task with id, got %+v", payload)
	}
}

func TestToggleTaskFlipsStatus(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.registerUser(t, "tasks-toggle@example.com")

	recorder := env.perform(t, http.MethodPost, "/tasks", token, `{"title":"Flip me"}`)
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, recorder, &created)

	recorder = env.perform(t, http.MethodPatch, "/tasks/"+created.ID+"/toggle", token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("toggle failed: %d %s", recorder.Code, recorder.Body.String())
	}
	var toggled struct {
		Status string `json:"status"`
	}
	decodeBody(t, recorder, &toggled)
	if toggled.Status != "completed" {
		t.Fatalf("expected completed after toggle, got %q", toggled.Status)
	}

	recorder = env.perform(t, http.MethodPatch, "/tasks/"+created.ID+"/toggle", token, "")
	decodeBody(t, recorder, &toggled)
	if toggled.Status != "pending" {
		t.Fatalf("expected pending after second toggle, got %q", toggled.Status)
	}
}

func TestTaskStatsCountByStatus(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.registerUser(t, "tasks-stats@example.com")

	var firstID string
	for _, title := range []string{"a", "b", "c"} {
		recorder := env.perform(t, http.MethodPost, "/tasks", token, `{"title":"`+title+`"}`)
		if firstID == "" {
			var created struct {
				ID string `json:"id"`
			}
			decodeBody(t, recorder, &created)
			firstID = created.ID
		}
	}
	env.perform(t, http.MethodPatch, "/tasks/"+firstID+"/toggle", token, "")

	recorder := env.perform(t, http.MethodGet, "/tasks/stats", token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("stats failed: %d", recorder.Code)
	}
	var payload struct {
		Total     int64 `json:"total"`
		Completed int64 `json:"completed"`
		Pending   int64 `json:"pending"`
	}
	decodeBody(t, recorder, &payload)
	if payload.Total != 3 || payload.Completed != 1 || payload.Pending != 2 {
		t.Fatalf("unexpected stats: %+v", payload)
	}
}

func TestListTasksFiltersByStatus(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.registerUser(t, "tasks-filter@example.com")

	recorder := env.perform(t, http.MethodPost, "/tasks", token, `{"title":"done soon"}`)
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, recorder, &created)
	env.perform(t, http.MethodPost, "/tasks", token, `{"title":"still open"}`)
	env.perform(t, http.MethodPatch, "/tasks/"+created.ID+"/toggle", token, "")

	recorder = env.perform(t, http.MethodGet, "/tasks?status=completed", token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("list failed: %d", recorder.Code)
	}
	var listed []struct {
		Title  string `json:"title"`
		Status string `json:"status"`
	}
	decodeBody(t, recorder, &listed)
	if len(listed) != 1 || listed[0].Title != "done soon" {
		t.Fatalf("unexpected filtered list: %+v", listed)
	}

	recorder = env.perform(t, http.MethodGet, "/tasks?status=bogus", token, "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for unknown status, got %d", recorder.Code)
	}
}

func TestTaskOwnershipIsEnforced(t *testing.T) {
	env := newTestEnvironment(t)
	owner := env.registerUser(t, "tasks-owner@example.com")
	intruder := env.registerUser(t, "tasks-intruder@example.com")

	recorder := env.perform(t, http.MethodPost, "/tasks", owner, `{"title":"mine"}`)
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, recorder, &created)

	recorder = env.perform(t, http.MethodPatch, "/tasks/"+created.ID, intruder, `{"title":"stolen"}`)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden update, got %d", recorder.Code)
	}

	recorder = env.perform(t, http.MethodGet, "/tasks/missing-id", owner, "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected not found for unknown task, got %d", recorder.Code)
	}
}
