package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/sessions"
	"github.com/gin-gonic/gin"
)

type sessionStartRequest struct {
	SessionType           string     `json:"sessionType"`
	TargetDurationSeconds *int64     `json:"targetDuration"`
	IsBreak               bool       `json:"isBreak"`
	StartTime             *time.Time `json:"startTime"`
}

type sessionEndRequest struct {
	EndTime *time.Time `json:"endTime"`
}

func (h *httpHandler) handleStartSession(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	// The body is optional: an empty request starts a default Pomodoro now.
	var request sessionStartRequest
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidPayload(c, err)
		return
	}

	start := sessions.StartRequest{
		TargetDurationSeconds: request.TargetDurationSeconds,
		IsBreak:               request.IsBreak,
		StartTime:             request.StartTime,
	}
	if request.SessionType != "" {
		parsed, err := sessions.ParseSessionType(request.SessionType)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		start.SessionType = parsed
	}

	session, err := h.sessions.Start(c.Request.Context(), userID, start)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, presentSession(session))
}

func (h *httpHandler) handleEndSession(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	// The body is optional: an empty request ends the session at "now".
	var request sessionEndRequest
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidPayload(c, err)
		return
	}

	session, err := h.sessions.End(c.Request.Context(), userID, sessions.EndRequest{EndTime: request.EndTime})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentSession(session))
}

func (h *httpHandler) handleActiveSession(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	session, err := h.sessions.GetActive(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, presentSession(*session))
}

func (h *httpHandler) handleListSessions(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	limit, ok := optionalLimit(c)
	if !ok {
		return
	}

	records, err := h.sessions.ListAll(c.Request.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentSessions(records))
}

func (h *httpHandler) handleRecentSessions(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	limit, ok := optionalLimit(c)
	if !ok {
		return
	}

	records, err := h.sessions.ListRecent(c.Request.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentSessions(records))
}

func (h *httpHandler) handleSessionStats(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	stats, err := h.sessions.GetStats(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *httpHandler) handleDeleteSession(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	if err := h.sessions.Remove(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func optionalLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return parsed, true
}
