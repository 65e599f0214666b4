package server

import (
	"net/http"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/notes"
	"github.com/gin-gonic/gin"
)

type noteCreateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type noteUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Type    *string `json:"type"`
}

func (h *httpHandler) handleCreateNote(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var request noteCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidPayload(c, err)
		return
	}

	noteType := notes.NoteTypePublic
	if request.Type != "" {
		parsed, err := notes.ParseNoteType(request.Type)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		noteType = parsed
	}

	note, err := h.notes.Create(c.Request.Context(), userID, notes.CreateRequest{
		Title:   request.Title,
		Content: request.Content,
		Type:    noteType,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, presentNote(note))
}

func (h *httpHandler) handleListNotes(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var typeFilter *notes.NoteType
	if raw := c.Query("type"); raw != "" {
		parsed, err := notes.ParseNoteType(raw)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		typeFilter = &parsed
	}

	records, err := h.notes.List(c.Request.Context(), userID, typeFilter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentNotes(records))
}

func (h *httpHandler) handleRecentNotes(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	limit, ok := optionalLimit(c)
	if !ok {
		return
	}

	records, err := h.notes.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentNotes(records))
}

func (h *httpHandler) handleGetNote(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	note, err := h.notes.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentNote(note))
}

func (h *httpHandler) handleUpdateNote(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var request noteUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidPayload(c, err)
		return
	}

	update := notes.UpdateRequest{
		Title:   request.Title,
		Content: request.Content,
	}
	if request.Type != nil {
		parsed, err := notes.ParseNoteType(*request.Type)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		update.Type = &parsed
	}

	note, err := h.notes.Update(c.Request.Context(), c.Param("id"), userID, update)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentNote(note))
}

func (h *httpHandler) handleDeleteNote(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	if err := h.notes.Remove(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
