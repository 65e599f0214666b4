package server

import (
	"net/http"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/tasks"
	"github.com/gin-gonic/gin"
)

type taskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type taskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (h *httpHandler) handleCreateTask(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var request taskCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidPayload(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, tasks.CreateRequest{
		Title:       request.Title,
		Description: request.Description,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, presentTask(task))
}

func (h *httpHandler) handleListTasks(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var statusFilter *tasks.TaskStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := tasks.ParseTaskStatus(raw)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		statusFilter = &parsed
	}

	records, err := h.tasks.List(c.Request.Context(), userID, statusFilter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentTasks(records))
}

func (h *httpHandler) handleGetTask(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentTask(task))
}

func (h *httpHandler) handleUpdateTask(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var request taskUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidPayload(c, err)
		return
	}

	update := tasks.UpdateRequest{
		Title:       request.Title,
		Description: request.Description,
	}
	if request.Status != nil {
		parsed, err := tasks.ParseTaskStatus(*request.Status)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		update.Status = &parsed
	}

	task, err := h.tasks.Update(c.Request.Context(), c.Param("id"), userID, update)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentTask(task))
}

func (h *httpHandler) handleToggleTask(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	task, err := h.tasks.ToggleStatus(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentTask(task))
}

func (h *httpHandler) handleDeleteTask(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	if err := h.tasks.Remove(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleTaskStats(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	stats, err := h.tasks.GetStats(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
