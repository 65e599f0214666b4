package server

import (
	"errors"
	"net/http"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/notes"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/sessions"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/tasks"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeServiceError translates the service sentinel taxonomy into HTTP
// statuses. Anything outside the taxonomy is an internal failure and is
// logged rather than exposed.
func (h *httpHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notes.ErrValidation),
		errors.Is(err, sessions.ErrValidation),
		errors.Is(err, tasks.ErrValidation),
		errors.Is(err, users.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, notes.ErrForbidden),
		errors.Is(err, sessions.ErrForbidden),
		errors.Is(err, tasks.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, notes.ErrNotFound),
		errors.Is(err, sessions.ErrNotFound),
		errors.Is(err, tasks.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, sessions.ErrConflict),
		errors.Is(err, users.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func writeInvalidPayload(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload: " + err.Error()})
}
