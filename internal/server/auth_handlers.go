package server

import (
	"net/http"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type themeUpdateRequest struct {
	Theme string `json:"theme"`
}

type timerPreferencesRequest struct {
	DefaultWorkDurationSeconds  *int64 `json:"defaultWorkDuration"`
	DefaultBreakDurationSeconds *int64 `json:"defaultBreakDuration"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidPayload(c, err)
		return
	}

	account, err := h.users.Register(c.Request.Context(), users.RegisterRequest{
		Email:    request.Email,
		Password: request.Password,
		Name:     request.Name,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), account.UserID)
	if err != nil {
		h.logger.Error("token issuance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, authPayload{
		Token:     token,
		ExpiresIn: expiresIn,
		User:      presentUser(account),
	})
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidPayload(c, err)
		return
	}

	account, err := h.users.Authenticate(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), account.UserID)
	if err != nil {
		h.logger.Error("token issuance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, authPayload{
		Token:     token,
		ExpiresIn: expiresIn,
		User:      presentUser(account),
	})
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	account, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentUser(account))
}

func (h *httpHandler) handleUpdateTheme(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var request themeUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidPayload(c, err)
		return
	}

	account, err := h.users.UpdateThemePreference(c.Request.Context(), userID, request.Theme)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentUser(account))
}

func (h *httpHandler) handleUpdateTimerPreferences(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var request timerPreferencesRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidPayload(c, err)
		return
	}

	account, err := h.users.UpdateTimerPreferences(c.Request.Context(), userID, users.TimerPreferencesUpdate{
		DefaultWorkDurationSeconds:  request.DefaultWorkDurationSeconds,
		DefaultBreakDurationSeconds: request.DefaultBreakDurationSeconds,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentUser(account))
}
