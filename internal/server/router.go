package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/dashboard"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/notes"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/sessions"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/tasks"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const userIDContextKey = "focusdeck_user_id"

var (
	errMissingTokenManager     = errors.New("token manager dependency required")
	errMissingUsersService     = errors.New("users service dependency required")
	errMissingNotesService     = errors.New("notes service dependency required")
	errMissingSessionsService  = errors.New("sessions service dependency required")
	errMissingTasksService     = errors.New("tasks service dependency required")
	errMissingDashboardService = errors.New("dashboard aggregator dependency required")
	errInvalidAuthorization    = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates backend bearer tokens.
type TokenManager interface {
	IssueToken(ctx context.Context, userID string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies wires the services consumed by the HTTP layer.
type Dependencies struct {
	TokenManager TokenManager
	Users        *users.Service
	Notes        *notes.Service
	Sessions     *sessions.Service
	Tasks        *tasks.Service
	Dashboard    *dashboard.Aggregator
	Logger       *zap.Logger
}

// NewHTTPHandler validates dependencies and builds the gin router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Notes == nil {
		return nil, errMissingNotesService
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionsService
	}
	if deps.Tasks == nil {
		return nil, errMissingTasksService
	}
	if deps.Dashboard == nil {
		return nil, errMissingDashboardService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:    deps.TokenManager,
		users:     deps.Users,
		notes:     deps.Notes,
		sessions:  deps.Sessions,
		tasks:     deps.Tasks,
		dashboard: deps.Dashboard,
		logger:    logger,
	}

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)

	protected.GET("/users/me", handler.handleGetProfile)
	protected.PATCH("/users/me/theme", handler.handleUpdateTheme)
	protected.PATCH("/users/me/timer-preferences", handler.handleUpdateTimerPreferences)

	protected.POST("/notes", handler.handleCreateNote)
	protected.GET("/notes", handler.handleListNotes)
	protected.GET("/notes/recent", handler.handleRecentNotes)
	protected.GET("/notes/:id", handler.handleGetNote)
	protected.PATCH("/notes/:id", handler.handleUpdateNote)
	protected.DELETE("/notes/:id", handler.handleDeleteNote)

	protected.POST("/focus-sessions/start", handler.handleStartSession)
	protected.POST("/focus-sessions/end", handler.handleEndSession)
	protected.GET("/focus-sessions/active", handler.handleActiveSession)
	protected.GET("/focus-sessions", handler.handleListSessions)
	protected.GET("/focus-sessions/recent", handler.handleRecentSessions)
	protected.GET("/focus-sessions/stats", handler.handleSessionStats)
	protected.DELETE("/focus-sessions/:id", handler.handleDeleteSession)

	protected.POST("/tasks", handler.handleCreateTask)
	protected.GET("/tasks", handler.handleListTasks)
	protected.GET("/tasks/stats", handler.handleTaskStats)
	protected.GET("/tasks/:id", handler.handleGetTask)
	protected.PATCH("/tasks/:id", handler.handleUpdateTask)
	protected.PATCH("/tasks/:id/toggle", handler.handleToggleTask)
	protected.DELETE("/tasks/:id", handler.handleDeleteTask)

	protected.GET("/dashboard/stats", handler.handleDashboardStats)

	return router, nil
}

type httpHandler struct {
	tokens    TokenManager
	users     *users.Service
	notes     *notes.Service
	sessions  *sessions.Service
	tasks     *tasks.Service
	dashboard *dashboard.Aggregator
	logger    *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		// Expired tokens are routine; anything else deserves attention.
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}

func (h *httpHandler) authenticatedUser(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userID, true
}
