package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegisterReturnsTokenAndProfile(t *testing.T) {
	env := newTestEnvironment(t)

	recorder := env.perform(t, http.MethodPost, "/auth/register", "",
		`{"email":"ada@example.com","password":"longenough","name":"Ada"}`)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d, body %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"`
		User      struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"user"`
	}
	decodeBody(t, recorder, &payload)
	if payload.Token == "" {
		t.Fatalf("expected a bearer token")
	}
	if payload.ExpiresIn <= 0 {
		t.Fatalf("expected a positive expiry, got %d", payload.ExpiresIn)
	}
	if payload.User.Email != "ada@example.com" || payload.User.Name != "Ada" {
		t.Fatalf("unexpected user payload: %+v", payload.User)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	env := newTestEnvironment(t)
	env.registerUser(t, "dup@example.com")

	recorder := env.perform(t, http.MethodPost, "/auth/register", "",
		`{"email":"dup@example.com","password":"longenough","name":"Dup"}`)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected conflict, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnvironment(t)

	recorder := env.perform(t, http.MethodPost, "/auth/register", "",
		`{"email":"short@example.com","password":"tiny","name":"Short"}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", recorder.Code)
	}
}

func TestLoginAcceptsRegisteredCredentials(t *testing.T) {
	env := newTestEnvironment(t)
	env.registerUser(t, "login@example.com")

	recorder := env.perform(t, http.MethodPost, "/auth/login", "",
		`{"email":"login@example.com","password":"correct horse battery"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, body %s", recorder.Code, recorder.Body.String())
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnvironment(t)
	env.registerUser(t, "wrongpw@example.com")

	recorder := env.perform(t, http.MethodPost, "/auth/login", "",
		`{"email":"wrongpw@example.com","password":"not the password"}`)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", recorder.Code)
	}
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	env := newTestEnvironment(t)

	recorder := env.perform(t, http.MethodGet, "/notes", "", "")

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", recorder.Code)
	}
}

func TestProtectedRouteRejectsGarbageToken(t *testing.T) {
	env := newTestEnvironment(t)

	recorder := env.perform(t, http.MethodGet, "/notes", "not-a-jwt", "")

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", recorder.Code)
	}
}

func TestGetProfileReturnsAuthenticatedUser(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.registerUser(t, "me@example.com")

	recorder := env.perform(t, http.MethodGet, "/users/me", token, "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, body %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Email           string `json:"email"`
		ThemePreference string `json:"themePreference"`
	}
	decodeBody(t, recorder, &payload)
	if payload.Email != "me@example.com" {
		t.Fatalf("unexpected email: %q", payload.Email)
	}
	if payload.ThemePreference != "light" {
		t.Fatalf("expected default light theme, got %q", payload.ThemePreference)
	}
}

func TestUpdateThemePersists(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.registerUser(t, "theme@example.com")

	recorder := env.perform(t, http.MethodPatch, "/users/me/theme", token, `{"theme":"dark"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, body %s", recorder.Code, recorder.Body.String())
	}

	recorder = env.perform(t, http.MethodGet, "/users/me", token, "")
	var payload struct {
		ThemePreference string `json:"themePreference"`
	}
	decodeBody(t, recorder, &payload)
	if payload.ThemePreference != "dark" {
		t.Fatalf("expected dark theme after update, got %q", payload.ThemePreference)
	}
}

func TestUpdateTimerPreferencesRejectsOutOfRange(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.registerUser(t, "timer@example.com")

	recorder := env.perform(t, http.MethodPatch, "/users/me/timer-preferences", token,
		`{"defaultWorkDuration":30}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", recorder.Code)
	}
}

func TestAuthorizeRequestLogsExpiredTokenAtInfoLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	request := httptest.NewRequest(http.MethodGet, "/notes", http.NoBody)
	request.Header.Set("Authorization", "Bearer expired-token")
	ctx.Request = request

	core, logs := observer.New(zapcore.DebugLevel)
	handler := &httpHandler{
		tokens: stubTokenManager{validateErr: jwt.ErrTokenExpired},
		logger: zap.New(core),
	}

	handler.authorizeRequest(ctx)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d", recorder.Code)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("expected info level for expired token, got %s", entries[0].Level)
	}
}

func TestAuthorizeRequestLogsUnexpectedTokenErrorAtWarnLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	request := httptest.NewRequest(http.MethodGet, "/notes", http.NoBody)
	request.Header.Set("Authorization", "Bearer invalid-token")
	ctx.Request = request

	core, logs := observer.New(zapcore.DebugLevel)
	handler := &httpHandler{
		tokens: stubTokenManager{validateErr: errors.New("signature mismatch")},
		logger: zap.New(core),
	}

	handler.authorizeRequest(ctx)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d", recorder.Code)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level for unexpected error, got %s", entries[0].Level)
	}
}

type stubTokenManager struct {
	validateErr error
}

func (s stubTokenManager) IssueToken(context.Context, string) (string, int64, error) {
	return "stub-token", 3600, nil
}

func (s stubTokenManager) ValidateToken(string) (string, error) {
	if s.validateErr != nil {
		return "", s.validateErr
	}
	return "stub-user", nil
}
