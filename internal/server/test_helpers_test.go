package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FocusDeckLabs/focusdeck/backend/internal/auth"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/crypto"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/dashboard"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/database"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/identifier"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/notes"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/sessions"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/tasks"
	"github.com/FocusDeckLabs/focusdeck/backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var serverTestDatabaseCounter int64

type testEnvironment struct {
	handler http.Handler
}

// newTestEnvironment assembles the full router over an in-memory store so
// route tests exercise the same wiring as the binary.
func newTestEnvironment(t *testing.T) *testEnvironment {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sequence := atomic.AddInt64(&serverTestDatabaseCounter, 1)
	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", sequence)
	db, err := database.OpenSQLite(dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	cipher, err := crypto.NewCipher(crypto.CipherConfig{Key: "server-test-key"})
	if err != nil {
		t.Fatalf("failed to build cipher: %v", err)
	}

	idProvider := identifier.NewUUIDProvider()
	clock := time.Now

	usersService, err := users.NewService(users.ServiceConfig{
		Database:   db,
		Clock:      clock,
		IDProvider: idProvider,
		Logger:     zap.NewNop(),
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("failed to build users service: %v", err)
	}

	notesService, err := notes.NewService(notes.ServiceConfig{
		Database:   db,
		Cipher:     cipher,
		Clock:      clock,
		IDProvider: idProvider,
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build notes service: %v", err)
	}

	sessionsService, err := sessions.NewService(sessions.ServiceConfig{
		Database:    db,
		Preferences: usersService,
		Clock:       clock,
		IDProvider:  idProvider,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build sessions service: %v", err)
	}

	tasksService, err := tasks.NewService(tasks.ServiceConfig{
		Database:   db,
		Clock:      clock,
		IDProvider: idProvider,
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build tasks service: %v", err)
	}

	aggregator, err := dashboard.NewAggregator(dashboard.AggregatorConfig{
		Tasks:    tasksService,
		Notes:    notesService,
		Sessions: sessionsService,
	})
	if err != nil {
		t.Fatalf("failed to build dashboard aggregator: %v", err)
	}

	issuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("server-test-secret"),
		Issuer:        "focusdeck-test",
		Audience:      "focusdeck-test",
		TokenTTL:      time.Hour,
	})

	handler, err := NewHTTPHandler(Dependencies{
		TokenManager: issuer,
		Users:        usersService,
		Notes:        notesService,
		Sessions:     sessionsService,
		Tasks:        tasksService,
		Dashboard:    aggregator,
		Logger:       zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}

	return &testEnvironment{handler: handler}
}

func (env *testEnvironment) perform(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	return recorder
}

// registerUser creates an account through the public endpoint and returns
// its bearer token.
func (env *testEnvironment) registerUser(t *testing.T, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"correct horse battery","name":"Test User"}`, email)
	recorder := env.perform(t, http.MethodPost, "/auth/register", "", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("registration failed with status %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode registration response: %v", err)
	}
	if payload.Token == "" {
		t.Fatalf("expected registration to return a token")
	}
	return payload.Token
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response body %q: %v", recorder.Body.String(), err)
	}
}
