package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusrent/internal/config"
	"campusrent/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-12345678901234567890123456789012"

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Env:                "test",
		DBDriver:           "sqlite",
		JWTSecret:          testJWTSecret,
		TokenTTLHours:      1,
		AllowQueryIdentity: true,
		RentalTransitions:  config.TransitionsStrict,
		AllowedOrigins:     "*",
		StaticDir:          "../../static",
	}
}

// newTestServer builds a fully wired server on an in-memory SQLite database.
func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	return s
}

// doJSON performs a request against app and returns the status and raw body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

type loginResponse struct {
	UserID    uint   `json:"user_id"`
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

// signup registers and logs in a user, returning the id and bearer token.
func signup(t *testing.T, app *fiber.App, email, name string) (uint, string) {
	t.Helper()
	status, _ := doJSON(t, app, http.MethodPost, "/register", "", fiber.Map{
		"email": email, "name": name, "password": "pw-" + name,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, app, http.MethodPost, "/login", "", fiber.Map{
		"email": email, "password": "pw-" + name,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	login := decode[loginResponse](t, body)
	return login.UserID, login.Token
}
