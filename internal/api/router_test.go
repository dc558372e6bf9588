package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront-api/internal/core/service"
	"github.com/storefront-labs/storefront-api/internal/infrastructure/db/memory"
)

type testServer struct {
	t *testing.T
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := memory.NewUserRepository()
	orders := memory.NewOrderRepository()
	log := zerolog.Nop()

	auth := service.NewAuthService(users, nil, service.AuthConfig{JWTSecret: "test-secret", BcryptCost: 4}, log)
	require.NoError(t, auth.EnsureAdmin(context.Background(), "Root", "root@example.com", "root-password"))

	reg := prometheus.NewRegistry()
	e := NewRouter(Dependencies{
		Auth:       auth,
		Orders:     service.NewOrderService(orders, users, nil, service.OrderOptions{}, log),
		Users:      service.NewUserService(users, auth, log),
		Log:        log,
		Registerer: reg,
		Gatherer:   reg,
	})
	return &testServer{t: t, e: e}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(email, password string) (string, string) {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token, resp.User.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestRouter_SignupLoginAndRoleGate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"fullName": "Alice", "email": "Alice@Example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "correct-horse")

	rec = s.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"fullName": "Alice Again", "email": "alice@example.com", "password": "another-pass",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email", decodeError(t, rec).Field)

	aliceToken, _ := s.login("alice@example.com", "correct-horse")

	rec = s.do(http.MethodGet, "/orders", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/users", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken, _ := s.login("root@example.com", "root-password")
	rec = s.do(http.MethodGet, "/orders", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRouter_LoginFailuresLookTheSame(t *testing.T) {
	s := newTestServer(t)

	wrongPassword := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "root@example.com", "password": "nope-nope"})
	unknownEmail := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "nope-nope"})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestRouter_OrderLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"fullName": "Alice", "email": "alice@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	aliceToken, aliceID := s.login("alice@example.com", "correct-horse")
	adminToken, _ := s.login("root@example.com", "root-password")

	order := map[string]any{
		"items": []map[string]any{
			{"productId": "p-1", "name": "Laptop", "unitPrice": 100.00, "quantity": 2},
		},
	}
	rec = s.do(http.MethodPost, "/orders", aliceToken, order)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total":221.00`)

	var created struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, aliceID, created.UserID)
	assert.Equal(t, "Processing", created.Status)
	assert.True(t, strings.HasPrefix(created.ID, "ORD-"))

	rec = s.do(http.MethodGet, "/orders/mine", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = s.do(http.MethodPut, "/orders/"+created.ID+"/status", aliceToken, map[string]string{"status": "Shipped"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, "/orders/"+created.ID+"/status", adminToken, map[string]string{"status": "Lost"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPut, "/orders/"+created.ID+"/status", adminToken, map[string]string{"status": "Shipped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"Shipped"`)

	rec = s.do(http.MethodGet, "/orders?status=Shipped", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = s.do(http.MethodGet, "/orders/ORD-00000000", aliceToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec).Message)
}

func TestRouter_Authentication(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication required", decodeError(t, rec).Message)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderWWWAuthenticate))

	rec = s.do(http.MethodPost, "/orders", "not-a-jwt", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _ := s.login("root@example.com", "root-password")
	rec = s.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/ready", "", nil).Code)

	rec := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_requests_total")

	rec = s.do(http.MethodGet, "/no-such-route", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec).Message)
}
