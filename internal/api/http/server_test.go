package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository/repotest"
	"github.com/spec-kit/support-desk/internal/service"
)

type testServer struct {
	app      *fiber.App
	deps     map[string]handlers.Pinger
	accounts *repotest.Accounts
	tickets  *repotest.Tickets
	tokens   *auth.TokenManager
	clock    time.Time
}

type envelope struct {
	Status  int               `json:"status"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

type ticketBody struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	User     string `json:"user"`
	Comments []struct {
		Message string `json:"message"`
		User    string `json:"user"`
	} `json:"comments"`
	ClosedBy *string `json:"closedBy"`
}

func newTestServer(t *testing.T, limiter fiber.Handler) *testServer {
	t.Helper()

	return newTestServerWithDeps(t, limiter, map[string]handlers.Pinger{})
}

func newTestServerWithDeps(t *testing.T, limiter fiber.Handler, deps map[string]handlers.Pinger) *testServer {
	t.Helper()

	ts := &testServer{
		deps:     deps,
		accounts: repotest.NewAccounts(),
		tickets:  repotest.NewTickets(),
		tokens:   auth.NewTokenManager("test-secret", time.Hour),
		clock:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	dispatcher := events.NewInMemoryDispatcher()
	history := service.NewHistoryService(dispatcher, repotest.NewHistory(), ts.tickets, logger)
	history.RegisterHandlers()

	authService := service.NewAuthService(config.AuthConfig{BcryptCost: 4}, ts.accounts, ts.tokens)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ts.tickets,
		AccountRepo: ts.accounts,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Now:         func() time.Time { return ts.clock },
	})

	ts.app = NewServer(ServerConfig{
		AppName:        "support-desk-test",
		RequestTimeout: 5 * time.Second,
		Logger:         logger,
		Metrics:        metrics,
		Routes: RouteConfig{
			APIPrefix:      "/api/v1",
			Health:         handlers.NewHealthHandler("support-desk", "test", ts.deps, metrics, logger),
			Auth:           handlers.NewAuthHandler(authService, false),
			Users:          handlers.NewUsersHandler(authService),
			Supports:       handlers.NewSupportsHandler(ticketService, history),
			AuthMiddleware: auth.NewAuthMiddleware(ts.tokens, ts.accounts),
			LoginLimiter:   limiter,
		},
	})
	return ts
}

func (ts *testServer) tokenFor(t *testing.T, account *domain.Account) string {
	t.Helper()

	token, _, err := ts.tokens.GenerateToken(account.ID)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope, []byte, map[string]string) {
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

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, env, raw, headers
}

func decodeTicket(t *testing.T, env envelope) ticketBody {
	t.Helper()

	var ticket ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	return ticket
}

func TestRootAndUnknownRoutes(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)

	status, env, _, _ := ts.do(t, "GET", "/", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "This app is running.", env.Message)

	status, env, _, _ = ts.do(t, "GET", "/api/v1/nothing-here", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, fiber.StatusNotFound, env.Status)
	assert.Equal(t, "Endpoint not found.", env.Error)

	status, env, _, _ = ts.do(t, "GET", "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, fiber.StatusOK, env.Status)
	assert.JSONEq(t, `{"state":"alive","service":"support-desk","version":"test"}`, string(env.Data))
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestReadinessHidesDependencyErrors(t *testing.T) {
	t.Parallel()

	ts := newTestServerWithDeps(t, nil, map[string]handlers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("dial tcp 10.0.0.7:6379: connect: connection refused")},
	})

	status, env, raw, _ := ts.do(t, "GET", "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, fiber.StatusServiceUnavailable, env.Status)
	assert.NotContains(t, string(raw), "10.0.0.7")
	assert.Contains(t, string(raw), `"redis":"unavailable"`)
	assert.Contains(t, string(raw), `"postgres":"ok"`)

	healthy := newTestServerWithDeps(t, nil, map[string]handlers.Pinger{"postgres": stubPinger{}})
	status, env, _, _ = healthy.do(t, "GET", "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"state":"ready","dependencies":{"postgres":"ok"}}`, string(env.Data))
}

func TestSignupAndLogin(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	signup := map[string]string{
		"firstName": "John",
		"lastName":  "Doe",
		"email":     "john.doe@aol.com",
		"password":  "sec123RET",
	}

	status, env, raw, headers := ts.do(t, "POST", "/api/v1/auth/signup", "", signup)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	assert.Contains(t, headers["Set-Cookie"], auth.CookieName+"=")
	assert.Contains(t, headers["Set-Cookie"], "HttpOnly")
	assert.NotContains(t, string(raw), "password")

	var session struct {
		Token string `json:"token"`
		User  struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "user", session.User.Role)

	status, env, _, _ = ts.do(t, "POST", "/api/v1/auth/signup", "", signup)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", env.Error)
	assert.Contains(t, env.Fields, "email")

	status, env, _, _ = ts.do(t, "POST", "/api/v1/auth/signup", "", map[string]string{"email": "bad", "password": "short"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Len(t, env.Fields, 4)

	status, _, _, _ = ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{"email": "john.doe@aol.com", "password": "sec123RET"})
	assert.Equal(t, fiber.StatusOK, status)

	status, env, _, _ = ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{"email": "john.doe@aol.com", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email address or password.", env.Error)

	status, _, _, _ = ts.do(t, "GET", "/api/v1/supports", session.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestSupportsRequireAuthorization(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)

	status, env, _, _ := ts.do(t, "GET", "/api/v1/supports", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Authorization is required.", env.Error)

	status, env, _, _ = ts.do(t, "GET", "/api/v1/supports", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Provided authorization is invalid or has expired.", env.Error)
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	owner := ts.tokenFor(t, ts.accounts.Seed("John", "Doe", "john.doe@aol.com", domain.RoleUser))
	other := ts.tokenFor(t, ts.accounts.Seed("Janet", "Doe", "janet.doe@aol.com", domain.RoleUser))
	agentAccount := ts.accounts.Seed("Peter", "Pan", "peter.pan@aol.com", domain.RoleAgent)
	agent := ts.tokenFor(t, agentAccount)
	admin := ts.tokenFor(t, ts.accounts.Seed("Paul", "Pan", "paul.pan@aol.com", domain.RoleAdmin))

	status, env, _, _ := ts.do(t, "POST", "/api/v1/supports", owner, map[string]string{"subject": "Cannot login"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, map[string]string{"message": "message is required"}, env.Fields)

	status, env, _, _ = ts.do(t, "POST", "/api/v1/supports", owner, map[string]string{"subject": "Cannot login", "message": "It keeps failing"})
	require.Equal(t, fiber.StatusCreated, status)
	created := decodeTicket(t, env)
	assert.Equal(t, "open", created.Status)
	assert.Empty(t, created.Comments)
	path := "/api/v1/supports/" + created.ID

	status, env, _, _ = ts.do(t, "POST", path, agent, map[string]string{"message": "   \n\t "})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, map[string]string{"message": "message is required"}, env.Fields)

	status, env, _, _ = ts.do(t, "POST", path, owner, map[string]string{"message": "hello?"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "You are not permitted to add comment", env.Error)

	status, env, _, _ = ts.do(t, "POST", path, agent, map[string]string{"message": "Looking into it"})
	require.Equal(t, fiber.StatusOK, status)
	commented := decodeTicket(t, env)
	assert.Equal(t, "processing", commented.Status)
	require.Len(t, commented.Comments, 1)
	assert.Equal(t, agentAccount.ID, commented.Comments[0].User)

	status, env, _, _ = ts.do(t, "GET", path, other, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Support item not found", env.Error)

	status, _, _, _ = ts.do(t, "GET", path, owner, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env, _, _ = ts.do(t, "GET", path+"/history", owner, nil)
	require.Equal(t, fiber.StatusOK, status)
	var history []struct {
		ChangeType string `json:"changeType"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 3)
	assert.Equal(t, "STATUS_CHANGE", history[2].ChangeType)

	status, _, _, _ = ts.do(t, "GET", path+"/history", other, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env, _, _ = ts.do(t, "GET", "/api/v1/supports", other, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env, _, _ = ts.do(t, "PATCH", path, owner, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "You are not permitted to access this resource.", env.Error)

	status, env, _, _ = ts.do(t, "PATCH", path, agent, nil)
	require.Equal(t, fiber.StatusOK, status)
	closed := decodeTicket(t, env)
	assert.Equal(t, "closed", closed.Status)
	require.NotNil(t, closed.ClosedBy)

	status, env, _, _ = ts.do(t, "PATCH", path, admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Support item already closed", env.Error)

	status, env, _, _ = ts.do(t, "PATCH", "/api/v1/supports/"+repotest.ID(999), agent, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Support item not found", env.Error)

	status, _, _, _ = ts.do(t, "DELETE", path, agent, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env, _, _ = ts.do(t, "DELETE", path, admin, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Support item deleted successfully.", env.Message)
	assert.Zero(t, ts.tickets.Len())
}

func TestExportOverHTTP(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	owner := ts.tokenFor(t, ts.accounts.Seed("John", "Doe", "john.doe@aol.com", domain.RoleUser))
	agent := ts.tokenFor(t, ts.accounts.Seed("Peter", "Pan", "peter.pan@aol.com", domain.RoleAgent))

	status, _, _, _ := ts.do(t, "POST", "/api/v1/supports", owner, map[string]string{"subject": "Refund", "message": "Please"})
	require.Equal(t, fiber.StatusCreated, status)

	status, env, _, _ := ts.do(t, "GET", "/api/v1/supports/export?start=12-01-2020&end=13-01-2020", agent, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "No support request found.", env.Error)

	status, env, _, _ = ts.do(t, "GET", "/api/v1/supports/export?type=xls", agent, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, `Type can only be "pdf" or "csv"`, env.Error)

	status, _, raw, headers := ts.do(t, "GET", "/api/v1/supports/export?status=open&start=01-05-2024&end=01-05-2024", agent, nil)
	require.Equal(t, fiber.StatusOK, status, string(raw))
	assert.Equal(t, "text/csv", headers["Content-Type"])
	assert.Equal(t, "attachment;filename=open-support-request-01-05-2024-01-05-2024.csv", headers["Content-Disposition"])
	assert.True(t, strings.HasPrefix(string(raw), "S/N,Customer Name,Customer Email"))
	assert.Contains(t, string(raw), "John Doe,john.doe@aol.com,Refund,open,0,01-05-2024 10:00:00")
}

func TestUsersEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	userAccount := ts.accounts.Seed("John", "Doe", "john.doe@aol.com", domain.RoleUser)
	user := ts.tokenFor(t, userAccount)
	agent := ts.tokenFor(t, ts.accounts.Seed("Peter", "Pan", "peter.pan@aol.com", domain.RoleAgent))
	admin := ts.tokenFor(t, ts.accounts.Seed("Paul", "Pan", "paul.pan@aol.com", domain.RoleAdmin))

	status, _, _, _ := ts.do(t, "GET", "/api/v1/users", user, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env, raw, _ := ts.do(t, "GET", "/api/v1/users", agent, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, string(raw), "password")
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 3)

	status, _, _, _ = ts.do(t, "GET", "/api/v1/users/"+userAccount.ID, user, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env, _, _ = ts.do(t, "GET", "/api/v1/users/5f2b1c", user, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "User not found", env.Error)

	newUser := map[string]string{
		"firstName": "Janet", "lastName": "Doe", "email": "janet.doe@aol.com", "password": "sec123RET", "role": "agent",
	}
	status, _, _, _ = ts.do(t, "POST", "/api/v1/users", agent, newUser)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env, _, _ = ts.do(t, "POST", "/api/v1/users", admin, newUser)
	require.Equal(t, fiber.StatusCreated, status)
	var created struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "agent", created.Role)

	status, _, _, _ = ts.do(t, "DELETE", "/api/v1/users/"+created.ID, agent, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env, _, _ = ts.do(t, "DELETE", "/api/v1/users/"+created.ID, admin, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "User deleted successfully.", env.Message)

	status, _, _, _ = ts.do(t, "DELETE", "/api/v1/users/"+created.ID, admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

type stubCounter struct {
	count int64
	err   error
}

func (s *stubCounter) Hit(context.Context, string, time.Duration) (int64, time.Duration, error) {
	if s.err != nil {
		return 0, 0, s.err
	}
	s.count++
	return s.count, time.Minute, nil
}

func TestLoginRateLimiter(t *testing.T) {
	t.Parallel()

	counter := &stubCounter{}
	ts := newTestServer(t, LoginRateLimiter(counter, 2, time.Minute, zap.NewNop()))
	creds := map[string]string{"email": "john.doe@aol.com", "password": "wrong-password"}

	for i := 0; i < 2; i++ {
		status, _, _, _ := ts.do(t, "POST", "/api/v1/auth/login", "", creds)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	}

	status, env, _, headers := ts.do(t, "POST", "/api/v1/auth/login", "", creds)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, msgTooManyAttempts, env.Error)
	assert.Equal(t, "60", headers["Retry-After"])
}

func TestLoginRateLimiterFailsOpen(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, LoginRateLimiter(&stubCounter{err: errors.New("redis down")}, 1, time.Minute, zap.NewNop()))
	creds := map[string]string{"email": "john.doe@aol.com", "password": "wrong-password"}

	for i := 0; i < 3; i++ {
		status, _, _, _ := ts.do(t, "POST", "/api/v1/auth/login", "", creds)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	}
}

func TestPanicsBecomeInternalErrors(t *testing.T) {
	t.Parallel()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"status":500,"error":"Internal server error"}`, string(raw))
}
