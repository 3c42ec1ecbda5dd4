package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/slotswapper/internal/auth"
	"github.com/Leganyst/slotswapper/internal/config"
	"github.com/Leganyst/slotswapper/internal/db"
	"github.com/Leganyst/slotswapper/internal/model"
	"github.com/Leganyst/slotswapper/internal/service"
)

// mockAuthenticator — заглушка внешнего сервиса аутентификации.
type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(auth.Identity), args.Error(1)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

type testEnv struct {
	t       *testing.T
	handler http.Handler
	core    *service.Core
	auth    *mockAuthenticator
	alice   auth.Identity
	bob     auth.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := db.NewGormDB(&config.DBConfig{
		Driver:       config.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "api.db"),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := service.NewCore(gdb, logger)

	ctx := context.Background()
	alice, _, err := core.Identity.RegisterUser(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	bob, _, err := core.Identity.RegisterUser(ctx, "Bob", "bob@example.com")
	require.NoError(t, err)

	env := &testEnv{
		t:     t,
		core:  core,
		auth:  new(mockAuthenticator),
		alice: auth.Identity{UserID: alice.ID, Name: alice.Name},
		bob:   auth.Identity{UserID: bob.ID, Name: bob.Name},
	}
	env.auth.On("Authenticate", mock.Anything, "alice-token").Return(env.alice, nil)
	env.auth.On("Authenticate", mock.Anything, "bob-token").Return(env.bob, nil)
	env.auth.On("Authenticate", mock.Anything, mock.Anything).Return(auth.Identity{}, auth.ErrUnauthenticated)

	env.handler = NewServer(Deps{
		Events:  core.Events,
		Swaps:   core.Swaps,
		History: core.Audit,
		Auth:    env.auth,
		DB:      sqlDB,
		Logger:  logger,
	}).Handler()
	return env
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) createSwappable(token, title, start, end string) eventDTO {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/events", token, map[string]string{
		"title": title, "startTime": start, "endTime": end,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	ev := decode[eventDTO](e.t, rec)
	assert.Equal(e.t, model.EventStatusBusy, ev.Status)

	rec = e.do(http.MethodPut, "/events/"+ev.ID.String(), token, map[string]string{"status": "SWAPPABLE"})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[eventDTO](e.t, rec)
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_HealthUnavailable(t *testing.T) {
	srv := NewServer(Deps{
		DB:     pingerFunc(func(context.Context) error { return errors.New("down") }),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_SwapFlow(t *testing.T) {
	env := newTestEnv(t)

	mine := env.createSwappable("alice-token", "Standup", "2025-03-10T09:00", "2025-03-10T10:00")
	theirs := env.createSwappable("bob-token", "Review", "2025-03-11T14:00:00Z", "2025-03-11T15:00:00Z")
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), mine.StartTime)

	// Алиса видит слот Боба на рынке, свой — нет.
	rec := env.do(http.MethodGet, "/swaps/swappable-slots", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	market := decode[[]eventDTO](t, rec)
	require.Len(t, market, 1)
	assert.Equal(t, theirs.ID, market[0].ID)
	assert.Equal(t, "Bob", market[0].Owner.Name)

	rec = env.do(http.MethodPost, "/swaps/swap-request", "alice-token", map[string]string{
		"mySlotId": mine.ID.String(), "theirSlotId": theirs.ID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[swapDTO](t, rec)
	assert.Equal(t, model.SwapStatusPending, created.Status)
	assert.Equal(t, env.alice.UserID, created.Requester.ID)
	require.NotNil(t, created.MySlot)
	assert.Equal(t, model.EventStatusSwapPending, created.MySlot.Status)

	rec = env.do(http.MethodGet, "/swaps/requests", "bob-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decode[inboxDTO](t, rec)
	require.Len(t, inbox.Incoming, 1)
	assert.Empty(t, inbox.Outgoing)
	assert.Equal(t, "Alice", inbox.Incoming[0].Requester.Name)

	rec = env.do(http.MethodPost, "/swaps/swap-response/"+created.ID.String(), "bob-token", map[string]bool{"accept": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[map[string]swapDTO](t, rec)
	assert.Equal(t, model.SwapStatusAccepted, resp["swap"].Status)
	assert.NotNil(t, resp["swap"].RespondedAt)

	rec = env.do(http.MethodGet, "/events/me", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	aliceEvents := decode[[]eventDTO](t, rec)
	require.Len(t, aliceEvents, 1)
	assert.Equal(t, theirs.ID, aliceEvents[0].ID)
	assert.Equal(t, model.EventStatusBusy, aliceEvents[0].Status)

	// Повторный ответ даёт конфликт.
	rec = env.do(http.MethodPost, "/swaps/swap-response/"+created.ID.String(), "bob-token", map[string]bool{"accept": false})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "AlreadyResolvedError", decode[errorEnvelope](t, rec).Error.Kind)

	rec = env.do(http.MethodGet, "/swaps/history", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]historyDTO](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, model.SwapLogAccepted, history[0].Type)
	assert.Equal(t, model.SwapLogRequested, history[1].Type)
}

func TestServer_ErrorKinds(t *testing.T) {
	env := newTestEnv(t)

	mine := env.createSwappable("alice-token", "Mine", "2025-03-10T09:00", "2025-03-10T10:00")
	other := env.createSwappable("alice-token", "Also mine", "2025-03-10T11:00", "2025-03-10T12:00")
	theirs := env.createSwappable("bob-token", "Theirs", "2025-03-10T13:00", "2025-03-10T14:00")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		kind   string
	}{
		{"inverted range", http.MethodPost, "/events", "alice-token",
			map[string]string{"title": "x", "startTime": "2025-03-10T10:00", "endTime": "2025-03-10T09:00"},
			http.StatusBadRequest, "ValidationError"},
		{"bad time", http.MethodPost, "/events", "alice-token",
			map[string]string{"title": "x", "startTime": "tomorrow", "endTime": "2025-03-10T09:00"},
			http.StatusBadRequest, "ValidationError"},
		{"not owner", http.MethodPut, "/events/" + theirs.ID.String(), "alice-token",
			map[string]string{"status": "BUSY"}, http.StatusForbidden, "NotOwnerError"},
		{"unknown event", http.MethodPut, "/events/" + uuid.NewString(), "alice-token",
			map[string]string{"status": "BUSY"}, http.StatusNotFound, "NotFoundError"},
		{"manual pending", http.MethodPut, "/events/" + mine.ID.String(), "alice-token",
			map[string]string{"status": "SWAP_PENDING"}, http.StatusConflict, "InvalidTransitionError"},
		{"self swap", http.MethodPost, "/swaps/swap-request", "alice-token",
			map[string]string{"mySlotId": mine.ID.String(), "theirSlotId": other.ID.String()},
			http.StatusBadRequest, "SelfSwapError"},
		{"missing accept", http.MethodPost, "/swaps/swap-response/" + uuid.NewString(), "bob-token",
			map[string]string{}, http.StatusBadRequest, "ValidationError"},
		{"bad page", http.MethodGet, "/swaps/swappable-slots?page=x", "alice-token",
			nil, http.StatusBadRequest, "ValidationError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.kind, decode[errorEnvelope](t, rec).Error.Kind)
		})
	}
}

func TestServer_SlotNotAvailableAfterLock(t *testing.T) {
	env := newTestEnv(t)

	mine := env.createSwappable("alice-token", "Mine", "2025-03-10T09:00", "2025-03-10T10:00")
	second := env.createSwappable("alice-token", "Second", "2025-03-10T11:00", "2025-03-10T12:00")
	theirs := env.createSwappable("bob-token", "Theirs", "2025-03-10T13:00", "2025-03-10T14:00")

	rec := env.do(http.MethodPost, "/swaps/swap-request", "alice-token", map[string]string{
		"mySlotId": mine.ID.String(), "theirSlotId": theirs.ID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/swaps/swap-request", "alice-token", map[string]string{
		"mySlotId": second.ID.String(), "theirSlotId": theirs.ID.String(),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SlotNotAvailableError", decode[errorEnvelope](t, rec).Error.Kind)

	// Пока слот в SWAP_PENDING, владелец не может его переключить.
	rec = env.do(http.MethodPut, "/events/"+theirs.ID.String(), "bob-token", map[string]string{"status": "BUSY"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_SwappablePagination(t *testing.T) {
	env := newTestEnv(t)

	for _, start := range []string{"2025-03-10T09:00", "2025-03-10T11:00", "2025-03-10T13:00"} {
		end := start[:11] + "23:00"
		env.createSwappable("bob-token", "Slot "+start, start, end)
	}

	rec := env.do(http.MethodGet, "/swaps/swappable-slots?page=2&pageSize=2", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	page := decode[[]eventDTO](t, rec)
	require.Len(t, page, 1)
	assert.Equal(t, "Slot 2025-03-10T13:00", page[0].Title)
}

func TestServer_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/events/me", "/swaps/swappable-slots", "/swaps/requests", "/swaps/history"} {
		rec := env.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = env.do(http.MethodGet, path, "stolen", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	env.auth.AssertCalled(t, "Authenticate", mock.Anything, "stolen")
}

func TestServer_RecoversFromPanic(t *testing.T) {
	srv := NewServer(Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	srv.mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "InternalError", decode[errorEnvelope](t, rec).Error.Kind)
}
