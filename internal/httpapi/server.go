package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/slotswapper/internal/auth"
	"github.com/Leganyst/slotswapper/internal/model"
	"github.com/Leganyst/slotswapper/internal/service"
)

// EventStore — операции со слотами, нужные шлюзу.
type EventStore interface {
	CreateEvent(ctx context.Context, owner uuid.UUID, title string, startTime, endTime time.Time) (*model.Event, error)
	SetAvailability(ctx context.Context, eventID, requester uuid.UUID, newStatus model.EventStatus) (*model.Event, error)
	ListForOwner(ctx context.Context, owner uuid.UUID) ([]model.Event, error)
	ListSwappable(ctx context.Context, excludingOwner uuid.UUID) ([]model.Event, error)
}

type SwapEngine interface {
	CreateRequest(ctx context.Context, requester, mySlotID, theirSlotID uuid.UUID) (*model.SwapRequest, error)
	ListForUser(ctx context.Context, user uuid.UUID) (*service.Inbox, error)
	Respond(ctx context.Context, requestID, responder uuid.UUID, accept bool) (*model.SwapRequest, error)
}

type History interface {
	HistoryForUser(ctx context.Context, user uuid.UUID, limit int) ([]model.SwapLog, error)
}

// Pinger проверяет доступность БД для /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Events  EventStore
	Swaps   SwapEngine
	History History
	Auth    auth.Authenticator
	DB      Pinger
	Logger  *slog.Logger
}

// Server — REST-шлюз над ядром обменов.
type Server struct {
	deps Deps
	mux  *http.ServeMux
}

func NewServer(deps Deps) *Server {
	s := &Server{deps: deps, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

// Handler возвращает корневой обработчик с middleware.
func (s *Server) Handler() http.Handler {
	return s.recoverMiddleware(s.accessLogMiddleware(s.mux))
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.Handle("GET /events/me", s.authed(s.handleListMyEvents))
	s.mux.Handle("POST /events", s.authed(s.handleCreateEvent))
	s.mux.Handle("PUT /events/{id}", s.authed(s.handleSetAvailability))

	s.mux.Handle("GET /swaps/swappable-slots", s.authed(s.handleSwappableSlots))
	s.mux.Handle("POST /swaps/swap-request", s.authed(s.handleCreateSwapRequest))
	s.mux.Handle("GET /swaps/requests", s.authed(s.handleListSwapRequests))
	s.mux.Handle("POST /swaps/swap-response/{id}", s.authed(s.handleSwapResponse))
	s.mux.Handle("GET /swaps/history", s.authed(s.handleSwapHistory))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
