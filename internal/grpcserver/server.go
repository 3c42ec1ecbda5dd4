package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Имя ядра в grpc.health.v1. Пустое имя означает весь сервер.
const ServiceName = "slotswapper.Core"

// Pinger проверяет доступность БД.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server обслуживает health-протокол и reflection.
// Статус следует за периодической проверкой БД.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
	logger   *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

func New(db Pinger, interval time.Duration, logger *slog.Logger) *Server {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ctx:      ctx,
		cancel:   cancel,
		grpc:     grpc.NewServer(),
		health:   health.NewServer(),
		db:       db,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve запускает проверку БД и обслуживает lis до Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.mu.Lock()
	if !s.started {
		s.started = true
		go s.probeLoop(s.ctx)
	}
	s.mu.Unlock()
	return s.grpc.Serve(lis)
}

// Stop переводит сервер в NOT_SERVING и дожидается активных вызовов.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		started := s.started
		s.started = true
		s.mu.Unlock()
		if started {
			<-s.done
		}
		s.health.Shutdown()
		s.grpc.GracefulStop()
	})
}

func (s *Server) probeLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *Server) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("db probe failed", "error", err)
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
