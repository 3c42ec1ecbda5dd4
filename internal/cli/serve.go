package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leganyst/slotswapper/internal/grpcserver"
	"github.com/Leganyst/slotswapper/internal/httpapi"
	"github.com/Leganyst/slotswapper/internal/model"
	"github.com/Leganyst/slotswapper/internal/service"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST gateway and the gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, cmd)
		},
	}
}

func runServe(ctx context.Context, rootOpts *RootOptions, cmd *cobra.Command) error {
	// 1. Конфиг, логгер, БД.
	rt, err := openApp(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	// 2. Миграции моделей.
	if err := model.AutoMigrate(rt.db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	sqlDB, err := rt.db.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}

	// 3. Ядро: сервисы, координатор, журнал.
	core := service.NewCore(rt.db, logger)

	// 4. REST-шлюз.
	api := httpapi.NewServer(httpapi.Deps{
		Events:  core.Events,
		Swaps:   core.Swaps,
		History: core.Audit,
		Auth:    core.Identity,
		DB:      sqlDB,
		Logger:  logger,
	})
	httpSrv := &http.Server{
		Addr:              rt.cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 5. gRPC health + reflection.
	probe := time.Duration(rt.cfg.HealthProbeIntervalSec) * time.Second
	grpcSrv := grpcserver.New(sqlDB, probe, logger)
	lis, err := net.Listen("tcp", rt.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", rt.cfg.GRPCAddr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server listening", "addr", rt.cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()
	go func() {
		logger.Info("grpc server listening", "addr", rt.cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	// 6. Грейсфул-шатдаун по сигналу или по падению одного из серверов.
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcSrv.Stop()

	return serveErr
}
