package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswapper/internal/config"
	"github.com/Leganyst/slotswapper/internal/db"
	"github.com/Leganyst/slotswapper/internal/logging"
)

// Глобальные флаги.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "slotswapper",
		Short:         "SlotSwapper core: calendar slots and swap requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))

	return cmd
}

type app struct {
	cfg    *config.AppConfig
	logger *slog.Logger
	db     *gorm.DB
}

func (r *app) Close() {
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// openApp загружает конфиг, настраивает логгер и подключается к БД.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	return &app{cfg: cfg, logger: logger, db: gormDB}, nil
}
