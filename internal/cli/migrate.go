package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Leganyst/slotswapper/internal/model"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := model.AutoMigrate(rt.db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			rt.logger.Info("schema migrated", "driver", rt.cfg.DB.Driver)
			return nil
		},
	}
}
