package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Leganyst/slotswapper/internal/model"
	"github.com/Leganyst/slotswapper/internal/repository"
	"github.com/Leganyst/slotswapper/internal/service"
)

// Регистрация и вход остаются за внешним сервисом; здесь только выдача токенов.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and API tokens",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserTokenCommand(rootOpts))
	return cmd
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create (or update) a user and print a fresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, rt, err := openIdentity(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			u, token, err := identity.RegisterUser(cmd.Context(), name, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user_id=%s\ntoken=%s\n", u.ID, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Rotate the API token of an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, rt, err := openIdentity(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			token, err := identity.IssueToken(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token=%s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func openIdentity(rootOpts *RootOptions, cmd *cobra.Command) (*service.IdentityService, *app, error) {
	rt, err := openApp(rootOpts, cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := model.AutoMigrate(rt.db); err != nil {
		rt.Close()
		return nil, nil, fmt.Errorf("auto migrate: %w", err)
	}
	return service.NewIdentityService(repository.NewGormUserRepository(rt.db)), rt, nil
}
