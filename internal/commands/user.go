package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCommand(), newUserShowCommand())
	return cmd
}

func newUserAddCommand() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				res, err := e.app.Auth.Register(ctx, email, name, password)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.User.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&password, "password", "", "initial password (required)")
	for _, f := range []string{"email", "name", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func newUserShowCommand() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a user as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				u, err := e.resolveUser(ctx, user)
				if err != nil {
					return err
				}
				return printJSON(cmd, u)
			})
		},
	}
	addUserFlag(cmd, &user)

	return cmd
}
