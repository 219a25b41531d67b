package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newLayoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect and move dashboard layouts",
	}
	cmd.AddCommand(
		newLayoutShowCommand(),
		newLayoutExportCommand(),
		newLayoutImportCommand(),
		newLayoutResetCommand(),
	)
	return cmd
}

func newLayoutShowCommand() *cobra.Command {
	var (
		user        string
		enabledOnly bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective layout of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				u, err := e.resolveUser(ctx, user)
				if err != nil {
					return err
				}
				state, err := e.app.Layouts.Get(ctx, u.ID)
				if err != nil {
					return err
				}
				if enabledOnly {
					return printJSON(cmd, state.Enabled())
				}
				return printJSON(cmd, state)
			})
		},
	}
	addUserFlag(cmd, &user)
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "print only the widgets shown on the dashboard")

	return cmd
}

func newLayoutExportCommand() *cobra.Command {
	var user, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's layout document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				u, err := e.resolveUser(ctx, user)
				if err != nil {
					return err
				}
				data, err := e.app.Layouts.Export(ctx, u.ID)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				return nil
			})
		},
	}
	addUserFlag(cmd, &user)
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout when empty")

	return cmd
}

func newLayoutImportCommand() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace a user's layout with an exported document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				u, err := e.resolveUser(ctx, user)
				if err != nil {
					return err
				}
				state, err := e.app.Layouts.Import(ctx, u.ID, data)
				if err != nil {
					return err
				}
				return printJSON(cmd, state)
			})
		},
	}
	addUserFlag(cmd, &user)

	return cmd
}

func newLayoutResetCommand() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the catalog default layout for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				u, err := e.resolveUser(ctx, user)
				if err != nil {
					return err
				}
				state, err := e.app.Layouts.Reset(ctx, u.ID)
				if err != nil {
					return err
				}
				return printJSON(cmd, state)
			})
		},
	}
	addUserFlag(cmd, &user)

	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
