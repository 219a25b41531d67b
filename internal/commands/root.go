// Package commands implements auractl, the operator CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aura/internal/backend"
	"aura/internal/cli"
	"aura/internal/config"
	"aura/internal/core"
	"aura/internal/log"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "auractl",
		Short:   "Administer an aura deployment",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newUserCommand(),
		newLayoutCommand(),
		newSummaryCommand(),
		newMigrateCommand(),
		newReindexCommand(),
	)

	return rootCmd
}

// env is the configuration, store and services one command runs against.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	store  *backend.Result
	app    *cli.App
}

// openEnv loads the configuration and opens the store. Logs go to stderr so
// stdout carries only command output.
func openEnv(cmd *cobra.Command) (*env, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentApp,
		Handler:   log.NewHandler(cmd.ErrOrStderr(), level, cfg.LogFormat),
	})

	res, err := cli.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	app, err := cli.NewApp(cfg, res.Store, nil, logger)
	if err != nil {
		_ = res.Cleanup()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, store: res, app: app}, nil
}

func (e *env) Close() error {
	e.app.Caches.Stop()
	return e.store.Cleanup()
}

// withEnv runs fn against a freshly opened env and closes it afterwards.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) (err error) {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, e.Close())
	}()
	return fn(cmd.Context(), e)
}

// resolveUser accepts a user id or an email address.
func (e *env) resolveUser(ctx context.Context, ref string) (core.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return core.User{}, errors.New("--user is required")
	}
	var (
		u   core.User
		err error
	)
	if strings.Contains(ref, "@") {
		u, err = e.store.Store.GetUserByEmail(ctx, strings.ToLower(ref))
	} else {
		u, err = e.store.Store.GetUser(ctx, ref)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("user %s: %w", ref, err)
	}
	return u, nil
}

func addUserFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVar(dst, "user", "", "user id or email (required)")
	_ = cmd.MarkFlagRequired("user")
}
