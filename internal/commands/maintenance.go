package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"aura/internal/cli"
	"aura/internal/search"
	"aura/internal/storage"
	"aura/internal/worker"
)

func newMigrateCommand() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.DataBackend != "sqlite" {
				return fmt.Errorf("migrate needs DATA_BACKEND=sqlite, got %q", cfg.DataBackend)
			}

			if status {
				version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", version, dirty)
				return err
			}

			version, err := storage.RunMigrations(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return err
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "print the current version without migrating")

	return cmd
}

func newReindexCommand() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search documents of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				if len(e.cfg.ElasticsearchURLs) == 0 {
					return errors.New("reindex needs ELASTICSEARCH_URLS")
				}
				u, err := e.resolveUser(ctx, user)
				if err != nil {
					return err
				}
				idx, err := search.New(search.Config{URLs: e.cfg.ElasticsearchURLs, Index: e.cfg.ElasticsearchIndex}, e.logger)
				if err != nil {
					return err
				}
				if err := idx.EnsureIndex(ctx); err != nil {
					return err
				}
				n, err := worker.NewSyncWorker(e.store.Store, idx, nil, e.logger).Reindex(ctx, u.ID)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "indexed %d transactions\n", n)
				return err
			})
		},
	}
	addUserFlag(cmd, &user)

	return cmd
}
