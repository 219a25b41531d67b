package backend

import (
	"context"
	"fmt"

	"aura/internal/graphql"
	"aura/internal/log"
	"aura/internal/memory"
	"aura/internal/storage"
)

// Factory opens stores.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend validates cfg and opens the store it names.
func (f *Factory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch cfg.Type {
	case MemoryBackend:
		res, err = f.memory(cfg)
	case SQLiteBackend:
		res, err = f.sqlite(cfg)
	case GraphQLBackend:
		res = f.graphql(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}
	f.logger.Info("Storage backend ready", "backend", cfg.Type)
	return res, nil
}

func (f *Factory) memory(cfg Config) (*Result, error) {
	store, err := memory.NewFromFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load seed file: %w", err)
	}
	if cfg.SeedFile != "" {
		f.logger.Info("Memory store seeded", "seed_file", cfg.SeedFile)
	}
	return &Result{Store: store, Cleanup: store.Close}, nil
}

func (f *Factory) sqlite(cfg Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return &Result{Store: repo, Cleanup: repo.Close}, nil
}

func (f *Factory) graphql(ctx context.Context, cfg Config) *Result {
	store := graphql.New(graphql.Config{Endpoint: cfg.GraphQLEndpoint, Token: cfg.GraphQLToken}, f.logger)

	// Startup does not wait for the API; requests surface the error instead.
	if err := store.Ping(ctx); err != nil {
		f.logger.Warn("GraphQL endpoint did not answer ping", "endpoint", cfg.GraphQLEndpoint, log.FieldError, err)
	}
	return &Result{Store: store, Cleanup: store.Close}
}
