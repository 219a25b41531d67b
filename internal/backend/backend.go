// Package backend opens the ports.Store selected by DATA_BACKEND.
package backend

import (
	"errors"
	"fmt"

	"aura/internal/config"
	"aura/internal/ports"
)

// Type names a storage backend.
type Type string

const (
	MemoryBackend  Type = "memory"
	SQLiteBackend  Type = "sqlite"
	GraphQLBackend Type = "graphql"
)

// Types lists the supported backends in the order they are documented.
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, GraphQLBackend}
}

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Config carries the settings of every backend; only those of Type are read.
type Config struct {
	Type Type

	SQLiteDBPath string

	GraphQLEndpoint string
	GraphQLToken    string

	// SeedFile preloads the memory backend. Empty starts it empty.
	SeedFile string
}

func (c Config) Validate() error {
	switch c.Type {
	case MemoryBackend:
		return nil
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("sqlite backend needs a database path")
		}
	case GraphQLBackend:
		if c.GraphQLEndpoint == "" {
			return errors.New("graphql backend needs an endpoint")
		}
	default:
		return fmt.Errorf("unknown backend %q, want one of %v", c.Type, Types())
	}
	return nil
}

// FromAppConfig picks the backend settings out of the process config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("nil config")
	}
	c := Config{
		Type:            Type(cfg.DataBackend),
		SQLiteDBPath:    cfg.SQLiteDBPath,
		GraphQLEndpoint: cfg.GraphQLEndpoint,
		GraphQLToken:    cfg.GraphQLToken,
		SeedFile:        cfg.SeedFile,
	}
	if !c.Type.IsValid() {
		return Config{}, fmt.Errorf("unknown backend %q in DATA_BACKEND", cfg.DataBackend)
	}
	return c, nil
}

// Result is an open store and the function that releases it.
type Result struct {
	Store   ports.Store
	Cleanup func() error
}
