package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/config"
	"aura/internal/log"
	"aura/internal/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		DataBackend: "memory",
		SessionTTL:  time.Hour,
		CacheSize:   8,
		CacheTTL:    time.Minute,
	}
}

func TestNewAppWiresServices(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})

	app, err := NewApp(testConfig(), memory.New(), nil, logger)
	require.NoError(t, err)
	t.Cleanup(app.Caches.Stop)

	assert.Contains(t, buf.String(), "random keys")

	ctx := context.Background()
	res, err := app.Auth.Register(ctx, "ana@example.com", "Ana", "long enough")
	require.NoError(t, err)

	st, err := app.Layouts.Get(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, st.Widgets)

	sess, err := app.Sealer.Open(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, sess.UserID)
}

func TestNewAppRejectsBadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 0\n"), 0o600))

	cfg := testConfig()
	cfg.LayoutCatalogFile = path
	_, err := NewApp(cfg, memory.New(), nil, log.New(log.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)}))
	assert.Error(t, err)
}

func TestOpenStoreMemory(t *testing.T) {
	res, err := OpenStore(context.Background(), testConfig(), log.New(log.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })
	assert.NoError(t, res.Store.Ping(context.Background()))
}
