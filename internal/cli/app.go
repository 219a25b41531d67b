package cli

import (
	"fmt"
	"time"

	"aura/internal/amqp"
	"aura/internal/auth"
	"aura/internal/cache"
	"aura/internal/config"
	"aura/internal/layout"
	"aura/internal/log"
	"aura/internal/ports"
	"aura/internal/services"
)

// App bundles the services built on one store.
type App struct {
	Sealer       *auth.Sealer
	Auth         *services.AuthService
	Banks        *services.BankService
	Transactions *services.TransactionService
	Bills        *services.BillService
	Dashboard    *services.DashboardService
	Layouts      *services.LayoutService
	Caches       *cache.Manager
}

// NewApp builds every service on store. publisher may be nil, in which case
// transaction events are not sent.
func NewApp(cfg *config.Config, store ports.Store, publisher amqp.Publisher, logger *log.Logger) (*App, error) {
	catalog, err := loadCatalog(cfg.LayoutCatalogFile)
	if err != nil {
		return nil, err
	}
	sealer, err := auth.NewSealer(cfg.SessionEncryptionKey, cfg.SessionSigningKey, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("session keys: %w", err)
	}
	if cfg.SessionEncryptionKey == "" || cfg.SessionSigningKey == "" {
		logger.Warn("Session keys not configured, using random keys; sessions will not survive a restart")
	}

	dashboards := cache.NewLRUCache[services.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	layouts := cache.NewLRUCache[*layout.Store](cfg.CacheSize, 10*time.Minute)
	manager := cache.NewManager(logger)
	manager.Register(dashboards)
	manager.Register(layouts)

	gens := cache.NewGenerations()
	return &App{
		Sealer:       sealer,
		Auth:         services.NewAuthService(store, sealer, logger),
		Banks:        services.NewBankService(store, gens),
		Transactions: services.NewTransactionService(store, publisher, gens, logger),
		Bills:        services.NewBillService(store, gens),
		Dashboard:    services.NewDashboardService(store, gens, dashboards, logger),
		Layouts:      services.NewLayoutService(store, catalog, layouts, logger),
		Caches:       manager,
	}, nil
}

func loadCatalog(path string) (*layout.Catalog, error) {
	c, err := layout.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("load widget catalog %s: %w", path, err)
	}
	return c, nil
}
