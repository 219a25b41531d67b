package services

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"aura/internal/cache"
	"aura/internal/layout"
	"aura/internal/log"
)

// lockStripes bounds the number of per-user locks. Users hashing to the
// same stripe serialize their layout edits.
const lockStripes = 64

// LayoutService hands out one dashboard layout per user. Loaded layouts are
// kept in an LRU so consecutive edits share a store. Every operation holds
// the user's stripe lock from lookup to save, so an entry expiring while an
// edit runs cannot produce a second store for the same layout.
type LayoutService struct {
	kv       layout.KeyValue
	defaults layout.State
	logger   *log.Logger

	locks  [lockStripes]sync.Mutex
	stores cache.Cache[*layout.Store]
}

func NewLayoutService(kv layout.KeyValue, catalog *layout.Catalog, stores cache.Cache[*layout.Store], logger *log.Logger) *LayoutService {
	if stores == nil {
		stores = cache.NewLRUCache[*layout.Store](128, 10*time.Minute)
	}
	return &LayoutService{
		kv:       kv,
		defaults: catalog.State(),
		logger:   logger.WithComponent(log.ComponentLayout),
		stores:   stores,
	}
}

func (s *LayoutService) lockFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.locks[h.Sum32()%lockStripes]
}

// with runs fn on the user's store while holding the user's lock. The store
// is loaded on a cache miss; only that user's stripe waits for the load.
func (s *LayoutService) with(ctx context.Context, userID string, fn func(*layout.Store) error) error {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	st, ok := s.stores.Get(userID)
	if !ok {
		st = layout.NewStore(s.kv, layout.KeyFor(userID), s.defaults, s.logger)
		if err := st.Load(ctx); err != nil {
			return err
		}
		s.stores.Set(userID, st)
	}
	return fn(st)
}

// edit applies a state-returning mutation through with.
func (s *LayoutService) edit(ctx context.Context, userID string, fn func(*layout.Store) (layout.State, error)) (layout.State, error) {
	var out layout.State
	err := s.with(ctx, userID, func(st *layout.Store) error {
		var err error
		out, err = fn(st)
		return err
	})
	if err != nil {
		return layout.State{}, err
	}
	return out, nil
}

func (s *LayoutService) Get(ctx context.Context, userID string) (layout.State, error) {
	return s.edit(ctx, userID, func(st *layout.Store) (layout.State, error) {
		return st.State(), nil
	})
}

func (s *LayoutService) Reorder(ctx context.Context, userID, a, b string) (layout.State, error) {
	return s.edit(ctx, userID, func(st *layout.Store) (layout.State, error) {
		return st.Reorder(ctx, a, b)
	})
}

func (s *LayoutService) Resize(ctx context.Context, userID, widgetID, size string) (layout.State, error) {
	return s.edit(ctx, userID, func(st *layout.Store) (layout.State, error) {
		return st.Resize(ctx, widgetID, size)
	})
}

func (s *LayoutService) Toggle(ctx context.Context, userID, widgetID string) (layout.State, error) {
	return s.edit(ctx, userID, func(st *layout.Store) (layout.State, error) {
		return st.Toggle(ctx, widgetID)
	})
}

func (s *LayoutService) WidgetConfig(ctx context.Context, userID, widgetID string) (layout.Config, error) {
	var cfg layout.Config
	err := s.with(ctx, userID, func(st *layout.Store) error {
		var err error
		cfg, err = st.WidgetConfig(widgetID)
		return err
	})
	return cfg, err
}

func (s *LayoutService) UpdateConfig(ctx context.Context, userID, widgetID string, patch layout.Config) (layout.State, error) {
	return s.edit(ctx, userID, func(st *layout.Store) (layout.State, error) {
		return st.UpdateConfig(ctx, widgetID, patch)
	})
}

func (s *LayoutService) SetGrid(ctx context.Context, userID string, g layout.Grid) (layout.State, error) {
	return s.edit(ctx, userID, func(st *layout.Store) (layout.State, error) {
		return st.SetGrid(ctx, g)
	})
}

func (s *LayoutService) Reset(ctx context.Context, userID string) (layout.State, error) {
	return s.edit(ctx, userID, func(st *layout.Store) (layout.State, error) {
		return st.Reset(ctx)
	})
}

func (s *LayoutService) Export(ctx context.Context, userID string) ([]byte, error) {
	var data []byte
	err := s.with(ctx, userID, func(st *layout.Store) error {
		var err error
		data, err = st.Export()
		return err
	})
	return data, err
}

func (s *LayoutService) Import(ctx context.Context, userID string, data []byte) (layout.State, error) {
	return s.edit(ctx, userID, func(st *layout.Store) (layout.State, error) {
		return st.Import(ctx, data)
	})
}
