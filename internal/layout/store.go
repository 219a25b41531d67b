package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"aura/internal/log"
)

// StorageKey is the key the layout document is stored under.
const StorageKey = "aura.dashboard.layout"

// KeyFor scopes the storage key to a user.
func KeyFor(userID string) string {
	return StorageKey + ":" + userID
}

// KeyValue persists raw layout documents.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store is a single dashboard layout backed by a KeyValue. Every mutation
// is written through before it becomes visible; a failed write leaves the
// in-memory state untouched.
type Store struct {
	mu       sync.RWMutex
	kv       KeyValue
	key      string
	defaults State
	state    State
	logger   *log.Logger
}

// NewStore creates a store holding the defaults. Call Load to read the
// persisted layout.
func NewStore(kv KeyValue, key string, defaults State, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{
		kv:       kv,
		key:      key,
		defaults: defaults.Clone(),
		state:    defaults.Clone(),
		logger:   logger.WithComponent(log.ComponentLayout),
	}
}

// Load reads the persisted layout and merges it with the defaults. A missing
// or malformed document yields the defaults; only storage errors are
// returned.
func (s *Store) Load(ctx context.Context) error {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok || len(data) == 0 {
		s.state = s.defaults.Clone()
		return nil
	}

	saved, err := decode(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored layout is malformed, using defaults",
			"key", s.key, log.FieldError, err)
		s.state = s.defaults.Clone()
		return nil
	}
	s.state = Merge(saved, s.defaults)
	return nil
}

// State returns a copy of the current layout.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// WidgetConfig returns the settings of one widget.
func (s *Store) WidgetConfig(id string) (Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Index(id) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	return s.state.Configs[id].clone(), nil
}

// Reorder swaps the positions of two enabled widgets.
func (s *Store) Reorder(ctx context.Context, a, b string) (State, error) {
	return s.mutate(ctx, func(st *State) error {
		i, err := enabledIndex(st, a)
		if err != nil {
			return err
		}
		j, err := enabledIndex(st, b)
		if err != nil {
			return err
		}
		st.Widgets[i], st.Widgets[j] = st.Widgets[j], st.Widgets[i]
		return nil
	})
}

// Resize changes a widget's size. Sizes outside AvailableSizes are rejected
// with ErrSizeUnavailable and nothing changes.
func (s *Store) Resize(ctx context.Context, id, size string) (State, error) {
	return s.mutate(ctx, func(st *State) error {
		i := st.Index(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
		}
		if !st.Widgets[i].HasSize(size) {
			return fmt.Errorf("%w: %s cannot be %q", ErrSizeUnavailable, id, size)
		}
		st.Widgets[i].CurrentSize = size
		return nil
	})
}

// Toggle flips a widget's enabled flag.
func (s *Store) Toggle(ctx context.Context, id string) (State, error) {
	return s.mutate(ctx, func(st *State) error {
		i := st.Index(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
		}
		st.Widgets[i].Enabled = !st.Widgets[i].Enabled
		return nil
	})
}

// UpdateConfig merges patch into a widget's settings. A nil value removes
// the key.
func (s *Store) UpdateConfig(ctx context.Context, id string, patch Config) (State, error) {
	patch, err := normalize(patch)
	if err != nil {
		return State{}, fmt.Errorf("widget config: %w", err)
	}
	return s.mutate(ctx, func(st *State) error {
		if st.Index(id) < 0 {
			return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
		}
		cfg := st.Configs[id]
		if cfg == nil {
			cfg = Config{}
		}
		for k, v := range patch {
			if v == nil {
				delete(cfg, k)
				continue
			}
			cfg[k] = v
		}
		st.Configs[id] = cfg
		return nil
	})
}

// SetGrid replaces the grid parameters.
func (s *Store) SetGrid(ctx context.Context, g Grid) (State, error) {
	if err := g.Validate(); err != nil {
		return State{}, err
	}
	return s.mutate(ctx, func(st *State) error {
		st.Grid = g
		return nil
	})
}

// Reset restores the default layout.
func (s *Store) Reset(ctx context.Context) (State, error) {
	return s.mutate(ctx, func(st *State) error {
		*st = s.defaults.Clone()
		return nil
	})
}

// Export serializes the current layout as indented JSON.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export layout: %w", err)
	}
	return data, nil
}

// Import replaces the layout with an exported document merged with the
// defaults. A document that does not parse is rejected with
// ErrInvalidLayout and the current layout is kept.
func (s *Store) Import(ctx context.Context, data []byte) (State, error) {
	imported, err := decode(data)
	if err != nil {
		return State{}, err
	}
	return s.mutate(ctx, func(st *State) error {
		*st = Merge(imported, s.defaults)
		return nil
	})
}

func (s *Store) mutate(ctx context.Context, fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		return State{}, err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return State{}, fmt.Errorf("encode layout: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return State{}, fmt.Errorf("save layout: %w", err)
	}
	s.state = next
	return next.Clone(), nil
}

func enabledIndex(st *State, id string) (int, error) {
	i := st.Index(id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	if !st.Widgets[i].Enabled {
		return -1, fmt.Errorf("%w: %s", ErrWidgetDisabled, id)
	}
	return i, nil
}

// decode parses a layout document. The widgets list is required and every
// widget must carry an id.
func decode(data []byte) (State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if st.Widgets == nil {
		return State{}, fmt.Errorf("%w: missing widgets", ErrInvalidLayout)
	}
	for i, w := range st.Widgets {
		if w.ID == "" {
			return State{}, fmt.Errorf("%w: widget %d has no id", ErrInvalidLayout, i)
		}
	}
	return st, nil
}
