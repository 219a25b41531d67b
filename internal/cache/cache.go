// Package cache holds the in-process caches used for dashboard summaries.
package cache

import (
	"strconv"
	"sync"
	"time"

	"aura/internal/log"
)

// Cache is the read/write surface shared by the cache implementations.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Generations hands out a per-user counter that is bumped whenever the
// user's data changes. Keys built with Key become unreachable after a bump,
// so stale entries simply age out of the LRU.
type Generations struct {
	mu   sync.Mutex
	gens map[string]uint64
}

func NewGenerations() *Generations {
	return &Generations{gens: make(map[string]uint64)}
}

// Current returns the user's current generation.
func (g *Generations) Current(userID string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[userID]
}

// Bump invalidates every key previously built for the user.
func (g *Generations) Bump(userID string) {
	g.mu.Lock()
	g.gens[userID]++
	g.mu.Unlock()
}

// Key builds a cache key scoped to the user's current generation.
func (g *Generations) Key(userID, suffix string) string {
	return userID + "@" + strconv.FormatUint(g.Current(userID), 10) + "|" + suffix
}

// Manager sweeps expired entries out of the registered caches.
type Manager struct {
	mu      sync.Mutex
	caches  []Cleaner
	logger  *log.Logger
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
	running bool
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		logger:  logger.WithComponent(log.ComponentCache),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	m.caches = append(m.caches, c)
	m.mu.Unlock()
}

// StartCleanup sweeps every interval until Stop. Calling it twice has no
// effect.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	go m.loop(interval)
}

func (m *Manager) loop(interval time.Duration) {
	defer close(m.stopped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("Expired cache entries removed", "count", n)
			}
		}
	}
}

// CleanNow sweeps every registered cache once and returns the number of
// entries removed.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup loop and waits for it. It is safe to call more than
// once, and without StartCleanup.
func (m *Manager) Stop() {
	m.once.Do(func() {
		m.mu.Lock()
		running := m.running
		m.running = true // a later StartCleanup must not spawn a loop
		m.mu.Unlock()

		close(m.stop)
		if running {
			<-m.stopped
		}
	})
}
