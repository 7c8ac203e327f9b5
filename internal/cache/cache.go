package cache

import (
	"log/slog"
	"time"
)

// Cache is the interface report handlers consume.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeletePrefix(prefix string) int
}

// Cleaner is implemented by caches that support periodic cleanup.
type Cleaner interface {
	CleanExpired() int
	Size() int
}

// Manager runs periodic cleanup over registered caches.
type Manager struct {
	caches map[string]Cleaner
	stop   chan struct{}
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		caches: make(map[string]Cleaner),
		stop:   make(chan struct{}),
		logger: logger,
	}
}

func (m *Manager) Register(name string, c Cleaner) {
	m.caches[name] = c
}

// StartCleanup launches a goroutine that cleans expired entries at the
// given interval until Stop is called.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for name, c := range m.caches {
					if removed := c.CleanExpired(); removed > 0 {
						m.logger.Debug("cache cleanup",
							"cache", name,
							"removed", removed,
							"remaining", c.Size(),
						)
					}
				}
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *Manager) Stop() {
	close(m.stop)
}
