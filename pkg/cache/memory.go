package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry holds a cached value with creation time for age computation.
type memoryEntry struct {
	value     string
	createdAt time.Time
	ttl       time.Duration
}

// MemoryStore is a thread-safe in-memory store with per-namespace soft caps
// and a background sweeper that removes entries older than the hard wall.
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]*memoryEntry

	cap      int
	hardWall time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// MemoryStoreOptions tunes the in-memory store.
type MemoryStoreOptions struct {
	// NamespaceCap is the soft per-namespace entry limit; the oldest
	// entries are evicted when exceeded.
	NamespaceCap int

	// HardWall is the absolute maximum entry age enforced by the sweeper.
	HardWall time.Duration

	// SweepInterval is the sweeper period. Zero disables the sweeper
	// (tests rely on lazy expiry only).
	SweepInterval time.Duration
}

// NewMemoryStore creates a memory store and starts its sweeper.
func NewMemoryStore(opts MemoryStoreOptions) *MemoryStore {
	if opts.NamespaceCap <= 0 {
		opts.NamespaceCap = 1000
	}
	if opts.HardWall <= 0 {
		opts.HardWall = 4 * time.Hour
	}
	s := &MemoryStore{
		namespaces: make(map[string]map[string]*memoryEntry),
		cap:        opts.NamespaceCap,
		hardWall:   opts.HardWall,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	if opts.SweepInterval > 0 {
		go s.sweepLoop(opts.SweepInterval)
	} else {
		close(s.doneCh)
	}
	return s
}

// Get returns the value and its age. Expired entries are cleaned up lazily.
func (s *MemoryStore) Get(_ context.Context, namespace, key string) (string, time.Duration, bool) {
	s.mu.RLock()
	entry, ok := s.namespaces[namespace][key]
	s.mu.RUnlock()

	if !ok {
		return "", 0, false
	}

	age := time.Since(entry.createdAt)
	if age > entry.ttl {
		// Re-check under write lock: a concurrent Set may have replaced
		// the entry with a fresh one.
		s.mu.Lock()
		if current, ok := s.namespaces[namespace][key]; ok && time.Since(current.createdAt) > current.ttl {
			delete(s.namespaces[namespace], key)
		}
		s.mu.Unlock()
		return "", 0, false
	}

	return entry.value, age, true
}

// Set stores a value, evicting the oldest entries past the namespace cap.
func (s *MemoryStore) Set(_ context.Context, namespace, key, value string, ttl time.Duration) error {
	if ttl <= 0 || ttl > s.hardWall {
		ttl = s.hardWall
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]*memoryEntry)
		s.namespaces[namespace] = ns
	}
	ns[key] = &memoryEntry{value: value, createdAt: time.Now(), ttl: ttl}

	for len(ns) > s.cap {
		s.evictOldestLocked(ns)
	}
	return nil
}

// evictOldestLocked removes the single oldest entry. Caller holds the lock.
func (s *MemoryStore) evictOldestLocked(ns map[string]*memoryEntry) {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range ns {
		if oldestKey == "" || e.createdAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.createdAt
		}
	}
	if oldestKey != "" {
		delete(ns, oldestKey)
	}
}

// Delete removes a single entry.
func (s *MemoryStore) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	delete(s.namespaces[namespace], key)
	s.mu.Unlock()
	return nil
}

// ClearNamespace drops a whole namespace.
func (s *MemoryStore) ClearNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	delete(s.namespaces, namespace)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.doneCh
	return nil
}

// sweepLoop removes entries older than the hard wall.
func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer close(s.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	cutoff := time.Now().Add(-s.hardWall)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ns := range s.namespaces {
		for k, e := range ns {
			if e.createdAt.Before(cutoff) {
				delete(ns, k)
			}
		}
	}
}
