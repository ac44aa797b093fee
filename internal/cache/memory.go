package cache

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
)

// sweepInterval is how often the background sweep evicts expired entries.
const sweepInterval = 60 * time.Second

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is a thread-safe in-process cache with per-entry absolute expiry.
// A background sweep removes expired entries on a fixed interval; Get also
// lazily evicts an expired entry it happens to hit.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is replaceable in tests to avoid timing flake
	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// NewMemory creates an in-process cache and starts its sweep goroutine.
func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Get returns the value for key, treating expired entries as misses and
// removing them.
func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	entry, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		return "", false
	}
	if !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if current, ok := m.entries[key]; ok && !m.now().Before(current.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

// Set stores value under key with an absolute expiry of now+ttl.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{
		value:     value,
		expiresAt: m.now().Add(ttl),
	}
	m.mu.Unlock()
}

// Delete removes key from the cache.
func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Clear removes all entries matching pattern, or every entry when the
// pattern is empty. The single `*` wildcard matches any run of characters.
func (m *Memory) Clear(_ context.Context, pattern string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pattern == "" {
		m.entries = make(map[string]memoryEntry)
		return
	}

	re, err := compilePattern(pattern)
	if err != nil {
		return
	}
	for key := range m.entries {
		if re.MatchString(key) {
			delete(m.entries, key)
		}
	}
}

// Close stops the background sweep goroutine.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *Memory) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	now := m.now()
	m.mu.Lock()
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}

// compilePattern converts a `*` wildcard pattern into an anchored regexp.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(pattern)
	return regexp.Compile("^" + strings.ReplaceAll(escaped, `\*`, ".*") + "$")
}
