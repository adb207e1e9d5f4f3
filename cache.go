package record

import (
	"context"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the interface for an external schema cache. A Registry configured
// with a Cache shares discovered column catalogs across repositories and
// processes, so a fleet does not introspect the same table once per process.
// Implement it with your preferred store (e.g. Redis, Memcached); MemoryCache
// is a process-local implementation.
//
// Query results are never cached; only schema metadata goes through here.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error
}

// schemaKey is the cache key for one table's column catalog.
func schemaKey(connection, table string) string {
	return "schema:" + connection + ":" + table
}

// schemaEntry is the cached representation of a column catalog.
type schemaEntry struct {
	Columns []string `msgpack:"columns"`
}

func encodeColumns(columns []string) ([]byte, error) {
	return msgpack.Marshal(schemaEntry{Columns: columns})
}

func decodeColumns(data []byte) ([]string, error) {
	var entry schemaEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return entry.Columns, nil
}

// MemoryCache is a process-local Cache backed by a map. TTLs are honored
// lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && time.Now().After(e.expires)) {
		return nil, nil
	}
	return e.value, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
