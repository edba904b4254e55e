// Package respcache implements the TTL + bounded-LRU response cache
// described in §4.2, with atomic on-disk persistence per §3.
package respcache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

const fileVersion = 1

// Entry is one cache slot's value plus its three timestamps (§3).
type Entry[V any] struct {
	Value      V     `json:"value"`
	CreatedAt  int64 `json:"created_at"`
	UpdatedAt  int64 `json:"updated_at"`
	AccessedAt int64 `json:"accessed_at"`
}

// Options configures a Cache.
type Options struct {
	TTLMillis   int64
	MaxEntries  int
	FilePath    string
	Clock       Clock
}

// unboundedLRUCapacity sizes the backing simplelru.LRU far beyond any
// realistic MaxEntries so its own capacity-triggered eviction never fires.
// Eviction is owned entirely by pruneOverflowLocked's explicit composite
// sort (§4.2/§8); the library is kept only as an O(1) recency/membership
// index in step with c.data, never as a second, divergent eviction policy.
const unboundedLRUCapacity = 1 << 30

// Cache is a bounded, TTL-expiring map[string]Entry[V] with atomic file
// persistence. golang-lru's simplelru.LRU tracks access recency and key
// membership in lockstep with the metadata map, but never evicts on its
// own (see unboundedLRUCapacity) — eviction order itself always re-derives
// the spec's ascending (accessed_at, updated_at, created_at) tie-break by
// an explicit sort in pruneOverflowLocked, so the two structures cannot
// disagree about which key to drop.
type Cache[V any] struct {
	mu   sync.Mutex
	opts Options
	data map[string]*Entry[V]
	lru  *lru.LRU[string, struct{}]
}

// New constructs a Cache. TTLMillis must be > 0 and MaxEntries must be >= 1.
func New[V any](opts Options) (*Cache[V], error) {
	if opts.TTLMillis <= 0 {
		return nil, errors.New("respcache: ttl_ms must be positive")
	}
	if opts.MaxEntries < 1 {
		return nil, errors.New("respcache: max_entries must be >= 1")
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	c := &Cache[V]{opts: opts, data: make(map[string]*Entry[V])}
	backing, err := lru.NewLRU[string, struct{}](unboundedLRUCapacity, func(key string, _ struct{}) {
		delete(c.data, key)
	})
	if err != nil {
		return nil, err
	}
	c.lru = backing
	return c, nil
}

func (c *Cache[V]) isExpired(e *Entry[V], now int64) bool {
	return e.UpdatedAt+c.opts.TTLMillis <= now
}

// Get returns (value, true) on a live hit; expired entries are deleted and
// reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.data[key]
	if !ok {
		return zero, false
	}
	now := c.opts.Clock.Now()
	if c.isExpired(e, now) {
		delete(c.data, key)
		c.lru.Remove(key)
		return zero, false
	}
	e.AccessedAt = now
	c.lru.Get(key)
	return e.Value, true
}

// Set inserts or overwrites key, preserving created_at across overwrites.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock.Now()
	if existing, ok := c.data[key]; ok {
		existing.Value = value
		existing.UpdatedAt = now
		existing.AccessedAt = now
		c.lru.Get(key)
	} else {
		c.data[key] = &Entry[V]{Value: value, CreatedAt: now, UpdatedAt: now, AccessedAt: now}
		c.lru.Add(key, struct{}{})
	}
	c.pruneExpiredLocked(now)
	c.pruneOverflowLocked()
}

// Delete removes key unconditionally.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.lru.Remove(key)
}

// Clear empties the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*Entry[V])
	c.lru.Purge()
}

// Len reports the current entry count.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func (c *Cache[V]) pruneExpiredLocked(now int64) {
	for k, e := range c.data {
		if c.isExpired(e, now) {
			delete(c.data, k)
			c.lru.Remove(k)
		}
	}
}

func (c *Cache[V]) pruneOverflowLocked() {
	if len(c.data) <= c.opts.MaxEntries {
		return
	}
	type keyed struct {
		key string
		e   *Entry[V]
	}
	all := make([]keyed, 0, len(c.data))
	for k, e := range c.data {
		all = append(all, keyed{k, e})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].e.AccessedAt != all[j].e.AccessedAt {
			return all[i].e.AccessedAt < all[j].e.AccessedAt
		}
		if all[i].e.UpdatedAt != all[j].e.UpdatedAt {
			return all[i].e.UpdatedAt < all[j].e.UpdatedAt
		}
		if all[i].e.CreatedAt != all[j].e.CreatedAt {
			return all[i].e.CreatedAt < all[j].e.CreatedAt
		}
		return all[i].key < all[j].key
	})
	overflow := len(c.data) - c.opts.MaxEntries
	for i := 0; i < overflow; i++ {
		delete(c.data, all[i].key)
		c.lru.Remove(all[i].key)
	}
}

// fileFormat is the on-disk shape from §3.
type fileFormat[V any] struct {
	Version int                     `json:"version"`
	Entries []fileEntry[V]          `json:"entries"`
}

type fileEntry[V any] struct {
	Key        string `json:"key"`
	Value      V      `json:"value"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
	AccessedAt int64  `json:"accessed_at"`
}

// Load reads the cache file. An absent file is not an error. Invalid JSON
// or a mismatched version silently yields an empty cache.
func (c *Cache[V]) Load() error {
	if c.opts.FilePath == "" {
		return nil
	}
	data, err := os.ReadFile(c.opts.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var parsed fileFormat[V]
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Version != fileVersion {
		c.mu.Lock()
		c.data = make(map[string]*Entry[V])
		c.lru.Purge()
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*Entry[V])
	c.lru.Purge()
	for _, fe := range parsed.Entries {
		c.data[fe.Key] = &Entry[V]{Value: fe.Value, CreatedAt: fe.CreatedAt, UpdatedAt: fe.UpdatedAt, AccessedAt: fe.AccessedAt}
		c.lru.Add(fe.Key, struct{}{})
	}
	now := c.opts.Clock.Now()
	c.pruneExpiredLocked(now)
	c.pruneOverflowLocked()
	return nil
}

// Save prunes expired/overflow entries then writes the cache file
// atomically: write to path+"."+pid+".tmp", rename over target, chmod 0600.
func (c *Cache[V]) Save(pid int) error {
	if c.opts.FilePath == "" {
		return nil
	}

	c.mu.Lock()
	now := c.opts.Clock.Now()
	c.pruneExpiredLocked(now)
	c.pruneOverflowLocked()

	entries := make([]fileEntry[V], 0, len(c.data))
	for k, e := range c.data {
		entries = append(entries, fileEntry[V]{Key: k, Value: e.Value, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt, AccessedAt: e.AccessedAt})
	}
	c.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	payload := fileFormat[V]{Version: fileVersion, Entries: entries}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.opts.FilePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp := c.opts.FilePath + "." + strconv.Itoa(pid) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.opts.FilePath); err != nil {
		return err
	}
	return os.Chmod(c.opts.FilePath, 0o600)
}
