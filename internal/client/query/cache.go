// Package query is the profile query layer: a keyed cache with staleness,
// retention and request coalescing, and the profile fetch/create/update
// operations on top of the remote document store.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/timex"
	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a key. found=false records a confirmed absence.
type Loader[T any] func(ctx context.Context) (value T, found bool, err error)

type entry[T any] struct {
	Value     T         `json:"value"`
	Found     bool      `json:"found"`
	FetchedAt time.Time `json:"fetchedAt"`
	LastUsed  time.Time `json:"lastUsed"`
}

// Cache is a keyed query cache. Entries are fresh for staleTime after they
// were fetched or written, and evicted once unused for cacheTime.
// Concurrent loads of one key share a single Loader call. A load never
// overwrites a value written by Set, Update or Remove after it started.
type Cache[T any] struct {
	mu        sync.Mutex
	entries   map[string]*entry[T]
	writes    map[string]uint64
	group     singleflight.Group
	clock     timex.Clock
	staleTime time.Duration
	cacheTime time.Duration

	// Write-through persistence; repo is nil when disabled.
	persistMu  sync.Mutex
	repo       kv.Repository
	persistKey string
	log        logging.Logger
}

func NewCache[T any](clock timex.Clock, staleTime, cacheTime time.Duration, log logging.Logger) *Cache[T] {
	if log == nil {
		log = logging.NewNop()
	}
	return &Cache[T]{
		entries:   make(map[string]*entry[T]),
		writes:    make(map[string]uint64),
		clock:     clock,
		staleTime: staleTime,
		cacheTime: cacheTime,
		log:       log,
	}
}

// Persist enables write-through of the whole cache to repo under key.
func (c *Cache[T]) Persist(repo kv.Repository, key string) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	c.repo = repo
	c.persistKey = key
}

// Peek returns the cached value for key regardless of staleness.
// found is false for unknown keys and for recorded absences.
func (c *Cache[T]) Peek(key string) (value T, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.Found {
		return value, false
	}
	e.LastUsed = c.clock.Now()
	return e.Value, true
}

// Fresh reports whether key holds a value or absence younger than staleTime.
func (c *Cache[T]) Fresh(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && c.clock.Now().Sub(e.FetchedAt) < c.staleTime
}

// Fetch returns the cached value for key while it is fresh and otherwise
// loads it. Callers waiting on a shared load return early when their own
// ctx is done; the load itself keeps running for the others.
func (c *Cache[T]) Fetch(ctx context.Context, key string, load Loader[T]) (T, bool, error) {
	var zero T

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.clock.Now().Sub(e.FetchedAt) < c.staleTime {
		e.LastUsed = c.clock.Now()
		v, found := e.Value, e.Found
		c.mu.Unlock()
		return v, found, nil
	}
	c.mu.Unlock()

	ch := c.group.DoChan(key, func() (any, error) {
		c.mu.Lock()
		gen := c.writes[key]
		c.mu.Unlock()

		v, found, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		return c.storeLoaded(ctx, key, gen, v, found), nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		e := res.Val.(entry[T])
		return e.Value, e.Found, nil
	}
}

// Set records value for key as freshly fetched.
func (c *Cache[T]) Set(ctx context.Context, key string, value T) {
	now := c.clock.Now()
	c.mu.Lock()
	c.writes[key]++
	c.entries[key] = &entry[T]{Value: value, Found: true, FetchedAt: now, LastUsed: now}
	c.mu.Unlock()
	c.persist(ctx)
}

// Update applies fn to the cached value of key and stores the result as
// freshly fetched. If key holds no value, fn receives the zero value and
// ok=false.
func (c *Cache[T]) Update(ctx context.Context, key string, fn func(old T, ok bool) T) T {
	c.mu.Lock()
	var old T
	ok := false
	if e, exists := c.entries[key]; exists && e.Found {
		old, ok = e.Value, true
	}
	v := fn(old, ok)
	now := c.clock.Now()
	c.writes[key]++
	c.entries[key] = &entry[T]{Value: v, Found: true, FetchedAt: now, LastUsed: now}
	c.mu.Unlock()

	c.persist(ctx)
	return v
}

// Invalidate marks key stale so the next Fetch reloads it.
func (c *Cache[T]) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		e.FetchedAt = time.Time{}
	}
	c.mu.Unlock()
	if ok {
		c.persist(ctx)
	}
}

// Remove drops key.
func (c *Cache[T]) Remove(ctx context.Context, key string) {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.writes[key]++
	c.mu.Unlock()
	if ok {
		c.persist(ctx)
	}
}

// Len reports the number of entries, absences included.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GC evicts entries unused for cacheTime and returns how many were removed.
func (c *Cache[T]) GC(ctx context.Context) int {
	c.mu.Lock()
	now := c.clock.Now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.LastUsed) >= c.cacheTime {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.log.Debug(ctx, "cache entries evicted", "count", removed)
		c.persist(ctx)
	}
	return removed
}

// StartGC sweeps the cache every interval until the returned stop is called.
func (c *Cache[T]) StartGC(ctx context.Context, interval time.Duration) (stop func()) {
	var (
		mu      sync.Mutex
		stopped bool
		timer   timex.Timer
	)
	var tick func()
	tick = func() {
		c.GC(ctx)
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			timer = c.clock.AfterFunc(interval, tick)
		}
	}

	mu.Lock()
	timer = c.clock.AfterFunc(interval, tick)
	mu.Unlock()

	return func() {
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		timer.Stop()
	}
}

// Restore loads entries persisted by an earlier run. Entries already past
// their retention window are skipped.
func (c *Cache[T]) Restore(ctx context.Context) (int, error) {
	c.persistMu.Lock()
	repo, key := c.repo, c.persistKey
	c.persistMu.Unlock()
	if repo == nil {
		return 0, nil
	}

	raw, err := repo.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", key, err)
	}
	if raw == nil {
		return 0, nil
	}
	var saved map[string]*entry[T]
	if err := json.Unmarshal(raw, &saved); err != nil {
		return 0, fmt.Errorf("decode %s: %w", key, err)
	}

	c.mu.Lock()
	now := c.clock.Now()
	restored := 0
	for k, e := range saved {
		if e == nil || now.Sub(e.LastUsed) >= c.cacheTime {
			continue
		}
		if _, exists := c.entries[k]; exists {
			continue
		}
		c.entries[k] = e
		restored++
	}
	c.mu.Unlock()
	return restored, nil
}

// storeLoaded records a loaded value unless key was written since gen was
// read. In that case the newer cached entry is returned instead, or the
// loaded value when key has been removed.
func (c *Cache[T]) storeLoaded(ctx context.Context, key string, gen uint64, v T, found bool) entry[T] {
	now := c.clock.Now()
	c.mu.Lock()
	if c.writes[key] != gen {
		out := entry[T]{Value: v, Found: found}
		if e, ok := c.entries[key]; ok {
			out = entry[T]{Value: e.Value, Found: e.Found}
		}
		c.mu.Unlock()
		c.log.Debug(ctx, "discarding load overtaken by a write", "key", key)
		return out
	}
	c.entries[key] = &entry[T]{Value: v, Found: found, FetchedAt: now, LastUsed: now}
	c.mu.Unlock()
	c.persist(ctx)
	return entry[T]{Value: v, Found: found}
}

// persist writes a snapshot of the cache through to the repository.
// Failures are logged; the in-memory cache stays authoritative.
func (c *Cache[T]) persist(ctx context.Context) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	if c.repo == nil {
		return
	}

	c.mu.Lock()
	b, err := json.Marshal(c.entries)
	c.mu.Unlock()
	if err != nil {
		c.log.Error(ctx, "failed to encode query cache", "error", err)
		return
	}
	if err := c.repo.Set(context.WithoutCancel(ctx), c.persistKey, b); err != nil {
		c.log.Warn(ctx, "failed to persist query cache", "error", err)
	}
}
