package listview

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Loader reads the full collection of one resource kind.
type Loader[T any] func(ctx context.Context) ([]T, error)

type Config[T any, K comparable] struct {
	// Resource names the collection in errors and logs, e.g. "tickets".
	Resource string
	Key      func(T) K
	Fields   Fields[T]
	Search   []string
	Load     Loader[T]
}

// Controller owns the in-memory snapshot of one remote collection. Reads
// come from the snapshot; it only changes on Refresh or after a confirmed
// mutation through Prepend or Patch. Safe for concurrent use.
type Controller[T any, K comparable] struct {
	cfg Config[T, K]

	mu       sync.RWMutex
	items    []T
	loaded   bool
	err      error
	loadedAt time.Time

	// gen counts confirmed mutations. While a refresh is reading, each
	// mutation is also journaled so it can be replayed over the result.
	gen        uint64
	refreshing int
	journal    []mutation[T]
}

type mutation[T any] struct {
	gen   uint64
	apply func([]T) []T
}

func NewController[T any, K comparable](cfg Config[T, K]) *Controller[T, K] {
	return &Controller[T, K]{cfg: cfg}
}

func (c *Controller[T, K]) Resource() string {
	return c.cfg.Resource
}

// Refresh replaces the snapshot with a fresh read. On failure the previous
// snapshot is kept and the error is remembered until the next success.
// Mutations confirmed while the read was in flight are replayed over the
// fresh items, so a read that started earlier never undoes them.
func (c *Controller[T, K]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	start := c.gen
	c.refreshing++
	c.mu.Unlock()

	items, err := c.cfg.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshing--
	pending := c.journal
	if c.refreshing == 0 {
		c.journal = nil
	}

	if err != nil {
		c.err = fmt.Errorf("load %s: %w", c.cfg.Resource, err)
		return c.err
	}
	if items == nil {
		items = []T{}
	}
	for _, m := range pending {
		if m.gen > start {
			items = m.apply(items)
		}
	}
	c.items = items
	c.loaded = true
	c.err = nil
	c.loadedAt = time.Now()
	return nil
}

// EnsureLoaded refreshes only when nothing has been loaded yet.
func (c *Controller[T, K]) EnsureLoaded(ctx context.Context) error {
	if c.Loaded() {
		return nil
	}
	return c.Refresh(ctx)
}

func (c *Controller[T, K]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Err is the error of the last failed refresh, or nil.
func (c *Controller[T, K]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Controller[T, K]) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Items returns a copy of the whole snapshot.
func (c *Controller[T, K]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Controller[T, K]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// View projects the snapshot through q.
func (c *Controller[T, K]) View(q Query) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Project(c.items, c.cfg.Fields, q, c.cfg.Search)
}

func (c *Controller[T, K]) Get(key K) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.items {
		if c.cfg.Key(item) == key {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Prepend adds a newly created item at the front.
func (c *Controller[T, K]) Prepend(item T) {
	key := c.cfg.Key(item)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutate(func(items []T) []T {
		// A read that already carries the item keeps a single copy.
		kept := make([]T, 0, len(items))
		for _, it := range items {
			if c.cfg.Key(it) != key {
				kept = append(kept, it)
			}
		}
		return ApplyCreate(kept, item)
	})
}

// Patch rewrites the item with key through fn. It reports false when the
// item is not in the snapshot; the snapshot is then left as it was.
func (c *Controller[T, K]) Patch(key K, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := ApplyUpdate(c.items, c.cfg.Key, key, fn)
	if !ok {
		return false
	}
	c.items = items
	c.record(func(items []T) []T {
		out, _ := ApplyUpdate(items, c.cfg.Key, key, fn)
		return out
	})
	return true
}

// mutate applies fn to the snapshot and records it. Callers hold mu.
func (c *Controller[T, K]) mutate(fn func([]T) []T) {
	c.items = fn(c.items)
	c.record(fn)
}

// record bumps the generation and journals replay for any refresh still
// reading. Callers hold mu.
func (c *Controller[T, K]) record(replay func([]T) []T) {
	c.gen++
	if c.refreshing > 0 {
		c.journal = append(c.journal, mutation[T]{gen: c.gen, apply: replay})
	}
}

// Count tallies the snapshot by the value of field.
func (c *Controller[T, K]) Count(field string) map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]int)
	for _, item := range c.items {
		counts[read(item, c.cfg.Fields, field)]++
	}
	return counts
}

// Options lists the distinct values of field for filter pickers.
func (c *Controller[T, K]) Options(field string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Distinct(c.items, c.cfg.Fields, field)
}
