// Package inflight marks resource keys that have a mutation in progress so
// a second mutation for the same key is refused instead of queued.
package inflight

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"event-admin/internal/status"
)

// Tracker holds at most one marker per key.
type Tracker interface {
	// Begin takes the marker for key or fails with status.ErrInFlight.
	Begin(ctx context.Context, key string) error
	// End releases the marker. Releasing a free key is not an error.
	End(ctx context.Context, key string) error
	// Busy reports whether key currently has a marker.
	Busy(ctx context.Context, key string) bool
}

// Guard runs fn while holding the marker for key. The marker is released
// whether fn succeeds or fails.
func Guard(ctx context.Context, t Tracker, key string, fn func(ctx context.Context) error) (err error) {
	if err := t.Begin(ctx, key); err != nil {
		return err
	}
	defer func() {
		if endErr := t.End(context.WithoutCancel(ctx), key); endErr != nil && err == nil {
			err = fmt.Errorf("release %s: %w", key, endErr)
		}
	}()
	return fn(ctx)
}

// Key builds the marker key for one item of a resource kind, e.g.
// Key("payment", "REF123") is "payment:REF123".
func Key(kind, id string) string {
	return kind + ":" + id
}

type Memory struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]struct{})}
}

func (m *Memory) Begin(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.keys[key]; ok {
		return fmt.Errorf("%s: %w", key, status.ErrInFlight)
	}
	m.keys[key] = struct{}{}
	return nil
}

func (m *Memory) End(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *Memory) Busy(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok
}

// IsInFlight reports whether err was caused by a held marker.
func IsInFlight(err error) bool {
	return errors.Is(err, status.ErrInFlight)
}
