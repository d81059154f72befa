// Package contentcache guards content loads against concurrent re-entry and
// memoizes decoded results.
//
// Each (blobID, resourceID, role) tuple moves through idle → loading →
// decoded or failed. Duplicate requests while a load is in flight join the
// existing call instead of issuing new network traffic; a decoded result is
// served from memory permanently. Failures are not memoized, so callers can
// retry.
package contentcache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/veilstream/veilstream/core"
)

// Key identifies one content item load.
type Key struct {
	BlobID     string
	ResourceID string
	Role       core.AccessRole
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%d", k.BlobID, k.ResourceID, k.Role)
}

// LoadFunc performs the actual load for a cache miss.
type LoadFunc func(ctx context.Context) (*core.ContentResult, error)

// Store tracks per-item load state for one client instance.
type Store struct {
	mu      sync.RWMutex
	decoded map[Key]*core.ContentResult
	group   singleflight.Group
}

// New creates an empty store.
func New() *Store {
	return &Store{decoded: make(map[Key]*core.ContentResult)}
}

// Status reports the current state of a tuple.
func (s *Store) Status(key Key) core.ContentStatus {
	s.mu.RLock()
	_, ok := s.decoded[key]
	s.mu.RUnlock()
	if ok {
		return core.StatusDecoded
	}
	return core.StatusIdle
}

// Load returns the decoded result for key, running fn at most once per
// in-flight window. Concurrent callers for the same key share a single fn
// execution and its result. A successful result transitions the key to
// decoded permanently; a failed fn leaves the key idle so the next call
// retries.
func (s *Store) Load(ctx context.Context, key Key, fn LoadFunc) (*core.ContentResult, error) {
	s.mu.RLock()
	if res, ok := s.decoded[key]; ok {
		s.mu.RUnlock()
		return res, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		// Re-check under the flight: another call may have decoded between
		// the fast path and joining the group.
		s.mu.RLock()
		res, ok := s.decoded[key]
		s.mu.RUnlock()
		if ok {
			return res, nil
		}

		res, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.decoded[key] = res
		s.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.ContentResult), nil
}

// Forget drops a decoded result, forcing the next Load to re-fetch.
func (s *Store) Forget(key Key) {
	s.mu.Lock()
	delete(s.decoded, key)
	s.mu.Unlock()
	s.group.Forget(key.String())
}
