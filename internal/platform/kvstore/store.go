// Package kvstore is the scoped key-value port the preview tracker and the
// team-link reconciler persist through. Keys live in one of two scopes:
// session entries die with the visitor's session, persistent entries survive
// until explicitly cleared.
package kvstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
)

type Scope string

const (
	ScopeSession    Scope = "session"
	ScopePersistent Scope = "persistent"
)

// Store reads and writes raw entries for one owner (visitor or user ID).
// A missing key is (nil, false, nil), never an error.
type Store interface {
	Get(ctx context.Context, scope Scope, ownerID, key string) ([]byte, bool, error)
	Set(ctx context.Context, scope Scope, ownerID, key string, value []byte) error
	Delete(ctx context.Context, scope Scope, ownerID, key string) error
	ClearScope(ctx context.Context, scope Scope, ownerID string) error
}

// OwnerLister enumerates owners holding a given key. Background sweeps use it
// to find sessions that need re-checking; implementations that cannot
// enumerate simply don't implement it.
type OwnerLister interface {
	Owners(ctx context.Context, scope Scope, key string) ([]string, error)
}

// GetJSON decodes a stored entry into out. A malformed stored value degrades
// to absent: the corrupt entry is deleted and (false, nil) is returned, so a
// bad write can never wedge a session.
func GetJSON(ctx context.Context, s Store, scope Scope, ownerID, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, scope, ownerID, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		_ = s.Delete(ctx, scope, ownerID, key)
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, scope Scope, ownerID, key string, value any) error {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s/%s: %w", scope, key, err)
	}
	return s.Set(ctx, scope, ownerID, key, raw)
}

type memoryKey struct {
	scope Scope
	owner string
	key   string
}

// Memory is the in-process Store used by tests and single-node deployments.
type Memory struct {
	mu      sync.RWMutex
	entries map[memoryKey][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[memoryKey][]byte)}
}

func (m *Memory) Get(_ context.Context, scope Scope, ownerID, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.entries[memoryKey{scope: scope, owner: ownerID, key: key}]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, scope Scope, ownerID, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memoryKey{scope: scope, owner: ownerID, key: key}] = stored
	return nil
}

func (m *Memory) Delete(_ context.Context, scope Scope, ownerID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, memoryKey{scope: scope, owner: ownerID, key: key})
	return nil
}

func (m *Memory) ClearScope(_ context.Context, scope Scope, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if k.scope == scope && k.owner == ownerID {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *Memory) Owners(_ context.Context, scope Scope, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var owners []string
	for k := range m.entries {
		if k.scope == scope && k.key == key {
			owners = append(owners, k.owner)
		}
	}
	return owners, nil
}
