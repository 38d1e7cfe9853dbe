package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/runtime"
)

// Store implements ports.InstanceStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*runtime.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*runtime.Snapshot),
	}
}

// Save persists a copy of the snapshot.
func (s *Store) Save(ctx context.Context, instanceID string, snap *runtime.Snapshot) error {
	copied := cloneSnapshot(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[instanceID] = &copied
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *Store) Load(ctx context.Context, instanceID string) (*runtime.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[instanceID]
	if !ok {
		return nil, domain.ErrInstanceNotFound
	}
	ret := cloneSnapshot(snap)
	return &ret, nil
}

// Delete removes the instance.
func (s *Store) Delete(ctx context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, instanceID)
	return nil
}

// List returns the stored instance ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// cloneSnapshot copies the tree and its variable maps. Variable values
// themselves are shared.
func cloneSnapshot(snap *runtime.Snapshot) runtime.Snapshot {
	c := *snap
	c.Activity = append([]string(nil), snap.Activity...)
	c.ScopeActivity = append([]string(nil), snap.ScopeActivity...)
	if snap.Variables != nil {
		c.Variables = maps.Clone(snap.Variables)
	}
	if snap.Executions != nil {
		c.Executions = make([]runtime.Snapshot, len(snap.Executions))
		for i := range snap.Executions {
			c.Executions[i] = cloneSnapshot(&snap.Executions[i])
		}
	}
	return c
}
