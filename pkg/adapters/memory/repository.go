package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/pvm/pkg/domain"
)

// Repository implements ports.DefinitionRepository with a map of built
// definitions. Safe for concurrent use.
type Repository struct {
	mu          sync.RWMutex
	definitions map[string]*domain.ProcessDefinition
}

// NewRepository creates a repository holding the given definitions.
func NewRepository(defs ...*domain.ProcessDefinition) *Repository {
	r := &Repository{definitions: make(map[string]*domain.ProcessDefinition)}
	for _, d := range defs {
		r.definitions[d.ID()] = d
	}
	return r
}

// Register adds a definition. Registering an id twice replaces the previous
// definition; running instances keep the graph they were started with.
func (r *Repository) Register(def *domain.ProcessDefinition) error {
	if def == nil {
		return fmt.Errorf("register: nil definition")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.ID()] = def
	return nil
}

// Definition returns the definition with the id.
func (r *Repository) Definition(ctx context.Context, id string) (*domain.ProcessDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
	}
	return def, nil
}

// ListDefinitions returns the registered ids, sorted.
func (r *Repository) ListDefinitions(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.definitions))
	for id := range r.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
