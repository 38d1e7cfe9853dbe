package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/pvm/pkg/domain"
)

var (
	// ErrUnknownBehavior is returned for behavior names nobody registered.
	ErrUnknownBehavior = errors.New("unknown behavior")
	// ErrUnknownListener is returned for listener names nobody registered.
	ErrUnknownListener = errors.New("unknown listener")
)

// BehaviorFactory builds a behavior from the parameters of a process document.
type BehaviorFactory func(params map[string]any) (domain.ActivityBehavior, error)

// ListenerFactory builds an execution listener from document parameters.
type ListenerFactory func(params map[string]any) (domain.ExecutionListener, error)

// Registry maps names used in process documents to behaviors and listeners.
type Registry struct {
	mu        sync.RWMutex
	behaviors map[string]BehaviorFactory
	listeners map[string]ListenerFactory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		behaviors: make(map[string]BehaviorFactory),
		listeners: make(map[string]ListenerFactory),
	}
}

// RegisterBehavior adds a behavior factory.
// If one with the same name exists, it is overwritten.
func (r *Registry) RegisterBehavior(name string, f BehaviorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.behaviors[name] = f
}

// RegisterListener adds a listener factory.
// If one with the same name exists, it is overwritten.
func (r *Registry) RegisterListener(name string, f ListenerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[name] = f
}

// Behavior builds the named behavior.
func (r *Registry) Behavior(name string, params map[string]any) (domain.ActivityBehavior, error) {
	r.mu.RLock()
	f, ok := r.behaviors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBehavior, name)
	}
	return f(params)
}

// Listener builds the named listener.
func (r *Registry) Listener(name string, params map[string]any) (domain.ExecutionListener, error) {
	r.mu.RLock()
	f, ok := r.listeners[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownListener, name)
	}
	return f(params)
}

// BehaviorNames returns the registered behavior names, sorted.
func (r *Registry) BehaviorNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.behaviors))
	for n := range r.behaviors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ListenerNames returns the registered listener names, sorted.
func (r *Registry) ListenerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.listeners))
	for n := range r.listeners {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
