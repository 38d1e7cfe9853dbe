package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Element is anything listeners can be notified about: scopes, activities,
// process definitions and transitions.
type Element interface {
	ID() string
	Property(name string) (any, bool)
}

// Scope is a container of activities, properties and execution listeners.
// The process definition is the root scope; every Activity also owns one for
// its nested activities.
type Scope struct {
	id         string
	definition *ProcessDefinition
	// owner is the activity this scope belongs to, nil for the definition.
	owner *Activity

	activities []*Activity
	named      map[string]*Activity
	properties map[string]any
	listeners  map[string][]ExecutionListener
}

func newScope(id string, definition *ProcessDefinition, owner *Activity) Scope {
	return Scope{
		id:         id,
		definition: definition,
		owner:      owner,
		named:      make(map[string]*Activity),
		properties: make(map[string]any),
		listeners:  make(map[string][]ExecutionListener),
	}
}

// ID returns the scope identifier (activity id or definition id).
func (s *Scope) ID() string {
	return s.id
}

// ProcessDefinition returns the definition this scope belongs to.
func (s *Scope) ProcessDefinition() *ProcessDefinition {
	return s.definition
}

// OwnerActivity returns the activity owning this scope, or nil for the definition root.
func (s *Scope) OwnerActivity() *Activity {
	return s.owner
}

// CreateActivity adds a new activity directly under this scope.
// Ids must be unique within the scope; nested scopes may reuse them.
func (s *Scope) CreateActivity(id string) (*Activity, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty activity id", ErrInvalidID)
	}
	if _, exists := s.named[id]; exists {
		return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateActivity, id, s.id)
	}
	a := &Activity{parent: s}
	a.Scope = newScope(id, s.definition, a)
	s.activities = append(s.activities, a)
	s.named[id] = a
	return a, nil
}

// Activities returns the direct child activities in declaration order.
func (s *Scope) Activities() []*Activity {
	return slices.Clone(s.activities)
}

// Activity returns the direct child with the given id.
func (s *Scope) Activity(id string) (*Activity, bool) {
	a, ok := s.named[id]
	return a, ok
}

// FindActivity searches this scope and all nested scopes for an activity.
// Direct children are checked before descending; the first match wins.
func (s *Scope) FindActivity(id string) *Activity {
	if a, ok := s.named[id]; ok {
		return a
	}
	for _, child := range s.activities {
		if found := child.FindActivity(id); found != nil {
			return found
		}
	}
	return nil
}

// Contains reports whether the activity is nested (at any depth) in this scope.
func (s *Scope) Contains(a *Activity) bool {
	for cur := a; cur != nil; cur = cur.parent.owner {
		if cur.parent == s {
			return true
		}
	}
	return false
}

// Property returns a named property.
func (s *Scope) Property(name string) (any, bool) {
	v, ok := s.properties[name]
	return v, ok
}

// Properties returns a copy of all properties.
func (s *Scope) Properties() map[string]any {
	return maps.Clone(s.properties)
}

// SetProperty sets a named property.
func (s *Scope) SetProperty(name string, value any) {
	s.properties[name] = value
}

// AddExecutionListener appends a listener for the event.
func (s *Scope) AddExecutionListener(event string, l ExecutionListener) {
	s.listeners[event] = append(s.listeners[event], l)
}

// ExecutionListeners returns the listeners registered for the event, in order.
func (s *Scope) ExecutionListeners(event string) []ExecutionListener {
	return s.listeners[event]
}
