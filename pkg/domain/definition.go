package domain

import (
	"github.com/google/uuid"
)

// ProcessDefinition is the root scope of a process graph. It is built once
// and then shared read-only by any number of executions.
type ProcessDefinition struct {
	Scope

	name    string
	initial *Activity
}

// NewProcessDefinition creates an empty definition. An empty id is replaced
// by a generated one.
func NewProcessDefinition(id string) *ProcessDefinition {
	if id == "" {
		id = uuid.NewString()
	}
	def := &ProcessDefinition{}
	def.Scope = newScope(id, def, nil)
	return def
}

// Name returns the human readable name (may be empty).
func (d *ProcessDefinition) Name() string {
	return d.name
}

// SetName sets the human readable name.
func (d *ProcessDefinition) SetName(name string) {
	d.name = name
}

// Initial returns the designated start activity, or nil.
func (d *ProcessDefinition) Initial() *Activity {
	return d.initial
}

// SetInitial designates the start activity.
func (d *ProcessDefinition) SetInitial(a *Activity) {
	d.initial = a
}

// ActivityByPath resolves a path produced by Activity.Path.
func (d *ProcessDefinition) ActivityByPath(path []string) *Activity {
	scope := &d.Scope
	var found *Activity
	for _, id := range path {
		a, ok := scope.named[id]
		if !ok {
			return nil
		}
		found = a
		scope = &a.Scope
	}
	return found
}

// Walk visits every activity depth-first in declaration order.
func (d *ProcessDefinition) Walk(fn func(*Activity)) {
	var walk func(s *Scope)
	walk = func(s *Scope) {
		for _, a := range s.activities {
			fn(a)
			walk(&a.Scope)
		}
	}
	walk(&d.Scope)
}

func (d *ProcessDefinition) String() string {
	return "ProcessDefinition(" + d.id + ")"
}
