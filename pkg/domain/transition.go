package domain

import "maps"

// Transition is a directed edge between two activities.
type Transition struct {
	id          string
	source      *Activity
	destination *Activity
	properties  map[string]any
	listeners   []ExecutionListener
}

// ID returns the optional transition id. Ids are not required to be unique.
func (t *Transition) ID() string {
	return t.id
}

// Source returns the activity the transition leaves.
func (t *Transition) Source() *Activity {
	return t.source
}

// Destination returns the target activity, or nil while unresolved.
func (t *Transition) Destination() *Activity {
	return t.destination
}

// SetDestination resolves the target and records the transition as incoming there.
func (t *Transition) SetDestination(a *Activity) {
	t.destination = a
	a.incoming = append(a.incoming, t)
}

// Property returns a named property.
func (t *Transition) Property(name string) (any, bool) {
	v, ok := t.properties[name]
	return v, ok
}

// Properties returns a copy of all properties.
func (t *Transition) Properties() map[string]any {
	return maps.Clone(t.properties)
}

// SetProperty sets a named property.
func (t *Transition) SetProperty(name string, value any) {
	t.properties[name] = value
}

// AddExecutionListener appends a take listener.
func (t *Transition) AddExecutionListener(l ExecutionListener) {
	t.listeners = append(t.listeners, l)
}

// ExecutionListeners returns the take listeners in order.
func (t *Transition) ExecutionListeners() []ExecutionListener {
	return t.listeners
}

func (t *Transition) String() string {
	dest := "?"
	if t.destination != nil {
		dest = t.destination.id
	}
	label := t.source.id + "->" + dest
	if t.id != "" {
		label = t.id + ":" + label
	}
	return "Transition(" + label + ")"
}
