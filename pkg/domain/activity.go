package domain

import "slices"

// Activity is a node of the process graph. It owns a Scope for nested
// activities, properties and listeners, and belongs to exactly one parent scope.
type Activity struct {
	Scope

	parent   *Scope
	outgoing []*Transition
	incoming []*Transition
	behavior ActivityBehavior

	async     bool
	exclusive bool
	// isScope marks activities that get their own execution at runtime.
	isScope bool
}

// Parent returns the scope that contains this activity.
func (a *Activity) Parent() *Scope {
	return a.parent
}

// ParentActivity returns the enclosing activity, or nil when the activity
// sits directly under the process definition.
func (a *Activity) ParentActivity() *Activity {
	return a.parent.owner
}

// Behavior returns the behavior delegate, which may be nil.
func (a *Activity) Behavior() ActivityBehavior {
	return a.behavior
}

// SetBehavior attaches the behavior invoked when an execution enters the activity.
func (a *Activity) SetBehavior(b ActivityBehavior) {
	a.behavior = b
}

// IsAsync reports whether the activity should be continued by a job scheduler.
func (a *Activity) IsAsync() bool { return a.async }

// SetAsync sets the async flag.
func (a *Activity) SetAsync(async bool) { a.async = async }

// IsExclusive reports whether async continuations of this activity must not run in parallel.
func (a *Activity) IsExclusive() bool { return a.exclusive }

// SetExclusive sets the exclusive flag.
func (a *Activity) SetExclusive(exclusive bool) { a.exclusive = exclusive }

// IsScope reports whether the activity is a structural scope.
func (a *Activity) IsScope() bool { return a.isScope }

// SetScope marks the activity as a structural scope.
func (a *Activity) SetScope(isScope bool) { a.isScope = isScope }

// CreateOutgoingTransition adds a transition leaving this activity.
// The destination stays unresolved until SetDestination is called.
func (a *Activity) CreateOutgoingTransition(id string) *Transition {
	t := &Transition{
		id:         id,
		source:     a,
		properties: make(map[string]any),
	}
	a.outgoing = append(a.outgoing, t)
	return t
}

// Outgoing returns the outgoing transitions in declaration order.
func (a *Activity) Outgoing() []*Transition {
	return slices.Clone(a.outgoing)
}

// Incoming returns the resolved incoming transitions in resolution order.
func (a *Activity) Incoming() []*Transition {
	return slices.Clone(a.incoming)
}

// FindOutgoingTransition returns the first outgoing transition with the id.
func (a *Activity) FindOutgoingTransition(id string) *Transition {
	for _, t := range a.outgoing {
		if t.id == id {
			return t
		}
	}
	return nil
}

// Depth returns the number of activities enclosing this one.
func (a *Activity) Depth() int {
	depth := 0
	for p := a.ParentActivity(); p != nil; p = p.ParentActivity() {
		depth++
	}
	return depth
}

// Path returns the ids from the outermost enclosing activity down to this one.
// Unlike ids, paths are unique within a definition.
func (a *Activity) Path() []string {
	var path []string
	for cur := a; cur != nil; cur = cur.ParentActivity() {
		path = append(path, cur.id)
	}
	slices.Reverse(path)
	return path
}

func (a *Activity) String() string {
	return "Activity(" + a.id + ")"
}
