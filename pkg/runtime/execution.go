package runtime

import (
	"fmt"
	"slices"

	"github.com/aretw0/pvm/pkg/domain"
	"github.com/google/uuid"
)

// Execution is a token moving through a process definition. The root
// execution of a tree is the process instance; children represent scopes and
// concurrent branches.
//
// An execution tree is not safe for concurrent use. Hosts must serialize all
// calls on a process instance and its descendants (see pkg/instance).
type Execution struct {
	id         string
	definition *domain.ProcessDefinition
	instance   *Execution
	parent     *Execution
	executions []*Execution

	activity *domain.Activity
	// transition and target are set while the execution is moving.
	transition *domain.Transition
	target     *domain.Activity
	// scopeActivity is the scope activity this execution was created for.
	scopeActivity *domain.Activity

	// superExecution is set on a sub process instance, subProcessInstance on
	// the execution waiting for it.
	superExecution     *Execution
	subProcessInstance *Execution

	active     bool
	concurrent bool
	scope      bool
	ended      bool
	ending     bool
	// forked is set while the execution waits for its concurrent children.
	forked       bool
	started      bool
	asyncPending bool

	variables map[string]any

	eventName   string
	eventSource domain.Element

	deleteReason string

	queue     []operation
	operating bool

	// cfg is shared by every execution of the instance.
	cfg *config
}

// NewProcessInstance creates the root execution for a definition. The
// instance is not started; call Start to enter the initial activity.
func NewProcessInstance(def *domain.ProcessDefinition, opts ...Option) (*Execution, error) {
	if def == nil {
		return nil, fmt.Errorf("new process instance: nil definition")
	}
	if def.Initial() == nil {
		return nil, fmt.Errorf("process %q: %w", def.ID(), domain.ErrNoInitialActivity)
	}
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}
	e := newExecution(id, def, cfg)
	e.instance = e
	return e, nil
}

func newExecution(id string, def *domain.ProcessDefinition, cfg *config) *Execution {
	return &Execution{
		id:         id,
		definition: def,
		active:     true,
		scope:      true,
		variables:  make(map[string]any),
		cfg:        cfg,
	}
}

// ID returns the execution identifier.
func (e *Execution) ID() string {
	return e.id
}

// Activity returns the current activity.
func (e *Execution) Activity() *domain.Activity {
	return e.activity
}

// ProcessDefinition returns the definition being executed.
func (e *Execution) ProcessDefinition() *domain.ProcessDefinition {
	return e.definition
}

// Parent returns the parent execution, or nil for the process instance.
func (e *Execution) Parent() domain.ActivityExecution {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// ParentExecution is Parent with the concrete type.
func (e *Execution) ParentExecution() *Execution {
	return e.parent
}

// Executions returns the child executions.
func (e *Execution) Executions() []domain.ActivityExecution {
	out := make([]domain.ActivityExecution, len(e.executions))
	for i, c := range e.executions {
		out[i] = c
	}
	return out
}

// ChildExecutions is Executions with the concrete type.
func (e *Execution) ChildExecutions() []*Execution {
	return slices.Clone(e.executions)
}

// ProcessInstance returns the root of the execution tree.
func (e *Execution) ProcessInstance() domain.ActivityExecution {
	return e.instance
}

// IsProcessInstance reports whether e is the root of its tree.
func (e *Execution) IsProcessInstance() bool {
	return e.parent == nil
}

// IsActive reports whether the execution is currently in an activity.
func (e *Execution) IsActive() bool { return e.active }

// SetActive sets the active flag.
func (e *Execution) SetActive(active bool) { e.active = active }

// Inactivate marks the execution inactive, typically while waiting in a join.
func (e *Execution) Inactivate() { e.active = false }

// IsConcurrent reports whether e is one of several concurrent branches.
func (e *Execution) IsConcurrent() bool { return e.concurrent }

// SetConcurrent sets the concurrent flag.
func (e *Execution) SetConcurrent(concurrent bool) { e.concurrent = concurrent }

// IsScope reports whether e owns a variable scope of its own.
func (e *Execution) IsScope() bool { return e.scope }

// IsEnded reports whether the execution reached its terminal state.
func (e *Execution) IsEnded() bool { return e.ended }

// IsAsyncPending reports whether e is parked waiting for ContinueAsync.
func (e *Execution) IsAsyncPending() bool { return e.asyncPending }

// DeleteReason returns the reason passed to DeleteCascade.
func (e *Execution) DeleteReason() string { return e.deleteReason }

// CreateExecution adds a child execution positioned on e's activity.
func (e *Execution) CreateExecution() domain.ActivityExecution {
	return e.createExecution()
}

func (e *Execution) createExecution() *Execution {
	child := newExecution(uuid.NewString(), e.definition, e.cfg)
	child.instance = e.instance
	child.parent = e
	child.activity = e.activity
	child.started = true
	e.executions = append(e.executions, child)
	return child
}

// CreateSubProcessInstance creates an unstarted process instance of def
// linked to e. When it ends, the SubProcessActivityBehavior of e's activity
// is notified. Hooks and the async scheduler are shared with e's instance.
func (e *Execution) CreateSubProcessInstance(def *domain.ProcessDefinition) (domain.ProcessInstance, error) {
	switch {
	case def == nil:
		return nil, fmt.Errorf("sub process instance on %s: nil definition", e)
	case def.Initial() == nil:
		return nil, fmt.Errorf("process %q: %w", def.ID(), domain.ErrNoInitialActivity)
	case e.ended:
		return nil, fmt.Errorf("sub process instance on %s: %w", e, domain.ErrExecutionEnded)
	case e.subProcessInstance != nil && !e.subProcessInstance.ended:
		return nil, fmt.Errorf("sub process instance on %s: %w", e, domain.ErrSubProcessRunning)
	}
	sub := newExecution(uuid.NewString(), def, e.cfg)
	sub.instance = sub
	sub.superExecution = e
	e.subProcessInstance = sub
	return sub, nil
}

// SuperExecution returns the execution that started this sub process
// instance, or nil.
func (e *Execution) SuperExecution() *Execution { return e.superExecution }

// SubProcessInstance returns the sub process instance e waits for, or nil.
func (e *Execution) SubProcessInstance() *Execution { return e.subProcessInstance }

// createScopeExecution hands the movement in progress over to a new scope
// child for the scope activity a. The parent stays parked on a.
func (e *Execution) createScopeExecution(a *domain.Activity) *Execution {
	child := e.createExecution()
	child.scopeActivity = a
	child.activity = a
	child.transition, e.transition = e.transition, nil
	child.target, e.target = e.target, nil
	e.active = false
	return child
}

func (e *Execution) remove() {
	if e.parent == nil {
		return
	}
	e.parent.executions = slices.DeleteFunc(e.parent.executions, func(c *Execution) bool {
		return c == e
	})
}

func (e *Execution) markEnded() {
	e.ended = true
	e.active = false
	e.ending = false
	e.transition = nil
	e.target = nil
	e.queue = nil
}

func (e *Execution) liveChildren() []*Execution {
	var out []*Execution
	for _, c := range e.executions {
		if !c.ended {
			out = append(out, c)
		}
	}
	return out
}

// FindExecution returns the first execution in the subtree positioned on the
// activity. Running sub process instances are searched too.
func (e *Execution) FindExecution(activityID string) *Execution {
	if !e.ended && e.activity != nil && e.activity.ID() == activityID {
		return e
	}
	for _, c := range e.executions {
		if found := c.FindExecution(activityID); found != nil {
			return found
		}
	}
	if sub := e.subProcessInstance; sub != nil {
		return sub.FindExecution(activityID)
	}
	return nil
}

// FindExecutionByID returns the execution with the id from the subtree,
// including running sub process instances.
func (e *Execution) FindExecutionByID(id string) *Execution {
	if e.id == id {
		return e
	}
	for _, c := range e.executions {
		if found := c.FindExecutionByID(id); found != nil {
			return found
		}
	}
	if sub := e.subProcessInstance; sub != nil {
		return sub.FindExecutionByID(id)
	}
	return nil
}

// FindActiveActivityIDs lists the activities of every active execution in
// the subtree. Sub process instances report their own.
func (e *Execution) FindActiveActivityIDs() []string {
	ids := []string{}
	e.collectActiveActivityIDs(&ids)
	return ids
}

func (e *Execution) collectActiveActivityIDs(ids *[]string) {
	if e.active && !e.ended && e.activity != nil {
		*ids = append(*ids, e.activity.ID())
	}
	for _, c := range e.executions {
		c.collectActiveActivityIDs(ids)
	}
}

// IsActiveIn reports whether some execution of the subtree sits on the activity.
func (e *Execution) IsActiveIn(activityID string) bool {
	return e.FindExecution(activityID) != nil
}

// EventName returns the event being dispatched to listeners.
func (e *Execution) EventName() string { return e.eventName }

// EventSource returns the element the current event belongs to.
func (e *Execution) EventSource() domain.Element { return e.eventSource }

// Transition returns the transition being taken, if any.
func (e *Execution) Transition() *domain.Transition { return e.transition }

func (e *Execution) String() string {
	switch {
	case e.IsProcessInstance():
		return "ProcessInstance[" + e.id + "]"
	case e.concurrent:
		return "ConcurrentExecution[" + e.id + "]"
	case e.scope:
		return "ScopeExecution[" + e.id + "]"
	default:
		return "Execution[" + e.id + "]"
	}
}

var (
	_ domain.ActivityExecution = (*Execution)(nil)
	_ domain.ListenerExecution = (*Execution)(nil)
	_ domain.ProcessInstance   = (*Execution)(nil)
)
