package runtime

import (
	"fmt"

	"github.com/aretw0/pvm/pkg/domain"
)

// operation is one atomic step of graph traversal. Steps schedule their
// successor with perform, possibly on another execution of the tree.
type operation func(e *Execution) error

// perform runs op and everything it schedules. When e is already running an
// operation (for instance a behavior calling Take), op is queued and picked up
// once the current step returns, so chains of automatic activities do not
// grow the stack.
func (e *Execution) perform(op operation) error {
	e.queue = append(e.queue, op)
	if e.operating {
		return nil
	}
	e.operating = true
	defer func() { e.operating = false }()
	for len(e.queue) > 0 {
		next := e.queue[0]
		e.queue = e.queue[1:]
		if err := next(e); err != nil {
			e.queue = nil
			e.abortMovement()
			return err
		}
	}
	return nil
}

// abortMovement drops a take, enter or end that failed half way so the
// execution stays where the error left it and can be moved again.
func (e *Execution) abortMovement() {
	if e.ended || (e.transition == nil && e.target == nil && !e.ending) {
		return
	}
	e.transition = nil
	e.target = nil
	e.ending = false
	if !e.forked {
		e.active = true
	}
}

// Start enters the initial activity of the definition.
func (e *Execution) Start() error {
	if !e.IsProcessInstance() {
		return fmt.Errorf("start %s: %w", e, domain.ErrNotProcessInstance)
	}
	if e.started {
		return fmt.Errorf("start %s: %w", e, domain.ErrAlreadyStarted)
	}
	if e.definition.Initial() == nil {
		return fmt.Errorf("start %s: %w", e, domain.ErrNoInitialActivity)
	}
	e.started = true
	return e.perform(opProcessStart)
}

// Signal delivers an external signal to the behavior of the current activity.
// Errors from the behavior are returned unchanged.
func (e *Execution) Signal(signalName string, signalData any) error {
	if e.ended {
		return fmt.Errorf("signal %q on %s: %w", signalName, e, domain.ErrExecutionEnded)
	}
	if e.activity == nil {
		return fmt.Errorf("signal %q on %s: %w", signalName, e, domain.ErrNoActiveActivity)
	}
	behavior, ok := e.activity.Behavior().(domain.SignallableActivityBehavior)
	if !ok {
		return fmt.Errorf("signal %q on activity %q: %w", signalName, e.activity.ID(), domain.ErrNotSignallable)
	}
	return behavior.Signal(e, signalName, signalData)
}

// Take moves the execution over a transition leaving its current activity.
func (e *Execution) Take(t *domain.Transition) error {
	switch {
	case e.ended:
		return fmt.Errorf("take on %s: %w", e, domain.ErrExecutionEnded)
	case t == nil:
		return fmt.Errorf("take on %s: %w", e, domain.ErrNilTransition)
	case e.transition != nil:
		return fmt.Errorf("take %s on %s: %w", t, e, domain.ErrAlreadyTaking)
	case t.Source() != e.activity:
		return fmt.Errorf("take %s on %s: %w", t, e, domain.ErrForeignTransition)
	}
	e.transition = t
	e.target = t.Destination()
	e.ending = false
	return e.perform(opTransitionTake)
}

// ExecuteActivity enters an activity without a transition, typically the
// initial activity of a composite. Scopes between the current activity and a
// are entered first.
func (e *Execution) ExecuteActivity(a *domain.Activity) error {
	if e.ended {
		return fmt.Errorf("execute %s on %s: %w", a, e, domain.ErrExecutionEnded)
	}
	outer := a.Parent()
	if e.activity != nil && e.activity.Scope.Contains(a) {
		outer = &e.activity.Scope
	}
	e.target = a
	e.activity = nextScope(outer, a)
	return e.perform(opEnterActivity)
}

// ContinueAsync runs the behavior of an async activity the execution was
// parked on.
func (e *Execution) ContinueAsync() error {
	if e.ended {
		return fmt.Errorf("continue %s: %w", e, domain.ErrExecutionEnded)
	}
	if !e.asyncPending {
		return fmt.Errorf("continue %s: %w", e, domain.ErrNotAsync)
	}
	e.asyncPending = false
	return e.perform(opRunBehavior)
}

// End finishes the execution in its current activity. Ending propagates to
// enclosing activities, composite behaviors and, eventually, the process
// instance. Ending an ended execution is a no-op.
func (e *Execution) End() error {
	if e.ended || e.ending {
		return nil
	}
	if e.activity == nil {
		return fmt.Errorf("end %s: %w", e, domain.ErrNoActiveActivity)
	}
	e.ending = true
	e.active = false
	return e.perform(opActivityEnd)
}

// DeleteCascade ends the execution and its whole subtree, firing end
// listeners once per occupied activity. It is a no-op on ended executions.
func (e *Execution) DeleteCascade(reason string) error {
	if e.ended {
		return nil
	}
	e.deleteReason = reason
	return e.perform(opDeleteCascade)
}

func opProcessStart(e *Execution) error {
	def := e.definition
	if err := e.fire(domain.EventStart, def, def.ExecutionListeners(domain.EventStart)); err != nil {
		return err
	}
	initial := def.Initial()
	e.target = initial
	e.activity = nextScope(&def.Scope, initial)
	return e.perform(opEnterActivity)
}

func opTransitionTake(e *Execution) error {
	t := e.transition
	if err := e.fire(domain.EventTake, t, t.ExecutionListeners()); err != nil {
		return err
	}
	if h := e.cfg.hooks.OnTransitionTake; h != nil {
		h(e, t)
	}
	return e.perform(opLeaveActivity)
}

// opLeaveActivity exits e.activity and keeps exiting enclosing activities
// until the scope holding the destination is reached.
func opLeaveActivity(e *Execution) error {
	a := e.activity
	if err := e.fireActivity(domain.EventEnd, a); err != nil {
		return err
	}

	next := e
	if a.IsScope() {
		var err error
		if next, err = e.destroyScope(a); err != nil {
			return err
		}
	}

	outer := a.Parent()
	dest := next.target
	if owner := outer.OwnerActivity(); owner != nil && !outer.Contains(dest) {
		next.activity = owner
		return next.perform(opLeaveActivity)
	}
	next.activity = nextScope(outer, dest)
	return next.perform(opEnterActivity)
}

// destroyScope removes the scope execution created for a and returns the
// execution that continues the movement.
func (e *Execution) destroyScope(a *domain.Activity) (*Execution, error) {
	owner := e
	if e.scopeActivity != a {
		if !e.concurrent || e.parent == nil || e.parent.scopeActivity != a {
			// The scope execution is already gone, e.g. after a composite completed.
			return e, nil
		}
		if len(e.parent.liveChildren()) > 1 {
			return nil, fmt.Errorf("leave %q from %s: %w", a.ID(), e, domain.ErrConcurrentScopeExit)
		}
		owner = e.parent
		owner.transition, owner.target = e.transition, e.target
		e.remove()
		e.markEnded()
		owner.forked = false
	}

	parent := owner.parent
	parent.activity = a
	parent.transition, parent.target = owner.transition, owner.target
	parent.active = true
	owner.remove()
	owner.markEnded()
	return parent, nil
}

// opEnterActivity enters e.activity, creating a scope execution when the
// activity is a scope, and continues towards e.target.
func opEnterActivity(e *Execution) error {
	a := e.activity
	if a.IsScope() {
		child := e.createScopeExecution(a)
		return child.perform(opNotifyStart)
	}
	return e.perform(opNotifyStart)
}

func opNotifyStart(e *Execution) error {
	a := e.activity
	if err := e.fireActivity(domain.EventStart, a); err != nil {
		return err
	}
	if a != e.target {
		e.activity = nextScope(&a.Scope, e.target)
		return e.perform(opEnterActivity)
	}
	e.transition = nil
	e.target = nil
	e.active = true
	return e.perform(opActivityExecute)
}

func opActivityExecute(e *Execution) error {
	a := e.activity
	if a.IsAsync() && e.cfg.scheduler != nil {
		e.asyncPending = true
		if h := e.cfg.hooks.OnAsyncScheduled; h != nil {
			h(e, a)
		}
		e.cfg.scheduler.ScheduleAsync(e)
		return nil
	}
	return opRunBehavior(e)
}

func opRunBehavior(e *Execution) error {
	a := e.activity
	behavior := a.Behavior()
	if behavior == nil {
		return e.passThrough(a)
	}
	if err := behavior.Execute(e); err != nil {
		return err
	}
	if e.restsIn(a, behavior) && len(a.Outgoing()) == 0 {
		e.ending = true
		e.active = false
		return e.perform(opActivityEnd)
	}
	return nil
}

// passThrough continues over the single outgoing transition of an activity
// without behavior, or ends the execution there.
func (e *Execution) passThrough(a *domain.Activity) error {
	switch out := a.Outgoing(); len(out) {
	case 0:
		e.ending = true
		e.active = false
		return e.perform(opActivityEnd)
	case 1:
		return e.Take(out[0])
	default:
		return fmt.Errorf("activity %q: %w", a.ID(), domain.ErrAmbiguousPassThrough)
	}
}

// restsIn reports whether the behavior left e untouched in a: not moved,
// ended, forked or waiting for a signal or a sub process instance.
func (e *Execution) restsIn(a *domain.Activity, behavior domain.ActivityBehavior) bool {
	if _, waits := behavior.(domain.SignallableActivityBehavior); waits {
		return false
	}
	return !e.ended && !e.ending && e.active && !e.asyncPending &&
		e.activity == a && e.transition == nil && len(e.queue) == 0 &&
		e.subProcessInstance == nil && len(e.liveChildren()) == 0
}

// opActivityEnd fires the end listeners of e.activity and propagates the end.
func opActivityEnd(e *Execution) error {
	a := e.activity
	if err := e.fireActivity(domain.EventEnd, a); err != nil {
		return err
	}
	if e.scopeActivity == a && e.parent != nil {
		parent := e.parent
		e.remove()
		e.markEnded()
		parent.activity = a
		return parent.perform(opActivityEnded)
	}
	return e.perform(opActivityEnded)
}

// opActivityEnded continues after e.activity has fired its end listeners.
func opActivityEnded(e *Execution) error {
	a := e.activity
	parentActivity := a.ParentActivity()
	if parentActivity == nil {
		if e.IsProcessInstance() {
			return e.perform(opProcessEnd)
		}
		return e.endConcurrentBranch()
	}
	if e.concurrent && !e.scope {
		return e.endConcurrentBranch()
	}

	composite, ok := parentActivity.Behavior().(domain.CompositeActivityBehavior)
	if !ok {
		e.activity = parentActivity
		e.ending = true
		e.active = false
		return e.perform(opActivityEnd)
	}
	target := e
	if e.scopeActivity == parentActivity && e.parent != nil {
		target = e.parent
		e.remove()
		e.markEnded()
	}
	target.activity = parentActivity
	target.active = true
	target.ending = false
	return composite.LastExecutionEnded(target)
}

// endConcurrentBranch removes a finished concurrent branch. The last branch
// to finish hands control back to the concurrent root, which then ends too.
func (e *Execution) endConcurrentBranch() error {
	parent := e.parent
	e.remove()
	e.markEnded()
	if parent == nil || len(parent.liveChildren()) > 0 {
		return nil
	}
	parent.forked = false
	parent.concurrent = false
	parent.ending = true
	parent.active = false
	return parent.perform(opActivityEnded)
}

func opProcessEnd(e *Execution) error {
	for _, c := range e.liveChildren() {
		if err := c.DeleteCascade("process instance ended"); err != nil {
			return err
		}
	}
	def := e.definition
	if err := e.fire(domain.EventEnd, def, def.ExecutionListeners(domain.EventEnd)); err != nil {
		return err
	}
	e.markEnded()
	if h := e.cfg.hooks.OnProcessEnd; h != nil {
		h(e)
	}
	return e.completeSuperExecution()
}

// completeSuperExecution hands control back to the execution that started
// this sub process instance.
func (e *Execution) completeSuperExecution() error {
	super := e.superExecution
	if super == nil || super.ended {
		return nil
	}
	b, ok := super.activity.Behavior().(domain.SubProcessActivityBehavior)
	if !ok {
		super.subProcessInstance = nil
		return nil
	}
	if err := b.Completing(super, e); err != nil {
		return err
	}
	super.subProcessInstance = nil
	return b.Completed(super)
}

func opDeleteCascade(e *Execution) error {
	if sub := e.subProcessInstance; sub != nil {
		if err := sub.DeleteCascade(e.deleteReason); err != nil {
			return err
		}
		e.subProcessInstance = nil
	}
	for _, c := range e.liveChildren() {
		if err := c.DeleteCascade(e.deleteReason); err != nil {
			return err
		}
	}
	if a := e.activity; a != nil {
		if !e.forked {
			if err := e.fireActivity(domain.EventEnd, a); err != nil {
				return err
			}
		}
		// Enclosing activities belong to the concurrent root, not to its branches.
		if !e.concurrent || e.scope {
			for p := a.ParentActivity(); p != nil && !p.IsScope(); p = p.ParentActivity() {
				if err := e.fireActivity(domain.EventEnd, p); err != nil {
					return err
				}
			}
		}
	}
	if e.IsProcessInstance() {
		def := e.definition
		if err := e.fire(domain.EventEnd, def, def.ExecutionListeners(domain.EventEnd)); err != nil {
			return err
		}
	}
	e.remove()
	e.markEnded()
	if e.IsProcessInstance() {
		if h := e.cfg.hooks.OnProcessEnd; h != nil {
			h(e)
		}
	}
	return nil
}

// nextScope returns the activity directly under outer on the way down to dest.
func nextScope(outer *domain.Scope, dest *domain.Activity) *domain.Activity {
	cur := dest
	for cur.Parent() != outer {
		parent := cur.ParentActivity()
		if parent == nil {
			break
		}
		cur = parent
	}
	return cur
}
