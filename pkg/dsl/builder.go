package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/pvm/pkg/domain"
)

// ProcessDefinitionBuilder assembles a ProcessDefinition from a sequence of
// fluent calls. Transitions may point at activities declared later; they are
// linked when Build runs.
//
// The first misuse is recorded and every later call becomes a no-op; Build
// then returns that error. A builder is single-use.
type ProcessDefinitionBuilder struct {
	definition *domain.ProcessDefinition
	stack      []frame
	transition *domain.Transition
	pending    []pendingTransition

	err   error
	built bool
}

// New creates a builder for a definition with the given id. An empty id is
// replaced by a generated one.
func New(id string) *ProcessDefinitionBuilder {
	def := domain.NewProcessDefinition(id)
	return &ProcessDefinitionBuilder{
		definition: def,
		stack: []frame{{
			kind:       frameDefinition,
			scope:      &def.Scope,
			definition: def,
		}},
	}
}

func (b *ProcessDefinitionBuilder) fail(err error) *ProcessDefinitionBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// usable reports whether the builder may still be mutated.
func (b *ProcessDefinitionBuilder) usable() bool {
	if b.err != nil {
		return false
	}
	if b.built {
		b.err = errFinished()
		return false
	}
	return true
}

func (b *ProcessDefinitionBuilder) top() frame {
	return b.stack[len(b.stack)-1]
}

func (b *ProcessDefinitionBuilder) current() selection {
	return selection{frame: b.top(), transition: b.transition}
}

// topActivity returns the activity on top of the stack or records a usage error.
func (b *ProcessDefinitionBuilder) topActivity(op string) *domain.Activity {
	top := b.top()
	if top.kind != frameActivity {
		b.fail(fmt.Errorf("%s: %w", op, domain.ErrNoActivity))
		return nil
	}
	return top.activity
}

// Name sets the definition's display name.
func (b *ProcessDefinitionBuilder) Name(name string) *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	b.definition.SetName(name)
	return b
}

// CreateActivity adds an activity to the scope on top of the stack and makes
// it the new top.
func (b *ProcessDefinitionBuilder) CreateActivity(id string) *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	a, err := b.top().scope.CreateActivity(id)
	if err != nil {
		return b.fail(fmt.Errorf("createActivity: %w", err))
	}
	b.stack = append(b.stack, frame{
		kind:     frameActivity,
		scope:    &a.Scope,
		activity: a,
	})
	b.transition = nil
	return b
}

// EndActivity pops the current activity.
func (b *ProcessDefinitionBuilder) EndActivity() *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	if len(b.stack) <= 1 {
		return b.fail(fmt.Errorf("endActivity: %w", domain.ErrEmptyStack))
	}
	b.stack = b.stack[:len(b.stack)-1]
	b.transition = nil
	return b
}

// Initial marks the current activity as the definition's start activity.
func (b *ProcessDefinitionBuilder) Initial() *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	if a := b.topActivity("initial"); a != nil {
		b.definition.SetInitial(a)
	}
	return b
}

// StartTransition opens a transition from the current activity to the
// activity with destinationID. The optional transitionID names the transition.
// Until EndTransition, Property and TransitionListener apply to it.
func (b *ProcessDefinitionBuilder) StartTransition(destinationID string, transitionID ...string) *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	if destinationID == "" {
		return b.fail(fmt.Errorf("startTransition: %w: empty destination id", domain.ErrInvalidID))
	}
	if b.transition != nil {
		return b.fail(fmt.Errorf("startTransition: %w", domain.ErrTransitionOpen))
	}
	source := b.topActivity("startTransition")
	if source == nil {
		return b
	}
	var id string
	if len(transitionID) > 0 {
		id = transitionID[0]
	}
	t := source.CreateOutgoingTransition(id)
	b.pending = append(b.pending, pendingTransition{transition: t, destinationID: destinationID})
	b.transition = t
	return b
}

// EndTransition closes the current transition.
func (b *ProcessDefinitionBuilder) EndTransition() *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	if b.transition == nil {
		return b.fail(fmt.Errorf("endTransition: %w", domain.ErrNoTransition))
	}
	b.transition = nil
	return b
}

// Transition adds a complete transition from the current activity.
func (b *ProcessDefinitionBuilder) Transition(destinationID string, transitionID ...string) *ProcessDefinitionBuilder {
	return b.StartTransition(destinationID, transitionID...).EndTransition()
}

// Behavior attaches the behavior of the current activity.
func (b *ProcessDefinitionBuilder) Behavior(behavior domain.ActivityBehavior) *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	if a := b.topActivity("behavior"); a != nil {
		a.SetBehavior(behavior)
	}
	return b
}

// Property sets a property on the current transition, or on the activity or
// definition on top of the stack when no transition is open.
func (b *ProcessDefinitionBuilder) Property(name string, value any) *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	b.current().element().SetProperty(name, value)
	return b
}

// Scope marks the current activity as a structural scope.
func (b *ProcessDefinitionBuilder) Scope() *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	if a := b.topActivity("scope"); a != nil {
		a.SetScope(true)
	}
	return b
}

// Async marks the current activity for asynchronous continuation.
func (b *ProcessDefinitionBuilder) Async() *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	if a := b.topActivity("async"); a != nil {
		a.SetAsync(true)
	}
	return b
}

// Exclusive marks the current activity's async continuations as exclusive.
func (b *ProcessDefinitionBuilder) Exclusive() *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	if a := b.topActivity("exclusive"); a != nil {
		a.SetExclusive(true)
	}
	return b
}

// TransitionListener adds a take listener to the current transition. It is
// only valid between StartTransition and EndTransition.
func (b *ProcessDefinitionBuilder) TransitionListener(l domain.ExecutionListener) *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	sel := b.current()
	if !sel.isTransition() {
		return b.fail(fmt.Errorf("executionListener: %w", domain.ErrNoTransition))
	}
	sel.transition.AddExecutionListener(l)
	return b
}

// ExecutionListener adds a listener for the event to the activity or
// definition on top of the stack. It is invalid while a transition is open.
func (b *ProcessDefinitionBuilder) ExecutionListener(event string, l domain.ExecutionListener) *ProcessDefinitionBuilder {
	if !b.usable() {
		return b
	}
	sel := b.current()
	if sel.isTransition() {
		return b.fail(fmt.Errorf("executionListener(%s): %w", event, domain.ErrTransitionOpen))
	}
	sel.scope.AddExecutionListener(event, l)
	return b
}

// Current returns the element Property calls apply to right now.
func (b *ProcessDefinitionBuilder) Current() domain.Element {
	return b.current().element()
}

// Err returns the first usage error recorded so far.
func (b *ProcessDefinitionBuilder) Err() error {
	return b.err
}

// Build links every pending transition to its destination and returns the
// finished definition. It fails on the first recorded usage error or on any
// destination that cannot be found.
func (b *ProcessDefinitionBuilder) Build() (*domain.ProcessDefinition, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, errFinished()
	}
	b.built = true

	destinations := make([]*domain.Activity, len(b.pending))
	var errs []error
	for i, p := range b.pending {
		dest := b.definition.FindActivity(p.destinationID)
		if dest == nil {
			errs = append(errs, fmt.Errorf("%w: %q (transition from %q)",
				domain.ErrDestinationNotFound, p.destinationID, p.transition.Source().ID()))
			continue
		}
		destinations[i] = dest
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	for i, p := range b.pending {
		p.transition.SetDestination(destinations[i])
	}
	b.pending = nil
	b.stack = b.stack[:1]
	b.transition = nil
	return b.definition, nil
}

// MustBuild is like Build but panics on error.
func (b *ProcessDefinitionBuilder) MustBuild() *domain.ProcessDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

func errFinished() error {
	return fmt.Errorf("build: %w", domain.ErrBuilderFinished)
}
