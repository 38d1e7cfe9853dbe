package runtime

import (
	"fmt"

	"github.com/aretw0/pvm/pkg/domain"
)

// Hooks observe an execution tree from the outside. Every field is optional.
// Hooks run after the listeners of the same event and cannot fail.
type Hooks struct {
	OnActivityStart  func(e *Execution, a *domain.Activity)
	OnActivityEnd    func(e *Execution, a *domain.Activity)
	OnTransitionTake func(e *Execution, t *domain.Transition)
	OnAsyncScheduled func(e *Execution, a *domain.Activity)
	OnProcessEnd     func(e *Execution)
}

// AsyncScheduler receives executions parked on async activities. The
// scheduler later calls ContinueAsync, usually from another job.
type AsyncScheduler interface {
	ScheduleAsync(e *Execution)
}

// AsyncSchedulerFunc adapts a function to AsyncScheduler.
type AsyncSchedulerFunc func(e *Execution)

// ScheduleAsync calls f(e).
func (f AsyncSchedulerFunc) ScheduleAsync(e *Execution) {
	f(e)
}

type config struct {
	id        string
	hooks     Hooks
	scheduler AsyncScheduler
	resolver  func(id string) (*domain.ProcessDefinition, error)
}

func (c *config) resolveDefinition(current *domain.ProcessDefinition, id string) (*domain.ProcessDefinition, error) {
	if c.resolver != nil {
		return c.resolver(id)
	}
	if id == current.ID() {
		return current, nil
	}
	return nil, fmt.Errorf("restore sub process instance of %q: %w", id, domain.ErrDefinitionNotFound)
}

// Option configures a process instance.
type Option func(*config)

// WithID sets the process instance id instead of generating one.
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithHooks registers observability hooks for the whole execution tree.
func WithHooks(h Hooks) Option {
	return func(c *config) {
		c.hooks = h
	}
}

// WithAsyncScheduler hands async activities to s instead of running them inline.
func WithAsyncScheduler(s AsyncScheduler) Option {
	return func(c *config) {
		c.scheduler = s
	}
}

// WithDefinitionResolver looks up the definitions of sub process instances
// found in a snapshot.
func WithDefinitionResolver(resolve func(id string) (*domain.ProcessDefinition, error)) Option {
	return func(c *config) {
		c.resolver = resolve
	}
}
