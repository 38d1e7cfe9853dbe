package domain

// Lifecycle events listeners can subscribe to.
const (
	EventStart = "start"
	EventEnd   = "end"
	// EventTake is the only event fired on transitions.
	EventTake = "take"
)

// ExecutionListener is notified of lifecycle events on scopes, activities
// and transitions. A returned error aborts the running operation.
type ExecutionListener interface {
	Notify(execution ListenerExecution) error
}

// ListenerFunc adapts a plain function to ExecutionListener.
type ListenerFunc func(execution ListenerExecution) error

// Notify calls f(execution).
func (f ListenerFunc) Notify(execution ListenerExecution) error {
	return f(execution)
}

// ListenerExecution exposes the event being dispatched alongside the execution.
type ListenerExecution interface {
	ActivityExecution

	EventName() string
	// EventSource is the activity, definition or transition the event belongs to.
	EventSource() Element
	// Transition is the transition being taken, nil outside of a take.
	Transition() *Transition
}
