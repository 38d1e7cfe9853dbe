// Package runtime moves executions through a process definition.
//
// An Execution is a token with a current activity, a variable store and a
// tree of child executions. Scope activities get an execution of their own,
// concurrent branches are siblings under a common concurrent root.
//
// Every movement is broken into small operations (notify take, leave,
// enter, execute, end) queued on the execution that performs them. Listener
// events fire in a fixed order when a transition is taken: the take listeners
// of the transition, the end listeners of every activity left (innermost
// first), the start listeners of every activity entered (outermost first) and
// finally the behavior of the destination.
//
// Trees are not safe for concurrent use; see pkg/instance for a host that
// serializes access and persists snapshots between calls.
package runtime
