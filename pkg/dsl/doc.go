/*
Package dsl provides a fluent builder for process definitions.

Calls are recorded on an explicit construction stack: CreateActivity pushes a
new activity under the element on top, EndActivity pops it. Transitions may
name activities declared later in the sequence; Build links them in a second
pass and fails if any destination is missing.

Example usage:

	def, err := dsl.New("order").
		CreateActivity("receive").Initial().
			Behavior(behavior.WaitState{}).
			Transition("ship", "ok").
		EndActivity().
		CreateActivity("ship").
			Behavior(behavior.Automatic{}).
		EndActivity().
		Build()

Misuse (EndActivity on an empty stack, a transition listener with no open
transition, a duplicate activity id) is recorded on the first offending call
and returned by Build. Use Err to inspect it earlier.
*/
package dsl
