/*
Package domain holds the graph model of the process virtual machine.

A ProcessDefinition is the root Scope of a tree of Activities. Activities
own a nested Scope of their own and are connected by Transitions. The model is
assembled once (usually through pkg/dsl) and is read-only afterwards, so a
single definition can back any number of concurrently running executions.

# Key Entities

  - ProcessDefinition: root scope with the designated initial activity.
  - Scope: activities, properties and execution listeners per event.
  - Activity: graph node with behavior, async/exclusive flags and the scope flag.
  - Transition: directed edge with take listeners.

The package also declares the delegate contracts (ActivityBehavior,
ExecutionListener) and the ActivityExecution view they receive, keeping the
runtime implementation out of the model.
*/
package domain
