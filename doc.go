/*
Package pvm is a process virtual machine: a small engine that executes
graph-shaped processes of activities and transitions.

The engine knows nothing about any particular workflow notation. Activities
delegate what they do to behaviors, and listeners observe every movement of
an execution. Behaviors such as wait states, gateways or embedded sub
processes are ordinary Go values (see pkg/behavior), so higher-level notations
can be built on top.

# Concepts

  - Definitions are built with the fluent builder of pkg/dsl or compiled from
    YAML documents. Activities may nest, and scope activities get their own
    variables.
  - Executions (pkg/runtime) move through a definition. Concurrent branches
    and scopes form a tree under the process instance.
  - The instance manager (pkg/instance) persists snapshots between calls,
    serializes access per instance and runs async continuations.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/pvm"
	)

	func main() {
		// Compiles every *.yaml process document of ./processes.
		eng, err := pvm.New("./processes")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		st, err := eng.Start(ctx, "order", map[string]any{"customer": "acme"})
		if err != nil {
			log.Fatal(err)
		}

		// Move the single waiting execution forward.
		st, err = eng.Signal(ctx, st.ID, "", "", nil)
		if err != nil {
			log.Fatal(err)
		}
		log.Println("waiting in", st.ActiveActivities)
	}
*/
package pvm
