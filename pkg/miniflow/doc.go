/*
Package miniflow executes a directed graph of named nodes over a shared,
schema-less State, routing from node to node until the run halts.

# Overview

A Graph holds node functions, an edge table mapping each node to a default
successor, and a start node. Run walks the graph one node at a time:

	graph, err := miniflow.NewBuilder().
	    AddNode("extract", extract).
	    AddNode("score", score).
	    AddEdge("extract", "score").
	    Build()
	if err != nil {
	    log.Fatal(err)
	}

	result, err := graph.Run(ctx, miniflow.State{"code": src})
	fmt.Println(result.Halt, result.Log)

If no start node is set, the first node added is used. Edge targets and
the start node are not validated when the graph is built; an unknown name
halts the run with HaltNodeNotFound when it is reached.

# Node Results

A node returns one of three Result shapes:

	miniflow.Continue()             // state was mutated in place
	miniflow.Replace(newState)      // newState replaces the run state
	miniflow.Goto("extract")        // route explicitly
	miniflow.Halt()                 // stop after this step, even if an edge exists
	miniflow.Goto("x").WithState(s) // both

# Routing

After a node runs, the next node is the first of:

  - the node's explicit Goto or Halt
  - a non-empty string the node stored under NextKey ("_next") in the state
  - the edge table entry for the node

If none applies, the run halts with HaltNoSuccessor. NextKey is deleted
from the state after every step and from the final state, so it never
leaks into a later node or into the RunResult.

# Halting

A run halts normally, with a complete RunResult and a nil error, when:

  - no successor resolves (HaltNoSuccessor)
  - the current node name has no function (HaltNodeNotFound)
  - the step limit is reached (HaltMaxSteps, default 1000, see WithMaxSteps)

A node that returns an error or panics aborts the run. Run returns a
*NodeError or *PanicError together with the partial result. The Graph is
unaffected and can be run again.

# Persistence

WithOnStep registers a callback that receives a Snapshot after every step.
The callback is advisory: its errors and panics are logged and counted,
never returned. The runstore package provides stores and a Recorder that
plugs into it.

# Background Runs

Start runs a graph in its own goroutine and returns a Task:

	task := graph.Start(ctx, initial, miniflow.WithOnStep(recorder))
	fmt.Println("started", task.RunID())
	result, err := task.Wait()

# Thread Safety

  - Builder is NOT safe for concurrent use
  - Graph IS safe for concurrent use; every run owns its state and log
  - Step callbacks from one run never overlap; callbacks from different runs may

# Subpackages

  - observability: slog helpers, OTel and Prometheus metrics, OTel tracing
  - runstore: run stores (memory, SQLite, Redis) and the step Recorder
  - catalog: named node functions and preset workflows
  - graphspec: JSON/YAML graph specifications resolved against a catalog
  - tools: named helper tools callable from nodes
  - config: map-backed configuration with YAML/JSON loading
  - registry: generic concurrent registry
  - workflows/codereview: the code_review sample workflow
*/
package miniflow
