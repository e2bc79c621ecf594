/*
Package domain contains the core domain models of the troubleshooting wizard.

It defines the machine catalogue, the per-machine step graph, the traversal state
owned by the engine and the persisted session snapshot. The package is pure: it has
no I/O and no dependencies beyond the standard library.

# Key Entities

  - Machine: an appliance model with a lazy reference to its step graph.
  - MachineGraph: the symptoms (entry points) and steps of one machine.
  - Step: either a Decision (options to choose from) or a Result (terminal diagnosis).
  - TraversalState: the current machine, symptom, step and the path taken so far.
  - Snapshot: the versioned, persisted copy of a TraversalState.
  - View: the read-only projection handed to rendering front-ends.
*/
package domain
