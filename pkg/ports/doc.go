/*
Package ports defines the driven ports (interfaces) of the wizard.

These interfaces decouple the core logic from external implementations, allowing
the wizard to read machine documents from various places and to persist sessions
in various backends.

# Key Interfaces

  - GraphSource: loads the machine index and per-machine graph documents.
  - SnapshotStore: persists, loads and deletes session snapshots.
  - Navigator: the command and view surface that front-ends drive.
*/
package ports
