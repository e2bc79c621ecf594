/*
Package session persists traversal state and rebuilds it on startup.

A Store writes one versioned snapshot under a fixed key of a ports.SnapshotStore.
Persistence is best-effort: Save reports failures but callers keep going with
the in-memory state. Load treats anything it cannot use (absent, unreadable,
foreign schema version) as "no session". Reconcile checks a loaded snapshot
against the current machine catalogue and produces the closest valid state.
*/
package session
