package domain

import (
	"errors"
	"fmt"
)

// ErrSnapshotNotFound is returned by snapshot stores when no snapshot exists under a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrUnknownMachine is returned when a machine id is not in the registry.
var ErrUnknownMachine = errors.New("unknown machine")

// ErrMalformedIndex is returned when an index document lacks a machines sequence.
var ErrMalformedIndex = errors.New("malformed machine index")

// ErrNoGraph is returned when a command needs a graph that has not been resolved yet.
var ErrNoGraph = errors.New("machine graph not loaded")

// ErrLookupMiss matches every LookupMissError via errors.Is.
var ErrLookupMiss = errors.New("lookup miss")

// LoadError reports a failure to fetch or decode an index or graph document.
type LoadError struct {
	Op  string // "index" or "graph"
	Ref string // Document reference
	Err error
}

func (e *LoadError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("could not load %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("could not load %s %q: %v", e.Op, e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LookupMissError reports a traversal that referenced a step or symptom absent from the graph.
// The transition that hit it is aborted and the previous state is kept.
type LookupMissError struct {
	Kind string // "step" or "symptom"
	ID   string
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("%s %q referenced but not present in graph", e.Kind, e.ID)
}

func (e *LookupMissError) Is(target error) bool {
	return target == ErrLookupMiss
}
