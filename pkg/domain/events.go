package domain

import (
	"context"
	"time"
)

// TransitionKind names the command that changed the traversal state.
type TransitionKind string

const (
	TransitionSelectMachine TransitionKind = "select_machine"
	TransitionStartSymptom  TransitionKind = "start_symptom"
	TransitionAdvance       TransitionKind = "advance"
	TransitionRetreat       TransitionKind = "retreat"
	TransitionRestart       TransitionKind = "restart_symptom"
	TransitionExit          TransitionKind = "exit_to_symptoms"
	TransitionRestore       TransitionKind = "restore"
)

// TransitionEvent describes one committed state change.
type TransitionEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      TransitionKind `json:"kind"`
	From      TraversalState `json:"from"`
	To        TraversalState `json:"to"`
	Terminal  bool           `json:"terminal"`
}

// GraphEvent describes the outcome of resolving a machine graph.
type GraphEvent struct {
	Timestamp time.Time `json:"timestamp"`
	MachineID string    `json:"machine_id"`
	Warnings  []Warning `json:"warnings,omitempty"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for wizard observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnTransition  func(context.Context, *TransitionEvent)
	OnLookupMiss  func(context.Context, *LookupMissError)
	OnGraphLoaded func(context.Context, *GraphEvent)
}

// Merge returns hooks that call h first and then o.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: func(ctx context.Context, e *TransitionEvent) {
			if h.OnTransition != nil {
				h.OnTransition(ctx, e)
			}
			if o.OnTransition != nil {
				o.OnTransition(ctx, e)
			}
		},
		OnLookupMiss: func(ctx context.Context, e *LookupMissError) {
			if h.OnLookupMiss != nil {
				h.OnLookupMiss(ctx, e)
			}
			if o.OnLookupMiss != nil {
				o.OnLookupMiss(ctx, e)
			}
		},
		OnGraphLoaded: func(ctx context.Context, e *GraphEvent) {
			if h.OnGraphLoaded != nil {
				h.OnGraphLoaded(ctx, e)
			}
			if o.OnGraphLoaded != nil {
				o.OnGraphLoaded(ctx, e)
			}
		},
	}
}
