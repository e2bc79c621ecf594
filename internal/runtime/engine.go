// Package runtime implements the traversal state machine that walks a machine graph.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/techninja/techninja/internal/logging"
	"github.com/techninja/techninja/pkg/domain"
)

// CommitFunc receives the new state after every committed transition.
type CommitFunc func(ctx context.Context, state domain.TraversalState)

// Engine owns the traversal state of one session.
// It is not safe for concurrent use; callers serialize commands.
type Engine struct {
	state domain.TraversalState
	graph *domain.MachineGraph

	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	onCommit CommitFunc
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for lookup misses and transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers transition observers.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithCommitHandler registers the persistence callback run after each committed transition.
func WithCommitHandler(fn CommitFunc) Option {
	return func(e *Engine) {
		e.onCommit = fn
	}
}

// WithClock overrides the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine in the Idle phase.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns a copy of the current traversal state.
func (e *Engine) State() domain.TraversalState {
	return e.state.Clone()
}

// Graph returns the graph bound to the selected machine, or nil.
func (e *Engine) Graph() *domain.MachineGraph {
	return e.graph
}

// SelectMachine moves to MachineSelected for machineID, resetting symptom, step and history.
// The graph stays bound only when the same machine is selected again.
func (e *Engine) SelectMachine(ctx context.Context, machineID string) {
	if machineID != e.state.MachineID {
		e.graph = nil
	}
	e.commit(ctx, domain.TransitionSelectMachine, domain.TraversalState{MachineID: machineID})
}

// AttachGraph binds a resolved graph to the selected machine.
// It reports false, and changes nothing, when machineID is no longer the selected machine.
func (e *Engine) AttachGraph(machineID string, graph *domain.MachineGraph) bool {
	if machineID == "" || machineID != e.state.MachineID {
		return false
	}
	e.graph = graph
	return true
}

// StartSymptom enters the start step of a symptom with an empty history.
// An unknown symptom is a no-op; a start step missing from the graph is a lookup miss.
func (e *Engine) StartSymptom(ctx context.Context, symptomID string) error {
	return e.startSymptom(ctx, domain.TransitionStartSymptom, symptomID)
}

func (e *Engine) startSymptom(ctx context.Context, kind domain.TransitionKind, symptomID string) error {
	if e.state.MachineID == "" {
		return nil
	}
	if e.graph == nil {
		return domain.ErrNoGraph
	}
	symptom, ok := e.graph.Symptom(symptomID)
	if !ok {
		e.logger.Debug("ignoring unknown symptom", "machine", e.state.MachineID, "symptom", symptomID)
		return nil
	}
	if !e.graph.HasStep(symptom.Start) {
		return e.miss(ctx, "step", symptom.Start)
	}

	e.commit(ctx, kind, domain.TraversalState{
		MachineID:     e.state.MachineID,
		SymptomID:     symptom.ID,
		CurrentStepID: symptom.Start,
	})
	return nil
}

// Advance moves to nextStepID, pushing the current step onto the history.
// An empty nextStepID, or a call outside InStep, is a no-op.
func (e *Engine) Advance(ctx context.Context, nextStepID string) error {
	if nextStepID == "" || e.state.Phase() != domain.PhaseInStep {
		return nil
	}
	if !e.graph.HasStep(nextStepID) {
		return e.miss(ctx, "step", nextStepID)
	}

	next := e.state.Clone()
	next.History = append(next.History, e.state.CurrentStepID)
	next.CurrentStepID = nextStepID
	e.commit(ctx, domain.TransitionAdvance, next)
	return nil
}

// Retreat returns to the most recent history entry. With an empty history it is a no-op.
func (e *Engine) Retreat(ctx context.Context) {
	if len(e.state.History) == 0 {
		return
	}
	next := e.state.Clone()
	last := len(next.History) - 1
	next.CurrentStepID = next.History[last]
	next.History = next.History[:last]
	e.commit(ctx, domain.TransitionRetreat, next)
}

// RestartSymptom re-enters the active symptom at its start step.
func (e *Engine) RestartSymptom(ctx context.Context) error {
	if e.state.SymptomID == "" {
		return nil
	}
	return e.startSymptom(ctx, domain.TransitionRestart, e.state.SymptomID)
}

// ExitToSymptomList leaves the active symptom and returns to MachineSelected.
func (e *Engine) ExitToSymptomList(ctx context.Context) {
	if e.state.Phase() != domain.PhaseInStep {
		return
	}
	e.commit(ctx, domain.TransitionExit, domain.TraversalState{MachineID: e.state.MachineID})
}

// Restore installs a reconciled state and its graph.
// Observers are notified; the commit handler is not called.
func (e *Engine) Restore(ctx context.Context, state domain.TraversalState, graph *domain.MachineGraph) {
	from := e.state
	e.state = state.Clone()
	e.graph = graph
	e.notify(ctx, domain.TransitionRestore, from)
}

func (e *Engine) commit(ctx context.Context, kind domain.TransitionKind, next domain.TraversalState) {
	if next.Equal(e.state) {
		return
	}
	from := e.state
	e.state = next
	e.notify(ctx, kind, from)

	if e.onCommit != nil {
		e.onCommit(ctx, e.state.Clone())
	}
}

func (e *Engine) notify(ctx context.Context, kind domain.TransitionKind, from domain.TraversalState) {
	event := &domain.TransitionEvent{
		Timestamp: e.now(),
		Kind:      kind,
		From:      from,
		To:        e.state.Clone(),
		Terminal:  e.IsTerminal(),
	}
	e.logger.Debug("transition",
		"kind", kind,
		"machine", e.state.MachineID,
		"symptom", e.state.SymptomID,
		"step", e.state.CurrentStepID,
		"depth", len(e.state.History),
	)
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, event)
	}
}

func (e *Engine) miss(ctx context.Context, kind, id string) error {
	err := &domain.LookupMissError{Kind: kind, ID: id}
	e.logger.Error("step referenced but absent from graph",
		"machine", e.state.MachineID,
		"symptom", e.state.SymptomID,
		"from", e.state.CurrentStepID,
		"missing", id,
	)
	if e.hooks.OnLookupMiss != nil {
		e.hooks.OnLookupMiss(ctx, err)
	}
	return err
}
