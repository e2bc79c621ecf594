package techninja

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/techninja/techninja/internal/logging"
	"github.com/techninja/techninja/internal/runtime"
	"github.com/techninja/techninja/pkg/adapters/memory"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/ports"
	"github.com/techninja/techninja/pkg/registry"
	"github.com/techninja/techninja/pkg/session"
)

// Wizard is the high-level entry point of the library.
// It composes the machine registry, the traversal engine and the session store,
// and serializes commands so front-ends may call it from any goroutine.
type Wizard struct {
	mu sync.Mutex

	registry *registry.Registry
	engine   *runtime.Engine
	session  *session.Store

	store      ports.SnapshotStore
	sessionKey string
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time

	// generation increases with every machine selection; a graph fetch
	// started under an older generation is discarded when it returns.
	generation uint64
	indexErr   error
	graphErr   error
}

var _ ports.Navigator = (*Wizard)(nil)

// Option defines a functional option for configuring the Wizard.
type Option func(*Wizard)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger
	}
}

// WithSnapshotStore sets the session backend. The default keeps the session in memory.
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(w *Wizard) {
		w.store = store
	}
}

// WithSessionKey overrides the key the session snapshot is stored under.
func WithSessionKey(key string) Option {
	return func(w *Wizard) {
		w.sessionKey = key
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Wizard) {
		w.hooks = hooks
	}
}

// WithClock overrides the time source used for snapshots and events.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		w.now = now
	}
}

// New creates a Wizard reading machine documents from source.
// Call Boot before issuing commands.
func New(source ports.GraphSource, opts ...Option) (*Wizard, error) {
	if source == nil {
		return nil, fmt.Errorf("graph source is required")
	}

	w := &Wizard{
		sessionKey: domain.DefaultSessionKey,
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.store == nil {
		w.store = memory.NewStore()
	}

	w.registry = registry.New(source,
		registry.WithLogger(w.logger),
		registry.WithLifecycleHooks(w.hooks),
	)
	w.session = session.NewStore(w.store,
		session.WithKey(w.sessionKey),
		session.WithLogger(w.logger),
		session.WithClock(w.now),
	)
	w.engine = runtime.NewEngine(
		runtime.WithLogger(w.logger),
		runtime.WithLifecycleHooks(w.hooks),
		runtime.WithClock(w.now),
		runtime.WithCommitHandler(w.persist),
	)
	return w, nil
}

// persist is the engine commit handler. Persistence is best-effort.
func (w *Wizard) persist(ctx context.Context, state domain.TraversalState) {
	_ = w.session.Save(ctx, state)
}

// Boot loads the machine index, resumes the stored session when it still makes
// sense, and otherwise auto-selects the only machine if there is exactly one.
//
// Load failures are not returned: the wizard stays usable and reports them
// through IndexError and GraphError. Boot only fails when ctx is done.
func (w *Wizard) Boot(ctx context.Context) error {
	machines, err := w.registry.LoadIndex(ctx)
	w.mu.Lock()
	w.indexErr = err
	w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if w.resume(ctx) {
		return nil
	}

	if len(machines) == 1 {
		w.logger.Info("auto-selecting the only machine", "machine", machines[0].ID)
		if err := w.SelectMachine(ctx, machines[0].ID); err != nil {
			w.logger.Warn("auto-selected machine has no usable data", "machine", machines[0].ID, "err", err)
		}
	}
	return ctx.Err()
}

func (w *Wizard) resume(ctx context.Context) bool {
	snap, ok := w.session.Load(ctx)
	if !ok {
		return false
	}

	state, graph, ok := w.session.Reconcile(ctx, snap, w.registry)
	if !ok {
		_ = w.session.Clear(ctx)
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.generation++
	w.graphErr = nil
	if graph == nil {
		w.graphErr = domain.ErrNoGraph
	}
	w.engine.Restore(ctx, *state, graph)

	// Store what was actually restored so a stale snapshot is not reconciled twice.
	if !state.Equal(snap.State()) {
		w.persist(ctx, *state)
	}
	w.logger.Info("session resumed",
		"machine", state.MachineID,
		"symptom", state.SymptomID,
		"step", state.CurrentStepID,
		"saved_at", snap.SavedAt(),
	)
	return true
}

// Machines returns the machines of the loaded index.
func (w *Wizard) Machines() []domain.Machine {
	return w.registry.Machines()
}

// Warnings returns the integrity warnings of a resolved machine graph.
func (w *Wizard) Warnings(machineID string) []domain.Warning {
	return w.registry.Warnings(machineID)
}

// SelectMachine activates a machine and resolves its graph.
// The selection is committed before the fetch; if another selection happens
// while the fetch is in flight, this fetch's outcome is ignored.
func (w *Wizard) SelectMachine(ctx context.Context, machineID string) error {
	if _, ok := w.registry.Lookup(machineID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownMachine, machineID)
	}

	w.mu.Lock()
	w.generation++
	gen := w.generation
	w.graphErr = nil
	w.engine.SelectMachine(ctx, machineID)
	bound := w.engine.Graph() != nil
	w.mu.Unlock()

	if bound {
		return nil
	}

	graph, err := w.registry.ResolveGraph(ctx, machineID)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		w.logger.Debug("discarding superseded graph fetch", "machine", machineID)
		return nil
	}
	if err != nil {
		w.graphErr = err
		return err
	}
	w.engine.AttachGraph(machineID, graph)
	return nil
}

// StartSymptom begins the given symptom at its start step.
func (w *Wizard) StartSymptom(ctx context.Context, symptomID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.StartSymptom(ctx, symptomID)
}

// Advance moves to nextStepID.
func (w *Wizard) Advance(ctx context.Context, nextStepID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.Advance(ctx, nextStepID)
}

// Choose advances along the option at index (0-based) of the current view.
func (w *Wizard) Choose(ctx context.Context, index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	options := w.engine.View().Options
	if index < 0 || index >= len(options) {
		return fmt.Errorf("option %d out of range (%d available)", index+1, len(options))
	}
	return w.engine.Advance(ctx, options[index].Next)
}

// Retreat goes back one step.
func (w *Wizard) Retreat(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.Retreat(ctx)
	return nil
}

// RestartSymptom returns to the start of the active symptom.
func (w *Wizard) RestartSymptom(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.RestartSymptom(ctx)
}

// ExitToSymptomList leaves the active symptom.
func (w *Wizard) ExitToSymptomList(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.ExitToSymptomList(ctx)
	return nil
}

// ClearSession deletes the stored snapshot. The in-memory traversal is kept.
func (w *Wizard) ClearSession(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.Clear(ctx)
}

// SavedSession returns the stored snapshot, if a usable one exists.
func (w *Wizard) SavedSession(ctx context.Context) (*domain.Snapshot, bool) {
	return w.session.Load(ctx)
}

// View returns the read-only projection of the current state.
func (w *Wizard) View() domain.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.View()
}

// IsTerminal reports whether the current step is a Result.
func (w *Wizard) IsTerminal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.IsTerminal()
}

// State returns a copy of the current traversal state.
func (w *Wizard) State() domain.TraversalState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.State()
}

// Graph returns the graph of the selected machine, or nil.
func (w *Wizard) Graph() *domain.MachineGraph {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.Graph()
}

// IndexError returns the error that forced the built-in machine list, if any.
func (w *Wizard) IndexError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.indexErr
}

// GraphError returns why the selected machine has no graph, if it has none.
func (w *Wizard) GraphError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graphErr
}
