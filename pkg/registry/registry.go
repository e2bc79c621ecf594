// Package registry loads the machine catalogue and resolves machine graphs on demand.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/techninja/techninja/internal/logging"
	"github.com/techninja/techninja/internal/validator"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// Registry manages the available machines and their resolved graphs.
// A graph is fetched at most once per machine for the lifetime of the registry;
// concurrent resolutions of the same machine share one fetch and failures are retried.
type Registry struct {
	source ports.GraphSource
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	mu       sync.RWMutex
	machines []domain.Machine
	byID     map[string]domain.Machine
	graphs   map[string]*domain.MachineGraph
	warnings map[string][]domain.Warning

	group singleflight.Group
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for load failures and integrity warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observers for graph resolution.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// New creates an empty registry over source. Call LoadIndex to populate it.
func New(source ports.GraphSource, opts ...Option) *Registry {
	r := &Registry{
		source:   source,
		logger:   logging.NewNop(),
		byID:     make(map[string]domain.Machine),
		graphs:   make(map[string]*domain.MachineGraph),
		warnings: make(map[string][]domain.Warning),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadIndex fetches the machine catalogue.
//
// When the index cannot be fetched or decoded the registry falls back to the
// built-in default machine. The machines returned are always usable; a non-nil
// *domain.LoadError tells the caller a fallback happened.
func (r *Registry) LoadIndex(ctx context.Context) ([]domain.Machine, error) {
	var loadErr error

	index, err := r.source.LoadIndex(ctx)
	if err != nil {
		loadErr = &domain.LoadError{Op: "index", Err: err}
		r.logger.Warn("machine index unavailable, using built-in machine", "err", err)
		index = &domain.Index{Machines: []domain.Machine{domain.FallbackMachine()}}
	}

	for _, w := range validator.ValidateIndex(index) {
		r.logger.Warn("machine index integrity", "kind", w.Kind, "msg", w.Message)
	}

	machines := make([]domain.Machine, 0, len(index.Machines))
	byID := make(map[string]domain.Machine, len(index.Machines))
	for _, m := range index.Machines {
		if m.ID == "" {
			continue
		}
		if _, dup := byID[m.ID]; dup {
			r.logger.Warn("duplicate machine id in index, keeping first", "machine", m.ID)
			continue
		}
		byID[m.ID] = m
		machines = append(machines, m)
	}

	r.mu.Lock()
	for id := range r.graphs {
		prev, kept := r.byID[id]
		next, ok := byID[id]
		if !ok || !kept || prev.ConfigRef != next.ConfigRef {
			delete(r.graphs, id)
			delete(r.warnings, id)
		}
	}
	r.machines = machines
	r.byID = byID
	r.mu.Unlock()

	r.logger.Debug("machine index loaded", "machines", len(machines), "fallback", loadErr != nil)
	return append([]domain.Machine(nil), machines...), loadErr
}

// Machines returns the machines of the last loaded index, in index order.
func (r *Registry) Machines() []domain.Machine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Machine(nil), r.machines...)
}

// Lookup returns the machine with the given id.
func (r *Registry) Lookup(id string) (domain.Machine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	return m, ok
}

// Cached returns the resolved graph of a machine without fetching.
func (r *Registry) Cached(id string) (*domain.MachineGraph, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[id]
	return g, ok
}

// Warnings returns the integrity warnings found when the machine's graph was resolved.
func (r *Registry) Warnings(id string) []domain.Warning {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Warning(nil), r.warnings[id]...)
}

// ResolveGraph returns the graph of a machine, fetching, validating and caching it on first use.
// Unknown machines yield domain.ErrUnknownMachine; fetch or decode failures yield a *domain.LoadError.
func (r *Registry) ResolveGraph(ctx context.Context, id string) (*domain.MachineGraph, error) {
	m, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMachine, id)
	}
	if g, ok := r.Cached(id); ok {
		return g, nil
	}

	v, err, shared := r.group.Do(id, func() (any, error) {
		// Another flight may have finished between the cache check and Do.
		if g, ok := r.Cached(id); ok {
			return g, nil
		}
		return r.fetch(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("graph fetch coalesced", "machine", id)
	}
	return v.(*domain.MachineGraph), nil
}

func (r *Registry) fetch(ctx context.Context, m domain.Machine) (*domain.MachineGraph, error) {
	start := time.Now()

	var graph *domain.MachineGraph
	err := errors.New("machine has no config reference")
	if m.ConfigRef != "" {
		graph, err = r.source.LoadGraph(ctx, m.ConfigRef)
	}
	if err != nil {
		loadErr := &domain.LoadError{Op: "graph", Ref: m.ConfigRef, Err: err}
		r.logger.Error("could not load machine data", "machine", m.ID, "err", err)
		r.emit(ctx, &domain.GraphEvent{Timestamp: time.Now(), MachineID: m.ID, Err: loadErr})
		return nil, loadErr
	}

	warnings := validator.Validate(graph)
	for _, w := range warnings {
		r.logger.Warn("graph integrity", "machine", m.ID, "kind", w.Kind, "msg", w.Message)
	}

	r.mu.Lock()
	// The index may have been reloaded with a different reference meanwhile.
	if cur, ok := r.byID[m.ID]; ok && cur.ConfigRef == m.ConfigRef {
		r.graphs[m.ID] = graph
		r.warnings[m.ID] = warnings
	}
	r.mu.Unlock()

	r.logger.Debug("graph resolved",
		"machine", m.ID,
		"symptoms", len(graph.Symptoms),
		"steps", len(graph.Steps),
		"warnings", len(warnings),
		"duration", time.Since(start),
	)
	r.emit(ctx, &domain.GraphEvent{Timestamp: time.Now(), MachineID: m.ID, Warnings: warnings})
	return graph, nil
}

func (r *Registry) emit(ctx context.Context, e *domain.GraphEvent) {
	if r.hooks.OnGraphLoaded != nil {
		r.hooks.OnGraphLoaded(ctx, e)
	}
}
