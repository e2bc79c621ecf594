package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/techninja/techninja/internal/logging"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/ports"
)

// Resolver is the part of the machine registry that reconciliation needs.
type Resolver interface {
	Lookup(machineID string) (domain.Machine, bool)
	ResolveGraph(ctx context.Context, machineID string) (*domain.MachineGraph, error)
}

// Store saves and restores the session snapshot.
type Store struct {
	backend ports.SnapshotStore
	key     string
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store over backend using domain.DefaultSessionKey.
func NewStore(backend ports.SnapshotStore, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     domain.DefaultSessionKey,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Save writes a snapshot of state. The error is informational; the session continues without it.
func (s *Store) Save(ctx context.Context, state domain.TraversalState) error {
	if err := s.backend.Save(ctx, s.key, domain.NewSnapshot(state, s.now())); err != nil {
		s.logger.Warn("session not persisted", "key", s.key, "err", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the stored snapshot when it is present, readable and of the current schema version.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, bool) {
	snap, err := s.backend.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.Warn("discarding unreadable session", "key", s.key, "err", err)
		}
		return nil, false
	}
	if snap == nil || snap.Version != domain.SchemaVersion {
		version := 0
		if snap != nil {
			version = snap.Version
		}
		s.logger.Info("discarding session with foreign schema version", "key", s.key, "version", version)
		return nil, false
	}
	return snap, true
}

// Clear deletes the stored snapshot. Clearing an absent session succeeds.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Reconcile rebuilds a valid traversal state from snap.
//
// It reports false when nothing can be resumed, i.e. the snapshot names no machine
// or a machine the registry no longer lists. Otherwise it degrades step by step:
// a graph that fails to load or a vanished symptom yields the machine-only state;
// a missing or stale step restarts the symptom with an empty history; history
// entries that are no longer in the graph are dropped. The returned graph is nil
// when it could not be resolved.
func (s *Store) Reconcile(ctx context.Context, snap *domain.Snapshot, resolver Resolver) (*domain.TraversalState, *domain.MachineGraph, bool) {
	logger := s.logger
	if snap == nil || snap.MachineID == "" {
		return nil, nil, false
	}
	if _, ok := resolver.Lookup(snap.MachineID); !ok {
		logger.Info("abandoning session for unknown machine", "machine", snap.MachineID)
		return nil, nil, false
	}

	machineOnly := &domain.TraversalState{MachineID: snap.MachineID}

	graph, err := resolver.ResolveGraph(ctx, snap.MachineID)
	if err != nil {
		logger.Warn("resuming without machine data", "machine", snap.MachineID, "err", err)
		return machineOnly, nil, true
	}

	if snap.SymptomID == "" {
		return machineOnly, graph, true
	}
	symptom, ok := graph.Symptom(snap.SymptomID)
	if !ok {
		logger.Info("recorded symptom no longer exists", "machine", snap.MachineID, "symptom", snap.SymptomID)
		return machineOnly, graph, true
	}

	if snap.StepID == "" || !graph.HasStep(snap.StepID) {
		if !graph.HasStep(symptom.Start) {
			logger.Warn("symptom start step missing", "symptom", symptom.ID, "start", symptom.Start)
			return machineOnly, graph, true
		}
		if snap.StepID != "" {
			logger.Info("recorded step no longer exists, restarting symptom", "step", snap.StepID, "symptom", symptom.ID)
		}
		return &domain.TraversalState{
			MachineID:     snap.MachineID,
			SymptomID:     symptom.ID,
			CurrentStepID: symptom.Start,
		}, graph, true
	}

	var history []string
	for _, id := range snap.History {
		if graph.HasStep(id) {
			history = append(history, id)
		}
	}
	return &domain.TraversalState{
		MachineID:     snap.MachineID,
		SymptomID:     symptom.ID,
		CurrentStepID: snap.StepID,
		History:       history,
	}, graph, true
}
