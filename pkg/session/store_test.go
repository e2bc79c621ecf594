package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techninja/techninja/pkg/adapters/memory"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/session"
)

type fakeResolver struct {
	machines map[string]*domain.MachineGraph
	err      error
}

func (f *fakeResolver) Lookup(id string) (domain.Machine, bool) {
	_, ok := f.machines[id]
	return domain.Machine{ID: id}, ok
}

func (f *fakeResolver) ResolveGraph(ctx context.Context, id string) (*domain.MachineGraph, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.machines[id], nil
}

func graph() *domain.MachineGraph {
	return &domain.MachineGraph{
		Symptoms: []domain.Symptom{
			{ID: "s1", Start: "stepA"},
			{ID: "broken", Start: "gone"},
		},
		Steps: map[string]domain.Step{
			"stepA": {Text: "A", Options: []domain.Option{{Label: "Next", Next: "stepB"}}},
			"stepB": {Text: "B", Options: []domain.Option{{Label: "Next", Next: "stepC"}}},
			"stepC": {Text: "C", Result: &domain.Result{Title: "Done"}},
		},
	}
}

func snapshot(symptom, step string, history ...string) *domain.Snapshot {
	return domain.NewSnapshot(domain.TraversalState{
		MachineID:     "m1",
		SymptomID:     symptom,
		CurrentStepID: step,
		History:       history,
	}, time.UnixMilli(1))
}

func TestStore_SaveLoadClear(t *testing.T) {
	backend := memory.NewStore()
	now := time.UnixMilli(1700000000000)
	store := session.NewStore(backend, session.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, ok := store.Load(ctx)
	assert.False(t, ok, "absent session")

	state := domain.TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepB", History: []string{"stepA"}}
	require.NoError(t, store.Save(ctx, state))

	snap, ok := store.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, now.UnixMilli(), snap.Timestamp)
	assert.True(t, state.Equal(snap.State()))

	keys, err := backend.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.DefaultSessionKey}, keys)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clear is idempotent")
	_, ok = store.Load(ctx)
	assert.False(t, ok)
}

func TestStore_LoadRejectsForeignVersion(t *testing.T) {
	backend := memory.NewStore()
	ctx := context.Background()
	snap := snapshot("s1", "stepA")
	snap.Version = 2
	require.NoError(t, backend.Save(ctx, domain.DefaultSessionKey, snap))

	_, ok := session.NewStore(backend).Load(ctx)
	assert.False(t, ok)
}

type failingBackend struct {
	*memory.Store
}

func (failingBackend) Save(context.Context, string, *domain.Snapshot) error {
	return errors.New("quota exceeded")
}

func (failingBackend) Load(context.Context, string) (*domain.Snapshot, error) {
	return nil, errors.New("unexpected end of JSON input")
}

func TestStore_FailuresAreReported(t *testing.T) {
	store := session.NewStore(failingBackend{memory.NewStore()}, session.WithKey("custom"))
	ctx := context.Background()

	err := store.Save(ctx, domain.TraversalState{MachineID: "m1"})
	assert.ErrorContains(t, err, "quota exceeded")

	_, ok := store.Load(ctx)
	assert.False(t, ok, "unreadable session is treated as absent")
	assert.Equal(t, "custom", store.Key())
}

func TestReconcile(t *testing.T) {
	resolver := &fakeResolver{machines: map[string]*domain.MachineGraph{"m1": graph()}}
	store := session.NewStore(memory.NewStore())
	ctx := context.Background()

	tests := []struct {
		name string
		snap *domain.Snapshot
		want domain.TraversalState
	}{
		{
			name: "valid state is kept",
			snap: snapshot("s1", "stepC", "stepA", "stepB"),
			want: domain.TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepC", History: []string{"stepA", "stepB"}},
		},
		{
			name: "stale step falls back to symptom start",
			snap: snapshot("s1", "removed", "stepA"),
			want: domain.TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepA"},
		},
		{
			name: "missing step falls back to symptom start",
			snap: snapshot("s1", "", "stepA"),
			want: domain.TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepA"},
		},
		{
			name: "unknown symptom keeps the machine only",
			snap: snapshot("vanished", "stepB"),
			want: domain.TraversalState{MachineID: "m1"},
		},
		{
			name: "no symptom keeps the machine only",
			snap: snapshot("", ""),
			want: domain.TraversalState{MachineID: "m1"},
		},
		{
			name: "symptom with dangling start keeps the machine only",
			snap: snapshot("broken", ""),
			want: domain.TraversalState{MachineID: "m1"},
		},
		{
			name: "vanished history entries are dropped",
			snap: snapshot("s1", "stepC", "stepA", "old", "stepB"),
			want: domain.TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepC", History: []string{"stepA", "stepB"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, g, ok := store.Reconcile(ctx, tt.snap, resolver)
			require.True(t, ok)
			require.NotNil(t, g)
			assert.Equal(t, tt.want, *state)
		})
	}
}

func TestReconcile_UnknownMachineAbandons(t *testing.T) {
	resolver := &fakeResolver{machines: map[string]*domain.MachineGraph{"other": graph()}}
	store := session.NewStore(memory.NewStore())

	state, g, ok := store.Reconcile(context.Background(), snapshot("s1", "stepA"), resolver)
	assert.False(t, ok)
	assert.Nil(t, state)
	assert.Nil(t, g)

	_, _, ok = store.Reconcile(context.Background(), nil, resolver)
	assert.False(t, ok)
}

func TestReconcile_GraphFailureKeepsMachine(t *testing.T) {
	resolver := &fakeResolver{
		machines: map[string]*domain.MachineGraph{"m1": nil},
		err:      &domain.LoadError{Op: "graph", Ref: "m1.json", Err: errors.New("offline")},
	}
	store := session.NewStore(memory.NewStore())

	state, g, ok := store.Reconcile(context.Background(), snapshot("s1", "stepB", "stepA"), resolver)
	require.True(t, ok)
	assert.Nil(t, g)
	assert.Equal(t, domain.TraversalState{MachineID: "m1"}, *state)
}
