package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techninja/techninja/pkg/domain"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")
	now := time.UnixMilli(1700000000000)

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.TraversalState{
			MachineID:     "m1",
			SymptomID:     "s1",
			CurrentStepID: "stepB",
			History:       []string{"stepA"},
		}

		err := store.Save(ctx, key, domain.NewSnapshot(state, now))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.SchemaVersion, loaded.Version)
		assert.Equal(t, now.UnixMilli(), loaded.Timestamp)
		assert.True(t, state.Equal(loaded.State()), "loaded state %+v != saved %+v", loaded.State(), state)
	})

	t.Run("Overwrite", func(t *testing.T) {
		first := domain.NewSnapshot(domain.TraversalState{MachineID: "m1"}, now)
		second := domain.NewSnapshot(domain.TraversalState{MachineID: "m2"}, now.Add(time.Second))
		require.NoError(t, store.Save(ctx, key, first))
		require.NoError(t, store.Save(ctx, key, second))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "m2", loaded.MachineID)
	})

	t.Run("Foreign Version Is Returned As-Is", func(t *testing.T) {
		snap := domain.NewSnapshot(domain.TraversalState{MachineID: "m1"}, now)
		snap.Version = 99
		require.NoError(t, store.Save(ctx, key, snap))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 99, loaded.Version)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, domain.NewSnapshot(domain.TraversalState{MachineID: "m1"}, now)))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Delete should be idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, domain.NewSnapshot(domain.TraversalState{MachineID: "m1"}, now))
		_ = store.Save(ctx, id2, domain.NewSnapshot(domain.TraversalState{MachineID: "m2"}, now))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
