package ports

import (
	"context"

	"github.com/techninja/techninja/pkg/domain"
)

// SnapshotStore defines the interface for persisting session snapshots.
// Stores keep whatever version they are given; version checks belong to the session layer.
type SnapshotStore interface {
	// Save persists the snapshot under key, overwriting any previous one.
	Save(ctx context.Context, key string, snap *domain.Snapshot) error

	// Load retrieves the snapshot stored under key.
	// Returns domain.ErrSnapshotNotFound if nothing is stored.
	Load(ctx context.Context, key string) (*domain.Snapshot, error)

	// Delete removes the snapshot. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys currently holding a snapshot.
	List(ctx context.Context) ([]string, error)
}
