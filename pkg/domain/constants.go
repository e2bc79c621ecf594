package domain

const (
	// SchemaVersion is the only snapshot version this build understands.
	// Snapshots carrying any other version are discarded, never migrated.
	SchemaVersion = 1

	// DefaultSessionKey is the fixed storage key of the persisted snapshot.
	DefaultSessionKey = "techninja.session.v1"

	// DefaultIndexPath is the well-known location of the machine index document.
	DefaultIndexPath = "machines/index.json"
)
