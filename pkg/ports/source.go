package ports

import (
	"context"

	"github.com/techninja/techninja/pkg/domain"
)

// GraphSource defines how the registry retrieves machine documents.
// This allows the document origin (filesystem, HTTP, loam, memory) to be decoupled.
// Implementations are expected to behave like ordinary network fetches: whether a
// cache sits in front of them is invisible to callers.
type GraphSource interface {
	// LoadIndex fetches and decodes the machine index.
	// A document without a machines sequence yields domain.ErrMalformedIndex.
	LoadIndex(ctx context.Context) (*domain.Index, error)

	// LoadGraph fetches and decodes the graph document referenced by ref (Machine.ConfigRef).
	LoadGraph(ctx context.Context, ref string) (*domain.MachineGraph, error)
}
