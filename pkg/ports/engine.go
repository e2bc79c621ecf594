package ports

import (
	"context"

	"github.com/techninja/techninja/pkg/domain"
)

// Navigator is the command and presentation surface consumed by front-ends
// (terminal runner, HTTP API, MCP server). Commands that turn out to be no-ops
// return a nil error; lookup misses return a *domain.LookupMissError.
type Navigator interface {
	Machines() []domain.Machine
	SelectMachine(ctx context.Context, machineID string) error
	StartSymptom(ctx context.Context, symptomID string) error
	Advance(ctx context.Context, nextStepID string) error
	// Choose advances along the option at index (0-based) of the current view.
	Choose(ctx context.Context, index int) error
	Retreat(ctx context.Context) error
	RestartSymptom(ctx context.Context) error
	ExitToSymptomList(ctx context.Context) error
	ClearSession(ctx context.Context) error

	// View returns the read-only projection of the current state.
	View() domain.View
	// State returns a copy of the current traversal state.
	State() domain.TraversalState
	// Graph returns the graph of the active machine, or nil.
	Graph() *domain.MachineGraph
	IsTerminal() bool

	// IndexError reports why the built-in machine list is in use, if it is.
	IndexError() error
	// GraphError reports why the selected machine has no graph, if it has none.
	GraphError() error
}
