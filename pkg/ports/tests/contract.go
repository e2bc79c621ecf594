package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/ports"
)

// GraphSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphSource.
// The source must serve an index listing the machines in want, and for each machine a graph
// whose symptom ids match want[machineID].
func GraphSourceContractTest(t *testing.T, source ports.GraphSource, want map[string][]string) {
	t.Helper()
	ctx := context.Background()

	var index *domain.Index

	t.Run("LoadIndex", func(t *testing.T) {
		var err error
		index, err = source.LoadIndex(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading index: %v", err)
		}
		if len(index.Machines) != len(want) {
			t.Fatalf("expected %d machines, got %d", len(want), len(index.Machines))
		}
		for _, m := range index.Machines {
			if _, ok := want[m.ID]; !ok {
				t.Errorf("unexpected machine %q in index", m.ID)
			}
			if m.ConfigRef == "" {
				t.Errorf("machine %q has no config reference", m.ID)
			}
		}
	})

	t.Run("LoadGraph", func(t *testing.T) {
		if index == nil {
			t.Skip("index not loaded")
		}
		for _, m := range index.Machines {
			graph, err := source.LoadGraph(ctx, m.ConfigRef)
			if err != nil {
				t.Fatalf("unexpected error loading graph %s: %v", m.ConfigRef, err)
			}
			symptoms := want[m.ID]
			if len(graph.Symptoms) != len(symptoms) {
				t.Fatalf("machine %s: expected %d symptoms, got %d", m.ID, len(symptoms), len(graph.Symptoms))
			}
			for i, id := range symptoms {
				if graph.Symptoms[i].ID != id {
					t.Errorf("machine %s: symptom %d = %q, want %q", m.ID, i, graph.Symptoms[i].ID, id)
				}
			}
		}
	})

	t.Run("LoadGraph_NotFound", func(t *testing.T) {
		_, err := source.LoadGraph(ctx, "machines/does-not-exist.json")
		if err == nil {
			t.Error("expected error for missing graph document, got nil")
		}
		if errors.Is(err, domain.ErrMalformedIndex) {
			t.Errorf("missing graph must not be reported as a malformed index: %v", err)
		}
	})
}
