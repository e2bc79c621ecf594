package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techninja/techninja/pkg/adapters/memory"
	"github.com/techninja/techninja/pkg/domain"
	contract "github.com/techninja/techninja/pkg/ports/tests"
)

func TestInMemorySource_Contract(t *testing.T) {
	source := memory.NewSource(map[string]string{
		domain.DefaultIndexPath: `{"machines": [
			{"id": "m1", "name": "One", "configRef": "machines/m1.json"},
			{"id": "m2", "name": "Two", "config": "machines/m2.yaml"}
		]}`,
		"machines/m1.json": `{"symptoms": [{"id": "s1", "start": "a"}, {"id": "s2", "start": "a"}], "steps": {"a": {"text": "A"}}}`,
		"machines/m2.yaml": "symptoms:\n  - id: leak\n    start: a\nsteps:\n  a:\n    text: A\n",
	})

	contract.GraphSourceContractTest(t, source, map[string][]string{
		"m1": {"s1", "s2"},
		"m2": {"leak"},
	})
}

func TestNewFromGraphs(t *testing.T) {
	machines := []domain.Machine{{ID: "m1", Name: "One", ConfigRef: "m1.json"}}
	graphs := map[string]*domain.MachineGraph{
		"m1.json": {
			Symptoms: []domain.Symptom{{ID: "s1", Start: "stepA"}},
			Steps: map[string]domain.Step{
				"stepA": {Text: "A", Options: []domain.Option{{Label: "Next", Next: "stepB"}}},
				"stepB": {Text: "B", Result: &domain.Result{Title: "Done"}},
			},
		},
	}

	source, err := memory.NewFromGraphs(machines, graphs)
	require.NoError(t, err)

	ctx := context.Background()
	graph, err := source.LoadGraph(ctx, "m1.json")
	require.NoError(t, err)
	assert.True(t, graph.Steps["stepB"].IsResult())
	assert.Equal(t, 1, source.Fetches("m1.json"))

	source.Remove("m1.json")
	_, err = source.LoadGraph(ctx, "m1.json")
	assert.Error(t, err)
}
