package registry_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techninja/techninja/pkg/adapters/memory"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/registry"
)

const singleIndex = `{"machines": [{"id": "m1", "name": "One", "configRef": "m1.json"}]}`

const scenarioGraph = `{
	"symptoms": [{"id": "s1", "start": "stepA"}],
	"steps": {
		"stepA": {"text": "A", "options": [{"label": "Next", "next": "stepB"}]},
		"stepB": {"text": "B", "result": {"title": "Done"}}
	}
}`

func TestLoadIndex(t *testing.T) {
	source := memory.NewSource(map[string]string{
		domain.DefaultIndexPath: `{"machines": [
			{"id": "m1", "name": "One", "configRef": "m1.json"},
			{"name": "No id", "configRef": "x.json"},
			{"id": "m1", "name": "Duplicate", "configRef": "dup.json"},
			{"id": "m2", "name": "Two", "config": "m2.json"}
		]}`,
	})
	reg := registry.New(source)

	machines, err := reg.LoadIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, machines, 2)
	assert.Equal(t, "One", machines[0].Name)
	assert.Equal(t, "m2.json", machines[1].ConfigRef)

	m, ok := reg.Lookup("m2")
	assert.True(t, ok)
	assert.Equal(t, "Two", m.Name)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestLoadIndex_Fallback(t *testing.T) {
	tests := []struct {
		name string
		docs map[string]string
	}{
		{"missing document", map[string]string{}},
		{"missing machines field", map[string]string{domain.DefaultIndexPath: `{"devices": []}`}},
		{"machines not a sequence", map[string]string{domain.DefaultIndexPath: `{"machines": {"id": "m1"}}`}},
		{"unparseable", map[string]string{domain.DefaultIndexPath: `{`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.New(memory.NewSource(tt.docs))

			machines, err := reg.LoadIndex(context.Background())

			var loadErr *domain.LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, "index", loadErr.Op)
			require.Len(t, machines, 1)
			assert.Equal(t, domain.FallbackMachine(), machines[0])
			assert.Equal(t, machines, reg.Machines())
		})
	}
}

func TestResolveGraph_CachedOnce(t *testing.T) {
	source := memory.NewSource(map[string]string{
		domain.DefaultIndexPath: singleIndex,
		"m1.json":               scenarioGraph,
	})

	var events []*domain.GraphEvent
	reg := registry.New(source, registry.WithLifecycleHooks(domain.LifecycleHooks{
		OnGraphLoaded: func(ctx context.Context, e *domain.GraphEvent) {
			events = append(events, e)
		},
	}))
	ctx := context.Background()
	_, err := reg.LoadIndex(ctx)
	require.NoError(t, err)

	first, err := reg.ResolveGraph(ctx, "m1")
	require.NoError(t, err)
	second, err := reg.ResolveGraph(ctx, "m1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, source.Fetches("m1.json"))
	require.Len(t, events, 1)
	require.Len(t, events[0].Warnings, 1, "stepB has no confidence metadata")
	assert.Equal(t, domain.WarnMissingConfidence, events[0].Warnings[0].Kind)
	assert.Equal(t, events[0].Warnings, reg.Warnings("m1"))
}

func TestResolveGraph_FailureNotCached(t *testing.T) {
	source := memory.NewSource(map[string]string{
		domain.DefaultIndexPath: singleIndex,
	})
	reg := registry.New(source)
	ctx := context.Background()
	_, err := reg.LoadIndex(ctx)
	require.NoError(t, err)

	_, err = reg.ResolveGraph(ctx, "m1")
	var loadErr *domain.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "m1.json", loadErr.Ref)

	source.Put("m1.json", scenarioGraph)
	graph, err := reg.ResolveGraph(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, graph.Symptoms, 1)
	assert.Equal(t, 2, source.Fetches("m1.json"))
}

func TestResolveGraph_UnknownMachine(t *testing.T) {
	reg := registry.New(memory.NewSource(map[string]string{domain.DefaultIndexPath: singleIndex}))
	_, err := reg.ResolveGraph(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUnknownMachine)
}

func TestResolveGraph_MissingConfigRef(t *testing.T) {
	reg := registry.New(memory.NewSource(map[string]string{
		domain.DefaultIndexPath: `{"machines": [{"id": "m1", "name": "One"}]}`,
	}))
	ctx := context.Background()
	_, _ = reg.LoadIndex(ctx)

	_, err := reg.ResolveGraph(ctx, "m1")
	var loadErr *domain.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

// gatedSource blocks graph loads until release is closed.
type gatedSource struct {
	*memory.Source
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedSource) LoadGraph(ctx context.Context, ref string) (*domain.MachineGraph, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Source.LoadGraph(ctx, ref)
}

func TestResolveGraph_ConcurrentCallersShareFetch(t *testing.T) {
	source := &gatedSource{
		Source: memory.NewSource(map[string]string{
			domain.DefaultIndexPath: singleIndex,
			"m1.json":               scenarioGraph,
		}),
		release: make(chan struct{}),
	}
	reg := registry.New(source)
	ctx := context.Background()
	_, err := reg.LoadIndex(ctx)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	graphs := make([]*domain.MachineGraph, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			graphs[i], errs[i] = reg.ResolveGraph(ctx, "m1")
		}(i)
	}
	started.Wait()
	close(source.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, graphs[0], graphs[i])
	}
	_, cached := reg.Cached("m1")
	assert.True(t, cached)
}

func TestLoadIndex_ReloadDropsChangedGraphs(t *testing.T) {
	source := memory.NewSource(map[string]string{
		domain.DefaultIndexPath: singleIndex,
		"m1.json":               scenarioGraph,
		"m1-v2.json":            scenarioGraph,
	})
	reg := registry.New(source)
	ctx := context.Background()
	_, _ = reg.LoadIndex(ctx)
	_, err := reg.ResolveGraph(ctx, "m1")
	require.NoError(t, err)

	_, _ = reg.LoadIndex(ctx)
	_, cached := reg.Cached("m1")
	assert.True(t, cached, "unchanged reference keeps the cached graph")

	source.Put(domain.DefaultIndexPath, `{"machines": [{"id": "m1", "name": "One", "configRef": "m1-v2.json"}]}`)
	_, _ = reg.LoadIndex(ctx)
	_, cached = reg.Cached("m1")
	assert.False(t, cached)

	_, err = reg.ResolveGraph(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, source.Fetches("m1-v2.json"))
}

func TestLoadError_Unwraps(t *testing.T) {
	inner := errors.New("offline")
	err := error(&domain.LoadError{Op: "graph", Ref: "m1.json", Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, `could not load graph "m1.json": offline`, err.Error())
}
