package dsl

import (
	"fmt"

	"github.com/techninja/techninja/internal/validator"
	"github.com/techninja/techninja/pkg/adapters/memory"
	"github.com/techninja/techninja/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	symptoms []*SymptomBuilder
	steps    map[string]*StepBuilder
	order    []string
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		steps: make(map[string]*StepBuilder),
	}
}

// Symptom adds a symptom entry point. Symptoms keep the order they were added in.
// If the symptom already exists, it returns the existing builder.
func (b *Builder) Symptom(id, name string) *SymptomBuilder {
	for _, sb := range b.symptoms {
		if sb.symptom.ID == id {
			return sb
		}
	}
	sb := &SymptomBuilder{symptom: domain.Symptom{ID: id, Name: name}}
	b.symptoms = append(b.symptoms, sb)
	return sb
}

// Step creates a new step in the graph.
// If the step already exists, it returns the existing builder.
func (b *Builder) Step(id string) *StepBuilder {
	if sb, ok := b.steps[id]; ok {
		return sb
	}
	sb := &StepBuilder{}
	b.steps[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Build returns the graph. Each call returns a fresh copy.
func (b *Builder) Build() *domain.MachineGraph {
	g := &domain.MachineGraph{
		Symptoms: make([]domain.Symptom, 0, len(b.symptoms)),
		Steps:    make(map[string]domain.Step, len(b.steps)),
	}
	for _, sb := range b.symptoms {
		g.Symptoms = append(g.Symptoms, sb.symptom)
	}
	for _, id := range b.order {
		g.Steps[id] = b.steps[id].build()
	}
	return g
}

// Validate builds the graph and reports its integrity warnings.
func (b *Builder) Validate() []domain.Warning {
	return validator.Validate(b.Build())
}

// Source serves the graph as the only machine of an in-memory catalogue.
// An empty ConfigRef defaults to machines/<id>.json.
func (b *Builder) Source(machine domain.Machine) (*memory.Source, error) {
	if machine.ID == "" {
		return nil, fmt.Errorf("machine id is required")
	}
	if machine.ConfigRef == "" {
		machine.ConfigRef = "machines/" + machine.ID + ".json"
	}
	return memory.NewFromGraphs(
		[]domain.Machine{machine},
		map[string]*domain.MachineGraph{machine.ConfigRef: b.Build()},
	)
}
