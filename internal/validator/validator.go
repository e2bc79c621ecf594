package validator

import (
	"fmt"
	"sort"

	"github.com/techninja/techninja/pkg/domain"
)

// Validate checks a machine graph for structural integrity.
// It never fails: problems are returned as warnings and the graph stays usable.
// Order is deterministic (symptoms in document order, then steps sorted by id).
func Validate(graph *domain.MachineGraph) []domain.Warning {
	var warnings []domain.Warning

	if graph == nil || len(graph.Steps) == 0 {
		warnings = append(warnings, domain.Warning{
			Kind:    domain.WarnMissingSteps,
			Message: "machine graph has no steps",
		})
		if graph == nil {
			return warnings
		}
	}

	for _, s := range graph.Symptoms {
		if !graph.HasStep(s.Start) {
			warnings = append(warnings, domain.Warning{
				Kind:      domain.WarnDanglingStart,
				SymptomID: s.ID,
				Target:    s.Start,
				Message:   fmt.Sprintf("symptom %q starts at missing step %q", s.ID, s.Start),
			})
		}
	}

	for _, id := range sortedStepIDs(graph) {
		step := graph.Steps[id]

		if step.Next != "" && !graph.HasStep(step.Next) {
			warnings = append(warnings, domain.Warning{
				Kind:    domain.WarnDanglingNext,
				StepID:  id,
				Target:  step.Next,
				Message: fmt.Sprintf("step %q points to missing next %q", id, step.Next),
			})
		}

		if step.IsResult() {
			if step.Result.Confidence == nil {
				warnings = append(warnings, domain.Warning{
					Kind:    domain.WarnMissingConfidence,
					StepID:  id,
					Message: fmt.Sprintf("result at step %q missing confidence metadata", id),
				})
			}
			continue
		}

		for i, opt := range step.Options {
			if !graph.HasStep(opt.Next) {
				warnings = append(warnings, domain.Warning{
					Kind:    domain.WarnDanglingOption,
					StepID:  id,
					Target:  opt.Next,
					Message: fmt.Sprintf("step %q option %d (%q) points to missing step %q", id, i, opt.Label, opt.Next),
				})
			}
		}
	}

	return warnings
}

// ValidateIndex reports machine descriptors that cannot be selected or resolved.
func ValidateIndex(index *domain.Index) []domain.Warning {
	if index == nil {
		return nil
	}
	var warnings []domain.Warning
	for i, m := range index.Machines {
		if m.ID == "" {
			warnings = append(warnings, domain.Warning{
				Kind:    domain.WarnIndexMissingID,
				Message: fmt.Sprintf("machine entry %d (%q) missing id", i, m.Name),
			})
		}
		if m.ConfigRef == "" {
			warnings = append(warnings, domain.Warning{
				Kind:    domain.WarnIndexMissingConfig,
				Target:  m.ID,
				Message: fmt.Sprintf("machine entry %d (%q) missing config reference", i, m.ID),
			})
		}
	}
	return warnings
}

// Unreachable returns the ids of steps that no symptom can reach, sorted.
// It crawls breadth-first from every symptom start.
func Unreachable(graph *domain.MachineGraph) []string {
	if graph == nil {
		return nil
	}

	visited := make(map[string]bool)
	queue := make([]string, 0, len(graph.Symptoms))
	for _, s := range graph.Symptoms {
		queue = append(queue, s.Start)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		step, ok := graph.Step(current)
		if !ok {
			continue // Dangling, reported by Validate
		}
		visited[current] = true

		for _, opt := range step.Choices() {
			if !visited[opt.Next] {
				queue = append(queue, opt.Next)
			}
		}
		if step.Next != "" && !visited[step.Next] {
			queue = append(queue, step.Next)
		}
	}

	var orphans []string
	for _, id := range sortedStepIDs(graph) {
		if !visited[id] {
			orphans = append(orphans, id)
		}
	}
	return orphans
}

func sortedStepIDs(graph *domain.MachineGraph) []string {
	ids := make([]string, 0, len(graph.Steps))
	for id := range graph.Steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
