package runtime

import "github.com/techninja/techninja/pkg/domain"

// IsTerminal reports whether the active step carries a Result.
func (e *Engine) IsTerminal() bool {
	step, ok := e.graph.Step(e.state.CurrentStepID)
	return ok && step.IsResult()
}

// View projects the current state for a renderer.
// Outside InStep, or when the graph is not bound yet, the view is empty; with a
// bound graph it still lists the symptoms so a symptom picker can be drawn.
func (e *Engine) View() domain.View {
	v := domain.View{
		Kind:      domain.ViewEmpty,
		Phase:     e.state.Phase(),
		MachineID: e.state.MachineID,
		SymptomID: e.state.SymptomID,
		StepID:    e.state.CurrentStepID,
		CanGoBack: len(e.state.History) > 0,
		Depth:     len(e.state.History),
	}
	if e.graph == nil {
		return v
	}
	v.Symptoms = append([]domain.Symptom(nil), e.graph.Symptoms...)

	if symptom, ok := e.graph.Symptom(e.state.SymptomID); ok {
		v.Symptom = &symptom
	}

	step, ok := e.graph.Step(e.state.CurrentStepID)
	if !ok {
		return v
	}
	v.Step = &step
	if step.IsResult() {
		v.Kind = domain.ViewResult
		return v
	}
	v.Kind = domain.ViewDecision
	v.Options = step.Choices()
	return v
}
