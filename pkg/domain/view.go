package domain

// ViewKind tells a front-end what kind of panel to draw.
type ViewKind string

const (
	ViewEmpty    ViewKind = "empty"
	ViewDecision ViewKind = "decision"
	ViewResult   ViewKind = "result"
)

// View is the read-only projection of the traversal state consumed by front-ends.
// It is the only thing a renderer needs; renderers never touch the engine state.
type View struct {
	Kind      ViewKind  `json:"kind"`
	Phase     Phase     `json:"phase"`
	MachineID string    `json:"machineId,omitempty"`
	SymptomID string    `json:"symptomId,omitempty"`
	StepID    string    `json:"stepId,omitempty"`
	Symptom   *Symptom  `json:"symptom,omitempty"`
	Step      *Step     `json:"step,omitempty"`
	Options   []Option  `json:"options,omitempty"`
	Symptoms  []Symptom `json:"symptoms,omitempty"`
	CanGoBack bool      `json:"canGoBack"`
	Depth     int       `json:"depth"`
}

// IsTerminal reports whether the view shows a Result.
func (v View) IsTerminal() bool {
	return v.Kind == ViewResult
}
