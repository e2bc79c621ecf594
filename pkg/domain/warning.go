package domain

import "fmt"

// WarningKind classifies a graph integrity problem.
type WarningKind string

const (
	WarnMissingSteps       WarningKind = "missing_steps"
	WarnDanglingStart      WarningKind = "dangling_start"
	WarnDanglingOption     WarningKind = "dangling_option"
	WarnDanglingNext       WarningKind = "dangling_next"
	WarnMissingConfidence  WarningKind = "missing_confidence"
	WarnIndexMissingID     WarningKind = "index_missing_id"
	WarnIndexMissingConfig WarningKind = "index_missing_config"
)

// Warning is a non-fatal integrity finding about a graph or index.
// Consumers log warnings and keep using the data as-is.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	SymptomID string      `json:"symptomId,omitempty"`
	StepID    string      `json:"stepId,omitempty"`
	Target    string      `json:"target,omitempty"`
	Message   string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// IsDanglingReference reports whether the warning is about a reference to a missing step.
func (w Warning) IsDanglingReference() bool {
	switch w.Kind {
	case WarnDanglingStart, WarnDanglingOption, WarnDanglingNext:
		return true
	}
	return false
}
