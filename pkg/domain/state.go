package domain

import "time"

// Phase is the coarse state of the traversal state machine.
type Phase string

const (
	PhaseIdle            Phase = "idle"             // No machine selected
	PhaseMachineSelected Phase = "machine_selected" // Machine chosen, no symptom active
	PhaseInStep          Phase = "in_step"          // Walking a symptom's steps
)

// TraversalState is the position of the user inside a machine's graph.
// History holds the steps visited before CurrentStepID, oldest first.
type TraversalState struct {
	MachineID     string   `json:"machineId,omitempty"`
	SymptomID     string   `json:"symptomId,omitempty"`
	CurrentStepID string   `json:"stepId,omitempty"`
	History       []string `json:"history"`
}

// Phase derives the state machine phase from the state fields.
func (s TraversalState) Phase() Phase {
	switch {
	case s.MachineID == "":
		return PhaseIdle
	case s.CurrentStepID == "":
		return PhaseMachineSelected
	default:
		return PhaseInStep
	}
}

// Clone returns a copy that shares no memory with s. An empty history clones to nil.
func (s TraversalState) Clone() TraversalState {
	c := s
	c.History = nil
	if len(s.History) > 0 {
		c.History = append([]string(nil), s.History...)
	}
	return c
}

// Equal reports whether two states describe the same position and path.
func (s TraversalState) Equal(o TraversalState) bool {
	if s.MachineID != o.MachineID || s.SymptomID != o.SymptomID || s.CurrentStepID != o.CurrentStepID {
		return false
	}
	if len(s.History) != len(o.History) {
		return false
	}
	for i := range s.History {
		if s.History[i] != o.History[i] {
			return false
		}
	}
	return true
}

// Snapshot is the persisted form of a TraversalState.
// Field names follow the storage format used by earlier releases of the wizard.
type Snapshot struct {
	Version   int      `json:"v"`
	Timestamp int64    `json:"ts"` // Unix milliseconds
	MachineID string   `json:"machineId"`
	SymptomID string   `json:"symptomId"`
	StepID    string   `json:"stepId"`
	History   []string `json:"history"`
}

// NewSnapshot captures state at time now with the current schema version.
func NewSnapshot(state TraversalState, now time.Time) *Snapshot {
	history := append([]string{}, state.History...)
	return &Snapshot{
		Version:   SchemaVersion,
		Timestamp: now.UnixMilli(),
		MachineID: state.MachineID,
		SymptomID: state.SymptomID,
		StepID:    state.CurrentStepID,
		History:   history,
	}
}

// State returns the traversal state recorded in the snapshot.
func (s *Snapshot) State() TraversalState {
	return TraversalState{
		MachineID:     s.MachineID,
		SymptomID:     s.SymptomID,
		CurrentStepID: s.StepID,
		History:       s.History,
	}.Clone()
}

// SavedAt returns the snapshot timestamp.
func (s *Snapshot) SavedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}
