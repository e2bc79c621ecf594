package domain

// StateDiff represents the changes between two traversal states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	MachineID     *string       `json:"machineId,omitempty"`
	SymptomID     *string       `json:"symptomId,omitempty"`
	CurrentStepID *string       `json:"stepId,omitempty"`
	HistoryParams *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the history stack.
// Advancing appends one entry; retreating pops one. A reset reports Reset with the new full stack.
type HistoryDelta struct {
	Appended []string `json:"appended,omitempty"`
	Popped   int      `json:"popped,omitempty"`
	Reset    bool     `json:"reset,omitempty"`
	Full     []string `json:"full,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *TraversalState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{}

	if oldState == nil || oldState.MachineID != newState.MachineID {
		diff.MachineID = &newState.MachineID
	}
	if oldState == nil || oldState.SymptomID != newState.SymptomID {
		diff.SymptomID = &newState.SymptomID
	}
	if oldState == nil || oldState.CurrentStepID != newState.CurrentStepID {
		diff.CurrentStepID = &newState.CurrentStepID
	}

	diff.HistoryParams = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffHistory(old *TraversalState, new *TraversalState) *HistoryDelta {
	if old == nil {
		if len(new.History) == 0 {
			return nil
		}
		return &HistoryDelta{Appended: new.History}
	}

	oldLen := len(old.History)
	newLen := len(new.History)

	if newLen >= oldLen && hasPrefix(new.History, old.History) {
		if newLen == oldLen {
			return nil
		}
		return &HistoryDelta{Appended: new.History[oldLen:]}
	}
	if newLen < oldLen && hasPrefix(old.History, new.History) {
		return &HistoryDelta{Popped: oldLen - newLen}
	}

	return &HistoryDelta{Reset: true, Full: new.History}
}

func hasPrefix(list, prefix []string) bool {
	if len(prefix) > len(list) {
		return false
	}
	for i := range prefix {
		if list[i] != prefix[i] {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.MachineID == nil &&
		d.SymptomID == nil &&
		d.CurrentStepID == nil &&
		d.HistoryParams == nil
}
