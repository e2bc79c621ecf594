package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *TraversalState
		new      *TraversalState
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &TraversalState{
				MachineID:     "m1",
				SymptomID:     "s1",
				CurrentStepID: "stepB",
				History:       []string{"stepA"},
			},
			wantDiff: &StateDiff{
				MachineID:     &[]string{"m1"}[0],
				SymptomID:     &[]string{"s1"}[0],
				CurrentStepID: &[]string{"stepB"}[0],
				HistoryParams: &HistoryDelta{Appended: []string{"stepA"}},
			},
		},
		{
			name:     "No Changes",
			old:      &TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepA", History: []string{}},
			new:      &TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepA", History: []string{}},
			wantDiff: nil,
		},
		{
			name: "Advance",
			old:  &TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepA"},
			new:  &TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepB", History: []string{"stepA"}},
			wantDiff: &StateDiff{
				CurrentStepID: &[]string{"stepB"}[0],
				HistoryParams: &HistoryDelta{Appended: []string{"stepA"}},
			},
		},
		{
			name: "Retreat",
			old:  &TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepB", History: []string{"stepA"}},
			new:  &TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "stepA", History: []string{}},
			wantDiff: &StateDiff{
				CurrentStepID: &[]string{"stepA"}[0],
				HistoryParams: &HistoryDelta{Popped: 1},
			},
		},
		{
			name: "History Rewritten",
			old:  &TraversalState{MachineID: "m1", CurrentStepID: "x", History: []string{"a", "b"}},
			new:  &TraversalState{MachineID: "m1", CurrentStepID: "x", History: []string{"c"}},
			wantDiff: &StateDiff{
				HistoryParams: &HistoryDelta{Reset: true, Full: []string{"c"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}

			if !reflect.DeepEqual(got.HistoryParams, tt.wantDiff.HistoryParams) {
				t.Errorf("Diff().HistoryParams = %v, want %v", got.HistoryParams, tt.wantDiff.HistoryParams)
			}
			if !equalPtr(got.CurrentStepID, tt.wantDiff.CurrentStepID) {
				t.Errorf("Diff().CurrentStepID = %v, want %v", got.CurrentStepID, tt.wantDiff.CurrentStepID)
			}
			if !equalPtr(got.MachineID, tt.wantDiff.MachineID) {
				t.Errorf("Diff().MachineID = %v, want %v", got.MachineID, tt.wantDiff.MachineID)
			}
			if !equalPtr(got.SymptomID, tt.wantDiff.SymptomID) {
				t.Errorf("Diff().SymptomID = %v, want %v", got.SymptomID, tt.wantDiff.SymptomID)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	old := &TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "a"}
	next := &TraversalState{MachineID: "m1", SymptomID: "s1", CurrentStepID: "b", History: []string{"a"}}

	diff := Diff(old, next)
	if diff == nil {
		t.Fatal("Expected diff, got nil")
	}
	bytes, _ := json.Marshal(diff)
	if strings.Contains(string(bytes), `"machineId"`) {
		t.Errorf("JSON should not contain unchanged machineId, got: %s", string(bytes))
	}
	if !strings.Contains(string(bytes), `"appended":["a"]`) {
		t.Errorf("JSON should contain appended history, got: %s", string(bytes))
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
