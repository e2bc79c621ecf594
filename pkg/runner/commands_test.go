package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		kind  CommandKind
		index int
	}{
		{"", CmdNone, 0},
		{"   ", CmdNone, 0},
		{"3", CmdPick, 3},
		{" 12 ", CmdPick, 12},
		{"0", CmdUnknown, 0},
		{"-1", CmdUnknown, 0},
		{"b", CmdBack, 0},
		{"BACK", CmdBack, 0},
		{"r", CmdRestart, 0},
		{"retry", CmdRestart, 0},
		{"s", CmdSymptoms, 0},
		{"m", CmdMachines, 0},
		{"clear", CmdClear, 0},
		{"?", CmdHelp, 0},
		{"quit", CmdQuit, 0},
		{"exit", CmdQuit, 0},
		{"jump", CmdUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			assert.Equal(t, tt.kind, cmd.Kind)
			assert.Equal(t, tt.index, cmd.Index)
		})
	}
}
