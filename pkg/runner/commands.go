package runner

import (
	"strconv"
	"strings"
)

// CommandKind identifies a parsed input line.
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdPick
	CmdBack
	CmdRestart
	CmdSymptoms
	CmdMachines
	CmdClear
	CmdHelp
	CmdQuit
	CmdUnknown
)

// Command is one line of user input.
type Command struct {
	Kind  CommandKind
	Index int // 1-based, for CmdPick
	Raw   string
}

// ParseCommand maps an input line to a command. Matching is case-insensitive.
func ParseCommand(line string) Command {
	raw := strings.TrimSpace(line)
	word := strings.ToLower(raw)

	if word == "" {
		return Command{Kind: CmdNone}
	}
	if n, err := strconv.Atoi(word); err == nil {
		if n < 1 {
			return Command{Kind: CmdUnknown, Raw: raw}
		}
		return Command{Kind: CmdPick, Index: n, Raw: raw}
	}

	switch word {
	case "b", "back":
		return Command{Kind: CmdBack, Raw: raw}
	case "r", "restart", "retry":
		return Command{Kind: CmdRestart, Raw: raw}
	case "s", "symptoms":
		return Command{Kind: CmdSymptoms, Raw: raw}
	case "m", "machines":
		return Command{Kind: CmdMachines, Raw: raw}
	case "clear":
		return Command{Kind: CmdClear, Raw: raw}
	case "?", "h", "help":
		return Command{Kind: CmdHelp, Raw: raw}
	case "q", "quit", "exit":
		return Command{Kind: CmdQuit, Raw: raw}
	}
	return Command{Kind: CmdUnknown, Raw: raw}
}

const helpText = `Commands:
  <n>      pick the n-th entry
  b        back one step
  r        restart the symptom (or retry loading the machine)
  s        symptom list
  m        machine list
  clear    forget the saved session
  q        quit`
