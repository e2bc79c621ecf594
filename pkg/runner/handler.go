package runner

import (
	"context"

	"github.com/techninja/techninja/pkg/domain"
)

// ScreenMode names the panel the runner is showing.
type ScreenMode string

const (
	ScreenMachines    ScreenMode = "machines"
	ScreenLoadFailure ScreenMode = "load_failure"
	ScreenSymptoms    ScreenMode = "symptoms"
	ScreenStep        ScreenMode = "step"
)

// Screen is everything a handler needs to draw one turn.
type Screen struct {
	Mode     ScreenMode       `json:"mode"`
	View     domain.View      `json:"view"`
	Machine  *domain.Machine  `json:"machine,omitempty"`
	Machines []domain.Machine `json:"machines,omitempty"`
	Error    string           `json:"error,omitempty"`
	Notice   string           `json:"notice,omitempty"`

	// Markdown is the human rendering of the screen.
	Markdown string `json:"-"`
	// Hint lists the commands that make sense on this screen.
	Hint string `json:"-"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a screen.
	Output(ctx context.Context, screen Screen) error

	// Input reads a response from the user.
	// It returns io.EOF when the input is exhausted and ctx.Err() when ctx is done.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, confirmations) outside the screen.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the loop to a library.
type ContentRenderer func(string) (string, error)
