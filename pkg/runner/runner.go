package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/techninja/techninja/internal/logging"
	"github.com/techninja/techninja/internal/presentation/tui"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/ports"
)

// Runner handles the interactive loop over a wizard using the provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	nav     ports.Navigator
	handler IOHandler
	logger  *slog.Logger
	signals bool

	// picking is set while the user browses the machine list on purpose.
	picking bool
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithHandler configures the IOHandler. The default is a TextHandler on stdin/stdout.
func WithHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.handler = handler
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithSignals makes Run stop cleanly on SIGINT/SIGTERM.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.signals = enabled
	}
}

// New creates a Runner driving nav. nav must already be booted.
func New(nav ports.Navigator, opts ...Option) *Runner {
	r := &Runner{
		nav:    nav,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run executes the loop until the user quits, the input ends or ctx is done.
// Command failures are reported to the user and do not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.signals {
		signals := NewSignalManager(ctx)
		defer signals.Stop()
		ctx = signals.Context()
	}

	for {
		screen := r.Screen()
		if err := r.handler.Output(ctx, screen); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		line, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				r.logger.Debug("runner stopped", "reason", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		cmd := ParseCommand(line)
		if cmd.Kind == CmdQuit {
			return nil
		}
		if err := r.Dispatch(ctx, screen, cmd); err != nil {
			r.logger.Debug("command failed", "input", cmd.Raw, "err", err)
			if err := r.handler.SystemOutput(ctx, err.Error()); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
	}
}

// Screen composes the panel for the current state.
func (r *Runner) Screen() Screen {
	state := r.nav.State()
	machines := r.nav.Machines()
	view := r.nav.View()

	s := Screen{View: view}
	if err := r.nav.IndexError(); err != nil {
		s.Notice = "Using the built-in machine list: " + err.Error()
	}
	if m, ok := findMachine(machines, state.MachineID); ok {
		s.Machine = &m
	}

	switch {
	case r.picking || state.MachineID == "":
		s.Mode = ScreenMachines
		s.Machines = machines
		s.Markdown = tui.MachineList(machines)
		s.Hint = "[n] select · [q] quit"
		if state.MachineID != "" {
			s.Hint = "[n] select · [s] back to symptoms · [q] quit"
		}
	case r.nav.Graph() == nil:
		s.Mode = ScreenLoadFailure
		err := r.nav.GraphError()
		if err != nil {
			s.Error = err.Error()
		}
		s.Markdown = tui.LoadFailure(machineOrID(s.Machine, state.MachineID), err)
		s.Hint = "[r] retry · [m] machines · [q] quit"
	case view.Kind == domain.ViewEmpty:
		s.Mode = ScreenSymptoms
		s.Markdown = tui.View(view, machineOrID(s.Machine, state.MachineID))
		s.Hint = "[n] select · [m] machines · [q] quit"
	default:
		s.Mode = ScreenStep
		s.Markdown = tui.View(view, machineOrID(s.Machine, state.MachineID))
		if view.Kind == domain.ViewResult {
			s.Hint = "[r] restart · [b] back · [s] symptoms · [q] quit"
		} else {
			s.Hint = "[n] choose · [b] back · [r] restart · [s] symptoms · [q] quit"
		}
	}
	return s
}

// Dispatch applies one command against the screen it was typed on.
func (r *Runner) Dispatch(ctx context.Context, screen Screen, cmd Command) error {
	switch cmd.Kind {
	case CmdNone:
		return nil
	case CmdPick:
		return r.pick(ctx, screen, cmd.Index)
	case CmdBack:
		return r.nav.Retreat(ctx)
	case CmdRestart:
		if screen.Mode == ScreenLoadFailure {
			return r.selectMachine(ctx, r.nav.State().MachineID)
		}
		return r.nav.RestartSymptom(ctx)
	case CmdSymptoms:
		r.picking = false
		return r.nav.ExitToSymptomList(ctx)
	case CmdMachines:
		r.picking = true
		return nil
	case CmdClear:
		if err := r.nav.ClearSession(ctx); err != nil {
			return err
		}
		return r.handler.SystemOutput(ctx, "Saved session cleared.")
	case CmdHelp:
		return r.handler.SystemOutput(ctx, helpText)
	}
	return fmt.Errorf("unknown command %q (type ? for help)", cmd.Raw)
}

func (r *Runner) pick(ctx context.Context, screen Screen, n int) error {
	switch screen.Mode {
	case ScreenMachines:
		if n > len(screen.Machines) {
			return fmt.Errorf("no machine %d", n)
		}
		r.picking = false
		return r.selectMachine(ctx, screen.Machines[n-1].ID)
	case ScreenSymptoms:
		if n > len(screen.View.Symptoms) {
			return fmt.Errorf("no symptom %d", n)
		}
		return r.nav.StartSymptom(ctx, screen.View.Symptoms[n-1].ID)
	case ScreenStep:
		return r.nav.Choose(ctx, n-1)
	}
	return fmt.Errorf("nothing to pick here (type ? for help)")
}

// selectMachine reports load failures through the next screen rather than as a command error.
func (r *Runner) selectMachine(ctx context.Context, id string) error {
	err := r.nav.SelectMachine(ctx, id)
	var loadErr *domain.LoadError
	if errors.As(err, &loadErr) {
		return nil
	}
	return err
}

func findMachine(machines []domain.Machine, id string) (domain.Machine, bool) {
	for _, m := range machines {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Machine{}, false
}

func machineOrID(m *domain.Machine, id string) domain.Machine {
	if m != nil {
		return *m
	}
	return domain.Machine{ID: id, Name: id}
}
