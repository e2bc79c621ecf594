package runner

import (
	"io"
	"os"

	"github.com/techninja/techninja/internal/presentation/tui"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// DefaultRenderer picks glamour for terminals and raw markdown for everything else.
func DefaultRenderer(w io.Writer) ContentRenderer {
	if IsTerminal(w) {
		return tui.NewRenderer()
	}
	return tui.PlainRenderer
}
