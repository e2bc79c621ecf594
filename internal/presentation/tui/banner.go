package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
	"github.com/techninja/techninja"
)

// PrintBanner writes the TechNinja banner followed by the build stamp.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	// Teal to amber, one shade per line.
	lines := []struct {
		text  string
		color string
	}{
		{"  _____         _     _   _ _       _       ", "#2dd4bf"},
		{" |_   _|__  ___| |__ | \\ | (_)_ __ (_) __ _ ", "#5eead4"},
		{"   | |/ _ \\/ __| '_ \\|  \\| | | '_ \\| |/ _` |", "#a3e635"},
		{"   | |  __/ (__| | | | |\\  | | | | | | (_| |", "#facc15"},
		{"   |_|\\___|\\___|_| |_|_| \\_|_|_| |_|/ |\\__,_|", "#fbbf24"},
		{"                                  |__/      ", "#f59e0b"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  "+techninja.Stamp()).Faint())
	fmt.Fprintln(w)
}
