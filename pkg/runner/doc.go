/*
Package runner implements the interactive loop that drives a wizard from a terminal
or from another process.

The runner reads one line per turn, maps it to a wizard command and redraws the
current screen. Rendering is delegated to an IOHandler so the same loop serves
humans (TextHandler, markdown rendered with glamour) and scripts (JSONHandler,
one JSON document per screen).

# Commands

	<n>        pick the n-th machine, symptom or option
	b, back    go back one step
	r          restart the symptom (or retry a failed machine load)
	s          back to the symptom list
	m          pick another machine
	clear      forget the saved session
	?          help
	q          quit

# Usage

	wiz, _ := techninja.New(source)
	_ = wiz.Boot(ctx)

	r := runner.New(wiz, runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
