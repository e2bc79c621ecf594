/*
Package techninja is a guided troubleshooting wizard for appliance technicians.

A technician picks a machine, then a symptom, and is walked through a graph of
diagnostic steps until a terminal result (likely cause, field fix, warnings and a
confidence rating) is reached. Machine graphs are static documents supplied from
outside; the wizard only reads them.

# Architecture

The Wizard composes three parts:

  - the machine registry (pkg/registry), which loads the machine index, falls back
    to a built-in machine when the index is unusable, and resolves each machine's
    graph at most once;
  - the traversal engine (internal/runtime), the state machine that owns the current
    symptom, step and history;
  - the session store (pkg/session), which persists a versioned snapshot after every
    state change and reconciles it against the registry on the next start.

Documents come from a ports.GraphSource (directory, HTTP, Loam repository or memory)
and sessions go to a ports.SnapshotStore (file, Redis, SQLite or memory).

# Usage

	source := file.NewSource("./data")
	wiz, err := techninja.New(source, techninja.WithSnapshotStore(file.NewStore("")))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := wiz.Boot(ctx); err != nil {
		log.Fatal(err)
	}

	_ = wiz.StartSymptom(ctx, "no-steam")
	for !wiz.IsTerminal() {
		view := wiz.View()
		// Present view.Step and view.Options, then:
		_ = wiz.Choose(ctx, 0)
	}

Front-ends never touch the engine directly: they render domain.View values and
issue commands. Commands that turn out to be no-ops return nil.
*/
package techninja
