package techninja_test

import (
	"context"
	"fmt"
	"log"

	"github.com/techninja/techninja"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/dsl"
)

// ExampleWizard walks an in-memory machine from a symptom to its diagnosis and back.
func ExampleWizard() {
	b := dsl.New()
	b.Symptom("no-steam", "No steam from wand").Start("check-wand")
	b.Step("check-wand").
		Question("Is the steam wand tip clogged?").
		Primary("Yes", "clean-tip").
		Option("No", "call-service")
	b.Step("clean-tip").Result("Clogged wand tip").Confidence(domain.ConfidenceHigh, 90)
	b.Step("call-service").Result("Boiler fault").Confidence(domain.ConfidenceLow, -1)

	src, err := b.Source(domain.Machine{ID: "mastrena2", Name: "Mastrena II"})
	if err != nil {
		log.Fatal(err)
	}

	wiz, err := techninja.New(src)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	// The only machine of the catalogue is selected on boot.
	if err := wiz.Boot(ctx); err != nil {
		log.Fatal(err)
	}
	if err := wiz.StartSymptom(ctx, "no-steam"); err != nil {
		log.Fatal(err)
	}

	view := wiz.View()
	fmt.Println(view.Step.Text)
	for i, opt := range view.Options {
		fmt.Printf("%d. %s\n", i+1, opt.Label)
	}

	if err := wiz.Choose(ctx, 0); err != nil {
		log.Fatal(err)
	}
	fmt.Println(wiz.View().Step.Result.Title, wiz.IsTerminal())

	if err := wiz.Retreat(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println(wiz.State().CurrentStepID)

	// Output:
	// Is the steam wand tip clogged?
	// 1. Yes
	// 2. No
	// Clogged wand tip true
	// check-wand
}
