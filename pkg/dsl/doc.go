/*
Package dsl builds machine graphs in Go instead of JSON or YAML documents.

It is handy for tests and for embedding a small catalogue in a binary:

	b := dsl.New()

	b.Symptom("no-steam", "No steam from wand").Start("check-wand")

	b.Step("check-wand").
		Question("Is the steam wand tip clogged?").
		Primary("Yes", "clean-tip").
		Option("No", "check-boiler")

	b.Step("clean-tip").
		Result("Clogged wand tip").
		Cause("Milk residue").
		FieldFix("Soak the tip for 10 minutes").
		Confidence(domain.ConfidenceHigh, 90)

	graph := b.Build()
	src, err := b.Source(domain.Machine{ID: "mastrena2", Name: "Mastrena II"})
*/
package dsl
