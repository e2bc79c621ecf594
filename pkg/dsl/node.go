package dsl

import "github.com/techninja/techninja/pkg/domain"

// SymptomBuilder configures a symptom.
type SymptomBuilder struct {
	symptom domain.Symptom
}

// Start sets the first step of the symptom.
func (s *SymptomBuilder) Start(stepID string) *SymptomBuilder {
	s.symptom.Start = stepID
	return s
}

// Describe sets the symptom description.
func (s *SymptomBuilder) Describe(text string) *SymptomBuilder {
	s.symptom.Description = text
	return s
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step domain.Step
}

// Question sets the text shown for the step.
func (n *StepBuilder) Question(text string) *StepBuilder {
	n.step.Text = text
	return n
}

// Note adds the secondary hint shown under the text.
func (n *StepBuilder) Note(text string) *StepBuilder {
	n.step.Note = text
	return n
}

// Option adds a choice leading to next.
func (n *StepBuilder) Option(label, next string) *StepBuilder {
	n.step.Options = append(n.step.Options, domain.Option{Label: label, Next: next})
	return n
}

// Primary adds a highlighted choice leading to next.
func (n *StepBuilder) Primary(label, next string) *StepBuilder {
	n.step.Options = append(n.step.Options, domain.Option{Label: label, Next: next, Primary: true})
	return n
}

// Go adds a bare continuation link, shown as a single Continue choice.
func (n *StepBuilder) Go(next string) *StepBuilder {
	n.step.Next = next
	return n
}

// Result turns the step into a terminal diagnosis.
func (n *StepBuilder) Result(title string) *StepBuilder {
	n.result().Title = title
	return n
}

// Cause sets the likely cause of the diagnosis.
func (n *StepBuilder) Cause(text string) *StepBuilder {
	n.result().LikelyCause = text
	return n
}

// FieldFix appends field fix instructions.
func (n *StepBuilder) FieldFix(lines ...string) *StepBuilder {
	r := n.result()
	r.FieldFix = append(r.FieldFix, lines...)
	return n
}

// Official appends official procedure lines.
func (n *StepBuilder) Official(lines ...string) *StepBuilder {
	r := n.result()
	r.Official = append(r.Official, lines...)
	return n
}

// Warn appends safety warnings.
func (n *StepBuilder) Warn(lines ...string) *StepBuilder {
	r := n.result()
	r.Warnings = append(r.Warnings, lines...)
	return n
}

// Confidence rates the diagnosis. A negative score is left unset.
func (n *StepBuilder) Confidence(level domain.ConfidenceLevel, score int) *StepBuilder {
	c := &domain.Confidence{Level: level}
	if score >= 0 {
		c.Score = &score
	}
	n.result().Confidence = c
	return n
}

// Sources records where the diagnosis comes from.
func (n *StepBuilder) Sources(lastConfirmed string, sources ...string) *StepBuilder {
	n.result().Provenance = &domain.Provenance{Sources: sources, LastConfirmed: lastConfirmed}
	return n
}

func (n *StepBuilder) result() *domain.Result {
	if n.step.Result == nil {
		n.step.Result = &domain.Result{}
	}
	return n.step.Result
}

func (n *StepBuilder) build() domain.Step {
	s := n.step
	s.Options = append([]domain.Option(nil), n.step.Options...)
	if n.step.Result != nil {
		r := *n.step.Result
		s.Result = &r
	}
	return s
}
