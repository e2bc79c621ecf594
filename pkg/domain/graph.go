package domain

import "strings"

// MachineGraph is the troubleshooting graph of a single machine.
type MachineGraph struct {
	Symptoms []Symptom       `json:"symptoms" yaml:"symptoms" mapstructure:"symptoms"`
	Steps    map[string]Step `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// Symptom is a named entry point into the step graph.
type Symptom struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id"`
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Start       string `json:"start" yaml:"start" mapstructure:"start"`
}

// Step is a node of the graph. A step carrying a Result is terminal;
// otherwise it is a decision offering Options (or a single Next continuation).
type Step struct {
	Text    string   `json:"text" yaml:"text" mapstructure:"text"`
	Note    string   `json:"note,omitempty" yaml:"note,omitempty" mapstructure:"note"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	Next    string   `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
	Result  *Result  `json:"result,omitempty" yaml:"result,omitempty" mapstructure:"result"`
}

// IsResult reports whether the step is a terminal diagnosis.
func (s Step) IsResult() bool {
	return s.Result != nil
}

// Choices returns the options presented for a decision step.
// A bare Next link is presented as a single primary "Continue" option.
func (s Step) Choices() []Option {
	if s.IsResult() {
		return nil
	}
	if len(s.Options) == 0 && s.Next != "" {
		return []Option{{Label: "Continue", Next: s.Next, Primary: true}}
	}
	return s.Options
}

// Option is a choice on a decision step.
type Option struct {
	Label   string `json:"label" yaml:"label" mapstructure:"label"`
	Next    string `json:"next" yaml:"next" mapstructure:"next"`
	Primary bool   `json:"primary,omitempty" yaml:"primary,omitempty" mapstructure:"primary"`
}

// Result is the terminal diagnosis of a step.
type Result struct {
	Title       string      `json:"title" yaml:"title" mapstructure:"title"`
	LikelyCause string      `json:"likelyCause,omitempty" yaml:"likelyCause,omitempty" mapstructure:"likelyCause"`
	FieldFix    []string    `json:"fieldFix,omitempty" yaml:"fieldFix,omitempty" mapstructure:"fieldFix"`
	Official    []string    `json:"official,omitempty" yaml:"official,omitempty" mapstructure:"official"`
	Warnings    []string    `json:"warnings,omitempty" yaml:"warnings,omitempty" mapstructure:"warnings"`
	Confidence  *Confidence `json:"confidence,omitempty" yaml:"confidence,omitempty" mapstructure:"confidence"`
	Provenance  *Provenance `json:"provenance,omitempty" yaml:"provenance,omitempty" mapstructure:"provenance"`
}

// ConfidenceLevel rates how trustworthy a Result is.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "high"
	ConfidenceMedium  ConfidenceLevel = "medium"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceUnknown ConfidenceLevel = "unknown"
)

// ParseConfidenceLevel normalizes a level string. Anything unrecognized is unknown.
func ParseConfidenceLevel(s string) ConfidenceLevel {
	switch ConfidenceLevel(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	case ConfidenceLow:
		return ConfidenceLow
	default:
		return ConfidenceUnknown
	}
}

// Confidence is the structured rating attached to a Result.
// Score, when present, is within 0..100.
type Confidence struct {
	Level ConfidenceLevel `json:"level" yaml:"level" mapstructure:"level"`
	Score *int            `json:"score,omitempty" yaml:"score,omitempty" mapstructure:"score"`
}

// Provenance records where a Result comes from.
type Provenance struct {
	Sources       []string `json:"sources,omitempty" yaml:"sources,omitempty" mapstructure:"sources"`
	LastConfirmed string   `json:"lastConfirmed,omitempty" yaml:"lastConfirmed,omitempty" mapstructure:"lastConfirmed"`
}

// Symptom returns the symptom with the given id.
func (g *MachineGraph) Symptom(id string) (Symptom, bool) {
	if g == nil {
		return Symptom{}, false
	}
	for _, s := range g.Symptoms {
		if s.ID == id {
			return s, true
		}
	}
	return Symptom{}, false
}

// Step returns the step with the given id.
func (g *MachineGraph) Step(id string) (Step, bool) {
	if g == nil || id == "" {
		return Step{}, false
	}
	s, ok := g.Steps[id]
	return s, ok
}

// HasStep reports whether id is a key of Steps.
func (g *MachineGraph) HasStep(id string) bool {
	_, ok := g.Step(id)
	return ok
}
