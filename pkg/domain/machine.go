package domain

// Machine describes an appliance model available in the wizard.
// ConfigRef points to the machine's graph document and is resolved lazily.
type Machine struct {
	ID        string `json:"id" yaml:"id" mapstructure:"id"`
	Name      string `json:"name" yaml:"name" mapstructure:"name"`
	Subtitle  string `json:"subtitle,omitempty" yaml:"subtitle,omitempty" mapstructure:"subtitle"`
	Tag       string `json:"tag,omitempty" yaml:"tag,omitempty" mapstructure:"tag"`
	ConfigRef string `json:"configRef" yaml:"configRef" mapstructure:"configRef"`
}

// Index is the machine catalogue document.
type Index struct {
	Machines []Machine `json:"machines" yaml:"machines" mapstructure:"machines"`
}

// FallbackMachine is the built-in machine used when the index cannot be loaded,
// so the tool stays usable on a first offline run.
func FallbackMachine() Machine {
	return Machine{
		ID:        "mastrena2",
		Name:      "Mastrena II",
		Subtitle:  "Superauto espresso",
		Tag:       "Coffee",
		ConfigRef: "machines/mastrena2.json",
	}
}

// Find returns the machine with the given id.
func (ix *Index) Find(id string) (Machine, bool) {
	for _, m := range ix.Machines {
		if m.ID == id {
			return m, true
		}
	}
	return Machine{}, false
}
