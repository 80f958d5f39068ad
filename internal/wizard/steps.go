// Package wizard implements the multi-step intake form: immutable step
// definitions loaded from YAML and the navigation state machine that gates
// each step on its required fields. The same definitions are served to the
// browser so the client wizard and the server validate from one source.
package wizard

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed steps.yaml
var defaultStepsYAML []byte

// StepSet is the ordered, immutable wizard configuration. The last step must
// be the review step; positions are 1-based and derived from declaration
// order.
type StepSet struct {
	Steps []StepDefinition `yaml:"steps"`
}

// StepDefinition describes one wizard step.
type StepDefinition struct {
	ID     string            `yaml:"id" json:"id"`
	Title  string            `yaml:"title" json:"title"`
	Review bool              `yaml:"review,omitempty" json:"review,omitempty"`
	Fields []FieldDefinition `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// FieldDefinition describes one form field within a step.
type FieldDefinition struct {
	Field     string            `yaml:"field" json:"field"`
	Label     string            `yaml:"label" json:"label"`
	Type      string            `yaml:"type" json:"type"` // text, email, phone, date, choice, multichoice, textarea, checkbox
	Required  bool              `yaml:"required,omitempty" json:"required,omitempty"`
	Options   []string          `yaml:"options,omitempty" json:"options,omitempty"`
	DependsOn []FieldDependency `yaml:"depends_on,omitempty" json:"dependsOn,omitempty"`
}

// FieldDependency makes a field visible (and required, when Requires is set)
// only while another field holds the given value.
type FieldDependency struct {
	Field    string `yaml:"field" json:"field"`
	Value    string `yaml:"value" json:"value"`
	Requires bool   `yaml:"requires,omitempty" json:"requires,omitempty"`
}

// Default returns the embedded step configuration.
func Default() (*StepSet, error) {
	return parseSteps(defaultStepsYAML)
}

// LoadFile loads a step configuration from a YAML file, for deployments
// that override the embedded default.
func LoadFile(path string) (*StepSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wizard: reading %s: %w", path, err)
	}
	set, err := parseSteps(data)
	if err != nil {
		return nil, fmt.Errorf("wizard: %s: %w", path, err)
	}
	return set, nil
}

func parseSteps(data []byte) (*StepSet, error) {
	var set StepSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing steps: %w", err)
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// validate checks structural invariants: at least one content step, a single
// trailing review step, unique field identifiers, and dependencies that
// reference declared fields.
func (s *StepSet) validate() error {
	if len(s.Steps) < 2 {
		return fmt.Errorf("step set needs at least one content step and a review step")
	}
	for i, st := range s.Steps {
		if st.ID == "" {
			return fmt.Errorf("step %d has no id", i+1)
		}
		if st.Review && i != len(s.Steps)-1 {
			return fmt.Errorf("review step %q must be last", st.ID)
		}
	}
	if !s.Steps[len(s.Steps)-1].Review {
		return fmt.Errorf("last step must be the review step")
	}

	known := make(map[string]bool)
	for _, st := range s.Steps {
		for _, f := range st.Fields {
			if known[f.Field] {
				return fmt.Errorf("duplicate field %q", f.Field)
			}
			known[f.Field] = true
		}
	}
	for _, st := range s.Steps {
		for _, f := range st.Fields {
			for _, dep := range f.DependsOn {
				if !known[dep.Field] {
					return fmt.Errorf("field %q depends on unknown field %q", f.Field, dep.Field)
				}
			}
		}
	}
	return nil
}

// Count returns the number of steps, review step included.
func (s *StepSet) Count() int { return len(s.Steps) }

// Step returns the definition at a 1-based position.
func (s *StepSet) Step(pos int) StepDefinition { return s.Steps[pos-1] }
