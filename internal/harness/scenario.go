package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/polydb/internal/polygon"
)

//go:embed scenarios/demo.yaml
var demoScenarioYAML []byte

// Step operation names.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpLookup = "lookup"
	OpList   = "list"
)

// Scenario is a named sequence of store operations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description"`

	// Steps run in order, each in its own transaction.
	Steps []Step `yaml:"steps"`
}

// Step is exactly one operation plus an optional expectation.
type Step struct {
	Insert *polygon.Polygon `yaml:"insert,omitempty"`
	Update *polygon.Polygon `yaml:"update,omitempty"`
	Lookup string           `yaml:"lookup,omitempty"`
	List   bool             `yaml:"list,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect holds the optional checks for a step. Nil fields are not checked.
type Expect struct {
	Found        *bool   `yaml:"found,omitempty"`
	Sides        *int    `yaml:"sides,omitempty"`
	SidesEnglish *string `yaml:"sides_english,omitempty"`
	Rows         *int64  `yaml:"rows,omitempty"`
	Count        *int    `yaml:"count,omitempty"`
}

// expectFields lists the expectation keys each operation can check.
var expectFields = map[string][]string{
	OpInsert: {},
	OpUpdate: {"rows"},
	OpLookup: {"found", "sides", "sides_english"},
	OpList:   {"count"},
}

// keys returns the yaml names of the fields set on e.
func (e *Expect) keys() []string {
	var keys []string
	if e.Found != nil {
		keys = append(keys, "found")
	}
	if e.Sides != nil {
		keys = append(keys, "sides")
	}
	if e.SidesEnglish != nil {
		keys = append(keys, "sides_english")
	}
	if e.Rows != nil {
		keys = append(keys, "rows")
	}
	if e.Count != nil {
		keys = append(keys, "count")
	}
	return keys
}

// Op returns the step's operation name, or "" if none or several are set.
func (s Step) Op() string {
	var ops []string
	if s.Insert != nil {
		ops = append(ops, OpInsert)
	}
	if s.Update != nil {
		ops = append(ops, OpUpdate)
	}
	if s.Lookup != "" {
		ops = append(ops, OpLookup)
	}
	if s.List {
		ops = append(ops, OpList)
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so typos
// like "expct:" fail loudly instead of silently skipping a check.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// DemoScenario returns the built-in demonstration: triangle and square are
// inserted, square is updated, and triangle is looked up.
func DemoScenario() *Scenario {
	scenario, err := ParseScenario(demoScenarioYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded demo scenario: %v", err))
	}
	return scenario
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		op := step.Op()
		if op == "" {
			return fmt.Errorf("step %d: exactly one of insert, update, lookup, list is required", i+1)
		}
		switch op {
		case OpInsert:
			if step.Insert.Name == "" {
				return fmt.Errorf("step %d: insert requires a name", i+1)
			}
		case OpUpdate:
			if step.Update.Name == "" {
				return fmt.Errorf("step %d: update requires a name", i+1)
			}
		}

		if step.Expect != nil {
			for _, key := range step.Expect.keys() {
				if !slices.Contains(expectFields[op], key) {
					return fmt.Errorf("step %d: expect.%s does not apply to %s (allowed: %v)", i+1, key, op, expectFields[op])
				}
			}
		}
	}

	return nil
}
