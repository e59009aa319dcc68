package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is a regression plan file: which modules to discover, which name
// patterns to include, and the report identity to use.
type Plan struct {
	Suite       string   `yaml:"suite,omitempty"`
	Package     string   `yaml:"package,omitempty"`
	ResultsFile string   `yaml:"results_file,omitempty"`
	Seed        *uint64  `yaml:"seed,omitempty"`
	Modules     []string `yaml:"modules"`
	Filters     []string `yaml:"filters,omitempty"`
}

// LoadPlan reads and validates a YAML regression plan.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %q: %w", path, err)
	}
	if len(plan.Modules) == 0 {
		return nil, fmt.Errorf("plan file %q lists no modules", path)
	}
	return &plan, nil
}
