package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// LoadRules reads the clinic-label rule file at path. An empty path returns
// an empty rule set, which the engine replaces with its built-in rules.
//
// Example file:
//
//	rules:
//	  - op: require
//	    value: "ORGANIZATION"
//	  - op: after
//	    value: "ORGANIZATION: "
//	  - op: before
//	    value: "Clinic"
//	  - op: trim
//	diagnostic_labels: ["Diagnostic"]
func LoadRules(path string) (models.ClinicRules, error) {
	if path == "" {
		return models.ClinicRules{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.ClinicRules{}, fmt.Errorf("clinic rules: read %q: %w", path, err)
	}

	var rules models.ClinicRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return models.ClinicRules{}, fmt.Errorf("clinic rules: parse yaml: %w", err)
	}
	if len(rules.Rules) == 0 {
		return models.ClinicRules{}, fmt.Errorf("clinic rules: %q defines no rules", path)
	}
	if err := rules.Validate(); err != nil {
		return models.ClinicRules{}, fmt.Errorf("clinic rules: %w", err)
	}

	return rules, nil
}
