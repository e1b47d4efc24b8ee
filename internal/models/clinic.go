package models

import "fmt"

// RuleOp is a single clinic-label rewrite operation.
type RuleOp string

const (
	// RuleRequire drops labels that do not contain Value.
	RuleRequire RuleOp = "require"
	// RuleAfter keeps the text after the first Value.
	RuleAfter RuleOp = "after"
	// RuleBefore keeps the text before the first Value.
	RuleBefore RuleOp = "before"
	// RuleTrimPrefix removes a leading Value.
	RuleTrimPrefix RuleOp = "trim_prefix"
	// RuleTrimSuffix removes a trailing Value.
	RuleTrimSuffix RuleOp = "trim_suffix"
	// RuleReplace replaces every Value with With.
	RuleReplace RuleOp = "replace"
	// RuleTrim strips surrounding whitespace.
	RuleTrim RuleOp = "trim"
)

// ClinicRule is one step of the ordered clinic-label rule list.
type ClinicRule struct {
	Op    RuleOp `yaml:"op"`
	Value string `yaml:"value,omitempty"`
	With  string `yaml:"with,omitempty"`
}

// ClinicRules turns raw location labels into canonical clinic labels.
type ClinicRules struct {
	Rules []ClinicRule `yaml:"rules"`
	// DiagnosticLabels are cleaned labels that are replaced by the client's
	// office clinic when one is available.
	DiagnosticLabels []string `yaml:"diagnostic_labels"`
}

// Validate checks that every rule has a known op and the value it needs.
func (r ClinicRules) Validate() error {
	for i, rule := range r.Rules {
		switch rule.Op {
		case RuleRequire, RuleAfter, RuleBefore, RuleTrimPrefix, RuleTrimSuffix, RuleReplace:
			if rule.Value == "" {
				return fmt.Errorf("rules[%d]: op %q requires a value", i, rule.Op)
			}
		case RuleTrim:
		default:
			return fmt.Errorf("rules[%d]: unknown op %q", i, rule.Op)
		}
	}
	return nil
}
