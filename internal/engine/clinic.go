package engine

import (
	"strings"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// DefaultClinicRules returns the built-in location cleanup: keep only
// organization locations, take the name after the "ORGANIZATION: " prefix and
// before the word "Clinic", and drop a truncated street suffix.
func DefaultClinicRules() models.ClinicRules {
	return models.ClinicRules{
		Rules: []models.ClinicRule{
			{Op: models.RuleRequire, Value: "ORGANIZATION"},
			{Op: models.RuleAfter, Value: "ORGANIZATION: "},
			{Op: models.RuleBefore, Value: "Clinic"},
			{Op: models.RuleTrim},
			{Op: models.RuleReplace, Value: " 8528 Unive", With: ""},
			{Op: models.RuleTrim},
		},
		DiagnosticLabels: []string{"Diagnostic", "Diagnostics"},
	}
}

// CleanLabel runs the rule list over one raw label. ok is false when a
// require rule fails or nothing is left of the label.
func CleanLabel(rules []models.ClinicRule, label string) (clean string, ok bool) {
	clean = label
	for _, r := range rules {
		switch r.Op {
		case models.RuleRequire:
			if !strings.Contains(clean, r.Value) {
				return "", false
			}
		case models.RuleAfter:
			if _, after, found := strings.Cut(clean, r.Value); found {
				clean = after
			}
		case models.RuleBefore:
			if before, _, found := strings.Cut(clean, r.Value); found {
				clean = before
			}
		case models.RuleTrimPrefix:
			clean = strings.TrimPrefix(clean, r.Value)
		case models.RuleTrimSuffix:
			clean = strings.TrimSuffix(clean, r.Value)
		case models.RuleReplace:
			if r.Value != "" {
				clean = strings.ReplaceAll(clean, r.Value, r.With)
			}
		case models.RuleTrim:
			clean = strings.TrimSpace(clean)
		}
	}
	return clean, clean != ""
}

// Clinic derives the clinic label for a row location. ok is false when the
// location does not survive the rule list. A diagnostic-only label is replaced
// by the client's office clinic when that cleans to a usable label.
func Clinic(rules models.ClinicRules, location, office string) (string, bool) {
	clinic, ok := CleanLabel(rules.Rules, location)
	if !ok || !isDiagnostic(rules, clinic) {
		return clinic, ok
	}
	if fallback, fok := CleanLabel(rules.Rules, office); fok && !isDiagnostic(rules, fallback) {
		return fallback, true
	}
	return clinic, true
}

func isDiagnostic(rules models.ClinicRules, label string) bool {
	for _, d := range rules.DiagnosticLabels {
		if strings.EqualFold(label, d) {
			return true
		}
	}
	return false
}
