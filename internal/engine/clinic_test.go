package engine

import (
	"testing"

	"github.com/j-veylop/supervision-hours/internal/models"
)

func TestCleanLabel_DefaultRules(t *testing.T) {
	rules := DefaultClinicRules().Rules
	tests := []struct {
		label  string
		want   string
		wantOK bool
	}{
		{"ORGANIZATION: Downtown Clinic", "Downtown", true},
		{"ORGANIZATION: Westside 8528 Unive Clinic", "Westside", true},
		{"ORGANIZATION: Northgate", "Northgate", true},
		{"ORGANIZATION: ", "", false},
		{"Client Home", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := CleanLabel(rules, tt.label)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("CleanLabel(%q) = %q, %v; want %q, %v", tt.label, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCleanLabel_CustomRules(t *testing.T) {
	rules := []models.ClinicRule{
		{Op: models.RuleTrimPrefix, Value: "Site - "},
		{Op: models.RuleTrimSuffix, Value: " (Main)"},
		{Op: models.RuleReplace, Value: "St.", With: "Street"},
	}

	got, ok := CleanLabel(rules, "Site - Elm St. (Main)")
	if !ok || got != "Elm Street" {
		t.Errorf("CleanLabel() = %q, %v; want %q, true", got, ok, "Elm Street")
	}
}

func TestClinic_DiagnosticFallback(t *testing.T) {
	rules := DefaultClinicRules()
	tests := []struct {
		name     string
		location string
		office   string
		want     string
	}{
		{"regular label", "ORGANIZATION: Downtown Clinic", "ORGANIZATION: Eastside Clinic", "Downtown"},
		{"diagnostic uses office", "ORGANIZATION: Diagnostic Clinic", "ORGANIZATION: Eastside Clinic", "Eastside"},
		{"diagnostic without office", "ORGANIZATION: Diagnostic Clinic", "", "Diagnostic"},
		{"diagnostic with unmatched office", "ORGANIZATION: Diagnostics Clinic", "Remote", "Diagnostics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Clinic(rules, tt.location, tt.office)
			if !ok || got != tt.want {
				t.Errorf("Clinic() = %q, %v; want %q, true", got, ok, tt.want)
			}
		})
	}
}
