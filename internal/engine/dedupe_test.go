package engine

import (
	"reflect"
	"testing"

	"github.com/j-veylop/supervision-hours/internal/models"
)

func overlapRow(client, provider, supervisor, clinic, direct, sup string) models.ClassifiedRow {
	return models.ClassifiedRow{
		RowType:          models.RowOverlap,
		ClientID:         client,
		DirectProviderID: provider,
		SupervisorID:     supervisor,
		DirectLocation:   downtown,
		Clinic:           clinic,
		DirectHours:      hours(direct),
		SupervisionHours: hours(sup),
	}
}

func TestDeduplicate_OverlapTwoPass(t *testing.T) {
	rows := []models.ClassifiedRow{
		// one 1h direct interval for C1 replicated once per supervisor
		overlapRow("C1", "P1", "S1", "Downtown", "1", "1"),
		overlapRow("C1", "P1", "S2", "Downtown", "1", "0.5"),
		overlapRow("C2", "P1", "S1", "Downtown", "0.75", "0.75"),
		{RowType: models.RowDirectOnly, ClientID: "C1", DirectProviderID: "P1", Clinic: "Downtown", DirectHours: hours("2"), SupervisionHours: hours("0")},
		{RowType: models.RowDirectOnly, ClientID: "C2", DirectProviderID: "P1", Clinic: "Downtown", DirectHours: hours("0.5"), SupervisionHours: hours("0")},
	}

	got := Deduplicate(rows)
	if len(got) != 2 {
		t.Fatalf("Deduplicate() returned %d rows, want 2: %v", len(got), rowKeys(got))
	}

	directOnly, overlap := got[0], got[1]
	if directOnly.RowType != models.RowDirectOnly || models.FormatHours(directOnly.DirectHours) != "2.50" {
		t.Errorf("direct-only row = %s, want 2.50 direct", rowKey(directOnly))
	}
	if overlap.RowType != models.RowOverlap {
		t.Fatalf("second row type = %s, want overlap", overlap.RowType)
	}
	if models.FormatHours(overlap.DirectHours) != "1.75" {
		t.Errorf("overlap direct = %s, want 1.75", models.FormatHours(overlap.DirectHours))
	}
	if models.FormatHours(overlap.SupervisionHours) != "2.25" {
		t.Errorf("overlap supervision = %s, want 2.25", models.FormatHours(overlap.SupervisionHours))
	}
	if overlap.ClientID != "" || overlap.DirectLocation != "" {
		t.Errorf("overlap row keeps client fields: %q %q", overlap.ClientID, overlap.DirectLocation)
	}
}

func TestDeduplicate_RepeatedSupervisorCountsOnce(t *testing.T) {
	tests := []struct {
		name    string
		rows    []models.ClassifiedRow
		wantSup string
	}{
		{
			name: "same row twice",
			rows: []models.ClassifiedRow{
				overlapRow("C1", "P1", "S1", "Downtown", "0.5", "0.5"),
				overlapRow("C1", "P1", "S1", "Downtown", "0.5", "0.5"),
			},
			wantSup: "0.50",
		},
		{
			name: "same supervisor keeps largest",
			rows: []models.ClassifiedRow{
				overlapRow("C1", "P1", "S1", "Downtown", "1", "0.25"),
				overlapRow("C1", "P1", "S1", "Downtown", "1", "0.75"),
				overlapRow("C1", "P1", "S2", "Downtown", "1", "0.5"),
			},
			wantSup: "1.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deduplicate(tt.rows)
			if len(got) != 1 {
				t.Fatalf("Deduplicate() returned %d rows, want 1: %v", len(got), rowKeys(got))
			}
			if sup := models.FormatHours(got[0].SupervisionHours); sup != tt.wantSup {
				t.Errorf("supervision = %s, want %s", sup, tt.wantSup)
			}
		})
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	rows := []models.ClassifiedRow{
		overlapRow("C1", "P1", "S1", "Downtown", "1", "1"),
		overlapRow("C1", "P1", "S2", "Downtown", "1", "1"),
		overlapRow("C1", "P2", "S1", "Eastside", "0.5", "0.5"),
		{RowType: models.RowDirectOnly, ClientID: "C1", DirectProviderID: "P1", Clinic: "Downtown", DirectHours: hours("-1"), SupervisionHours: hours("0"),
			Flags: []models.AnomalyKind{models.AnomalyNegativeResidual}},
		{RowType: models.RowSupervisionOnly, ClientID: "C1", SupervisorID: "S2", Clinic: "Downtown", DirectHours: hours("0"), SupervisionHours: hours("1")},
		{RowType: models.RowSupervisionOnly, ClientID: "C3", SupervisorID: "S2", Clinic: "Downtown", DirectHours: hours("0"), SupervisionHours: hours("0.25")},
	}

	once := Deduplicate(rows)
	twice := Deduplicate(once)
	if !reflect.DeepEqual(rowKeys(once), rowKeys(twice)) {
		t.Errorf("Deduplicate() is not idempotent:\nonce:  %v\ntwice: %v", rowKeys(once), rowKeys(twice))
	}
}

func TestLabelClinics_DropsUnmatched(t *testing.T) {
	rows := []models.ClassifiedRow{
		{RowType: models.RowDirectOnly, DirectProviderID: "P1", DirectLocation: downtown},
		{RowType: models.RowDirectOnly, DirectProviderID: "P1", DirectLocation: "Client Home"},
		{RowType: models.RowSupervisionOnly, SupervisorID: "S1", SupervisorLocation: "ORGANIZATION: Eastside Clinic"},
	}

	got, dropped := LabelClinics(DefaultClinicRules(), rows)
	if dropped != 1 {
		t.Errorf("LabelClinics() dropped %d rows, want 1", dropped)
	}
	if len(got) != 2 || got[0].Clinic != "Downtown" || got[1].Clinic != "Eastside" {
		t.Errorf("LabelClinics() = %v, want Downtown and Eastside", rowKeys(got))
	}
}
