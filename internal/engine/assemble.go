package engine

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// LabelClinics sets Clinic on every row from its service location, falling
// back to the client office for diagnostic-only labels. Supervision-only rows
// are labelled from the supervisor's location. Rows whose location does not
// survive the rule list are dropped; the second return value counts them.
func LabelClinics(rules models.ClinicRules, rows []models.ClassifiedRow) ([]models.ClassifiedRow, int) {
	out := make([]models.ClassifiedRow, 0, len(rows))
	for _, r := range rows {
		location := r.DirectLocation
		if r.RowType == models.RowSupervisionOnly {
			location = r.SupervisorLocation
		}
		clinic, ok := Clinic(rules, location, r.ClientOffice)
		if !ok {
			continue
		}
		r.Clinic = clinic
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}

// Assemble builds one report row per direct provider and clinic from
// deduplicated rows. Rows without a direct provider are skipped, so a
// provider that only supervised never gets a row. Names come from dir when it
// knows the id. The result is sorted by clinic, provider name and provider id.
func Assemble(rows []models.ClassifiedRow, dir *Directory) ([]models.ReportRow, []models.Anomaly) {
	withProvider := lo.Filter(rows, func(r models.ClassifiedRow, _ int) bool {
		return r.DirectProviderID != ""
	})

	report := reduceBy(withProvider,
		func(r models.ClassifiedRow) providerClinicKey {
			return providerClinicKey{ProviderID: r.DirectProviderID, Clinic: r.Clinic}
		},
		func(k providerClinicKey, group []models.ClassifiedRow) models.ReportRow {
			directOnly := lo.Filter(group, func(r models.ClassifiedRow, _ int) bool {
				return r.RowType == models.RowDirectOnly
			})
			row := models.ReportRow{
				Clinic:             k.Clinic,
				DirectProviderID:   k.ProviderID,
				DirectProviderName: providerName(dir, group),
				DirectHours:        sumHours(group, func(r models.ClassifiedRow) decimal.Decimal { return r.DirectHours }),
				SupervisionHours:   sumHours(group, func(r models.ClassifiedRow) decimal.Decimal { return r.SupervisionHours }),
				UnsupervisedHours:  sumHours(directOnly, func(r models.ClassifiedRow) decimal.Decimal { return r.DirectHours }),
				CredentialHours:    decimal.Zero,
				Flags:              lo.Uniq(lo.FlatMap(group, func(r models.ClassifiedRow, _ int) []models.AnomalyKind { return r.Flags })),
			}
			row.PctSupervised = models.PercentOf(row.SupervisionHours, row.DirectHours)
			return row
		})

	var anomalies []models.Anomaly
	for i := range report {
		row := &report[i]
		if !row.PctSupervised.Valid {
			row.Flags = append(row.Flags, models.AnomalyUndefinedPercentage)
			anomalies = append(anomalies, models.Anomaly{
				Kind:       models.AnomalyUndefinedPercentage,
				Message:    fmt.Sprintf("provider %s at %s has zero direct hours", row.DirectProviderID, row.Clinic),
				ProviderID: row.DirectProviderID,
				Location:   row.Clinic,
				Value:      row.SupervisionHours,
			})
		}
		if len(row.Flags) == 0 {
			row.Flags = nil
		}
	}

	SortReport(report)
	return report, anomalies
}

// SortReport orders rows by clinic, then provider name, then provider id.
func SortReport(rows []models.ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Clinic != b.Clinic {
			return a.Clinic < b.Clinic
		}
		if a.DirectProviderName != b.DirectProviderName {
			return a.DirectProviderName < b.DirectProviderName
		}
		return a.DirectProviderID < b.DirectProviderID
	})
}

func providerName(dir *Directory, group []models.ClassifiedRow) string {
	if dir != nil {
		if name := dir.DisplayName(group[0].DirectProviderID); name != "" {
			return name
		}
	}
	for _, r := range group {
		if n := r.DirectName(); !n.IsZero() {
			return n.Full()
		}
	}
	return ""
}
