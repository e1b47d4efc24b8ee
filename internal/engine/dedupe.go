package engine

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

type overlapClientKey struct {
	ProviderID string
	Clinic     string
	ClientID   string
	Location   string
}

type providerClinicKey struct {
	ProviderID string
	Supervisor string
	Clinic     string
}

// Deduplicate collapses clinic-labelled rows to one row per provider and
// clinic for each row type.
//
// Overlap rows may repeat one direct interval once per overlapping
// supervisor, so they are reduced in two passes: first per client and direct
// location, keeping the largest direct value and summing supervision across
// distinct supervisors (a supervisor repeated at one location counts once), then
// per provider and clinic, summing both. Direct-only and supervision-only rows
// are summed in a single pass. Client and location fields are cleared on the
// output, which makes the grouper idempotent.
func Deduplicate(rows []models.ClassifiedRow) []models.ClassifiedRow {
	byType := lo.GroupBy(rows, func(r models.ClassifiedRow) models.RowType { return r.RowType })

	perClient := reduceBy(byType[models.RowOverlap],
		func(r models.ClassifiedRow) overlapClientKey {
			return overlapClientKey{r.DirectProviderID, r.Clinic, r.ClientID, r.DirectLocation}
		},
		func(_ overlapClientKey, group []models.ClassifiedRow) models.ClassifiedRow {
			out := collapse(reduceBy(group, supervisorAt, largestSupervision))
			out.DirectHours = lo.MaxBy(group, func(a, b models.ClassifiedRow) bool {
				return a.DirectHours.GreaterThan(b.DirectHours)
			}).DirectHours
			return out
		})

	out := make([]models.ClassifiedRow, 0, len(rows))
	out = append(out, sumByProviderClinic(byType[models.RowDirectOnly], noSupervisor)...)
	out = append(out, sumByProviderClinic(perClient, noSupervisor)...)
	out = append(out, sumByProviderClinic(byType[models.RowSupervisionOnly], supervisorOf)...)
	return out
}

func noSupervisor(models.ClassifiedRow) string { return "" }

type supervisorKey struct {
	Supervisor string
	Location   string
}

func supervisorAt(r models.ClassifiedRow) supervisorKey {
	return supervisorKey{supervisorOf(r), r.SupervisorLocation}
}

// largestSupervision keeps the row with the most supervision hours, with the
// group's flags unioned into it.
func largestSupervision(_ supervisorKey, group []models.ClassifiedRow) models.ClassifiedRow {
	out := lo.MaxBy(group, func(a, b models.ClassifiedRow) bool {
		return a.SupervisionHours.GreaterThan(b.SupervisionHours)
	})
	out.Flags = lo.Uniq(lo.FlatMap(group, func(r models.ClassifiedRow, _ int) []models.AnomalyKind { return r.Flags }))
	if len(out.Flags) == 0 {
		out.Flags = nil
	}
	return out
}

// supervisorOf identifies a supervisor by id, or by name for pre-classified
// rows that carry no supervisor id.
func supervisorOf(r models.ClassifiedRow) string {
	if r.SupervisorID != "" {
		return r.SupervisorID
	}
	return r.SupervisorName().Full()
}

func sumByProviderClinic(rows []models.ClassifiedRow, supervisor func(models.ClassifiedRow) string) []models.ClassifiedRow {
	return reduceBy(rows,
		func(r models.ClassifiedRow) providerClinicKey {
			return providerClinicKey{ProviderID: r.DirectProviderID, Supervisor: supervisor(r), Clinic: r.Clinic}
		},
		func(_ providerClinicKey, group []models.ClassifiedRow) models.ClassifiedRow {
			return collapse(group)
		})
}

// collapse merges a group into its first row: hours are summed, flags are
// unioned, per-client fields are cleared.
func collapse(group []models.ClassifiedRow) models.ClassifiedRow {
	out := group[0]
	out.ClientID = ""
	out.ClientName = ""
	out.DirectLocation = ""
	out.SupervisorLocation = ""
	if len(group) > 1 && out.RowType != models.RowSupervisionOnly {
		out.SupervisorID = ""
		out.SupervisorFirstName = ""
		out.SupervisorLastName = ""
	}
	out.DirectHours = sumHours(group, func(r models.ClassifiedRow) decimal.Decimal { return r.DirectHours })
	out.SupervisionHours = sumHours(group, func(r models.ClassifiedRow) decimal.Decimal { return r.SupervisionHours })
	out.Flags = lo.Uniq(lo.FlatMap(group, func(r models.ClassifiedRow, _ int) []models.AnomalyKind { return r.Flags }))
	if len(out.Flags) == 0 {
		out.Flags = nil
	}
	return out
}
