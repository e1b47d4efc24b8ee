package engine

import (
	"github.com/samber/lo"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// AggregateOverlaps sums pair overlap per OverlapKey and drops groups whose
// total is not positive. Totals are not capped at the direct interval's own
// length: two supervisors covering the same hour both count in full.
func AggregateOverlaps(pairs []models.OverlapPair) []models.OverlapTotal {
	totals := reduceBy(pairs, models.OverlapPair.Key, func(k models.OverlapKey, group []models.OverlapPair) models.OverlapTotal {
		minutes := lo.SumBy(group, func(p models.OverlapPair) int64 { return p.Minutes })
		return models.OverlapTotal{OverlapKey: k, Hours: models.HoursFromMinutes(minutes)}
	})
	return lo.Filter(totals, func(t models.OverlapTotal, _ int) bool {
		return t.Hours.IsPositive()
	})
}

// TotalDirect sums direct interval minutes per (client, provider, location).
func TotalDirect(direct []models.ServiceInterval) []models.DirectTotal {
	key := func(s models.ServiceInterval) models.DirectKey {
		return models.DirectKey{ClientID: s.ClientID, ProviderID: s.ProviderID, Location: s.Location}
	}
	return reduceBy(direct, key, func(k models.DirectKey, group []models.ServiceInterval) models.DirectTotal {
		return models.DirectTotal{DirectKey: k, Hours: models.HoursFromMinutes(sumMinutes(group))}
	})
}

// TotalSupervision sums supervision interval minutes per (client, supervisor, location).
func TotalSupervision(supervision []models.ServiceInterval) []models.SupervisionTotal {
	key := func(s models.ServiceInterval) models.SupervisionKey {
		return models.SupervisionKey{ClientID: s.ClientID, SupervisorID: s.ProviderID, Location: s.Location}
	}
	return reduceBy(supervision, key, func(k models.SupervisionKey, group []models.ServiceInterval) models.SupervisionTotal {
		return models.SupervisionTotal{SupervisionKey: k, Hours: models.HoursFromMinutes(sumMinutes(group))}
	})
}

func sumMinutes(intervals []models.ServiceInterval) int64 {
	return lo.SumBy(intervals, models.ServiceInterval.Minutes)
}
