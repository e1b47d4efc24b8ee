package engine

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// Residuals holds the three attributed row sets.
type Residuals struct {
	DirectOnly      []models.ClassifiedRow
	Overlap         []models.ClassifiedRow
	SupervisionOnly []models.ClassifiedRow
	Anomalies       []models.Anomaly
}

// Rows returns the union of the three row sets.
func (r Residuals) Rows() []models.ClassifiedRow {
	rows := make([]models.ClassifiedRow, 0, len(r.DirectOnly)+len(r.Overlap)+len(r.SupervisionOnly))
	rows = append(rows, r.DirectOnly...)
	rows = append(rows, r.Overlap...)
	return append(rows, r.SupervisionOnly...)
}

// ComputeResiduals subtracts attributed overlap from direct and supervision
// totals. Direct residuals are never clamped: a negative value is emitted with
// a NegativeResidual flag and anomaly. Supervision residuals are kept only
// when strictly positive.
func ComputeResiduals(
	direct []models.DirectTotal,
	supervision []models.SupervisionTotal,
	overlaps []models.OverlapTotal,
) Residuals {
	var out Residuals

	overlapByDirect := sumOverlapBy(overlaps, models.OverlapKey.DirectKey)
	overlapBySupervision := sumOverlapBy(overlaps, models.OverlapKey.SupervisionKey)

	for _, dt := range direct {
		residual := dt.Hours.Sub(overlapByDirect[dt.DirectKey])
		row := models.ClassifiedRow{
			RowType:          models.RowDirectOnly,
			ClientID:         dt.ClientID,
			DirectProviderID: dt.ProviderID,
			DirectLocation:   dt.Location,
			DirectHours:      residual,
			SupervisionHours: decimal.Zero,
		}
		if residual.IsNegative() {
			row.Flags = []models.AnomalyKind{models.AnomalyNegativeResidual}
			out.Anomalies = append(out.Anomalies, models.Anomaly{
				Kind: models.AnomalyNegativeResidual,
				Message: fmt.Sprintf("direct hours %s minus overlap %s is negative",
					models.FormatHours(dt.Hours), models.FormatHours(overlapByDirect[dt.DirectKey])),
				ClientID:   dt.ClientID,
				ProviderID: dt.ProviderID,
				Location:   dt.Location,
				Value:      residual,
			})
		}
		if row.HasHours() {
			out.DirectOnly = append(out.DirectOnly, row)
		}
	}

	for _, ot := range overlaps {
		out.Overlap = append(out.Overlap, models.ClassifiedRow{
			RowType:            models.RowOverlap,
			ClientID:           ot.ClientID,
			DirectProviderID:   ot.DirectProviderID,
			DirectLocation:     ot.DirectLocation,
			SupervisorID:       ot.SupervisorID,
			SupervisorLocation: ot.SupervisorLocation,
			DirectHours:        ot.Hours,
			SupervisionHours:   ot.Hours,
		})
	}

	for _, st := range supervision {
		residual := st.Hours.Sub(overlapBySupervision[st.SupervisionKey])
		if !residual.IsPositive() {
			continue
		}
		out.SupervisionOnly = append(out.SupervisionOnly, models.ClassifiedRow{
			RowType:            models.RowSupervisionOnly,
			ClientID:           st.ClientID,
			SupervisorID:       st.SupervisorID,
			SupervisorLocation: st.Location,
			DirectHours:        decimal.Zero,
			SupervisionHours:   residual,
		})
	}

	return out
}

func sumOverlapBy[K comparable](overlaps []models.OverlapTotal, key func(models.OverlapKey) K) map[K]decimal.Decimal {
	sums := reduceBy(overlaps,
		func(t models.OverlapTotal) K { return key(t.OverlapKey) },
		func(k K, group []models.OverlapTotal) lo.Tuple2[K, decimal.Decimal] {
			return lo.T2(k, sumHours(group, func(t models.OverlapTotal) decimal.Decimal { return t.Hours }))
		})
	return lo.Associate(sums, func(t lo.Tuple2[K, decimal.Decimal]) (K, decimal.Decimal) {
		return t.A, t.B
	})
}

func sumHours[T any](items []T, hours func(T) decimal.Decimal) decimal.Decimal {
	return lo.Reduce(items, func(acc decimal.Decimal, item T, _ int) decimal.Decimal {
		return acc.Add(hours(item))
	}, decimal.Zero)
}
