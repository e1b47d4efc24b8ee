package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AnomalyKind classifies a non-fatal data-quality problem.
type AnomalyKind string

const (
	// AnomalyMalformedInterval is a record with a missing id or timestamp, or end <= start.
	AnomalyMalformedInterval AnomalyKind = "malformed_interval"
	// AnomalyIdentityConflict is a provider id seen with two different name pairs.
	AnomalyIdentityConflict AnomalyKind = "identity_conflict"
	// AnomalyNegativeResidual is direct time left negative after subtracting overlap.
	AnomalyNegativeResidual AnomalyKind = "negative_residual"
	// AnomalyUndefinedPercentage is a report row with zero direct hours.
	AnomalyUndefinedPercentage AnomalyKind = "undefined_percentage"
)

// AnomalyKinds lists every kind in a stable order.
var AnomalyKinds = []AnomalyKind{
	AnomalyMalformedInterval,
	AnomalyIdentityConflict,
	AnomalyNegativeResidual,
	AnomalyUndefinedPercentage,
}

// Anomaly is one recorded data-quality problem.
type Anomaly struct {
	Kind       AnomalyKind
	Message    string
	ClientID   string
	ProviderID string
	Location   string
	Value      decimal.Decimal
}

// String implements fmt.Stringer.
func (a Anomaly) String() string {
	return fmt.Sprintf("%s: %s", a.Kind, a.Message)
}

// CountAnomalies tallies anomalies by kind.
func CountAnomalies(anomalies []Anomaly) map[AnomalyKind]int {
	counts := make(map[AnomalyKind]int, len(AnomalyKinds))
	for _, a := range anomalies {
		counts[a.Kind]++
	}
	return counts
}
