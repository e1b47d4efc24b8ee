package models

import "github.com/shopspring/decimal"

// ReportColumns is the fixed output column order.
var ReportColumns = []string{
	"Clinic",
	"DirectProviderId",
	"DirectProviderName",
	"DirectHours",
	"SupervisionHours",
	"PctOfDirectHoursSupervised",
	"UnsupervisedDirectHours",
	"CredentialSupervisionCodes",
	"CredentialSupervisionHours",
}

// ReportRow is one per-provider, per-clinic summary line.
type ReportRow struct {
	Clinic             string
	DirectProviderID   string
	DirectProviderName string
	DirectHours        decimal.Decimal
	SupervisionHours   decimal.Decimal
	PctSupervised      decimal.NullDecimal
	UnsupervisedHours  decimal.Decimal
	CredentialCodes    int
	CredentialHours    decimal.Decimal
	Flags              []AnomalyKind
}

// Record renders the row in ReportColumns order.
func (r ReportRow) Record() []string {
	codes := "0"
	if r.CredentialCodes != 0 {
		codes = "1"
	}
	return []string{
		r.Clinic,
		r.DirectProviderID,
		r.DirectProviderName,
		FormatHours(r.DirectHours),
		FormatHours(r.SupervisionHours),
		FormatPercent(r.PctSupervised),
		FormatHours(r.UnsupervisedHours),
		codes,
		FormatHours(r.CredentialHours),
	}
}

// CredentialRecord is a provider's certification-board supervision summary.
type CredentialRecord struct {
	ProviderID string
	HasCodes   bool
	Hours      decimal.Decimal
}

// RunStats counts what each engine stage saw and dropped.
type RunStats struct {
	InputRecords         int
	MalformedRecords     int
	ExcludedRecords      int
	DirectIntervals      int
	SupervisionIntervals int
	OverlapPairs         int
	ClassifiedRows       int
	SelfSupervisedRows   int
	UnmatchedLocations   int
	ReportRows           int
}

// Result is everything one engine run produces.
type Result struct {
	Rows       []ReportRow
	Classified []ClassifiedRow
	Anomalies  []Anomaly
	Stats      RunStats
}

// Totals sums direct and supervision hours over all report rows.
func (r *Result) Totals() (direct, supervision decimal.Decimal) {
	for _, row := range r.Rows {
		direct = direct.Add(row.DirectHours)
		supervision = supervision.Add(row.SupervisionHours)
	}
	return direct, supervision
}
