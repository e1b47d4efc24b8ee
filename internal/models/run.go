package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus is the outcome of one pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// InputMode selects which engine entry point a run uses.
type InputMode string

const (
	// ModeRaw feeds unclassified intervals through every engine stage.
	ModeRaw InputMode = "raw"
	// ModeClassified feeds rows already split into direct/overlap/supervision.
	ModeClassified InputMode = "classified"
)

// RunSummary is the persisted record of one pipeline run.
type RunSummary struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	Window           Window
	Mode             InputMode
	Input            string
	Status           RunStatus
	Error            string
	RowCount         int
	AnomalyCount     int
	DirectHours      decimal.Decimal
	SupervisionHours decimal.Decimal
	ReportPath       string
}

// PctSupervised returns the run-wide percentage of direct hours supervised.
func (r RunSummary) PctSupervised() decimal.NullDecimal {
	return PercentOf(r.SupervisionHours, r.DirectHours)
}

// Duration returns how long the run took.
func (r RunSummary) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ClinicPoint is one clinic's supervision share in one run.
type ClinicPoint struct {
	RunID            string
	StartedAt        time.Time
	Clinic           string
	DirectHours      decimal.Decimal
	SupervisionHours decimal.Decimal
}
