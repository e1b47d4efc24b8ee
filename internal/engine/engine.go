// Package engine attributes direct service time to supervised and
// unsupervised hours and aggregates it into per-provider report rows.
//
// The engine is a pure batch computation. It never fails: malformed input is
// dropped and reported through Result.Anomalies.
package engine

import (
	"runtime"
	"strings"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// Options configures an Engine.
type Options struct {
	DirectCode       string
	SupervisionCodes []string
	Rules            models.ClinicRules
	// Workers bounds parallel overlap detection. Zero means runtime.NumCPU().
	Workers int
}

// DefaultOptions returns the standard service codes and clinic rules.
func DefaultOptions() Options {
	return Options{
		DirectCode:       DefaultDirectCode,
		SupervisionCodes: DefaultSupervisionCodes(),
		Rules:            DefaultClinicRules(),
		Workers:          runtime.NumCPU(),
	}
}

// Engine runs the attribution pipeline.
type Engine struct {
	opts       Options
	classifier Classifier
}

// New creates an engine. Empty fields in opts take their defaults.
func New(opts Options) *Engine {
	defaults := DefaultOptions()
	if strings.TrimSpace(opts.DirectCode) == "" {
		opts.DirectCode = defaults.DirectCode
	}
	if len(opts.SupervisionCodes) == 0 {
		opts.SupervisionCodes = defaults.SupervisionCodes
	}
	if len(opts.Rules.Rules) == 0 {
		opts.Rules.Rules = defaults.Rules.Rules
		if len(opts.Rules.DiagnosticLabels) == 0 {
			opts.Rules.DiagnosticLabels = defaults.Rules.DiagnosticLabels
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	return &Engine{
		opts:       opts,
		classifier: NewClassifier(opts.DirectCode, opts.SupervisionCodes),
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Run computes a report from raw interval records.
func (e *Engine) Run(records []models.IntervalRecord) *models.Result {
	res := &models.Result{}
	res.Stats.InputRecords = len(records)

	cls := e.classifier.Classify(records)
	res.Anomalies = append(res.Anomalies, cls.Malformed...)
	res.Stats.MalformedRecords = len(cls.Malformed)
	res.Stats.ExcludedRecords = cls.Excluded
	res.Stats.DirectIntervals = len(cls.Direct)
	res.Stats.SupervisionIntervals = len(cls.Supervision)

	dir := NewDirectory()
	clients := make(map[string]models.ServiceInterval)
	for _, iv := range append(append([]models.ServiceInterval{}, cls.Direct...), cls.Supervision...) {
		name := models.NewName(iv.ProviderFirstName, iv.ProviderLastName)
		dir.Observe(iv.ProviderID, name)
		if iv.Role == models.RoleSupervision {
			dir.ObserveSupervisor(name)
		}
		if _, ok := clients[iv.ClientID]; !ok {
			clients[iv.ClientID] = iv
		}
	}
	res.Anomalies = append(res.Anomalies, dir.Conflicts()...)

	pairs := DetectOverlaps(cls.Direct, cls.Supervision, e.opts.Workers)
	res.Stats.OverlapPairs = len(pairs)

	residuals := ComputeResiduals(TotalDirect(cls.Direct), TotalSupervision(cls.Supervision), AggregateOverlaps(pairs))
	res.Anomalies = append(res.Anomalies, residuals.Anomalies...)

	rows := residuals.Rows()
	for i := range rows {
		r := &rows[i]
		if c, ok := clients[r.ClientID]; ok {
			r.ClientName = c.ClientName
			r.ClientOffice = c.ClientOffice
		}
		if n, ok := dir.Name(r.DirectProviderID); ok {
			r.DirectFirstName, r.DirectLastName = n.First, n.Last
		}
		if n, ok := dir.Name(r.SupervisorID); ok {
			r.SupervisorFirstName, r.SupervisorLastName = n.First, n.Last
		}
	}
	res.Classified = rows

	e.finish(res, rows, dir)
	return res
}

// RunClassified computes a report from rows that were already classified
// upstream, skipping overlap detection and residual calculation.
func (e *Engine) RunClassified(rows []models.ClassifiedRow) *models.Result {
	rows = append([]models.ClassifiedRow(nil), rows...)
	res := &models.Result{Classified: rows}
	res.Stats.InputRecords = len(rows)

	dir := ResolveIdentities(rows)
	res.Anomalies = append(res.Anomalies, dir.Conflicts()...)
	for i := range rows {
		r := &rows[i]
		if r.DirectHours.IsNegative() {
			r.Flags = append(r.Flags, models.AnomalyNegativeResidual)
			res.Anomalies = append(res.Anomalies, models.Anomaly{
				Kind:       models.AnomalyNegativeResidual,
				Message:    "pre-classified row has negative direct hours",
				ClientID:   r.ClientID,
				ProviderID: r.DirectProviderID,
				Location:   r.DirectLocation,
				Value:      r.DirectHours,
			})
		}
	}

	e.finish(res, rows, dir)
	return res
}

// finish runs the shared tail: self-supervision exclusion, clinic labelling,
// deduplication and report assembly.
func (e *Engine) finish(res *models.Result, rows []models.ClassifiedRow, dir *Directory) {
	res.Stats.ClassifiedRows = len(rows)

	kept, dropped := dir.ExcludeSelfSupervised(rows)
	res.Stats.SelfSupervisedRows = dropped

	labelled, unmatched := LabelClinics(e.opts.Rules, kept)
	res.Stats.UnmatchedLocations = unmatched

	report, anomalies := Assemble(Deduplicate(labelled), dir)
	res.Anomalies = append(res.Anomalies, anomalies...)
	res.Rows = report
	res.Stats.ReportRows = len(report)
}
