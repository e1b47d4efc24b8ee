// Package metrics records per-run gauges and writes them in the Prometheus
// text exposition format for a node-exporter textfile collector.
package metrics

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/j-veylop/supervision-hours/internal/models"
)

const namespace = "supervision_hours"

// Recorder holds the run gauges on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	lastRun       prometheus.Gauge
	lastSuccess   prometheus.Gauge
	duration      prometheus.Gauge
	reportRows    prometheus.Gauge
	anomalies     *prometheus.GaugeVec
	stageRecords  *prometheus.GaugeVec
	directHours   prometheus.Gauge
	supervision   prometheus.Gauge
	pctSupervised prometheus.Gauge
}

// New creates a Recorder with every collector registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run succeeded, 0 otherwise.",
		}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		reportRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_rows",
			Help:      "Report rows produced by the last run.",
		}),
		anomalies: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomalies",
			Help:      "Anomalies recorded by the last run, by kind.",
		}, []string{"kind"}),
		stageRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_records",
			Help:      "Records seen or dropped per engine stage in the last run.",
		}, []string{"stage"}),
		directHours: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "direct_hours",
			Help:      "Total direct hours in the last report.",
		}),
		supervision: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "supervision_hours",
			Help:      "Total supervision hours in the last report.",
		}),
		pctSupervised: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pct_supervised",
			Help:      "Share of direct hours supervised in the last report; NaN when undefined.",
		}),
	}
}

// ObserveFailure records a run that did not produce a report.
func (r *Recorder) ObserveFailure(run *models.RunSummary) {
	r.runs.WithLabelValues(string(models.RunFailed)).Inc()
	r.lastRun.Set(float64(finishedAt(run).Unix()))
	r.lastSuccess.Set(0)
	r.duration.Set(run.Duration().Seconds())
}

// ObserveRun records a successful run and its engine result.
func (r *Recorder) ObserveRun(run *models.RunSummary, res *models.Result) {
	r.runs.WithLabelValues(string(models.RunSucceeded)).Inc()
	r.lastRun.Set(float64(finishedAt(run).Unix()))
	r.lastSuccess.Set(1)
	r.duration.Set(run.Duration().Seconds())
	r.reportRows.Set(float64(len(res.Rows)))

	counts := models.CountAnomalies(res.Anomalies)
	for _, kind := range models.AnomalyKinds {
		r.anomalies.WithLabelValues(string(kind)).Set(float64(counts[kind]))
	}

	s := res.Stats
	for stage, n := range map[string]int{
		"input":             s.InputRecords,
		"malformed":         s.MalformedRecords,
		"excluded":          s.ExcludedRecords,
		"direct":            s.DirectIntervals,
		"supervision":       s.SupervisionIntervals,
		"overlap_pairs":     s.OverlapPairs,
		"classified":        s.ClassifiedRows,
		"self_supervised":   s.SelfSupervisedRows,
		"unmatched_clinics": s.UnmatchedLocations,
		"report":            s.ReportRows,
	} {
		r.stageRecords.WithLabelValues(stage).Set(float64(n))
	}

	direct, sup := res.Totals()
	r.directHours.Set(direct.InexactFloat64())
	r.supervision.Set(sup.InexactFloat64())
	if pct := models.PercentOf(sup, direct); pct.Valid {
		r.pctSupervised.Set(pct.Decimal.InexactFloat64())
	} else {
		r.pctSupervised.Set(math.NaN())
	}
}

// WriteTextfile gathers every metric and atomically replaces path with the
// text exposition.
func (r *Recorder) WriteTextfile(path string) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod metrics file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move metrics file into place: %w", err)
	}
	return nil
}

func finishedAt(run *models.RunSummary) time.Time {
	if run.FinishedAt.IsZero() {
		return time.Now()
	}
	return run.FinishedAt
}
