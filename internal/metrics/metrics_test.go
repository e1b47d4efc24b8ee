package metrics

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

func readTextfile(t *testing.T, path string) map[string]*dto.MetricFamily {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer f.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		t.Fatalf("TextToMetricFamilies() failed: %v", err)
	}
	return families
}

func gaugeValue(t *testing.T, families map[string]*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()

	mf, ok := families[name]
	if !ok {
		t.Fatalf("metric %s missing", name)
	}
	for _, m := range mf.GetMetric() {
		if matchLabels(m, labels) {
			if m.Gauge != nil {
				return m.Gauge.GetValue()
			}
			return m.Counter.GetValue()
		}
	}
	t.Fatalf("metric %s%v missing", name, labels)
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
			matched++
		}
	}
	return matched == len(labels)
}

func testResult() *models.Result {
	return &models.Result{
		Rows: []models.ReportRow{
			{DirectHours: decimal.RequireFromString("2"), SupervisionHours: decimal.RequireFromString("0.5")},
			{DirectHours: decimal.RequireFromString("2"), SupervisionHours: decimal.RequireFromString("0.5")},
		},
		Anomalies: []models.Anomaly{
			{Kind: models.AnomalyMalformedInterval},
			{Kind: models.AnomalyMalformedInterval},
			{Kind: models.AnomalyNegativeResidual},
		},
		Stats: models.RunStats{InputRecords: 12, MalformedRecords: 2, ReportRows: 2},
	}
}

func TestWriteTextfile_Run(t *testing.T) {
	start := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	run := &models.RunSummary{StartedAt: start, FinishedAt: start.Add(3 * time.Second)}

	r := New()
	r.ObserveRun(run, testResult())

	path := filepath.Join(t.TempDir(), "textfile", "supervision.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() failed: %v", err)
	}
	families := readTextfile(t, path)

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"supervision_hours_runs_total", map[string]string{"status": "succeeded"}, 1},
		{"supervision_hours_last_run_success", nil, 1},
		{"supervision_hours_last_run_duration_seconds", nil, 3},
		{"supervision_hours_last_run_timestamp_seconds", nil, float64(start.Add(3 * time.Second).Unix())},
		{"supervision_hours_report_rows", nil, 2},
		{"supervision_hours_anomalies", map[string]string{"kind": "malformed_interval"}, 2},
		{"supervision_hours_anomalies", map[string]string{"kind": "identity_conflict"}, 0},
		{"supervision_hours_stage_records", map[string]string{"stage": "input"}, 12},
		{"supervision_hours_direct_hours", nil, 4},
		{"supervision_hours_supervision_hours", nil, 1},
		{"supervision_hours_pct_supervised", nil, 25},
	}
	for _, tt := range tests {
		if got := gaugeValue(t, families, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

func TestObserveRun_UndefinedPercent(t *testing.T) {
	r := New()
	r.ObserveRun(&models.RunSummary{}, &models.Result{})

	path := filepath.Join(t.TempDir(), "supervision.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() failed: %v", err)
	}
	got := gaugeValue(t, readTextfile(t, path), "supervision_hours_pct_supervised", nil)
	if !math.IsNaN(got) {
		t.Errorf("pct_supervised = %v, want NaN", got)
	}
}

func TestObserveFailure(t *testing.T) {
	r := New()
	r.ObserveRun(&models.RunSummary{}, testResult())
	r.ObserveFailure(&models.RunSummary{})

	path := filepath.Join(t.TempDir(), "supervision.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() failed: %v", err)
	}
	families := readTextfile(t, path)

	if got := gaugeValue(t, families, "supervision_hours_last_run_success", nil); got != 0 {
		t.Errorf("last_run_success = %v, want 0", got)
	}
	if got := gaugeValue(t, families, "supervision_hours_runs_total", map[string]string{"status": "failed"}); got != 1 {
		t.Errorf("runs_total{failed} = %v, want 1", got)
	}
	if got := gaugeValue(t, families, "supervision_hours_runs_total", map[string]string{"status": "succeeded"}); got != 1 {
		t.Errorf("runs_total{succeeded} = %v, want 1", got)
	}
}
