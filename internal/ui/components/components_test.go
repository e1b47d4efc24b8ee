package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

func pct(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestWaiting(t *testing.T) {
	w := NewWaiting("Loading")
	if w.Tick() == nil {
		t.Fatal("Tick() returned nil")
	}
	if _, cmd := w.Advance(spinner.TickMsg{}); cmd == nil {
		t.Error("Advance() on a tick should schedule the next tick")
	}
	if _, cmd := w.Advance("unrelated"); cmd != nil {
		t.Error("Advance() should ignore foreign messages")
	}

	w = w.Caption("Computing")
	out := ansi.Strip(w.Render(30, 3))
	if !strings.Contains(out, "Computing") {
		t.Errorf("Render() = %q, want caption", out)
	}
	if lines := strings.Count(out, "\n") + 1; lines != 3 {
		t.Errorf("Render() produced %d lines, want 3", lines)
	}
}

func TestRenderLineChart(t *testing.T) {
	if got := RenderLineChart(nil, 20, 5, "x"); !strings.Contains(got, "No data") {
		t.Errorf("empty chart = %q", got)
	}
	got := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Supervised %")
	if !strings.Contains(got, "Supervised %") {
		t.Errorf("chart missing caption:\n%s", got)
	}
}

func TestTrendSeries(t *testing.T) {
	points := []models.ClinicPoint{
		{RunID: "c", DirectHours: decimal.NewFromInt(10), SupervisionHours: decimal.NewFromInt(1)},
		{RunID: "b", DirectHours: decimal.Zero, SupervisionHours: decimal.Zero},
		{RunID: "a", DirectHours: decimal.NewFromInt(4), SupervisionHours: decimal.NewFromInt(1)},
	}
	got := TrendSeries(points)
	want := []float64{25, 10}
	if len(got) != len(want) {
		t.Fatalf("TrendSeries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TrendSeries()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRenderBarChart(t *testing.T) {
	if RenderBarChart(nil, nil, 20) != "" {
		t.Error("empty bar chart should render nothing")
	}
	got := RenderBarChart([]float64{3, 1}, []string{"negative_residual", "x"}, 40)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[1], strings.Repeat(" ", 16)+"x") {
		t.Errorf("labels not right-aligned: %q", lines[1])
	}
}

func TestRenderSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   string
	}{
		{"empty", nil, 10, ""},
		{"rising", []float64{0, 7}, 10, "▁█"},
		{"newest kept", []float64{7, 0, 7}, 2, "▁█"},
		{"all zero", []float64{0, 0}, 5, "▁▁"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderSparkline(tt.values, tt.width); got != tt.want {
				t.Errorf("RenderSparkline() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderPct(t *testing.T) {
	if got := ansi.Strip(RenderPct(decimal.NullDecimal{})); got != "n/a" {
		t.Errorf("undefined pct = %q, want n/a", got)
	}
	if got := ansi.Strip(RenderPct(pct("25"))); got != "25.00%" {
		t.Errorf("pct = %q, want 25.00%%", got)
	}
}

func TestPctBarFraction(t *testing.T) {
	b := NewPctBar()
	tests := []struct {
		name string
		pct  decimal.NullDecimal
		want float64
	}{
		{"undefined", decimal.NullDecimal{}, 0},
		{"half", pct("5"), 0.5},
		{"clamped", pct("40"), 1},
		{"negative", pct("-3"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Fraction(tt.pct); got != tt.want {
				t.Errorf("Fraction() = %v, want %v", got, tt.want)
			}
		})
	}

	view := ansi.Strip(b.View(pct("5"), "Downtown", 60))
	if !strings.Contains(view, "Downtown") || !strings.Contains(view, "5.00%") {
		t.Errorf("View() = %q", view)
	}
}
