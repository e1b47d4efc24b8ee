package runs

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/ui/components"
	"github.com/j-veylop/supervision-hours/internal/ui/styles"
)

// maxClinicBars caps the per-clinic breakdown.
const maxClinicBars = 8

func columns() []table.Column {
	return []table.Column{
		{Title: "Started", Width: 16},
		{Title: "Window", Width: 24},
		{Title: "Mode", Width: 10},
		{Title: "Status", Width: 9},
		{Title: "Rows", Width: 5},
		{Title: "Anom", Width: 5},
		{Title: "Pct", Width: 7},
		{Title: "Took", Width: 8},
	}
}

func tableRows(runs []models.RunSummary) []table.Row {
	out := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		pct := models.FormatPercent(r.PctSupervised())
		if pct == "" {
			pct = "n/a"
		}
		took := ""
		if d := r.Duration(); d > 0 {
			took = d.Round(10 * time.Millisecond).String()
		}
		out = append(out, table.Row{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Window.String(),
			string(r.Mode),
			string(r.Status),
			fmt.Sprintf("%d", r.RowCount),
			fmt.Sprintf("%d", r.AnomalyCount),
			pct,
			took,
		})
	}
	return out
}

// View renders the runs tab.
func (m *Model) View() string {
	if len(m.state.Runs()) == 0 {
		return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render("Runs"),
			styles.HelpStyle.Render("No runs recorded yet. Run `supervision run` to compute a report."),
		))
	}

	sections := []string{m.table.View()}
	if run := m.state.SelectedRun(); run != nil && run.Status == models.RunFailed {
		sections = append(sections, styles.ErrorTextStyle.Render("error: "+run.Error))
	}
	sections = append(sections, m.renderClinics(), m.renderTrend())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type clinicTotal struct {
	clinic      string
	direct      decimal.Decimal
	supervision decimal.Decimal
}

// renderClinics shows one supervision bar per clinic of the selected run.
func (m *Model) renderClinics() string {
	_, rows, _ := m.state.Detail()
	if len(rows) == 0 {
		return ""
	}

	grouped := lo.GroupBy(rows, func(r models.ReportRow) string { return r.Clinic })
	totals := lo.Map(m.clinics, func(c string, _ int) clinicTotal {
		t := clinicTotal{clinic: c}
		for _, r := range grouped[c] {
			t.direct = t.direct.Add(r.DirectHours)
			t.supervision = t.supervision.Add(r.SupervisionHours)
		}
		return t
	})

	lines := []string{styles.SubTitleStyle.Render("Supervision by clinic")}
	for i, t := range totals {
		if i == maxClinicBars {
			lines = append(lines, styles.HelpStyle.Render(fmt.Sprintf("… %d more", len(totals)-maxClinicBars)))
			break
		}
		label := t.clinic
		if label == m.clinic {
			label = "> " + label
		}
		lines = append(lines, m.bar.View(models.PercentOf(t.supervision, t.direct), label, m.width))
	}
	return strings.Join(lines, "\n")
}

// overallSeries returns the run-wide percentage of each succeeded run, oldest
// first.
func overallSeries(runs []models.RunSummary) []float64 {
	var series []float64
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Status != models.RunSucceeded {
			continue
		}
		if pct := runs[i].PctSupervised(); pct.Valid {
			series = append(series, pct.Decimal.InexactFloat64())
		}
	}
	return series
}

func (m *Model) renderTrend() string {
	lines := []string{styles.SubTitleStyle.Render("Overall % of direct hours supervised")}

	series := overallSeries(m.state.Runs())
	if len(series) < 2 {
		lines = append(lines, styles.HelpStyle.Render("Not enough runs for a trend"))
	} else {
		lines = append(lines, components.RenderLineChart(series, max(m.width-12, 20), max(m.height/4, 3),
			fmt.Sprintf("last %d runs", len(series))))
	}

	if m.clinic != "" {
		lines = append(lines, "", m.renderClinicTrend())
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderClinicTrend() string {
	label := styles.HelpKeyStyle.Render(m.clinic + " trend")
	series := components.TrendSeries(m.trend)
	if len(series) == 0 {
		return label + " " + styles.HelpStyle.Render("No trend yet")
	}
	latest := models.PercentOf(m.trend[0].SupervisionHours, m.trend[0].DirectHours)
	return fmt.Sprintf("%s %s  latest %s", label, components.RenderSparkline(series, 40), components.RenderPct(latest))
}
