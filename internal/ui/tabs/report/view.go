package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/ui/components"
	"github.com/j-veylop/supervision-hours/internal/ui/styles"
)

const (
	hoursWidth = 8
	pctWidth   = 7
)

// columns sizes the fixed numeric columns and gives the rest to clinic and
// provider name.
func columns(width int) []table.Column {
	fixed := 12 + 4*hoursWidth + pctWidth + 5 + 6 + 2*10
	flex := max(width-fixed, 24)
	clinic := flex * 2 / 5
	name := flex - clinic

	return []table.Column{
		{Title: "Clinic", Width: clinic},
		{Title: "Provider", Width: 12},
		{Title: "Name", Width: name},
		{Title: "Direct", Width: hoursWidth},
		{Title: "Superv", Width: hoursWidth},
		{Title: "Pct", Width: pctWidth},
		{Title: "Unsup", Width: hoursWidth},
		{Title: "Cred", Width: 5},
		{Title: "CredH", Width: hoursWidth},
		{Title: "Flags", Width: 6},
	}
}

func tableRows(rows []models.ReportRow, width int) []table.Row {
	cols := columns(width)
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		rec := r.Record()
		pct := rec[5]
		if pct == "" {
			pct = "n/a"
		}
		flags := ""
		if len(r.Flags) > 0 {
			flags = fmt.Sprintf("!%d", len(r.Flags))
		}
		out = append(out, table.Row{
			ansi.Truncate(rec[0], cols[0].Width, "…"),
			ansi.Truncate(rec[1], cols[1].Width, "…"),
			ansi.Truncate(rec[2], cols[2].Width, "…"),
			rec[3],
			rec[4],
			pct,
			rec[6],
			rec[7],
			rec[8],
			flags,
		})
	}
	return out
}

// View renders the report tab.
func (m *Model) View() string {
	if m.runID == "" && m.state.AnyLoading() {
		return m.waiting.Render(m.width, max(m.height, 3))
	}
	if m.runID == "" {
		return styles.DocStyle.Render(styles.HelpStyle.Render("Select a run to see its report."))
	}
	if len(m.rows) == 0 {
		return styles.DocStyle.Render(styles.HelpStyle.Render("This run produced no report rows."))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderSummary(),
		m.table.View(),
		m.renderSelected(),
	)
}

func (m *Model) renderSummary() string {
	var direct, supervision decimal.Decimal
	flagged := 0
	for _, r := range m.rows {
		direct = direct.Add(r.DirectHours)
		supervision = supervision.Add(r.SupervisionHours)
		if len(r.Flags) > 0 {
			flagged++
		}
	}

	parts := []string{
		fmt.Sprintf("%d rows", len(m.rows)),
		fmt.Sprintf("direct %sh", models.FormatHours(direct)),
		fmt.Sprintf("supervision %sh", models.FormatHours(supervision)),
		components.RenderPct(models.PercentOf(supervision, direct)),
	}
	if flagged > 0 {
		parts = append(parts, styles.WarningTextStyle.Render(fmt.Sprintf("%d flagged", flagged)))
	}
	if m.flaggedOnly {
		parts = append(parts, styles.InfoTextStyle.Render("[flagged only]"))
	}
	return styles.SubTitleStyle.Render(strings.Join(parts, "  "))
}

// renderSelected shows the flags of the row under the cursor.
func (m *Model) renderSelected() string {
	rows := m.visibleRows()
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(rows) || len(rows[idx].Flags) == 0 {
		return ""
	}
	kinds := make([]string, 0, len(rows[idx].Flags))
	for _, k := range rows[idx].Flags {
		kinds = append(kinds, styles.AnomalyStyle(k).Render(string(k)))
	}
	return styles.HelpStyle.Render("flags: ") + strings.Join(kinds, ", ")
}
