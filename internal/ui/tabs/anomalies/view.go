package anomalies

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/ui/components"
	"github.com/j-veylop/supervision-hours/internal/ui/styles"
)

// View renders the anomalies tab.
func (m *Model) View() string {
	if m.runID == "" {
		return styles.DocStyle.Render(styles.HelpStyle.Render("Select a run to see its anomalies."))
	}
	if len(m.anomalies) == 0 {
		return styles.DocStyle.Render(styles.SuccessTextStyle.Render("No anomalies recorded for this run."))
	}

	m.viewport.SetContent(m.renderList())
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderCounts(),
		m.renderFilter(),
		m.viewport.View(),
	)
}

func (m *Model) renderCounts() string {
	counts := models.CountAnomalies(m.anomalies)
	values := make([]float64, len(models.AnomalyKinds))
	labels := make([]string, len(models.AnomalyKinds))
	for i, k := range models.AnomalyKinds {
		values[i] = float64(counts[k])
		labels[i] = string(k)
	}
	return components.RenderBarChart(values, labels, min(m.width, 80))
}

func (m *Model) renderFilter() string {
	if m.kind == "" {
		return styles.HelpStyle.Render(fmt.Sprintf("showing all %d", len(m.anomalies)))
	}
	return styles.InfoTextStyle.Render(fmt.Sprintf("showing %s (%d)", m.kind, len(m.filtered())))
}

func (m *Model) renderList() string {
	list := m.filtered()
	lines := make([]string, 0, len(list))
	for _, a := range list {
		lines = append(lines, renderAnomaly(a, m.width))
	}
	return strings.Join(lines, "\n")
}

func renderAnomaly(a models.Anomaly, width int) string {
	var ctx []string
	if a.ClientID != "" {
		ctx = append(ctx, "client "+a.ClientID)
	}
	if a.ProviderID != "" {
		ctx = append(ctx, "provider "+a.ProviderID)
	}
	if a.Location != "" {
		ctx = append(ctx, a.Location)
	}
	if !a.Value.IsZero() {
		ctx = append(ctx, models.FormatHours(a.Value)+"h")
	}

	line := styles.AnomalyStyle(a.Kind).Render(fmt.Sprintf("%-22s", a.Kind)) + " " + a.Message
	if len(ctx) > 0 {
		line += styles.HelpStyle.Render(" (" + strings.Join(ctx, ", ") + ")")
	}
	if width > 0 {
		line = ansi.Truncate(line, width, "…")
	}
	return line
}
