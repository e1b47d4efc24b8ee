package anomalies

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/app"
	"github.com/j-veylop/supervision-hours/internal/models"
)

func sample() []models.Anomaly {
	return []models.Anomaly{
		{Kind: models.AnomalyMalformedInterval, Message: "end before start", ClientID: "C1"},
		{Kind: models.AnomalyNegativeResidual, Message: "overlap exceeds direct time", ProviderID: "P1",
			Location: "Downtown", Value: decimal.RequireFromString("-0.25")},
		{Kind: models.AnomalyNegativeResidual, Message: "overlap exceeds direct time", ProviderID: "P2"},
	}
}

func loaded() *Model {
	state := app.NewState()
	state.SetDetail("run-1", nil, sample())
	m := New(state)
	m.SetSize(120, 30)
	m.Update(app.RunDetailLoadedMsg{RunID: "run-1"})
	return m
}

func TestViewNoRun(t *testing.T) {
	m := New(app.NewState())
	if !strings.Contains(m.View(), "Select a run") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestViewClean(t *testing.T) {
	state := app.NewState()
	state.SetDetail("run-1", nil, nil)
	m := New(state)
	m.Update(app.TabSwitchMsg{Tab: app.TabAnomalies})
	if !strings.Contains(ansi.Strip(m.View()), "No anomalies") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestViewList(t *testing.T) {
	view := ansi.Strip(loaded().View())
	for _, want := range []string{"showing all 3", "client C1", "provider P1, Downtown, -0.25h", "negative_residual │"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestFilterCycles(t *testing.T) {
	m := loaded()
	f := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")}

	var seen []models.AnomalyKind
	for range len(models.AnomalyKinds) + 1 {
		m.Update(f)
		seen = append(seen, m.kind)
	}
	if seen[0] != models.AnomalyMalformedInterval {
		t.Errorf("first filter = %q", seen[0])
	}
	if seen[len(seen)-1] != "" {
		t.Errorf("filter should wrap to all, got %q", seen[len(seen)-1])
	}

	m.kind = models.AnomalyNegativeResidual
	if got := len(m.filtered()); got != 2 {
		t.Errorf("filtered() = %d, want 2", got)
	}
	if !strings.Contains(ansi.Strip(m.View()), "showing negative_residual (2)") {
		t.Error("filter label missing")
	}
}
