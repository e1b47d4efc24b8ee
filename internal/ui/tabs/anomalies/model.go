// Package anomalies provides the tab listing data-quality anomalies of the
// selected run.
package anomalies

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/supervision-hours/internal/app"
	"github.com/j-veylop/supervision-hours/internal/models"
)

type keyMap struct {
	Kind key.Binding
	Up   key.Binding
	Down key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Kind: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter kind"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the anomalies tab state.
type Model struct {
	state    *app.State
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	runID     string
	anomalies []models.Anomaly
	// kind filters the list; empty shows every kind.
	kind models.AnomalyKind
}

// New creates a new anomalies model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the anomalies tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the anomalies tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.RunDetailLoadedMsg, app.TabSwitchMsg:
		runID, _, anomalies := m.state.Detail()
		if runID != m.runID {
			m.viewport.GotoTop()
		}
		m.runID = runID
		m.anomalies = anomalies

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Kind) {
			m.kind = nextKind(m.kind)
			m.viewport.GotoTop()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// nextKind cycles through every kind and then back to no filter.
func nextKind(k models.AnomalyKind) models.AnomalyKind {
	if k == "" {
		return models.AnomalyKinds[0]
	}
	for i, kind := range models.AnomalyKinds {
		if kind == k && i+1 < len(models.AnomalyKinds) {
			return models.AnomalyKinds[i+1]
		}
	}
	return ""
}

func (m *Model) filtered() []models.Anomaly {
	if m.kind == "" {
		return m.anomalies
	}
	var out []models.Anomaly
	for _, a := range m.anomalies {
		if a.Kind == m.kind {
			out = append(out, a)
		}
	}
	return out
}

// SetSize sets the available size for the anomalies tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-len(models.AnomalyKinds)-3, 3)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Kind}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down, m.keys.Kind},
	}
}
