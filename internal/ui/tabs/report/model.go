// Package report provides the tab listing the report rows of the selected run.
package report

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/supervision-hours/internal/app"
	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/ui/components"
	"github.com/j-veylop/supervision-hours/internal/ui/styles"
)

type keyMap struct {
	Flagged key.Binding
	Up      key.Binding
	Down    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Flagged: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "flagged only"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the report tab state.
type Model struct {
	state   *app.State
	width   int
	height  int
	keys    keyMap
	table   table.Model
	waiting components.Waiting

	runID       string
	rows        []models.ReportRow
	flaggedOnly bool
}

// New creates a new report model.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	return &Model{
		state:   state,
		keys:    defaultKeyMap(),
		table:   t,
		waiting: components.NewWaiting("Loading report..."),
	}
}

// Init initializes the report tab.
func (m *Model) Init() tea.Cmd {
	return m.waiting.Tick()
}

// Update handles messages for the report tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.RunDetailLoadedMsg, app.TabSwitchMsg:
		m.sync()

	case spinner.TickMsg:
		if m.runID == "" {
			var cmd tea.Cmd
			m.waiting, cmd = m.waiting.Advance(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Flagged) {
			m.flaggedOnly = !m.flaggedOnly
			m.refreshRows()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// sync pulls the selected run's rows from the shared state.
func (m *Model) sync() {
	runID, rows, _ := m.state.Detail()
	if runID != m.runID {
		m.table.SetCursor(0)
	}
	m.runID = runID
	m.rows = rows
	m.refreshRows()
}

func (m *Model) refreshRows() {
	m.table.SetRows(tableRows(m.visibleRows(), m.width))
}

func (m *Model) visibleRows() []models.ReportRow {
	if !m.flaggedOnly {
		return m.rows
	}
	var out []models.ReportRow
	for _, r := range m.rows {
		if len(r.Flags) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// SetSize sets the available size for the report tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(max(height-4, 3))
	m.table.SetWidth(width)
	m.refreshRows()
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Flagged}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down, m.keys.Flagged},
	}
}
