// Package runs provides the tab listing recorded runs and the per-clinic
// supervision trend.
package runs

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/supervision-hours/internal/app"
	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/ui/components"
	"github.com/j-veylop/supervision-hours/internal/ui/styles"
)

// trendLimit is how many runs the clinic trend covers.
const trendLimit = 30

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Clinic key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous run"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next run"),
		),
		Clinic: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "next clinic"),
		),
	}
}

type trendLoadedMsg struct {
	clinic string
	points []models.ClinicPoint
}

type trendErrorMsg struct {
	clinic string
	err    error
}

// Model represents the runs tab state.
type Model struct {
	state  *app.State
	store  app.Store
	width  int
	height int
	keys   keyMap
	table  table.Model
	bar    components.PctBar

	clinics []string
	clinic  string
	trend   []models.ClinicPoint
}

// New creates a new runs model.
func New(state *app.State, store app.Store) *Model {
	t := table.New(
		table.WithColumns(columns()),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	return &Model{
		state: state,
		store: store,
		keys:  defaultKeyMap(),
		table: t,
		bar:   components.NewPctBar(),
	}
}

// Init initializes the runs tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the runs tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.RunsLoadedMsg:
		m.table.SetRows(tableRows(m.state.Runs()))
		m.table.SetCursor(m.state.SelectedIndex())

	case app.RunDetailLoadedMsg:
		return m, m.syncClinics()

	case app.TabSwitchMsg:
		m.table.SetRows(tableRows(m.state.Runs()))
		m.table.SetCursor(m.state.SelectedIndex())
		return m, m.syncClinics()

	case trendLoadedMsg:
		if msg.clinic == m.clinic {
			m.trend = msg.points
		}

	case trendErrorMsg:
		if msg.clinic == m.clinic {
			m.trend = nil
			return m, func() tea.Msg {
				return app.ErrorMsg{Error: msg.err, Context: "clinic trend"}
			}
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	if key.Matches(msg, m.keys.Clinic) {
		if len(m.clinics) == 0 {
			return m, nil
		}
		next := 0
		for i, c := range m.clinics {
			if c == m.clinic {
				next = (i + 1) % len(m.clinics)
				break
			}
		}
		m.clinic = m.clinics[next]
		m.trend = nil
		return m, m.loadTrendCmd(m.clinic)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if sel := app.SelectRunCmd(m.state, m.table.Cursor()); sel != nil {
		return m, tea.Batch(cmd, sel)
	}
	return m, cmd
}

// syncClinics refreshes the clinic list from the selected run's rows and
// reloads the trend when the clinic changes.
func (m *Model) syncClinics() tea.Cmd {
	_, rows, _ := m.state.Detail()
	m.clinics = clinicNames(rows)

	if len(m.clinics) == 0 {
		m.clinic = ""
		m.trend = nil
		return nil
	}
	for _, c := range m.clinics {
		if c == m.clinic {
			return m.loadTrendCmd(m.clinic)
		}
	}
	m.clinic = m.clinics[0]
	m.trend = nil
	return m.loadTrendCmd(m.clinic)
}

func (m *Model) loadTrendCmd(clinic string) tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		points, err := store.GetClinicTrend(ctx, clinic, trendLimit)
		if err != nil {
			return trendErrorMsg{clinic: clinic, err: err}
		}
		return trendLoadedMsg{clinic: clinic, points: points}
	}
}

func clinicNames(rows []models.ReportRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if !seen[r.Clinic] {
			seen[r.Clinic] = true
			out = append(out, r.Clinic)
		}
	}
	sort.Strings(out)
	return out
}

// SetSize sets the available size for the runs tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetWidth(width)
	m.table.SetHeight(max(height/3, 4))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Clinic}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down, m.keys.Clinic},
	}
}
