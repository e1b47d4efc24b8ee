package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/services"
	"github.com/j-veylop/supervision-hours/internal/ui/styles"
)

// TabID indexes the viewer tabs in navbar order.
type TabID int

const (
	TabReport    TabID = iota // rows of the selected run
	TabRuns                   // run history and trends
	TabAnomalies              // anomalies of the selected run
)

var tabTitles = [...]string{"Report", "Runs", "Anomalies"}

func (t TabID) String() string {
	if t < 0 || int(t) >= len(tabTitles) {
		return "Unknown"
	}
	return tabTitles[t]
}

// Tab is one screen of the viewer. Data messages reach every tab; key
// messages only the active one.
type Tab interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Tab, tea.Cmd)
	View() string
	SetSize(width, height int)
	ShortHelp() []key.Binding
	FullHelp() [][]key.Binding
}

// KeyMap holds the keys handled before any tab sees them.
type KeyMap struct {
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "report")),
		Tab2:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "runs")),
		Tab3:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "anomalies")),
		NextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Refresh: key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Refresh, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3},
		{k.NextTab, k.PrevTab},
		{k.Refresh, k.Help, k.Quit},
	}
}

// Model is the root bubbletea model. It owns the shared State and routes
// messages to the tabs.
type Model struct {
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	state    *State
	store    Store
	services *services.Manager
	keymap   KeyMap

	spinner spinner.Model
	help    help.Model

	width  int
	height int

	showHelp bool
	ready    bool

	eventChannel chan services.ServiceEvent
}

// NewModel creates the root model over a run history store. mgr is optional;
// when set, pipeline events refresh the view live.
func NewModel(store Store, mgr *services.Manager) *Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(chrome.busy))

	h := help.New()
	h.Styles.ShortKey, h.Styles.FullKey = styles.HelpKeyStyle, styles.HelpKeyStyle
	h.Styles.ShortDesc, h.Styles.FullDesc = styles.HelpDescStyle, styles.HelpDescStyle
	h.Styles.ShortSeparator, h.Styles.FullSeparator = styles.HelpSeparatorStyle, styles.HelpSeparatorStyle

	return &Model{
		activeTab: TabReport,
		tabNames:  tabTitles[:],
		tabs:      make([]Tab, len(tabTitles)),
		state:     NewState(),
		store:     store,
		services:  mgr,
		keymap:    DefaultKeyMap(),
		spinner:   s,
		help:      h,
	}
}

// SetTabs installs the tabs, indexed by TabID.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

func (m *Model) GetState() *State {
	return m.state
}

func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading runs...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
		LoadRunsCmd(m.store),
	}
	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
	}
	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.updateTabSizes()

	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())

	case RunsLoadedMsg:
		cmds = append(cmds, m.handleRunsLoaded(msg))
		return m, tea.Batch(append(cmds, m.updateAllTabs(msg))...)

	case RunDetailLoadedMsg:
		m.state.SetLoading("detail", false)
		m.state.SetDetail(msg.RunID, msg.Rows, msg.Anomalies)
		return m, m.updateAllTabs(msg)

	case RunSelectedMsg:
		m.state.SetLoading("detail", true)
		cmds = append(cmds, LoadRunDetailCmd(m.store, msg.RunID))
		return m, tea.Batch(append(cmds, m.updateAllTabs(msg))...)

	case RefreshMsg:
		m.state.SetLoading("runs", true)
		m.state.SetLoadingNotification("Refreshing...")
		cmds = append(cmds, LoadRunsCmd(m.store))

	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))

	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event))
		if m.eventChannel != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
		}

	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}

	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)

	case ErrorMsg:
		m.state.SetLoading("runs", false)
		m.state.SetLoading("detail", false)
		m.state.ClearLoadingNotification()
		cmds = append(cmds, NotifyErrorCmd(errorText(msg)))

	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleRunsLoaded(msg RunsLoadedMsg) tea.Cmd {
	m.state.SetLoading("runs", false)
	m.state.ClearLoadingNotification()
	m.state.SetRuns(msg.Runs)

	run := m.state.SelectedRun()
	if run == nil {
		return nil
	}
	if id, _, _ := m.state.Detail(); id == run.ID && run.Status != models.RunRunning {
		return nil
	}
	m.state.SetLoading("detail", true)
	return LoadRunDetailCmd(m.store, run.ID)
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.StageEvent:
		m.state.SetLoadingNotification(fmt.Sprintf("Run %s: %s", shortID(e.RunID), e.Stage))

	case services.RunCompletedEvent:
		m.state.ClearLoadingNotification()
		return tea.Batch(
			NotifySuccessCmd(fmt.Sprintf("Run %s finished: %d rows", shortID(e.Run.ID), e.Run.RowCount)),
			LoadRunsCmd(m.store),
		)

	case services.ErrorEvent:
		m.state.ClearLoadingNotification()
		return tea.Batch(
			NotifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error)),
			LoadRunsCmd(m.store),
		)
	}
	return nil
}

// handleKeyMsg handles global keys. handled is false when the active tab
// should see the key.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}

	case key.Matches(msg, m.keymap.Tab1):
		return m.switchTab(TabReport), true

	case key.Matches(msg, m.keymap.Tab2):
		return m.switchTab(TabRuns), true

	case key.Matches(msg, m.keymap.Tab3):
		return m.switchTab(TabAnomalies), true

	case key.Matches(msg, m.keymap.NextTab):
		return m.switchTab(m.cycle(1)), true

	case key.Matches(msg, m.keymap.PrevTab):
		return m.switchTab(m.cycle(-1)), true

	case key.Matches(msg, m.keymap.Refresh):
		return func() tea.Msg { return RefreshMsg{} }, true
	}
	return nil, false
}

func (m *Model) cycle(step int) TabID {
	n := len(m.tabs)
	return TabID(((int(m.activeTab)+step)%n + n) % n)
}

func (m *Model) switchTab(tab TabID) tea.Cmd {
	return func() tea.Msg { return TabSwitchMsg{Tab: tab} }
}

// current returns the active tab, or nil before SetTabs.
func (m *Model) current() Tab {
	if int(m.activeTab) >= len(m.tabs) {
		return nil
	}
	return m.tabs[m.activeTab]
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	tab := m.current()
	if tab == nil {
		return nil
	}
	var cmd tea.Cmd
	m.tabs[m.activeTab], cmd = tab.Update(msg)
	return cmd
}

// updateAllTabs delivers data messages to every tab, not just the active one.
func (m *Model) updateAllTabs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for i, tab := range m.tabs {
		if tab == nil {
			continue
		}
		var cmd tea.Cmd
		m.tabs[i], cmd = tab.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// chromeLines is the height taken by navbar, header and footer.
const chromeLines = 6

func (m *Model) updateTabSizes() {
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, max(0, m.height-chromeLines))
		}
	}
}
