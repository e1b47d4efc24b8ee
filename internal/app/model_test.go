package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/services"
)

// recordingTab remembers every message it sees.
type recordingTab struct {
	name string
	msgs []tea.Msg
	w, h int
}

func (r *recordingTab) Init() tea.Cmd { return nil }

func (r *recordingTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	r.msgs = append(r.msgs, msg)
	return r, nil
}

func (r *recordingTab) View() string              { return "tab:" + r.name }
func (r *recordingTab) SetSize(w, h int)          { r.w, r.h = w, h }
func (r *recordingTab) ShortHelp() []key.Binding  { return nil }
func (r *recordingTab) FullHelp() [][]key.Binding { return nil }

func (r *recordingTab) saw(match func(tea.Msg) bool) bool {
	for _, m := range r.msgs {
		if match(m) {
			return true
		}
	}
	return false
}

func newTestModel() (*Model, []*recordingTab, *fakeStore) {
	store := newFakeStore()
	m := NewModel(store, nil)
	tabs := []*recordingTab{{name: "report"}, {name: "runs"}, {name: "anomalies"}}
	m.SetTabs([]Tab{tabs[0], tabs[1], tabs[2]})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, tabs, store
}

func TestNewModel(t *testing.T) {
	m := NewModel(newFakeStore(), nil)
	if m.GetState() == nil {
		t.Error("state should be initialized")
	}
	if m.GetActiveTab() != TabReport {
		t.Errorf("active tab = %v, want Report", m.GetActiveTab())
	}
	if m.Init() == nil {
		t.Error("Init returned nil command")
	}
}

func TestWindowSizeResizesTabs(t *testing.T) {
	m, tabs, _ := newTestModel()
	if !m.ready {
		t.Error("model should be ready")
	}
	for _, tab := range tabs {
		if tab.w != 120 || tab.h != 34 {
			t.Errorf("%s size = %dx%d, want 120x34", tab.name, tab.w, tab.h)
		}
	}
}

func TestTabKeys(t *testing.T) {
	tests := []struct {
		key  string
		from TabID
		want TabID
	}{
		{"2", TabReport, TabRuns},
		{"3", TabReport, TabAnomalies},
		{"tab", TabAnomalies, TabReport},
		{"shift+tab", TabReport, TabAnomalies},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, _, _ := newTestModel()
			m.activeTab = tt.from

			var msg tea.KeyMsg
			switch tt.key {
			case "tab":
				msg = tea.KeyMsg{Type: tea.KeyTab}
			case "shift+tab":
				msg = tea.KeyMsg{Type: tea.KeyShiftTab}
			default:
				msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.key)}
			}

			_, cmd := m.Update(msg)
			if cmd == nil {
				t.Fatal("expected a tab switch command")
			}
			m.Update(cmd())
			if m.GetActiveTab() != tt.want {
				t.Errorf("active = %v, want %v", m.GetActiveTab(), tt.want)
			}
		})
	}
}

func TestUnhandledKeysReachActiveTab(t *testing.T) {
	m, tabs, _ := newTestModel()
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})

	if !tabs[0].saw(func(msg tea.Msg) bool { _, ok := msg.(tea.KeyMsg); return ok }) {
		t.Error("active tab did not receive the key")
	}
	if tabs[1].saw(func(msg tea.Msg) bool { _, ok := msg.(tea.KeyMsg); return ok }) {
		t.Error("inactive tab received the key")
	}
}

func TestRunsLoadedLoadsDetail(t *testing.T) {
	m, tabs, store := newTestModel()

	_, cmd := m.Update(RunsLoadedMsg{Runs: store.runs})
	if m.GetState().SelectedRun().ID != "run-2-aaaaaaaa" {
		t.Fatal("newest run should be selected")
	}
	for _, tab := range tabs {
		if !tab.saw(func(msg tea.Msg) bool { _, ok := msg.(RunsLoadedMsg); return ok }) {
			t.Errorf("%s did not receive RunsLoadedMsg", tab.name)
		}
	}

	var detail *RunDetailLoadedMsg
	for _, msg := range collect(cmd) {
		if d, ok := msg.(RunDetailLoadedMsg); ok {
			detail = &d
		}
	}
	if detail == nil {
		t.Fatal("expected the selected run's detail to load")
	}

	m.Update(*detail)
	id, rows, _ := m.GetState().Detail()
	if id != "run-2-aaaaaaaa" || len(rows) != 1 {
		t.Errorf("detail = %q, %d rows", id, len(rows))
	}

	view := ansi.Strip(m.View())
	for _, want := range []string{"1 Report", "Run run-2-aa", "succeeded", "25.00%", "tab:report"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestServiceEvents(t *testing.T) {
	m, _, _ := newTestModel()

	m.Update(ServiceEventMsg{Event: services.StageEvent{RunID: "abcdefghijk", Stage: services.StageExport}})
	list := m.GetState().GetNotifications()
	if len(list) != 1 || list[0].Message != "Run abcdefgh: export" {
		t.Fatalf("notifications = %#v", list)
	}

	_, cmd := m.Update(ServiceEventMsg{Event: services.RunCompletedEvent{
		Run: &models.RunSummary{ID: "abcdefghijk", RowCount: 4},
	}})
	var gotNote, gotRuns bool
	for _, msg := range collect(cmd) {
		switch msg := msg.(type) {
		case AddNotificationMsg:
			gotNote = msg.Type == NotificationSuccess && strings.Contains(msg.Message, "4 rows")
		case RunsLoadedMsg:
			gotRuns = true
		}
	}
	if !gotNote || !gotRuns {
		t.Errorf("notification = %v, runs reloaded = %v", gotNote, gotRuns)
	}

	_, cmd = m.Update(ServiceEventMsg{Event: services.ErrorEvent{Service: "watch", Error: errors.New("boom")}})
	var errNote string
	for _, msg := range collect(cmd) {
		if n, ok := msg.(AddNotificationMsg); ok {
			errNote = n.Message
		}
	}
	if errNote != "[watch] boom" {
		t.Errorf("error notification = %q", errNote)
	}
}

func TestErrorMsgNotifies(t *testing.T) {
	m, _, _ := newTestModel()
	_, cmd := m.Update(ErrorMsg{Error: errors.New("locked"), Context: "runs"})

	var note *AddNotificationMsg
	for _, msg := range collect(cmd) {
		if n, ok := msg.(AddNotificationMsg); ok {
			note = &n
		}
	}
	if note == nil || note.Type != NotificationError {
		t.Fatalf("notification = %#v", note)
	}
	m.Update(*note)
	if !strings.Contains(ansi.Strip(m.View()), "Failed to load runs: locked") {
		t.Error("toast not rendered")
	}
}

func TestHelpOverlay(t *testing.T) {
	m, _, _ := newTestModel()
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if !m.showHelp || !strings.Contains(ansi.Strip(m.View()), "esc closes this panel") {
		t.Fatal("help overlay not shown")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestShortID(t *testing.T) {
	if shortID("abc") != "abc" || shortID("0123456789") != "01234567" {
		t.Error("unexpected shortID")
	}
}

// collect runs cmd and flattens batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}
