// Package app is the bubbletea viewer over the run history: the root model,
// the state its tabs share and the commands that load data.
package app

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// NotificationType selects how a toast is drawn.
type NotificationType int

const (
	NotificationSuccess NotificationType = iota
	NotificationError
	NotificationWarning
	NotificationInfo
	// NotificationLoading carries a spinner and never expires on its own.
	NotificationLoading
)

var notificationNames = [...]string{"success", "error", "warning", "info", "loading"}

func (n NotificationType) String() string {
	if n < 0 || int(n) >= len(notificationNames) {
		return "unknown"
	}
	return notificationNames[n]
}

// LoadingNotificationID identifies the single loading toast.
const LoadingNotificationID = "__loading__"

// maxNotifications caps the toast stack; the oldest are dropped first.
const maxNotifications = 10

// Notification is one toast.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired reports whether a timed toast has outlived its Duration.
func (n *Notification) IsExpired() bool {
	return n.Duration > 0 && time.Since(n.CreatedAt) > n.Duration
}

// State is shared by the root model and every tab.
type State struct {
	mu sync.RWMutex

	runs     []models.RunSummary
	selected int

	detailRunID string
	rows        []models.ReportRow
	anomalies   []models.Anomaly

	loading     map[string]bool
	lastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state that is waiting for its first load.
func NewState() *State {
	return &State{
		loading: map[string]bool{"runs": true},
	}
}

// SetRuns replaces the run list, newest first. The selection follows the
// previously selected run id when it is still present, else the newest run.
func (s *State) SetRuns(runs []models.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := ""
	if s.selected >= 0 && s.selected < len(s.runs) {
		prev = s.runs[s.selected].ID
	}
	s.runs = runs
	s.selected = 0
	for i, r := range runs {
		if r.ID == prev {
			s.selected = i
			break
		}
	}
	s.lastUpdated = time.Now()
}

// Runs returns a copy of the run list.
func (s *State) Runs() []models.RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]models.RunSummary, len(s.runs))
	copy(runs, s.runs)
	return runs
}

// SelectedIndex returns the index of the selected run.
func (s *State) SelectedIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select changes the selected run. It reports whether the selection changed.
func (s *State) Select(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx < 0 || idx >= len(s.runs) || idx == s.selected {
		return false
	}
	s.selected = idx
	return true
}

// SelectedRun returns the selected run, or nil when there are none.
func (s *State) SelectedRun() *models.RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected < 0 || s.selected >= len(s.runs) {
		return nil
	}
	run := s.runs[s.selected]
	return &run
}

// SetDetail stores the report rows and anomalies of one run.
func (s *State) SetDetail(runID string, rows []models.ReportRow, anomalies []models.Anomaly) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detailRunID = runID
	s.rows = rows
	s.anomalies = anomalies
}

// Detail returns the stored run id, rows and anomalies.
func (s *State) Detail() (string, []models.ReportRow, []models.Anomaly) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detailRunID, s.rows, s.anomalies
}

// SetLoading marks resource ("runs", "detail") as in flight or done.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading == nil {
		s.loading = make(map[string]bool)
	}
	if loading {
		s.loading[resource] = true
	} else {
		delete(s.loading, resource)
	}
}

// AnyLoading reports whether any resource is still in flight.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.loading) > 0
}

// LastUpdated returns when the run list was last replaced.
func (s *State) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// AddNotification queues a toast and returns its id. A zero duration keeps
// it until RemoveNotification.
func (s *State) AddNotification(kind NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	n := Notification{
		ID:        "n" + strconv.Itoa(s.notificationSeq),
		Type:      kind,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}
	s.notifications = append(s.notifications, n)
	if over := len(s.notifications) - maxNotifications; over > 0 {
		s.notifications = s.notifications[over:]
	}
	return n.ID
}

func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool { return n.ID == id })
}

// ClearExpiredNotifications drops timed toasts that have run out.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = activeNotifications(s.notifications)
}

// GetNotifications returns the toasts still on screen, oldest first.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeNotifications(s.notifications)
}

func activeNotifications(all []Notification) []Notification {
	return lo.Filter(all, func(n Notification, _ int) bool { return !n.IsExpired() })
}

// SetLoadingNotification shows message in the loading toast, creating it
// when absent.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, i, ok := lo.FindIndexOf(s.notifications, func(n Notification) bool { return n.ID == LoadingNotificationID })
	if ok {
		s.notifications[i].Message = message
		return
	}
	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
