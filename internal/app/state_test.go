package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/j-veylop/supervision-hours/internal/models"
)

func runs(ids ...string) []models.RunSummary {
	out := make([]models.RunSummary, len(ids))
	for i, id := range ids {
		out[i] = models.RunSummary{ID: id}
	}
	return out
}

func TestNewState(t *testing.T) {
	s := NewState()
	if !s.AnyLoading() {
		t.Error("new state should be loading runs")
	}
	if s.SelectedRun() != nil {
		t.Error("no run should be selected")
	}
}

func TestSetRunsKeepsSelection(t *testing.T) {
	tests := []struct {
		name   string
		next   []models.RunSummary
		wantID string
	}{
		{"still present", runs("c", "a", "b"), "b"},
		{"gone", runs("c", "a"), "c"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.SetRuns(runs("a", "b"))
			if !s.Select(1) {
				t.Fatal("Select(1) should change the selection")
			}

			s.SetRuns(tt.next)
			got := ""
			if r := s.SelectedRun(); r != nil {
				got = r.ID
			}
			if got != tt.wantID {
				t.Errorf("selected = %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	s := NewState()
	s.SetRuns(runs("a", "b"))

	if s.Select(0) {
		t.Error("selecting the current index reports no change")
	}
	if s.Select(-1) || s.Select(2) {
		t.Error("out of range selection should fail")
	}
	if !s.Select(1) || s.SelectedIndex() != 1 {
		t.Error("Select(1) failed")
	}
}

func TestRunsReturnsCopy(t *testing.T) {
	s := NewState()
	s.SetRuns(runs("a"))
	got := s.Runs()
	got[0].ID = "mutated"
	if s.Runs()[0].ID != "a" {
		t.Error("Runs() exposed internal slice")
	}
}

func TestDetail(t *testing.T) {
	s := NewState()
	s.SetDetail("a", []models.ReportRow{{Clinic: "X"}}, []models.Anomaly{{Kind: models.AnomalyIdentityConflict}})
	id, rows, anomalies := s.Detail()
	if id != "a" || len(rows) != 1 || len(anomalies) != 1 {
		t.Errorf("Detail() = %q, %d, %d", id, len(rows), len(anomalies))
	}
}

func TestLoading(t *testing.T) {
	s := NewState()
	s.SetLoading("runs", false)
	if s.AnyLoading() {
		t.Error("nothing should be loading")
	}
	s.SetLoading("detail", true)
	if !s.AnyLoading() {
		t.Error("detail should be loading")
	}
}

func TestNotifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "hello", time.Minute)
	s.AddNotification(NotificationError, "expired", time.Nanosecond)
	time.Sleep(time.Millisecond)

	if got := len(s.GetNotifications()); got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}
	s.ClearExpiredNotifications()
	s.RemoveNotification(id)
	if got := len(s.GetNotifications()); got != 0 {
		t.Errorf("active = %d, want 0", got)
	}

	for i := range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, fmt.Sprint(i), 0)
	}
	list := s.GetNotifications()
	if len(list) != maxNotifications {
		t.Fatalf("len = %d, want %d", len(list), maxNotifications)
	}
	if list[0].Message != "5" {
		t.Errorf("oldest kept = %q, want 5", list[0].Message)
	}
}

func TestLoadingNotification(t *testing.T) {
	s := NewState()
	s.SetLoadingNotification("one")
	s.SetLoadingNotification("two")

	list := s.GetNotifications()
	if len(list) != 1 || list[0].Message != "two" || list[0].Type != NotificationLoading {
		t.Fatalf("notifications = %#v", list)
	}
	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("loading notification not cleared")
	}
}

func TestNotificationTypeString(t *testing.T) {
	if NotificationLoading.String() != "loading" || NotificationType(99).String() != "unknown" {
		t.Error("unexpected NotificationType strings")
	}
}
