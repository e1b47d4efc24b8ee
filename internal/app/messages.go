package app

import (
	"time"

	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/services"
)

// Data messages. The root model broadcasts these to every tab.
type (
	RunsLoadedMsg struct {
		Runs []models.RunSummary
	}

	RunDetailLoadedMsg struct {
		RunID     string
		Rows      []models.ReportRow
		Anomalies []models.Anomaly
	}

	// RunSelectedMsg follows a successful SelectRunCmd.
	RunSelectedMsg struct {
		Index int
		RunID string
	}
)

// Control messages handled by the root model.
type (
	TickMsg struct {
		Time time.Time
	}

	// RefreshMsg reloads the run list.
	RefreshMsg struct{}

	AddNotificationMsg struct {
		Type     NotificationType
		Message  string
		Duration time.Duration
	}

	RemoveNotificationMsg struct {
		ID string
	}

	// SubscriptionEventMsg delivers the manager's event channel once.
	SubscriptionEventMsg struct {
		Channel chan services.ServiceEvent
	}

	ServiceEventMsg struct {
		Event services.ServiceEvent
	}

	// ErrorMsg reports a failed load. Context names what was being loaded.
	ErrorMsg struct {
		Error   error
		Context string
	}

	// TabSwitchMsg activates Tab; the tab syncs itself from State on receipt.
	TabSwitchMsg struct {
		Tab TabID
	}
)
