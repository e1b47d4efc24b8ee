package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/services"
)

const (
	// DefaultTickInterval paces expiry of timed toasts.
	DefaultTickInterval = 2 * time.Second

	DefaultNotificationDuration = 5 * time.Second
	// LongNotificationDuration keeps errors up long enough to read.
	LongNotificationDuration = 10 * time.Second

	// RunHistoryLimit is how many runs the viewer loads.
	RunHistoryLimit = 50

	storeTimeout = 5 * time.Second
)

// Store is the read side of the run history.
type Store interface {
	GetRecentRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
	GetRunRows(ctx context.Context, runID string) ([]models.ReportRow, error)
	GetRunAnomalies(ctx context.Context, runID string) ([]models.Anomaly, error)
	GetClinicTrend(ctx context.Context, clinic string, limit int) ([]models.ClinicPoint, error)
}

func defaultTickCmd() tea.Cmd {
	return tea.Tick(DefaultTickInterval, func(t time.Time) tea.Msg { return TickMsg{Time: t} })
}

// LoadRunsCmd reads the newest RunHistoryLimit runs.
func LoadRunsCmd(store Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		runs, err := store.GetRecentRuns(ctx, RunHistoryLimit)
		if err != nil {
			return ErrorMsg{Error: err, Context: "runs"}
		}
		return RunsLoadedMsg{Runs: runs}
	}
}

// LoadRunDetailCmd reads the report rows and anomalies of runID in parallel.
func LoadRunDetailCmd(store Store, runID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		msg := RunDetailLoadedMsg{RunID: runID}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			msg.Rows, err = store.GetRunRows(gctx, runID)
			return loadFailure("report rows", err)
		})
		g.Go(func() (err error) {
			msg.Anomalies, err = store.GetRunAnomalies(gctx, runID)
			return loadFailure("anomalies", err)
		})
		if err := g.Wait(); err != nil {
			var failed *loadError
			if errors.As(err, &failed) {
				return ErrorMsg{Error: failed.err, Context: failed.what}
			}
			return ErrorMsg{Error: err}
		}
		return msg
	}
}

// loadError tags a store error with what was being loaded.
type loadError struct {
	what string
	err  error
}

func (e *loadError) Error() string { return e.what + ": " + e.err.Error() }
func (e *loadError) Unwrap() error { return e.err }

func loadFailure(what string, err error) error {
	if err == nil {
		return nil
	}
	return &loadError{what: what, err: err}
}

// subscribeToServicesCmd hands the manager's event channel to Update, which
// then keeps one waitForServiceEventCmd pending at a time.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg { return SubscriptionEventMsg{Channel: ch} }
}

func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		if event, ok := <-ch; ok {
			return ServiceEventMsg{Event: event}
		}
		return nil
	}
}

func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg { return RemoveNotificationMsg{ID: id} })
}

func notifyCmd(kind NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: kind, Message: message, Duration: d}
	}
}

// NotifySuccessCmd shows a short-lived success toast.
func NotifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// NotifyErrorCmd shows an error toast for LongNotificationDuration.
func NotifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// SelectRunCmd moves the selection to idx and announces it to every tab.
// It returns nil when idx is out of range or already selected.
func SelectRunCmd(state *State, idx int) tea.Cmd {
	if !state.Select(idx) {
		return nil
	}
	id := state.SelectedRun().ID
	return func() tea.Msg { return RunSelectedMsg{Index: idx, RunID: id} }
}

func errorText(msg ErrorMsg) string {
	if msg.Context == "" {
		return msg.Error.Error()
	}
	return fmt.Sprintf("Failed to load %s: %v", msg.Context, msg.Error)
}
