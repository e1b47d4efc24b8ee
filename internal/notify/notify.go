// Package notify delivers run completion notices to the desktop and to HTTP
// webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/supervision-hours/internal/logger"
	"github.com/j-veylop/supervision-hours/internal/models"
)

// Status describes one finished pipeline run.
type Status struct {
	RunID            string    `json:"run_id"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	Rows             int       `json:"rows"`
	Anomalies        int       `json:"anomalies"`
	DirectHours      string    `json:"direct_hours"`
	SupervisionHours string    `json:"supervision_hours"`
	PctSupervised    string    `json:"pct_supervised"`
	ReportPath       string    `json:"report_path,omitempty"`
}

// StatusFromRun builds a Status from a persisted run summary.
func StatusFromRun(run *models.RunSummary) Status {
	return Status{
		RunID:            run.ID,
		Success:          run.Status == models.RunSucceeded,
		Error:            run.Error,
		WindowStart:      run.Window.Start,
		WindowEnd:        run.Window.End,
		Rows:             run.RowCount,
		Anomalies:        run.AnomalyCount,
		DirectHours:      models.FormatHours(run.DirectHours),
		SupervisionHours: models.FormatHours(run.SupervisionHours),
		PctSupervised:    models.FormatPercent(run.PctSupervised()),
		ReportPath:       run.ReportPath,
	}
}

// Title is the one-line heading used by every notifier.
func (s Status) Title() string {
	if !s.Success {
		return "Supervision hours run failed"
	}
	return "Supervision hours report ready"
}

// Body is the short human-readable message.
func (s Status) Body() string {
	if !s.Success {
		return fmt.Sprintf("%s to %s: %s",
			s.WindowStart.Format("2006-01-02"), s.WindowEnd.Format("2006-01-02"), s.Error)
	}
	pct := s.PctSupervised
	if pct == "" {
		pct = "n/a"
	}
	return fmt.Sprintf("%s to %s: %d rows, %s direct h, %s supervision h (%s%%), %d anomalies",
		s.WindowStart.Format("2006-01-02"), s.WindowEnd.Format("2006-01-02"),
		s.Rows, s.DirectHours, s.SupervisionHours, pct, s.Anomalies)
}

// Notifier sends a Status somewhere.
type Notifier interface {
	Notify(ctx context.Context, s Status) error
}

// Desktop shows a native desktop notification.
type Desktop struct {
	// notify is swapped in tests.
	notify func(title, message string) error
}

// NewDesktop returns a desktop notifier backed by beeep.
func NewDesktop() *Desktop {
	return &Desktop{notify: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

// Notify implements Notifier.
func (d *Desktop) Notify(_ context.Context, s Status) error {
	if err := d.notify(s.Title(), s.Body()); err != nil {
		return fmt.Errorf("failed to show desktop notification: %w", err)
	}
	return nil
}

// Webhook posts the Status as JSON.
type Webhook struct {
	URL    string
	client *http.Client
}

// NewWebhook returns a webhook notifier with a bounded request timeout.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Text   string `json:"text"`
	Status Status `json:"status"`
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, s Status) error {
	body, err := json.Marshal(webhookPayload{
		Text:   s.Title() + ": " + s.Body(),
		Status: s,
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	logger.Debug("webhook delivered", "run_id", s.RunID, "status", resp.StatusCode)
	return nil
}

// Multi fans a Status out to several notifiers. Every notifier is tried;
// failures are logged and joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, s Status) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, s); err != nil {
			logger.Error("notification failed", "run_id", s.RunID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
