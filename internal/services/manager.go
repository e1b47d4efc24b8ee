// Package services orchestrates the report pipeline and routes its events.
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/supervision-hours/internal/config"
	"github.com/j-veylop/supervision-hours/internal/db"
	"github.com/j-veylop/supervision-hours/internal/engine"
	"github.com/j-veylop/supervision-hours/internal/export"
	"github.com/j-veylop/supervision-hours/internal/logger"
	"github.com/j-veylop/supervision-hours/internal/metrics"
	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/notify"
	"github.com/j-veylop/supervision-hours/internal/source"
)

// ErrEmptyWindow is returned when a resolved window has no duration.
var ErrEmptyWindow = errors.New("empty window")

// Stage names one step of a pipeline run.
type Stage string

const (
	StagePull    Stage = "pull"
	StageCompute Stage = "compute"
	StageMerge   Stage = "merge"
	StageExport  Stage = "export"
	StageRecord  Stage = "record"
	StageMetrics Stage = "metrics"
	StageNotify  Stage = "notify"
)

type (
	// StageEvent is emitted when a run enters a stage.
	StageEvent struct {
		RunID string
		Stage Stage
	}

	// RunCompletedEvent is emitted after a run succeeded and was recorded.
	RunCompletedEvent struct {
		Run    *models.RunSummary
		Result *models.Result
	}

	// ErrorEvent is emitted when a run fails or a side effect errors.
	ErrorEvent struct {
		Service string
		RunID   string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (StageEvent) isServiceEvent()        {}
func (RunCompletedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()        {}

// Manager runs the pipeline: pull, compute, merge credentials, export,
// record, metrics, notify.
type Manager struct {
	mu          sync.RWMutex
	runMu       sync.Mutex
	cfg         *config.Config
	engine      *engine.Engine
	database    *db.DB
	source      source.Source
	metrics     *metrics.Recorder
	notifier    notify.Notifier
	subscribers []chan<- ServiceEvent
	now         func() time.Time
}

// NewManager wires the pipeline from cfg. In raw mode the interval source is
// Postgres when SOURCE_DATABASE_URL is set, otherwise the CSV input path.
func NewManager(ctx context.Context, cfg *config.Config) (*Manager, error) {
	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg: cfg,
		engine: engine.New(engine.Options{
			DirectCode:       cfg.DirectCode,
			SupervisionCodes: cfg.SupervisionCodes,
			Rules:            rules,
			Workers:          cfg.Workers,
		}),
		now: time.Now,
	}

	if cfg.InputMode == models.ModeRaw {
		m.source, err = openSource(ctx, cfg, m.engine.Options())
		if err != nil {
			return nil, err
		}
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		m.closeSource()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.MetricsPath != "" {
		m.metrics = metrics.New()
	}
	m.notifier = buildNotifier(cfg)

	return m, nil
}

func openSource(ctx context.Context, cfg *config.Config, opts engine.Options) (source.Source, error) {
	switch {
	case cfg.SourceDatabaseURL != "":
		codes := append([]string{opts.DirectCode}, opts.SupervisionCodes...)
		return source.NewPostgresSource(ctx, cfg.SourceDatabaseURL, codes)
	case cfg.InputPath != "":
		return source.NewCSVSource(cfg.InputPath), nil
	default:
		return nil, errors.New("no interval source configured: set SOURCE_DATABASE_URL or INPUT_PATH")
	}
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	var n notify.Multi
	if cfg.DesktopNotify {
		n = append(n, notify.NewDesktop())
	}
	if cfg.WebhookURL != "" {
		n = append(n, notify.NewWebhook(cfg.WebhookURL))
	}
	if len(n) == 0 {
		return nil
	}
	return n
}

// ResolveWindow fills in missing window bounds. A zero end becomes the start
// of today; a zero start continues from the newest successful run, or goes
// back LOOKBACK_DAYS from end when there is none.
func (m *Manager) ResolveWindow(ctx context.Context, start, end time.Time) (models.Window, error) {
	if end.IsZero() {
		now := m.now()
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	if start.IsZero() {
		last, ok, err := m.database.LatestWindowEnd(ctx)
		if err != nil {
			return models.Window{}, err
		}
		if ok {
			start = last.In(end.Location())
		} else {
			start = end.AddDate(0, 0, -m.cfg.LookbackDays)
		}
	}
	if !start.Before(end) {
		return models.Window{}, fmt.Errorf("%w: start %s is not before end %s",
			ErrEmptyWindow, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return models.Window{Start: start, End: end}, nil
}

// Run executes one pipeline pass over window. Runs are serialized. The
// returned summary is non-nil whenever the run was recorded, including
// failed runs.
func (m *Manager) Run(ctx context.Context, window models.Window) (*models.RunSummary, error) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	run := &models.RunSummary{
		StartedAt: m.now(),
		Window:    window,
		Mode:      m.cfg.InputMode,
		Input:     m.describeInput(),
		Status:    models.RunRunning,
	}
	if err := m.database.InsertRun(ctx, run); err != nil {
		return nil, err
	}
	logger.Info("run started", "run_id", run.ID, "window", window.String(), "mode", run.Mode)

	res, err := m.execute(ctx, run)
	run.FinishedAt = m.now()
	if err != nil {
		m.fail(ctx, run, err)
		return run, err
	}

	run.Status = models.RunSucceeded
	if err := m.database.FinishRun(ctx, run); err != nil {
		m.fail(ctx, run, err)
		return run, err
	}
	logger.Info("run finished",
		"run_id", run.ID,
		"rows", run.RowCount,
		"anomalies", run.AnomalyCount,
		"direct_hours", models.FormatHours(run.DirectHours),
		"supervision_hours", models.FormatHours(run.SupervisionHours),
		"duration", run.Duration(),
	)

	m.stage(run, StageMetrics)
	if m.metrics != nil {
		m.metrics.ObserveRun(run, res)
		m.writeMetrics(run)
	}

	m.stage(run, StageNotify)
	m.notify(ctx, run)

	m.broadcast(RunCompletedEvent{Run: run, Result: res})
	return run, nil
}

func (m *Manager) execute(ctx context.Context, run *models.RunSummary) (*models.Result, error) {
	res, err := m.compute(ctx, run)
	if err != nil {
		return nil, err
	}

	if m.cfg.CredentialPath != "" {
		m.stage(run, StageMerge)
		creds, err := source.ReadCredentialCSV(m.cfg.CredentialPath)
		if err != nil {
			return nil, err
		}
		res.Rows = engine.MergeCredentials(res.Rows, creds)
	}
	logger.Anomalies(res.Anomalies)

	m.stage(run, StageExport)
	reportPath, err := m.export(run, res)
	if err != nil {
		return nil, err
	}

	m.stage(run, StageRecord)
	if err := m.database.InsertReportRows(ctx, run.ID, res.Rows); err != nil {
		return nil, err
	}
	if err := m.database.InsertAnomalies(ctx, run.ID, res.Anomalies); err != nil {
		return nil, err
	}

	run.RowCount = len(res.Rows)
	run.AnomalyCount = len(res.Anomalies)
	run.DirectHours, run.SupervisionHours = res.Totals()
	run.ReportPath = reportPath
	return res, nil
}

func (m *Manager) compute(ctx context.Context, run *models.RunSummary) (*models.Result, error) {
	m.stage(run, StagePull)
	if m.cfg.InputMode == models.ModeClassified {
		rows, invalid, err := source.ReadClassifiedCSV(m.cfg.InputPath)
		if err != nil {
			return nil, err
		}
		if invalid > 0 {
			logger.Warn("skipped invalid classified rows", "run_id", run.ID, "count", invalid)
		}
		m.stage(run, StageCompute)
		return m.engine.RunClassified(rows), nil
	}

	records, err := m.source.Intervals(ctx, run.Window)
	if err != nil {
		return nil, err
	}
	logger.Debug("pulled intervals", "run_id", run.ID, "count", len(records))

	m.stage(run, StageCompute)
	return m.engine.Run(records), nil
}

// export archives earlier files, then writes the report, classified rows and
// JSON summary. It returns the report path.
func (m *Manager) export(run *models.RunSummary, res *models.Result) (string, error) {
	dir := m.cfg.OutputDir
	date := run.Window.End
	reportPath := filepath.Join(dir, export.FileName(export.KindReport, date, ".csv"))
	classifiedPath := filepath.Join(dir, export.FileName(export.KindClassified, date, ".csv"))
	summaryPath := filepath.Join(dir, export.FileName(export.KindSummary, date, ".json"))

	archived, err := export.ArchiveExisting(dir, m.cfg.ArchiveDir, m.now())
	if err != nil {
		return "", err
	}
	if len(archived) > 0 {
		logger.Info("archived previous exports", "count", len(archived), "dir", m.cfg.ArchiveDir)
	}

	if err := export.WriteReportCSV(reportPath, res.Rows); err != nil {
		return "", err
	}
	if err := export.WriteClassifiedCSV(classifiedPath, res.Classified); err != nil {
		return "", err
	}
	if err := export.WriteJSON(summaryPath, export.NewSummary(run.ID, run.Window, res)); err != nil {
		return "", err
	}
	return reportPath, nil
}

func (m *Manager) fail(ctx context.Context, run *models.RunSummary, cause error) {
	run.Status = models.RunFailed
	run.Error = cause.Error()
	logger.Error("run failed", "run_id", run.ID, "error", cause)

	if err := m.database.FinishRun(ctx, run); err != nil {
		logger.Error("failed to record run failure", "run_id", run.ID, "error", err)
	}
	if m.metrics != nil {
		m.metrics.ObserveFailure(run)
		m.writeMetrics(run)
	}
	m.notify(ctx, run)
	m.broadcast(ErrorEvent{Service: "pipeline", RunID: run.ID, Error: cause})
}

func (m *Manager) writeMetrics(run *models.RunSummary) {
	if err := m.metrics.WriteTextfile(m.cfg.MetricsPath); err != nil {
		logger.Error("failed to write metrics", "run_id", run.ID, "error", err)
		m.broadcast(ErrorEvent{Service: "metrics", RunID: run.ID, Error: err})
	}
}

func (m *Manager) notify(ctx context.Context, run *models.RunSummary) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, notify.StatusFromRun(run)); err != nil {
		m.broadcast(ErrorEvent{Service: "notify", RunID: run.ID, Error: err})
	}
}

func (m *Manager) stage(run *models.RunSummary, stage Stage) {
	logger.Debug("stage", "run_id", run.ID, "stage", stage)
	m.broadcast(StageEvent{RunID: run.ID, Stage: stage})
}

func (m *Manager) describeInput() string {
	if m.cfg.InputMode == models.ModeRaw && m.cfg.SourceDatabaseURL != "" {
		return "postgres"
	}
	return m.cfg.InputPath
}

// Prune deletes recorded runs that started more than days ago.
func (m *Manager) Prune(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	n, err := m.database.DeleteRunsBefore(ctx, m.now().AddDate(0, 0, -days))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("pruned old runs", "count", n, "days", days)
		if err := m.database.Vacuum(); err != nil {
			logger.Warn("vacuum after prune failed", "error", err)
		}
	}
	return n, nil
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Database returns the run history store.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close releases the source and database.
func (m *Manager) Close() error {
	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error
	if m.source != nil {
		if err := m.source.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (m *Manager) closeSource() {
	if m.source == nil {
		return
	}
	if err := m.source.Close(); err != nil {
		logger.Error("failed to close source", "error", err)
	}
}
