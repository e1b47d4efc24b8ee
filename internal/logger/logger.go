// Package logger holds the process-wide slog logger and level helpers.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// Logger is the global logger instance.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// Setup replaces Logger with a text logger at level. When file is set, output
// goes to stderr and is appended to file as well; the returned closer closes
// the file.
func Setup(level slog.Level, file string) (io.Closer, error) {
	return setup(level, file, os.Stderr)
}

// SetupQuiet is Setup for full-screen mode: nothing is written to stderr, and
// without a file logs are dropped.
func SetupQuiet(level slog.Level, file string) (io.Closer, error) {
	return setup(level, file, io.Discard)
}

func setup(level slog.Level, file string, console io.Writer) (io.Closer, error) {
	w := console
	var closer io.Closer = nopCloser{}

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		if console == io.Discard {
			w = f
		} else {
			w = io.MultiWriter(console, f)
		}
		closer = f
	}

	Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func Error(msg string, args ...any) { Logger.Error(msg, args...) }
func Info(msg string, args ...any)  { Logger.Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger.Warn(msg, args...) }
func Debug(msg string, args ...any) { Logger.Debug(msg, args...) }

// Anomalies logs each anomaly as a warning and a per-kind summary at info.
func Anomalies(anomalies []models.Anomaly) {
	for _, a := range anomalies {
		Logger.Warn(a.Message,
			"kind", string(a.Kind),
			"client", a.ClientID,
			"provider", a.ProviderID,
			"location", a.Location)
	}
	counts := models.CountAnomalies(anomalies)
	args := make([]any, 0, 2*len(models.AnomalyKinds))
	for _, kind := range models.AnomalyKinds {
		args = append(args, string(kind), counts[kind])
	}
	Logger.Info("anomaly summary", args...)
}
