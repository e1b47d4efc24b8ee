// Package config contains everything related to configuration
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath      string
	SourceDatabaseURL string

	InputPath string
	InputMode models.InputMode

	OutputDir      string
	ArchiveDir     string
	CredentialPath string
	RulesPath      string
	MetricsPath    string

	WebhookURL    string
	DesktopNotify bool

	Workers          int
	LookbackDays     int
	DirectCode       string
	SupervisionCodes []string

	LogLevel      slog.Level
	LogFile       string
	WatchDebounce time.Duration
}

// Default values
const (
	defaultLookbackDays  = 7
	defaultWatchDebounce = 2 * time.Second
	defaultDirectCode    = "97153"
)

var defaultSupervisionCodes = []string{"97155", "Non-billable: PM Admin", "PDS | BCBA"}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	dataDir := getDefaultDataDir()
	cfg := &Config{
		DatabasePath:      getEnvString("DATABASE_PATH", filepath.Join(dataDir, "runs.db")),
		SourceDatabaseURL: getEnvString("SOURCE_DATABASE_URL", ""),
		InputPath:         getEnvString("INPUT_PATH", ""),
		InputMode:         models.InputMode(getEnvString("INPUT_MODE", string(models.ModeRaw))),
		OutputDir:         getEnvString("OUTPUT_DIR", filepath.Join(dataDir, "reports")),
		ArchiveDir:        getEnvString("ARCHIVE_DIR", ""),
		CredentialPath:    getEnvString("CREDENTIAL_PATH", ""),
		RulesPath:         getEnvString("RULES_PATH", ""),
		MetricsPath:       getEnvString("METRICS_PATH", ""),
		WebhookURL:        getEnvString("WEBHOOK_URL", ""),
		DesktopNotify:     getEnvBool("DESKTOP_NOTIFY", false),
		Workers:           getEnvInt("WORKERS", runtime.NumCPU()),
		LookbackDays:      getEnvInt("LOOKBACK_DAYS", defaultLookbackDays),
		DirectCode:        getEnvString("DIRECT_SERVICE_CODE", defaultDirectCode),
		SupervisionCodes:  getEnvList("SUPERVISION_SERVICE_CODES", defaultSupervisionCodes),
		LogLevel:          getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		LogFile:           getEnvString("LOG_FILE", ""),
		WatchDebounce:     getEnvDuration("WATCH_DEBOUNCE", defaultWatchDebounce),
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = filepath.Join(cfg.OutputDir, "archive")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure output directory exists
	if err := ensureDir(cfg.OutputDir); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	switch c.InputMode {
	case models.ModeRaw, models.ModeClassified:
	default:
		return fmt.Errorf("INPUT_MODE %q unknown: want raw|classified", c.InputMode)
	}
	if c.InputMode == models.ModeClassified && c.InputPath == "" {
		return fmt.Errorf("INPUT_PATH is required when INPUT_MODE is classified")
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("LOOKBACK_DAYS must be positive, got %d", c.LookbackDays)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}
	if len(c.SupervisionCodes) == 0 {
		return fmt.Errorf("SUPERVISION_SERVICE_CODES must list at least one code")
	}
	// Reports are CSVs and must not land in the folder inputs are read from.
	if samePath(c.OutputDir, c.InputPath) {
		return fmt.Errorf("OUTPUT_DIR must differ from INPUT_PATH (%s)", c.InputPath)
	}
	if samePath(c.ArchiveDir, c.InputPath) {
		return fmt.Errorf("ARCHIVE_DIR must differ from INPUT_PATH (%s)", c.InputPath)
	}
	return nil
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory location
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "supervision-hours", ".env"))
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getDefaultDataDir returns the directory holding the run history and reports.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "supervision-hours")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment variable.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvLevel parses a slog level name such as "debug" or "warn".
func getEnvLevel(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return defaultValue
	}
	return level
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
