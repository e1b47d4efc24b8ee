// Package export writes report, classified-row and JSON outputs and archives
// earlier exports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// Kind names an export file family.
type Kind string

const (
	KindReport     Kind = "report"
	KindClassified Kind = "classified"
	KindSummary    Kind = "summary"
)

const filePrefix = "supervision_hours_"

// FileName returns the dated file name for kind, e.g.
// supervision_hours_report_2026-01-12.csv.
func FileName(kind Kind, date time.Time, ext string) string {
	return fmt.Sprintf("%s%s_%s%s", filePrefix, kind, date.Format("2006-01-02"), ext)
}

// ClassifiedColumns is the column order of the classified-row export. It is
// also accepted by the classified CSV reader.
var ClassifiedColumns = []string{
	"ClientContactId",
	"ClientFullName",
	"ClientOfficeLocationName",
	"DirectProviderId",
	"DirectFirstName",
	"DirectLastName",
	"DirectServiceLocationName",
	"DirectHours",
	"SupervisionHours",
	"SupervisorProviderId",
	"SupervisorFirstName",
	"SupervisorLastName",
	"SupervisorServiceLocationName",
	"RowType",
}

// WriteReportCSV writes report rows in the fixed column order.
func WriteReportCSV(path string, rows []models.ReportRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, models.ReportColumns)
	for _, r := range rows {
		records = append(records, r.Record())
	}
	return writeCSV(path, records)
}

// WriteClassifiedCSV writes attributed rows before grouping.
func WriteClassifiedCSV(path string, rows []models.ClassifiedRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, ClassifiedColumns)
	for _, r := range rows {
		records = append(records, []string{
			r.ClientID,
			r.ClientName,
			r.ClientOffice,
			r.DirectProviderID,
			r.DirectFirstName,
			r.DirectLastName,
			r.DirectLocation,
			models.FormatHours(r.DirectHours),
			models.FormatHours(r.SupervisionHours),
			r.SupervisorID,
			r.SupervisorFirstName,
			r.SupervisorLastName,
			r.SupervisorLocation,
			string(r.RowType),
		})
	}
	return writeCSV(path, records)
}

// Summary is the JSON export of one run.
type Summary struct {
	RunID     string           `json:"run_id"`
	Window    summaryWindow    `json:"window"`
	Stats     models.RunStats  `json:"stats"`
	Totals    summaryTotals    `json:"totals"`
	Anomalies map[string]int   `json:"anomalies"`
	Rows      []summaryRow     `json:"rows"`
	Details   []summaryAnomaly `json:"anomaly_details,omitempty"`
}

type summaryWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type summaryTotals struct {
	DirectHours      string `json:"direct_hours"`
	SupervisionHours string `json:"supervision_hours"`
	PctSupervised    string `json:"pct_supervised"`
}

type summaryRow struct {
	Clinic             string   `json:"clinic"`
	DirectProviderID   string   `json:"direct_provider_id"`
	DirectProviderName string   `json:"direct_provider_name"`
	DirectHours        string   `json:"direct_hours"`
	SupervisionHours   string   `json:"supervision_hours"`
	PctSupervised      *string  `json:"pct_supervised"`
	UnsupervisedHours  string   `json:"unsupervised_hours"`
	CredentialCodes    int      `json:"credential_codes"`
	CredentialHours    string   `json:"credential_hours"`
	Flags              []string `json:"flags,omitempty"`
}

type summaryAnomaly struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	ClientID   string `json:"client_id,omitempty"`
	ProviderID string `json:"provider_id,omitempty"`
}

// NewSummary builds the JSON summary of a result.
func NewSummary(runID string, window models.Window, res *models.Result) Summary {
	direct, supervision := res.Totals()
	s := Summary{
		RunID: runID,
		Window: summaryWindow{
			Start: window.Start.Format("2006-01-02"),
			End:   window.End.Format("2006-01-02"),
		},
		Stats: res.Stats,
		Totals: summaryTotals{
			DirectHours:      models.FormatHours(direct),
			SupervisionHours: models.FormatHours(supervision),
			PctSupervised:    models.FormatPercent(models.PercentOf(supervision, direct)),
		},
		Anomalies: make(map[string]int),
	}
	for kind, n := range models.CountAnomalies(res.Anomalies) {
		s.Anomalies[string(kind)] = n
	}
	for _, r := range res.Rows {
		row := summaryRow{
			Clinic:             r.Clinic,
			DirectProviderID:   r.DirectProviderID,
			DirectProviderName: r.DirectProviderName,
			DirectHours:        models.FormatHours(r.DirectHours),
			SupervisionHours:   models.FormatHours(r.SupervisionHours),
			UnsupervisedHours:  models.FormatHours(r.UnsupervisedHours),
			CredentialCodes:    r.CredentialCodes,
			CredentialHours:    models.FormatHours(r.CredentialHours),
		}
		if r.PctSupervised.Valid {
			pct := models.FormatPercent(r.PctSupervised)
			row.PctSupervised = &pct
		}
		for _, f := range r.Flags {
			row.Flags = append(row.Flags, string(f))
		}
		s.Rows = append(s.Rows, row)
	}
	for _, a := range res.Anomalies {
		s.Details = append(s.Details, summaryAnomaly{
			Kind:       string(a.Kind),
			Message:    a.Message,
			ClientID:   a.ClientID,
			ProviderID: a.ProviderID,
		})
	}
	return s
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(append(data, '\n'))
		return err
	})
}

func writeCSV(path string, records [][]string) error {
	return writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.WriteAll(records); err != nil {
			return err
		}
		return w.Error()
	})
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

// ArchiveExisting moves earlier exports in dir into archiveDir. Files named
// in keep stay put. When the archive already holds a file of the same name,
// the moved file gets a _YYYYMMDD_HHMMSS suffix. It returns the archived
// paths.
func ArchiveExisting(dir, archiveDir string, now time.Time, keep ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	skip := make(map[string]bool, len(keep))
	for _, k := range keep {
		skip[filepath.Base(k)] = true
	}

	var archived []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || skip[name] || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		if err := os.MkdirAll(archiveDir, 0o750); err != nil {
			return archived, fmt.Errorf("failed to create archive directory: %w", err)
		}

		target := filepath.Join(archiveDir, name)
		if _, err := os.Stat(target); err == nil {
			ext := filepath.Ext(name)
			target = filepath.Join(archiveDir,
				fmt.Sprintf("%s_%s%s", strings.TrimSuffix(name, ext), now.Format("20060102_150405"), ext))
		}
		if err := os.Rename(filepath.Join(dir, name), target); err != nil {
			return archived, fmt.Errorf("failed to archive %s: %w", name, err)
		}
		archived = append(archived, target)
	}
	return archived, nil
}
