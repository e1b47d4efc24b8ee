package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/j-veylop/supervision-hours/internal/logger"
	"github.com/j-veylop/supervision-hours/internal/models"
)

// CSVSource reads raw interval records from a CSV file, or from every CSV
// file in a directory.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a source reading from path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Intervals implements Source. Rows with unparseable timestamps are kept with
// a zero time so the classifier reports them as malformed. A zero window
// disables filtering.
func (s *CSVSource) Intervals(ctx context.Context, window models.Window) ([]models.IntervalRecord, error) {
	files, err := csvFiles(s.Path)
	if err != nil {
		return nil, err
	}

	var records []models.IntervalRecord
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readIntervalFile(path)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			if inWindow(window, r) {
				records = append(records, r)
			}
		}
	}

	logger.Debug("read interval csv", "path", s.Path, "files", len(files), "records", len(records))
	return records, nil
}

// Close implements Source.
func (s *CSVSource) Close() error {
	return nil
}

func inWindow(window models.Window, r models.IntervalRecord) bool {
	if window.Start.IsZero() && window.End.IsZero() {
		return true
	}
	if r.End.IsZero() {
		return true
	}
	return window.Contains(r.End)
}

// csvFiles expands path into the CSV files it names, sorted by name.
func csvFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func openCSV(path string) (*os.File, *csv.Reader, headerIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, nil, nil, fmt.Errorf("unable to read header of %s: %w", path, err)
	}
	return file, reader, normalizeHeaders(headers), nil
}

// eachRecord calls fn for every non-empty data row.
func eachRecord(reader *csv.Reader, fn func([]string) error) error {
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("unable to read CSV: %w", err)
		}
		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

func readIntervalFile(path string) ([]models.IntervalRecord, error) {
	file, reader, headers, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	idx := make(map[string]int)
	for name, col := range map[string]column{
		"client": colClientID, "provider": colProviderID, "code": colServiceCode,
		"start": colStart, "end": colEnd,
	} {
		i, err := headers.require(col)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		idx[name] = i
	}
	clientName := headers.find(colClientName)
	office := headers.find(colClientOffice)
	first := headers.find(colFirstName)
	last := headers.find(colLastName)
	location := headers.find(colLocation)

	var records []models.IntervalRecord
	err = eachRecord(reader, func(record []string) error {
		start, _ := ParseTimestamp(getValue(record, idx["start"]))
		end, _ := ParseTimestamp(getValue(record, idx["end"]))
		records = append(records, models.IntervalRecord{
			ClientID:          getValue(record, idx["client"]),
			ClientName:        getValue(record, clientName),
			ClientOffice:      getValue(record, office),
			ProviderID:        getValue(record, idx["provider"]),
			ProviderFirstName: getValue(record, first),
			ProviderLastName:  getValue(record, last),
			ServiceCode:       getValue(record, idx["code"]),
			Start:             start,
			End:               end,
			Location:          getValue(record, location),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
