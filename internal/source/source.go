// Package source reads service interval records, pre-classified rows and
// credential summaries from CSV files and the billing database.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Source delivers the raw interval records whose service ended inside window.
type Source interface {
	Intervals(ctx context.Context, window models.Window) ([]models.IntervalRecord, error)
	Close() error
}

// column lists the accepted header spellings for one field.
type column []string

var (
	colClientID     = column{"ClientContactId", "client_id", "ClientId"}
	colClientName   = column{"ClientFullName", "client_name", "client"}
	colClientOffice = column{"ClientOfficeLocationName", "client_office", "office"}
	colProviderID   = column{"ProviderContactId", "ProviderId", "provider_id"}
	colFirstName    = column{"ProviderFirstName", "FirstName", "first_name"}
	colLastName     = column{"ProviderLastName", "LastName", "last_name"}
	colServiceCode  = column{"ServiceCode", "service_code", "code"}
	colStart        = column{"ServiceStartTime", "start_time", "start"}
	colEnd          = column{"ServiceEndTime", "end_time", "end"}
	colLocation     = column{"ServiceLocationName", "location", "service_location"}
)

// headerIndex maps normalized header names to their column position.
type headerIndex map[string]int

func normalizeHeaders(headers []string) headerIndex {
	result := make(headerIndex, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

// find returns the position of the first matching alias, or -1.
func (h headerIndex) find(names column) int {
	for _, name := range names {
		if idx, ok := h[normalizeHeader(name)]; ok {
			return idx
		}
	}
	return -1
}

// require is find for mandatory columns.
func (h headerIndex) require(names column) (int, error) {
	if idx := h.find(names); idx >= 0 {
		return idx, nil
	}
	return -1, fmt.Errorf("%w: %s", ErrMissingColumn, names[0])
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
}

// ParseTimestamp parses a service timestamp in any of the accepted layouts.
// Zone-less values are read in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %s", value)
}
