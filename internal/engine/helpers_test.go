package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

const downtown = "ORGANIZATION: Downtown Clinic"

var testDay = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func direct(client, provider, first, last string, start, end time.Time) models.IntervalRecord {
	return models.IntervalRecord{
		ClientID:          client,
		ClientName:        "Client " + client,
		ClientOffice:      downtown,
		ProviderID:        provider,
		ProviderFirstName: first,
		ProviderLastName:  last,
		ServiceCode:       DefaultDirectCode,
		Start:             start,
		End:               end,
		Location:          downtown,
	}
}

func supervision(client, provider, first, last string, start, end time.Time) models.IntervalRecord {
	r := direct(client, provider, first, last, start, end)
	r.ServiceCode = "97155"
	return r
}

func interval(client, provider string, role models.Role, start, end time.Time) models.ServiceInterval {
	return models.ServiceInterval{
		ClientID:   client,
		ProviderID: provider,
		Role:       role,
		Start:      start,
		End:        end,
		Location:   downtown,
	}
}

func hours(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// rowKey renders the fields that identify a classified row and its hours.
func rowKey(r models.ClassifiedRow) string {
	flags := make([]string, len(r.Flags))
	for i, f := range r.Flags {
		flags[i] = string(f)
	}
	return strings.Join([]string{
		string(r.RowType), r.ClientID, r.DirectProviderID, r.SupervisorID, r.Clinic,
		models.FormatHours(r.DirectHours), models.FormatHours(r.SupervisionHours),
		strings.Join(flags, ","),
	}, "|")
}

func rowKeys(rows []models.ClassifiedRow) []string {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = rowKey(r)
	}
	return keys
}

func hasFlag(flags []models.AnomalyKind, kind models.AnomalyKind) bool {
	for _, f := range flags {
		if f == kind {
			return true
		}
	}
	return false
}
