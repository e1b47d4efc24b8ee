package engine

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// MergeCredentials attaches certification-board supervision figures to report
// rows by provider id. Providers without a credential record get 0 codes and
// 0.00 hours. When a provider id appears more than once in creds, the first
// record wins.
func MergeCredentials(rows []models.ReportRow, creds []models.CredentialRecord) []models.ReportRow {
	byProvider := make(map[string]models.CredentialRecord, len(creds))
	for _, c := range creds {
		if _, ok := byProvider[c.ProviderID]; !ok {
			byProvider[c.ProviderID] = c
		}
	}

	return lo.Map(rows, func(r models.ReportRow, _ int) models.ReportRow {
		r.CredentialCodes = 0
		r.CredentialHours = decimal.Zero
		if c, ok := byProvider[r.DirectProviderID]; ok {
			if c.HasCodes {
				r.CredentialCodes = 1
			}
			r.CredentialHours = c.Hours.Round(models.HoursPlaces)
		}
		return r
	})
}
