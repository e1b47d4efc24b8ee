package engine

import (
	"fmt"
	"strings"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// Default service codes: one direct code and the codes that count as supervision.
const DefaultDirectCode = "97153"

// DefaultSupervisionCodes returns the service codes treated as supervision.
func DefaultSupervisionCodes() []string {
	return []string{"97155", "Non-billable: PM Admin", "PDS | BCBA"}
}

// Classifier splits interval records into direct and supervision roles.
type Classifier struct {
	directCode       string
	supervisionCodes map[string]struct{}
}

// NewClassifier builds a classifier for the given service codes.
func NewClassifier(directCode string, supervisionCodes []string) Classifier {
	codes := make(map[string]struct{}, len(supervisionCodes))
	for _, c := range supervisionCodes {
		codes[strings.TrimSpace(c)] = struct{}{}
	}
	return Classifier{directCode: strings.TrimSpace(directCode), supervisionCodes: codes}
}

// Classification is the output of Classify.
type Classification struct {
	Direct      []models.ServiceInterval
	Supervision []models.ServiceInterval
	// Excluded counts well-formed records whose code matched neither role.
	Excluded  int
	Malformed []models.Anomaly
}

// Classify partitions records by service code. Malformed records are dropped
// and reported; records with an unrelated code are dropped silently.
func (c Classifier) Classify(records []models.IntervalRecord) Classification {
	var out Classification
	for i, rec := range records {
		if reason := malformedReason(rec); reason != "" {
			out.Malformed = append(out.Malformed, models.Anomaly{
				Kind:       models.AnomalyMalformedInterval,
				Message:    fmt.Sprintf("record %d dropped: %s", i+1, reason),
				ClientID:   rec.ClientID,
				ProviderID: rec.ProviderID,
				Location:   rec.Location,
			})
			continue
		}

		role, ok := c.role(rec.ServiceCode)
		if !ok {
			out.Excluded++
			continue
		}

		interval := models.ServiceInterval{
			ClientID:          strings.TrimSpace(rec.ClientID),
			ClientName:        rec.ClientName,
			ClientOffice:      rec.ClientOffice,
			ProviderID:        strings.TrimSpace(rec.ProviderID),
			ProviderFirstName: rec.ProviderFirstName,
			ProviderLastName:  rec.ProviderLastName,
			Role:              role,
			Start:             rec.Start,
			End:               rec.End,
			Location:          locationOrUnknown(rec.Location),
		}
		if role == models.RoleDirect {
			out.Direct = append(out.Direct, interval)
		} else {
			out.Supervision = append(out.Supervision, interval)
		}
	}
	return out
}

func (c Classifier) role(code string) (models.Role, bool) {
	code = strings.TrimSpace(code)
	if code == c.directCode {
		return models.RoleDirect, true
	}
	if _, ok := c.supervisionCodes[code]; ok {
		return models.RoleSupervision, true
	}
	return 0, false
}

func malformedReason(rec models.IntervalRecord) string {
	switch {
	case strings.TrimSpace(rec.ClientID) == "":
		return "missing client id"
	case strings.TrimSpace(rec.ProviderID) == "":
		return "missing provider id"
	case rec.Start.IsZero():
		return "missing start time"
	case rec.End.IsZero():
		return "missing end time"
	case !rec.End.After(rec.Start):
		return "end is not after start"
	}
	return ""
}

// UnknownLocation stands in for a missing service location.
const UnknownLocation = "(Unknown)"

func locationOrUnknown(loc string) string {
	if strings.TrimSpace(loc) == "" {
		return UnknownLocation
	}
	return loc
}
