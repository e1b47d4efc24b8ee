package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RowType labels which attribution category a classified row belongs to.
type RowType string

const (
	// RowDirectOnly is direct service with no overlapping supervision.
	RowDirectOnly RowType = "Direct (no supervision overlap)"
	// RowOverlap is direct service overlapped with supervision.
	RowOverlap RowType = "Direct overlapped with supervision"
	// RowSupervisionOnly is supervision without any direct overlap.
	RowSupervisionOnly RowType = "Supervision without direct overlap"
)

// ParseRowType maps a source label to a RowType.
func ParseRowType(s string) (RowType, error) {
	switch rt := RowType(strings.TrimSpace(s)); rt {
	case RowDirectOnly, RowOverlap, RowSupervisionOnly:
		return rt, nil
	default:
		return "", fmt.Errorf("unknown row type %q", s)
	}
}

// ClassifiedRow is one attributed row: direct-only, overlap or supervision-only.
// It is both the residual calculator's output and the pre-classified input format.
type ClassifiedRow struct {
	RowType      RowType
	ClientID     string
	ClientName   string
	ClientOffice string

	DirectProviderID string
	DirectFirstName  string
	DirectLastName   string
	DirectLocation   string

	SupervisorID        string
	SupervisorFirstName string
	SupervisorLastName  string
	SupervisorLocation  string

	DirectHours      decimal.Decimal
	SupervisionHours decimal.Decimal

	// Clinic is the canonical location group key, set by the report stage.
	Clinic string
	// Flags carries data-quality warnings attached to this row.
	Flags []AnomalyKind
}

// DirectName returns the direct provider's name pair.
func (r ClassifiedRow) DirectName() Name {
	return NewName(r.DirectFirstName, r.DirectLastName)
}

// SupervisorName returns the supervisor's name pair.
func (r ClassifiedRow) SupervisorName() Name {
	return NewName(r.SupervisorFirstName, r.SupervisorLastName)
}

// HasHours reports whether either hour column is non-zero.
func (r ClassifiedRow) HasHours() bool {
	return !r.DirectHours.IsZero() || !r.SupervisionHours.IsZero()
}
