// Package models defines data structures and domain types.
package models

import (
	"strings"
	"time"
)

// Role is the part an interval plays in supervision attribution.
type Role int

const (
	// RoleDirect marks hands-on client service.
	RoleDirect Role = iota
	// RoleSupervision marks oversight of a direct provider.
	RoleSupervision
)

// String returns the display name for a role.
func (r Role) String() string {
	switch r {
	case RoleDirect:
		return "Direct"
	case RoleSupervision:
		return "Supervision"
	default:
		return "Unknown"
	}
}

// IntervalRecord is one unclassified billing entry as delivered by a source.
type IntervalRecord struct {
	ClientID          string
	ClientName        string
	ClientOffice      string
	ProviderID        string
	ProviderFirstName string
	ProviderLastName  string
	ServiceCode       string
	Start             time.Time
	End               time.Time
	Location          string
}

// ServiceInterval is a validated interval with an assigned role.
type ServiceInterval struct {
	ClientID          string
	ClientName        string
	ClientOffice      string
	ProviderID        string
	ProviderFirstName string
	ProviderLastName  string
	Role              Role
	Start             time.Time
	End               time.Time
	Location          string
}

// Minutes returns the interval duration in whole minutes.
func (s ServiceInterval) Minutes() int64 {
	return MinutesBetween(s.Start, s.End)
}

// MinutesBetween counts minute boundaries crossed between start and end.
// Seconds are ignored on both ends, so 09:00:59 to 09:01:00 is one minute.
func MinutesBetween(start, end time.Time) int64 {
	return int64(end.Truncate(time.Minute).Sub(start.Truncate(time.Minute)) / time.Minute)
}

// Name is a provider's first and last name pair.
type Name struct {
	First string
	Last  string
}

// NewName builds a Name with surrounding whitespace removed.
func NewName(first, last string) Name {
	return Name{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
}

// IsZero reports whether either half of the pair is missing.
func (n Name) IsZero() bool {
	return n.First == "" || n.Last == ""
}

// Full returns "First Last".
func (n Name) Full() string {
	return strings.TrimSpace(n.First + " " + n.Last)
}

// Window is a half-open reporting window [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// String formats the window as two dates.
func (w Window) String() string {
	return w.Start.Format("2006-01-02") + " to " + w.End.Format("2006-01-02")
}
