package models

import "github.com/shopspring/decimal"

// OverlapPair is the intersection of one direct and one supervision interval.
type OverlapPair struct {
	ClientID           string
	DirectProviderID   string
	SupervisorID       string
	DirectLocation     string
	SupervisorLocation string
	Minutes            int64
}

// Key returns the aggregation key of the pair.
func (p OverlapPair) Key() OverlapKey {
	return OverlapKey{
		ClientID:           p.ClientID,
		DirectProviderID:   p.DirectProviderID,
		SupervisorID:       p.SupervisorID,
		DirectLocation:     p.DirectLocation,
		SupervisorLocation: p.SupervisorLocation,
	}
}

// Hours returns the pair's overlap in hours.
func (p OverlapPair) Hours() decimal.Decimal {
	return HoursFromMinutes(p.Minutes)
}

// OverlapKey groups overlap by client, both providers and both locations.
type OverlapKey struct {
	ClientID           string
	DirectProviderID   string
	SupervisorID       string
	DirectLocation     string
	SupervisorLocation string
}

// DirectKey returns the direct side of the key.
func (k OverlapKey) DirectKey() DirectKey {
	return DirectKey{ClientID: k.ClientID, ProviderID: k.DirectProviderID, Location: k.DirectLocation}
}

// SupervisionKey returns the supervision side of the key.
func (k OverlapKey) SupervisionKey() SupervisionKey {
	return SupervisionKey{ClientID: k.ClientID, SupervisorID: k.SupervisorID, Location: k.SupervisorLocation}
}

// OverlapTotal is the summed overlap for one OverlapKey.
type OverlapTotal struct {
	OverlapKey
	Hours decimal.Decimal
}

// DirectKey groups direct service by client, provider and location.
type DirectKey struct {
	ClientID   string
	ProviderID string
	Location   string
}

// SupervisionKey groups supervision by client, supervisor and location.
type SupervisionKey struct {
	ClientID     string
	SupervisorID string
	Location     string
}

// DirectTotal is the total direct service for one DirectKey.
type DirectTotal struct {
	DirectKey
	Hours decimal.Decimal
}

// SupervisionTotal is the total supervision for one SupervisionKey.
type SupervisionTotal struct {
	SupervisionKey
	Hours decimal.Decimal
}
