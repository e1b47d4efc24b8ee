package engine

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// Directory resolves provider ids to display names and tracks which name
// pairs have acted as supervisors.
type Directory struct {
	names       map[string]models.Name
	supervisors map[models.Name]struct{}
	conflicts   []models.Anomaly
	reported    map[idName]struct{}
}

type idName struct {
	id   string
	name models.Name
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		names:       make(map[string]models.Name),
		supervisors: make(map[models.Name]struct{}),
		reported:    make(map[idName]struct{}),
	}
}

// Observe records a name for a provider id. The first complete name seen for
// an id wins; each later different name is recorded once as an identity
// conflict.
func (d *Directory) Observe(id string, name models.Name) {
	if id == "" || name.IsZero() {
		return
	}
	existing, ok := d.names[id]
	if !ok {
		d.names[id] = name
		return
	}
	key := idName{id, name}
	if _, seen := d.reported[key]; existing == name || seen {
		return
	}
	d.reported[key] = struct{}{}
	d.conflicts = append(d.conflicts, models.Anomaly{
		Kind:       models.AnomalyIdentityConflict,
		Message:    fmt.Sprintf("provider %s seen as %q and %q; keeping %q", id, existing.Full(), name.Full(), existing.Full()),
		ProviderID: id,
	})
}

// ObserveSupervisor marks a name pair as having supervised.
func (d *Directory) ObserveSupervisor(name models.Name) {
	if name.IsZero() {
		return
	}
	d.supervisors[name] = struct{}{}
}

// Name returns the resolved name for a provider id.
func (d *Directory) Name(id string) (models.Name, bool) {
	n, ok := d.names[id]
	return n, ok
}

// DisplayName returns "First Last" for a provider id, or "" when unknown.
func (d *Directory) DisplayName(id string) string {
	if n, ok := d.names[id]; ok {
		return n.Full()
	}
	return ""
}

// IsSupervisor reports whether the name pair ever appeared as a supervisor.
func (d *Directory) IsSupervisor(name models.Name) bool {
	_, ok := d.supervisors[name]
	return ok
}

// Conflicts returns the identity conflicts observed so far.
func (d *Directory) Conflicts() []models.Anomaly {
	return d.conflicts
}

// ResolveIdentities builds a directory from classified rows: direct names are
// observed per direct provider id, supervisor names go into the supervisor set.
func ResolveIdentities(rows []models.ClassifiedRow) *Directory {
	dir := NewDirectory()
	for _, r := range rows {
		dir.Observe(r.DirectProviderID, r.DirectName())
		dir.ObserveSupervisor(r.SupervisorName())
	}
	return dir
}

// ExcludeSelfSupervised drops rows whose direct provider also appears as a
// supervisor in this batch. It returns the kept rows and the number dropped.
func (d *Directory) ExcludeSelfSupervised(rows []models.ClassifiedRow) ([]models.ClassifiedRow, int) {
	kept := lo.Reject(rows, func(r models.ClassifiedRow, _ int) bool {
		name := r.DirectName()
		return !name.IsZero() && d.IsSupervisor(name)
	})
	return kept, len(rows) - len(kept)
}
