package engine

import (
	"runtime"
	"sort"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// OverlapMinutes returns the intersection of a direct and a supervision
// interval in minutes. ok is false when the intervals do not strictly
// intersect; touching endpoints do not count.
func OverlapMinutes(d, s models.ServiceInterval) (minutes int64, ok bool) {
	if !d.Start.Before(s.End) || !d.End.After(s.Start) {
		return 0, false
	}

	switch {
	case !d.Start.Before(s.Start) && !d.End.After(s.End):
		// direct inside supervision
		return models.MinutesBetween(d.Start, d.End), true
	case d.Start.Before(s.Start) && d.End.After(s.End):
		// supervision inside direct
		return models.MinutesBetween(s.Start, s.End), true
	case d.Start.Before(s.Start):
		return models.MinutesBetween(s.Start, d.End), true
	default:
		return models.MinutesBetween(d.Start, s.End), true
	}
}

// DetectOverlaps pairs every direct interval with every supervision interval
// of the same client. Clients are processed on up to workers goroutines; the
// per-client results are concatenated in client id order, so the output does
// not depend on scheduling.
func DetectOverlaps(direct, supervision []models.ServiceInterval, workers int) []models.OverlapPair {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	directByClient := lo.GroupBy(direct, clientOf)
	supervisionByClient := lo.GroupBy(supervision, clientOf)

	clients := lo.Filter(lo.Keys(directByClient), func(c string, _ int) bool {
		_, ok := supervisionByClient[c]
		return ok
	})
	sort.Strings(clients)

	perClient := make([][]models.OverlapPair, len(clients))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, client := range clients {
		g.Go(func() error {
			perClient[i] = clientOverlaps(directByClient[client], supervisionByClient[client])
			return nil
		})
	}
	_ = g.Wait()

	return lo.Flatten(perClient)
}

func clientOverlaps(direct, supervision []models.ServiceInterval) []models.OverlapPair {
	var pairs []models.OverlapPair
	for _, d := range direct {
		for _, s := range supervision {
			minutes, ok := OverlapMinutes(d, s)
			if !ok {
				continue
			}
			pairs = append(pairs, models.OverlapPair{
				ClientID:           d.ClientID,
				DirectProviderID:   d.ProviderID,
				SupervisorID:       s.ProviderID,
				DirectLocation:     d.Location,
				SupervisorLocation: s.Location,
				Minutes:            minutes,
			})
		}
	}
	return pairs
}

func clientOf(s models.ServiceInterval) string {
	return s.ClientID
}
