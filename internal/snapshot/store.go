package snapshot

import (
	"context"
	"time"

	"github.com/wonny/argus/internal/contracts"
)

// Store persists snapshots. Snapshots are append-only per date: a rebuild
// for an unchanged date is a no-op, and readers never observe a partially
// written snapshot.
type Store interface {
	// Put stores a snapshot for its date. Storing an identical snapshot
	// (same checksum) must be idempotent.
	Put(ctx context.Context, snap *contracts.SourceSnapshot) error

	// Latest returns the most recent snapshot at or before asOf, or a
	// *contracts.NoSnapshotError when none exists.
	Latest(ctx context.Context, asOf time.Time) (*contracts.SourceSnapshot, error)
}

// DateKey is the canonical map/DB key for a snapshot date
func DateKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}

// cutoff returns the forward-leakage boundary for an as-of date. A bare
// calendar date means "everything visible that day", so the boundary sits
// at the end of the day; a date carrying a clock is used as-is.
func cutoff(asOf time.Time) time.Time {
	if asOf.Hour() == 0 && asOf.Minute() == 0 && asOf.Second() == 0 && asOf.Nanosecond() == 0 {
		return asOf.Add(24*time.Hour - time.Nanosecond)
	}
	return asOf
}

// filterForward returns a copy of snap with every payload item whose own
// observed timestamp is after the as-of boundary removed. This is the
// single guarantee backtests depend on; the stored snapshot is never
// mutated.
func filterForward(snap *contracts.SourceSnapshot, asOf time.Time) *contracts.SourceSnapshot {
	bound := cutoff(asOf)

	out := &contracts.SourceSnapshot{
		Date:       snap.Date,
		Categories: make(map[contracts.SourceCategory]*contracts.CategoryPayload, len(snap.Categories)),
		Health:     append([]contracts.SourceHealth(nil), snap.Health...),
		Checksum:   snap.Checksum,
		BuiltAt:    snap.BuiltAt,
	}

	for cat, payload := range snap.Categories {
		filtered := &contracts.CategoryPayload{
			Category:      payload.Category,
			SchemaVersion: payload.SchemaVersion,
		}
		for _, item := range payload.Items {
			if item.ObservedAt.After(bound) {
				continue
			}
			filtered.Items = append(filtered.Items, item)
		}
		out.Categories[cat] = filtered
	}

	return out
}
