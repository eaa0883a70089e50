package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimeInterval is the time span occupied by a sub-resource.
// Invariant: StartAt is strictly before EndAt. Zero-length intervals are
// rejected at validation, not treated as degenerate non-overlapping ranges.
type TimeInterval struct {
	StartAt time.Time
	EndAt   time.Time
}

// Valid reports whether StartAt is strictly before EndAt.
func (iv TimeInterval) Valid() bool {
	return iv.StartAt.Before(iv.EndAt)
}

// Overlaps reports whether iv shares any instant with other.
// Intervals that merely touch at an endpoint count as overlapping: a stay
// ending at 12:00 blocks another stay starting at 12:00. The three clauses
// (starts inside, ends inside, fully contains) are kept in this form rather
// than collapsed into the two-comparison intersection test so the boundary
// behavior stays obvious at the call site.
func (iv TimeInterval) Overlaps(other TimeInterval) bool {
	startsInside := !iv.StartAt.After(other.EndAt) && !iv.StartAt.Before(other.StartAt)
	endsInside := !iv.EndAt.Before(other.StartAt) && !iv.EndAt.After(other.EndAt)
	contains := !iv.StartAt.After(other.StartAt) && !iv.EndAt.Before(other.EndAt)
	return startsInside || endsInside || contains
}

// ConflictsWith reports whether iv overlaps any sibling's interval.
// The sibling whose ID equals excludeID is skipped; pass uuid.Nil to check
// against all siblings. Updates pass the resource's own ID so it never
// conflicts with its prior stored state. Pure and O(n) in sibling count.
func (iv TimeInterval) ConflictsWith(siblings []SubResource, excludeID uuid.UUID) bool {
	for _, s := range siblings {
		if excludeID != uuid.Nil && s.ID == excludeID {
			continue
		}
		if iv.Overlaps(s.Interval()) {
			return true
		}
	}
	return false
}
