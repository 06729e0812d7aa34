/*
overlap.go - Conflict detection at half-day precision

PURPOSE:
  Decides whether a candidate interval collides with a user's existing
  bookings. Two intervals conflict iff they share at least one identical
  (date, half) slot. An interval ending on the afternoon of day D and one
  starting on the morning of day D share no slot and do not conflict.

  Only live requests (pending, approved, pending revoke) block; cancelled,
  rejected and revoked requests never do. Overlap is all-or-nothing per
  request: one shared slot rejects the whole candidate.
*/
package leave

// =============================================================================
// INTERVAL-LEVEL PRIMITIVE
// =============================================================================

// Overlaps reports whether two intervals share at least one (date, half)
// slot. It walks the shorter date intersection instead of materialising
// both slot sets.
func Overlaps(a, b Interval) bool {
	lo, hi := a.Start, a.End
	if b.Start.After(lo) {
		lo = b.Start
	}
	if b.End.Before(hi) {
		hi = b.End
	}
	for d := lo; d.BeforeOrEqual(hi); d = d.AddDays(1) {
		aAM, aPM := a.covers(d)
		bAM, bPM := b.covers(d)
		if (aAM && bAM) || (aPM && bPM) {
			return true
		}
	}
	return false
}

// =============================================================================
// REQUEST-LEVEL DETECTION
// =============================================================================

// FindConflicts returns the live requests whose intervals share a slot
// with the candidate. Requests in a non-live status are skipped even if
// the caller passes them in.
func FindConflicts(candidate Interval, existing []Request) []Request {
	var conflicts []Request
	for _, r := range existing {
		if !r.Status.IsLive() {
			continue
		}
		if Overlaps(candidate, r.Interval) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}

// CheckOverlap wraps FindConflicts into the error the lifecycle returns:
// nil when the candidate is free, an *OverlapError naming the conflicting
// requests otherwise.
func CheckOverlap(userID UserID, candidate Interval, existing []Request) error {
	conflicts := FindConflicts(candidate, existing)
	if len(conflicts) == 0 {
		return nil
	}
	return &OverlapError{UserID: userID, Candidate: candidate, Conflicts: conflicts}
}
