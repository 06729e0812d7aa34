/*
Package leave provides the allowance and booking engine for employee time-off.

PURPOSE:
  This package contains the domain algorithms for leave management:
  which calendar days count against an allowance, whether a proposed
  absence collides with an existing one, how many days of entitlement
  remain, and how a leave request moves through its lifecycle.

KEY CONCEPTS IN THIS FILE (interval.go):
  - Interval: A booked or proposed absence span at half-day granularity
  - DayPart: Which part of a boundary day the absence covers
  - Slot: One (date, half) cell of the calendar

THE SLOT MODEL:
  Every interval expands into a discrete ordered sequence of (date, half)
  slots. Days strictly between the boundaries contribute both halves. A
  boundary day with a non-all part contributes exactly that half: an
  interval starting "afternoon" leaves its first morning free, and one
  ending "morning" leaves its last afternoon free. Overlap detection and
  usage calculation both run over this one expansion, so they can never
  disagree about which half-days an interval occupies.

DESIGN PRINCIPLES:
  1. Immutability: Intervals are recreated on edit, never mutated
  2. Precision: decimal.Decimal for day amounts, no floats
  3. One source of truth: overlap and usage share the slot expansion

USAGE:
  iv, err := leave.NewInterval(monday, leave.PartMorning, tuesday, leave.PartAll)
  for _, slot := range iv.Slots() { ... }

SEE ALSO:
  - overlap.go: Conflict detection over slot sets
  - usage.go: Deducted-days computation over slots
*/
package leave

import (
	"fmt"
)

// =============================================================================
// DAY PART - Which portion of a boundary day an interval covers
// =============================================================================

type DayPart string

const (
	PartAll       DayPart = "all"
	PartMorning   DayPart = "morning"
	PartAfternoon DayPart = "afternoon"
)

func (p DayPart) valid() bool {
	return p == PartAll || p == PartMorning || p == PartAfternoon
}

// =============================================================================
// HALF - One of the two bookable cells of a calendar day
// =============================================================================

type Half string

const (
	HalfAM Half = "am"
	HalfPM Half = "pm"
)

// Slot is a single bookable cell: one half of one calendar day.
type Slot struct {
	Date Date
	Half Half
}

func (s Slot) String() string { return fmt.Sprintf("%s/%s", s.Date, s.Half) }

// =============================================================================
// INTERVAL - A leave span at half-day granularity
// =============================================================================

// Interval is the value type for a booked or proposed absence.
// Construct with NewInterval; a zero Interval is not valid.
type Interval struct {
	Start     Date
	StartPart DayPart
	End       Date
	EndPart   DayPart
}

// NewInterval validates and builds an interval.
//
// For a single-day interval the parts must agree: (all, all) books the
// whole day, (morning, morning) or (afternoon, afternoon) books one half.
// Mixed same-day combinations are rejected because their meaning is
// ambiguous at the boundary.
func NewInterval(start Date, startPart DayPart, end Date, endPart DayPart) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, &ValidationError{Field: "interval", Reason: "start and end dates are required"}
	}
	if !startPart.valid() {
		return Interval{}, &ValidationError{Field: "startPart", Reason: fmt.Sprintf("unknown day part %q", startPart)}
	}
	if !endPart.valid() {
		return Interval{}, &ValidationError{Field: "endPart", Reason: fmt.Sprintf("unknown day part %q", endPart)}
	}
	if end.Before(start) {
		return Interval{}, &ValidationError{Field: "interval", Reason: fmt.Sprintf("end %s is before start %s", end, start)}
	}
	if start.Equal(end) && startPart != endPart {
		return Interval{}, &ValidationError{Field: "interval", Reason: "single-day interval must use the same day part on both ends"}
	}
	return Interval{Start: start, StartPart: startPart, End: end, EndPart: endPart}, nil
}

// MustInterval is a test/seed helper; it panics on invalid input.
func MustInterval(start Date, startPart DayPart, end Date, endPart DayPart) Interval {
	iv, err := NewInterval(start, startPart, end, endPart)
	if err != nil {
		panic(err)
	}
	return iv
}

// covers reports which halves of date d fall inside the interval.
// d must be within [Start, End]. A non-all boundary part contributes
// exactly that half: starting on an afternoon leaves the morning free,
// ending on a morning leaves the afternoon free.
func (iv Interval) covers(d Date) (am, pm bool) {
	am, pm = true, true
	if d.Equal(iv.Start) {
		switch iv.StartPart {
		case PartMorning:
			pm = false
		case PartAfternoon:
			am = false
		}
	}
	if d.Equal(iv.End) {
		switch iv.EndPart {
		case PartMorning:
			pm = false
		case PartAfternoon:
			am = false
		}
	}
	return am, pm
}

// Slots expands the interval into its ordered (date, half) cells.
func (iv Interval) Slots() []Slot {
	var slots []Slot
	for d := iv.Start; d.BeforeOrEqual(iv.End); d = d.AddDays(1) {
		am, pm := iv.covers(d)
		if am {
			slots = append(slots, Slot{Date: d, Half: HalfAM})
		}
		if pm {
			slots = append(slots, Slot{Date: d, Half: HalfPM})
		}
	}
	return slots
}

// ContainsSlot reports whether the given cell is inside the interval.
func (iv Interval) ContainsSlot(s Slot) bool {
	if s.Date.Before(iv.Start) || s.Date.After(iv.End) {
		return false
	}
	am, pm := iv.covers(s.Date)
	if s.Half == HalfAM {
		return am
	}
	return pm
}

// CalendarDaySpan is the inclusive number of calendar days covered,
// regardless of schedule or holidays.
func (iv Interval) CalendarDaySpan() int {
	return iv.Start.DaysUntil(iv.End)
}

// ClipToYear returns the portion of the interval that falls inside the
// given calendar year. The second return is false when nothing does.
// Boundary parts are preserved on the surviving ends; a clipped end is
// a full day because the cut happens at a year boundary, not mid-day.
func (iv Interval) ClipToYear(year int) (Interval, bool) {
	from, to := StartOfYear(year), EndOfYear(year)
	if iv.End.Before(from) || iv.Start.After(to) {
		return Interval{}, false
	}
	out := iv
	if out.Start.Before(from) {
		out.Start, out.StartPart = from, PartAll
	}
	if out.End.After(to) {
		out.End, out.EndPart = to, PartAll
	}
	return out, true
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s(%s)..%s(%s)", iv.Start, iv.StartPart, iv.End, iv.EndPart)
}
