/*
interval_test.go - Behavior of the half-day slot model

PURPOSE:
  Documents and validates the interval value type: construction rules,
  the expansion of an interval into (date, half) cells, and year
  clipping. The boundary-half semantics here are the foundation both
  overlap detection and usage computation build on.

READING THESE TESTS:
  Each test has:
  - A descriptive name that states the behavior
  - GIVEN/WHEN/THEN comments explaining the scenario
  - Clear assertions with explanatory messages
*/
package leave_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/leave-engine/leave"
)

func date(y int, m time.Month, d int) leave.Date {
	return leave.NewDate(y, m, d)
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNewInterval_RejectsZeroDates(t *testing.T) {
	_, err := leave.NewInterval(leave.Date{}, leave.PartAll, date(2026, time.March, 2), leave.PartAll)
	if !errors.Is(err, leave.ErrValidation) {
		t.Fatalf("expected validation error for zero start, got %v", err)
	}
}

func TestNewInterval_RejectsEndBeforeStart(t *testing.T) {
	_, err := leave.NewInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 1), leave.PartAll)
	if !errors.Is(err, leave.ErrValidation) {
		t.Fatalf("expected validation error for reversed interval, got %v", err)
	}
}

func TestNewInterval_RejectsUnknownPart(t *testing.T) {
	_, err := leave.NewInterval(date(2026, time.March, 2), leave.DayPart("noon"), date(2026, time.March, 2), leave.DayPart("noon"))
	if !errors.Is(err, leave.ErrValidation) {
		t.Fatalf("expected validation error for unknown part, got %v", err)
	}
}

func TestNewInterval_SingleDayPartsMustAgree(t *testing.T) {
	// GIVEN: a single-day interval
	// WHEN: start and end parts differ
	// THEN: the interval is rejected as ambiguous
	_, err := leave.NewInterval(date(2026, time.March, 2), leave.PartMorning, date(2026, time.March, 2), leave.PartAfternoon)
	if !errors.Is(err, leave.ErrValidation) {
		t.Fatalf("expected validation error for mixed single-day parts, got %v", err)
	}

	// Matching halves are fine.
	if _, err := leave.NewInterval(date(2026, time.March, 2), leave.PartMorning, date(2026, time.March, 2), leave.PartMorning); err != nil {
		t.Fatalf("matching single-day halves should be valid, got %v", err)
	}
}

// =============================================================================
// SLOT EXPANSION
// =============================================================================

func TestSlots_FullDaysCoverBothHalves(t *testing.T) {
	iv := leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 3), leave.PartAll)

	slots := iv.Slots()
	if len(slots) != 4 {
		t.Fatalf("two full days should expand to 4 slots, got %d: %v", len(slots), slots)
	}
}

func TestSlots_MorningStartLeavesFirstAfternoonFree(t *testing.T) {
	// GIVEN: Monday morning through full Tuesday
	// THEN: Monday PM is NOT part of the interval
	iv := leave.MustInterval(date(2015, time.June, 15), leave.PartMorning, date(2015, time.June, 16), leave.PartAll)

	slots := iv.Slots()
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots (Mon AM, Tue AM, Tue PM), got %d: %v", len(slots), slots)
	}
	mondayPM := leave.Slot{Date: date(2015, time.June, 15), Half: leave.HalfPM}
	if iv.ContainsSlot(mondayPM) {
		t.Fatalf("a morning start must leave the afternoon free")
	}
}

func TestSlots_AfternoonStartLeavesFirstMorningFree(t *testing.T) {
	iv := leave.MustInterval(date(2015, time.June, 15), leave.PartAfternoon, date(2015, time.June, 16), leave.PartAll)

	mondayAM := leave.Slot{Date: date(2015, time.June, 15), Half: leave.HalfAM}
	if iv.ContainsSlot(mondayAM) {
		t.Fatalf("an afternoon start must leave the morning free")
	}
	if !iv.ContainsSlot(leave.Slot{Date: date(2015, time.June, 15), Half: leave.HalfPM}) {
		t.Fatalf("afternoon start must cover the afternoon")
	}
}

func TestSlots_MorningEndLeavesLastAfternoonFree(t *testing.T) {
	iv := leave.MustInterval(date(2015, time.June, 15), leave.PartAll, date(2015, time.June, 16), leave.PartMorning)

	tuesdayPM := leave.Slot{Date: date(2015, time.June, 16), Half: leave.HalfPM}
	if iv.ContainsSlot(tuesdayPM) {
		t.Fatalf("a morning end must leave the afternoon free")
	}
}

func TestCalendarDaySpan_Inclusive(t *testing.T) {
	iv := leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 6), leave.PartAll)
	if got := iv.CalendarDaySpan(); got != 5 {
		t.Fatalf("Mon..Fri should span 5 calendar days, got %d", got)
	}
}

// =============================================================================
// YEAR CLIPPING
// =============================================================================

func TestClipToYear_SplitsAtBoundary(t *testing.T) {
	// GIVEN: an interval spanning New Year
	iv := leave.MustInterval(date(2026, time.December, 28), leave.PartAfternoon, date(2027, time.January, 5), leave.PartMorning)

	// WHEN: clipped to each touched year
	first, ok := iv.ClipToYear(2026)
	if !ok {
		t.Fatalf("interval touches 2026")
	}
	second, ok := iv.ClipToYear(2027)
	if !ok {
		t.Fatalf("interval touches 2027")
	}

	// THEN: the cut ends become full days, the surviving ends keep
	// their parts
	if !first.End.Equal(date(2026, time.December, 31)) || first.EndPart != leave.PartAll {
		t.Fatalf("2026 portion should end with a full Dec 31, got %v", first)
	}
	if first.StartPart != leave.PartAfternoon {
		t.Fatalf("2026 portion should keep its afternoon start, got %v", first)
	}
	if !second.Start.Equal(date(2027, time.January, 1)) || second.StartPart != leave.PartAll {
		t.Fatalf("2027 portion should start with a full Jan 1, got %v", second)
	}
	if second.EndPart != leave.PartMorning {
		t.Fatalf("2027 portion should keep its morning end, got %v", second)
	}
}

func TestClipToYear_OutsideYear(t *testing.T) {
	iv := leave.MustInterval(date(2026, time.June, 1), leave.PartAll, date(2026, time.June, 2), leave.PartAll)
	if _, ok := iv.ClipToYear(2025); ok {
		t.Fatalf("interval does not touch 2025")
	}
}
