/*
calendar.go - Calendar day classification

PURPOSE:
  Classifies any calendar date as working or non-working given a resolved
  schedule and the company's public holidays. A holiday zeroes the whole
  day; this system does not model partial public holidays, though the
  classification enum keeps a half-day slot for forward compatibility.

  Classification is a pure function of its inputs. No hidden clock, no
  caching: the same (date, schedule, holidays) always classifies the same
  way, which keeps carry-over and reporting reproducible.
*/
package leave

// =============================================================================
// DAY CLASS
// =============================================================================

type DayClass string

const (
	DayWorkingFull DayClass = "working_full"
	// DayWorkingHalfAM is modeled as a granularity slot but never produced:
	// public holidays zero the whole day in this system.
	DayWorkingHalfAM DayClass = "working_half_am"
	DayNonWorking    DayClass = "non_working"
)

// =============================================================================
// HOLIDAY SET
// =============================================================================

// HolidaySet is the set of dates designated non-working regardless of the
// weekly pattern. The surrounding application owns and mutates it; the
// engine treats it as read-only input.
type HolidaySet map[Date]struct{}

func NewHolidaySet(dates ...Date) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

func (hs HolidaySet) Contains(d Date) bool {
	_, ok := hs[d]
	return ok
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classify reports how a date counts against allowance: non-working when
// its weekday is off per the schedule or it is a designated holiday,
// working otherwise.
func Classify(d Date, schedule WorkSchedule, holidays HolidaySet) DayClass {
	if !schedule.IsWorking(d) {
		return DayNonWorking
	}
	if holidays.Contains(d) {
		return DayNonWorking
	}
	return DayWorkingFull
}
