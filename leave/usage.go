/*
usage.go - Deducted-days computation

PURPOSE:
  Computes how many allowance-bearing days an interval consumes. Walks
  each calendar date, classifies it against the resolved schedule and
  holidays, and accumulates 1.0 for a fully covered working day, 0.5 for
  a working day where the interval covers one half, 0 for non-working
  days. The boundary halves come from the same covers() expansion that
  overlap detection uses, so usage and overlap can never disagree about
  which cells are "in" the interval.

  Deterministic, no hidden state; the result is a non-negative multiple
  of 0.5 and never exceeds the calendar day span.
*/
package leave

import (
	"github.com/shopspring/decimal"
)

var (
	half = decimal.NewFromFloat(0.5)
	one  = decimal.NewFromInt(1)
)

// Usage returns the fractional number of days the interval deducts from
// allowance under the given schedule and holiday set.
func Usage(iv Interval, schedule WorkSchedule, holidays HolidaySet) decimal.Decimal {
	total := decimal.Zero
	for d := iv.Start; d.BeforeOrEqual(iv.End); d = d.AddDays(1) {
		if Classify(d, schedule, holidays) == DayNonWorking {
			continue
		}
		am, pm := iv.covers(d)
		switch {
		case am && pm:
			total = total.Add(one)
		case am || pm:
			total = total.Add(half)
		}
	}
	return total
}

// UsageInYear returns the usage of only the portion of the interval that
// falls inside the given calendar year. Intervals spanning a year
// boundary deduct from each year separately.
func UsageInYear(iv Interval, year int, schedule WorkSchedule, holidays HolidaySet) decimal.Decimal {
	clipped, ok := iv.ClipToYear(year)
	if !ok {
		return decimal.Zero
	}
	return Usage(clipped, schedule, holidays)
}
