/*
calculator.go - Leave day counting, including the bridging rule

PURPOSE:
  Turns requested date ranges into the exact number of days to deduct
  from an employee's balance, given the configured workweek, the holiday
  calendar, and two policy flags.

COUNTING RULES:
  Per-range pass, for every date inside every range:
    - Non-working day: contributes nothing (not even to ExcludedHolidays)
    - Working day that is a holiday, with ExcludeHolidays on: counted as
      an excluded holiday, not charged
    - Any other working day: charged as a workday

  Bridging pass, only with WeekendBridging on and at least two ranges:
    For each adjacent pair of ranges, the gap is the set of dates strictly
    between them. If every gap day is one the employee would not have
    worked anyway (non-working, or an excluded working holiday), the whole
    gap is charged as bridge days. This stops splitting one absence across
    a weekend or holiday purely to avoid being charged for it.

    A single genuine chargeable workday in the gap disables bridging for
    that gap. The gap's workdays are NOT auto-added to the request; the
    submitting layer decides whether a discontinuous request is acceptable.

PRECONDITIONS:
  Ranges are valid, ascending, non-overlapping. ValidateRanges enforces
  this at submission; Compute assumes it.

PURITY:
  Compute reads only its receiver and arguments. Identical inputs always
  produce identical output, so a calculation frozen on a submitted request
  never drifts from what was reserved.

SEE ALSO:
  - workweek.go: Working-day classification
  - holiday.go: Holiday membership
  - request.go: Where calculations are frozen onto requests
*/
package leave

// =============================================================================
// POLICY FLAGS
// =============================================================================

// Flags are the two deployment-wide counting policies.
type Flags struct {
	// ExcludeHolidays: holidays inside a range on otherwise-working days
	// are not charged.
	ExcludeHolidays bool

	// WeekendBridging: a fully non-working gap between two requested
	// ranges is charged as leave.
	WeekendBridging bool
}

// =============================================================================
// DAYS CALCULATION - The derived, frozen result
// =============================================================================

// DaysCalculation is the deterministic result of counting a request's
// ranges. Once a request is submitted the calculation is frozen;
// recomputing it later would silently change an already-reserved balance.
type DaysCalculation struct {
	Workdays         int `json:"workdays"`
	BridgeDays       int `json:"bridge_days"`
	ExcludedHolidays int `json:"excluded_holidays"`
	TotalDeducted    int `json:"total_deducted"`
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator combines the workweek and holiday calendar. Build one per
// computation from current settings; it holds no mutable state.
type Calculator struct {
	Workweek WorkweekConfig
	Holidays *HolidayRegistry
}

func NewCalculator(workweek WorkweekConfig, holidays *HolidayRegistry) *Calculator {
	return &Calculator{Workweek: workweek, Holidays: holidays}
}

// Compute counts deductible days for the given ranges. Pure: no hidden
// state, no I/O. Empty input yields the zero calculation.
func (c *Calculator) Compute(ranges []DateRange, flags Flags) DaysCalculation {
	var calc DaysCalculation

	// Per-range pass
	for _, r := range ranges {
		for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
			if !c.Workweek.IsWorkingDay(d) {
				continue
			}
			if flags.ExcludeHolidays && c.Holidays.IsHoliday(d) {
				calc.ExcludedHolidays++
				continue
			}
			calc.Workdays++
		}
	}

	// Bridging pass
	if flags.WeekendBridging && len(ranges) >= 2 {
		for i := 1; i < len(ranges); i++ {
			calc.BridgeDays += c.bridgeableGap(ranges[i-1], ranges[i], flags)
		}
	}

	calc.TotalDeducted = calc.Workdays + calc.BridgeDays
	return calc
}

// bridgeableGap returns the gap length between two adjacent ranges if the
// entire gap is bridgeable, zero otherwise.
func (c *Calculator) bridgeableGap(earlier, later DateRange, flags Flags) int {
	gap := 0
	for d := earlier.End.AddDays(1); d.Before(later.Start); d = d.AddDays(1) {
		if c.chargeable(d, flags) {
			// A genuine workday inside the gap: no bridging for this pair.
			return 0
		}
		gap++
	}
	return gap
}

// chargeable reports whether the employee would have worked the date:
// a working day that is not an excluded holiday.
func (c *Calculator) chargeable(d Date, flags Flags) bool {
	if !c.Workweek.IsWorkingDay(d) {
		return false
	}
	if flags.ExcludeHolidays && c.Holidays.IsHoliday(d) {
		return false
	}
	return true
}
