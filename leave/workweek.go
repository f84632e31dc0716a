package leave

import (
	"fmt"
	"time"
)

// =============================================================================
// WORKWEEK - Cyclic inclusive range of working weekdays
// =============================================================================

// WorkweekConfig defines the working days of the week as an inclusive,
// possibly wrapping, range of weekday indices (0=Sunday ... 6=Saturday).
//
// Examples:
//   Mon-Fri office:   {StartDay: 1, EndDay: 5}
//   Sun-Thu deployment: {StartDay: 0, EndDay: 4}
//   Wrapping week (Sat-Wed): {StartDay: 6, EndDay: 3}
type WorkweekConfig struct {
	StartDay time.Weekday
	EndDay   time.Weekday
}

// Validate rejects day indices outside 0-6. Misconfiguration is caught
// here, at settings-update time; IsWorkingDay never errors.
func (c WorkweekConfig) Validate() error {
	if c.StartDay < time.Sunday || c.StartDay > time.Saturday {
		return fmt.Errorf("%w: start day %d out of range 0-6", ErrInvalidWorkweek, c.StartDay)
	}
	if c.EndDay < time.Sunday || c.EndDay > time.Saturday {
		return fmt.Errorf("%w: end day %d out of range 0-6", ErrInvalidWorkweek, c.EndDay)
	}
	return nil
}

// IsWorkingDay reports whether the date falls inside the workweek.
// The range is cyclic: when StartDay > EndDay it wraps past Saturday,
// so {Fri, Mon} makes Fri, Sat, Sun and Mon working days.
func (c WorkweekConfig) IsWorkingDay(d Date) bool {
	wd := d.Weekday()
	if c.StartDay <= c.EndDay {
		return wd >= c.StartDay && wd <= c.EndDay
	}
	return wd >= c.StartDay || wd <= c.EndDay
}
