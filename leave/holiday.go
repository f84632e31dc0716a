package leave

import (
	"sort"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// =============================================================================
// HOLIDAY - Named non-chargeable dates
// =============================================================================

type HolidayCategory string

const (
	CategoryPublic    HolidayCategory = "public"
	CategoryReligious HolidayCategory = "religious"
	CategoryNational  HolidayCategory = "national"
)

// Holiday is a named calendar date. Holidays are unique per date: two
// observances on the same day must be merged by whoever maintains them.
type Holiday struct {
	Date     Date
	Name     string
	Category HolidayCategory
}

// =============================================================================
// HOLIDAY REGISTRY - Membership queries for the calculator
// =============================================================================

// HolidayRegistry answers holiday membership queries. It is an input to
// the calculator and is never mutated by it.
type HolidayRegistry struct {
	byDate map[string]Holiday
}

// NewHolidayRegistry builds a registry from a holiday list, enforcing
// date uniqueness.
func NewHolidayRegistry(holidays []Holiday) (*HolidayRegistry, error) {
	r := &HolidayRegistry{byDate: make(map[string]Holiday, len(holidays))}
	for _, h := range holidays {
		if err := r.Add(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers a holiday. Fails with DuplicateHolidayError if one
// already exists on that date.
func (r *HolidayRegistry) Add(h Holiday) error {
	key := h.Date.String()
	if existing, ok := r.byDate[key]; ok {
		return &DuplicateHolidayError{Date: h.Date, Existing: existing.Name}
	}
	r.byDate[key] = h
	return nil
}

// Lookup returns the holiday on the given date, if any.
func (r *HolidayRegistry) Lookup(d Date) (Holiday, bool) {
	h, ok := r.byDate[d.String()]
	return h, ok
}

// IsHoliday reports holiday membership without the record.
func (r *HolidayRegistry) IsHoliday(d Date) bool {
	_, ok := r.Lookup(d)
	return ok
}

// All returns every registered holiday in date order.
func (r *HolidayRegistry) All() []Holiday {
	out := make([]Holiday, 0, len(r.byDate))
	for _, h := range r.byDate {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// =============================================================================
// DEFAULT HOLIDAYS - Standard US federal set for seeding
// =============================================================================

// DefaultUSHolidays returns the standard US federal holidays for a year,
// on their actual (not observed) dates. Used to seed an empty holiday
// store; deployments elsewhere load their own calendar.
func DefaultUSHolidays(year int) []Holiday {
	defs := []*cal.Holiday{
		us.NewYear,
		us.MlkDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	}

	out := make([]Holiday, 0, len(defs))
	for _, def := range defs {
		actual, _ := def.Calc(year)
		out = append(out, Holiday{
			Date:     NewDate(actual.Date()),
			Name:     def.Name,
			Category: CategoryPublic,
		})
	}
	return out
}
