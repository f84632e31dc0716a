/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the stores with realistic
	data for development servers and demos. Each scenario creates
	employees, balances, holidays, settings, and requests in various
	lifecycle states.

AVAILABLE SCENARIOS:

	small-team:    A manager with two reports, one pending request
	busy-quarter:  Several requests across the lifecycle, bridged ranges
	gulf-office:   Sun-Thu workweek deployment

HOW SCENARIOS WORK:
 1. Apply a factory policy preset (settings + allowances)
 2. Create the org chart
 3. Grant each employee the preset allowances
 4. Drive requests through the real service, never by field assignment

USAGE:

	Set SEED_SCENARIO=small-team on a development server, or call
	LoadScenario directly from tests.

NOTE:

	Scenarios add data; they do not clear existing records. Only use
	against empty development databases.

SEE ALSO:
  - factory/policy.go: Policy presets
  - cmd/server/main.go: SEED_SCENARIO wiring
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/loomhr/leave-engine/factory"
	"github.com/loomhr/leave-engine/leave"
)

// =============================================================================
// SCENARIO CATALOG
// =============================================================================

// Scenario is one loadable demo dataset.
type Scenario struct {
	ID          string
	Name        string
	Description string
	load        func(ctx context.Context, h *Handler) error
}

// Scenarios lists the available demo datasets.
func Scenarios() []Scenario {
	return []Scenario{
		{
			ID:          "small-team",
			Name:        "Small Team",
			Description: "A manager with two reports and one pending request",
			load:        loadSmallTeam,
		},
		{
			ID:          "busy-quarter",
			Name:        "Busy Quarter",
			Description: "Requests across the lifecycle, including a bridged absence",
			load:        loadBusyQuarter,
		},
		{
			ID:          "gulf-office",
			Name:        "Gulf Office",
			Description: "Sunday-Thursday workweek deployment",
			load:        loadGulfOffice,
		},
	}
}

// LoadScenario populates the handler's stores with the named scenario.
func LoadScenario(ctx context.Context, h *Handler, id string) error {
	for _, s := range Scenarios() {
		if s.ID == id {
			return s.load(ctx, h)
		}
	}
	return fmt.Errorf("unknown scenario %q", id)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// applyPreset stores the preset's settings and seeds this year's default
// holidays.
func applyPreset(ctx context.Context, h *Handler, presetID string) (*factory.Policy, error) {
	policy, err := factory.Preset(presetID)
	if err != nil {
		return nil, err
	}
	if err := h.Settings.SaveSettings(ctx, policy.Settings); err != nil {
		return nil, err
	}
	for _, holiday := range leave.DefaultUSHolidays(time.Now().Year()) {
		if err := h.Holidays.AddHoliday(ctx, holiday); err != nil {
			return nil, err
		}
	}
	return policy, nil
}

// hire creates an employee and grants them the policy's allowances.
func hire(ctx context.Context, h *Handler, policy *factory.Policy, e *leave.Employee) error {
	if err := h.Employees.SaveEmployee(ctx, e); err != nil {
		return err
	}
	for leaveType, days := range policy.Allowances {
		key := leave.BalanceKey{EmployeeID: e.ID, LeaveType: leaveType}
		if err := h.Ledger.AdjustTotal(ctx, key, days); err != nil {
			return err
		}
	}
	return nil
}

// workdayRange finds n consecutive working days starting at or after the
// given date, under the policy's workweek.
func workdayRange(policy *factory.Policy, from leave.Date, n int) leave.DateRange {
	start := from
	for !policy.Settings.Workweek.IsWorkingDay(start) {
		start = start.AddDays(1)
	}
	end := start
	for count := 1; count < n; {
		end = end.AddDays(1)
		if policy.Settings.Workweek.IsWorkingDay(end) {
			count++
		}
	}
	return leave.DateRange{Start: start, End: end}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func loadSmallTeam(ctx context.Context, h *Handler) error {
	policy, err := applyPreset(ctx, h, "us-standard")
	if err != nil {
		return err
	}

	managerID := leave.EmployeeID("demo-mgr")
	people := []*leave.Employee{
		{ID: managerID, Name: "Morgan Hale", Department: "Engineering", Role: leave.RoleManager},
		{ID: "demo-emp-1", Name: "Priya Nair", Department: "Engineering", ManagerID: &managerID, Role: leave.RoleEmployee},
		{ID: "demo-emp-2", Name: "Tomas Ruiz", Department: "Engineering", ManagerID: &managerID, Role: leave.RoleEmployee},
		{ID: "demo-admin", Name: "Sasha Kim", Department: "People", Role: leave.RoleAdmin},
	}
	for _, e := range people {
		if err := hire(ctx, h, policy, e); err != nil {
			return err
		}
	}

	// One pending request in the manager's queue.
	r := workdayRange(policy, leave.Today().AddDays(14), 3)
	request, err := h.Service.CreateDraft(ctx, "demo-emp-1", leave.LeaveAnnual,
		[]leave.DateRange{r}, "long weekend away")
	if err != nil {
		return err
	}
	_, err = h.Service.Submit(ctx, request.ID, "demo-emp-1")
	return err
}

func loadBusyQuarter(ctx context.Context, h *Handler) error {
	if err := loadSmallTeam(ctx, h); err != nil {
		return err
	}
	policy, err := factory.Preset("us-standard")
	if err != nil {
		return err
	}

	// An approved request...
	r1 := workdayRange(policy, leave.Today().AddDays(30), 5)
	approved, err := h.Service.CreateDraft(ctx, "demo-emp-2", leave.LeaveAnnual,
		[]leave.DateRange{r1}, "summer vacation")
	if err != nil {
		return err
	}
	if _, err := h.Service.Submit(ctx, approved.ID, "demo-emp-2"); err != nil {
		return err
	}
	if _, err := h.Service.Approve(ctx, approved.ID, "demo-mgr", "have fun"); err != nil {
		return err
	}

	// ...a rejected one...
	r2 := workdayRange(policy, leave.Today().AddDays(60), 2)
	rejected, err := h.Service.CreateDraft(ctx, "demo-emp-2", leave.LeavePersonal,
		[]leave.DateRange{r2}, "errands")
	if err != nil {
		return err
	}
	if _, err := h.Service.Submit(ctx, rejected.ID, "demo-emp-2"); err != nil {
		return err
	}
	if _, err := h.Service.Reject(ctx, rejected.ID, "demo-mgr", "release week"); err != nil {
		return err
	}

	// ...and a draft still being edited.
	r3 := workdayRange(policy, leave.Today().AddDays(90), 1)
	_, err = h.Service.CreateDraft(ctx, "demo-emp-1", leave.LeaveSick,
		[]leave.DateRange{r3}, "dentist")
	return err
}

func loadGulfOffice(ctx context.Context, h *Handler) error {
	policy, err := applyPreset(ctx, h, "gulf-standard")
	if err != nil {
		return err
	}

	managerID := leave.EmployeeID("demo-gulf-mgr")
	people := []*leave.Employee{
		{ID: managerID, Name: "Leila Haddad", Department: "Operations", Role: leave.RoleManager},
		{ID: "demo-gulf-emp", Name: "Omar Farouk", Department: "Operations", ManagerID: &managerID, Role: leave.RoleEmployee},
	}
	for _, e := range people {
		if err := hire(ctx, h, policy, e); err != nil {
			return err
		}
	}

	r := workdayRange(policy, leave.Today().AddDays(21), 4)
	request, err := h.Service.CreateDraft(ctx, "demo-gulf-emp", leave.LeaveAnnual,
		[]leave.DateRange{r}, "family visit")
	if err != nil {
		return err
	}
	_, err = h.Service.Submit(ctx, request.ID, "demo-gulf-emp")
	return err
}
