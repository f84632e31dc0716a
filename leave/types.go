/*
Package leave implements the leave-day accounting engine.

PURPOSE:
  This package contains the domain core for employee leave requests:
  classifying working days against a configurable workweek, counting
  deductible days across requested date ranges (including the weekend
  bridging rule), maintaining per-employee balances with reserve/commit/
  release semantics, and driving the request state machine from Draft
  through Pending to Approved/Rejected.

KEY CONCEPTS IN THIS FILE (types.go):
  - Days: A day quantity backed by decimal.Decimal
  - EmployeeID/RequestID/LeaveType: Type-safe identifiers
  - Employee: Who owns requests and who may resolve them

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so admin-granted fractional
     allowances never accumulate float error
  2. Type Safety: Strong typing for IDs prevents mixing employee and
     request identifiers
  3. Explicit transitions: Request status only changes through the
     RequestService operations, never by field assignment

SEE ALSO:
  - calculator.go: Day counting and the bridging rule
  - ledger.go: Balance counters and their invariant
  - request.go: Request lifecycle state machine
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RequestID string

// LeaveType identifies a balance bucket (annual, sick, ...).
type LeaveType string

const (
	LeaveAnnual   LeaveType = "annual"
	LeaveSick     LeaveType = "sick"
	LeavePersonal LeaveType = "personal"
)

// =============================================================================
// DAYS - Day quantity with decimal precision
// =============================================================================

// Days is a quantity of leave days. Calculations produce whole days, but
// balance totals may be adjusted to fractional values by an admin, so the
// type is decimal-backed throughout.
type Days struct {
	Value decimal.Decimal
}

func NewDays(n int) Days {
	return Days{Value: decimal.NewFromInt(int64(n))}
}

func NewDaysFromFloat(f float64) Days {
	return Days{Value: decimal.NewFromFloat(f)}
}

// ParseDays parses a decimal day count, e.g. "12.5".
func ParseDays(s string) (Days, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Days{}, err
	}
	return Days{Value: d}, nil
}

func ZeroDays() Days { return Days{Value: decimal.Zero} }

func (d Days) Add(other Days) Days          { return Days{Value: d.Value.Add(other.Value)} }
func (d Days) Sub(other Days) Days          { return Days{Value: d.Value.Sub(other.Value)} }
func (d Days) IsNegative() bool             { return d.Value.IsNegative() }
func (d Days) IsZero() bool                 { return d.Value.IsZero() }
func (d Days) LessThan(other Days) bool     { return d.Value.LessThan(other.Value) }
func (d Days) GreaterThan(other Days) bool  { return d.Value.GreaterThan(other.Value) }
func (d Days) Equal(other Days) bool        { return d.Value.Equal(other.Value) }
func (d Days) String() string               { return d.Value.String() }

// =============================================================================
// EMPLOYEE
// =============================================================================

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Employee is the owner of leave requests and balances. Balances live in
// the ledger store, not inline, so every counter mutation goes through the
// ledger's locked operations.
type Employee struct {
	ID         EmployeeID
	Name       string
	Department string
	ManagerID  *EmployeeID // nil for top of the reporting line
	Role       Role
}

// CanResolve reports whether the actor may approve or reject a request
// owned by target: an admin, or the target's direct manager.
func (actor *Employee) CanResolve(target *Employee) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	if actor.Role != RoleManager {
		return false
	}
	return target.ManagerID != nil && *target.ManagerID == actor.ID
}

// =============================================================================
// SETTINGS - Deployment-wide policy configuration
// =============================================================================

// Settings holds the workweek shape and the two policy flags. Loaded from
// the SettingsStore on every computation so admin changes take effect for
// new submissions; calculations frozen on pending requests are unaffected.
type Settings struct {
	Workweek WorkweekConfig
	Flags    Flags
}

// Validate checks the configuration as a whole. Flag combinations are all
// legal; only the workweek can be misconfigured.
func (s Settings) Validate() error {
	return s.Workweek.Validate()
}

// DefaultSettings is the out-of-the-box configuration: Monday-Friday
// workweek, holidays excluded from the count, bridging enabled.
func DefaultSettings() Settings {
	return Settings{
		Workweek: WorkweekConfig{StartDay: 1, EndDay: 5},
		Flags:    Flags{ExcludeHolidays: true, WeekendBridging: true},
	}
}
