/*
store.go - Persistence interfaces for the leave engine

PURPOSE:
  Defines the interfaces between the domain logic and storage. The core
  performs no I/O of its own; every read and write of employees, requests,
  balances, holidays, and settings goes through these.

IMPLEMENTATIONS:
  - leave/store: in-memory, for tests and development
  - store/sqlite: SQLite, for production

ALIASING:
  Implementations must return copies. The request lifecycle relies on
  re-reading a request after acquiring its lock; a store that hands out
  shared pointers would let callers mutate state behind the lock.
*/
package leave

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

// EmployeeStore persists employee records.
type EmployeeStore interface {
	// GetEmployee returns the employee or ErrUnknownEmployee.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// SaveEmployee creates or replaces the record.
	SaveEmployee(ctx context.Context, e *Employee) error

	// ListEmployees returns all employees, ordered by ID.
	ListEmployees(ctx context.Context) ([]*Employee, error)
}

// RequestStore persists leave requests.
type RequestStore interface {
	// GetRequest returns the request or ErrRequestNotFound.
	GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error)

	// SaveRequest creates or replaces the record.
	SaveRequest(ctx context.Context, r *LeaveRequest) error

	// ListByEmployee returns the employee's requests, newest first.
	ListByEmployee(ctx context.Context, id EmployeeID) ([]*LeaveRequest, error)

	// ListPendingForManager returns pending requests owned by the
	// manager's direct reports, oldest first.
	ListPendingForManager(ctx context.Context, managerID EmployeeID) ([]*LeaveRequest, error)

	// ListApprovedForManager returns approved requests owned by the
	// manager's direct reports, for the team calendar.
	ListApprovedForManager(ctx context.Context, managerID EmployeeID) ([]*LeaveRequest, error)
}

// BalanceKey identifies one balance bucket.
type BalanceKey struct {
	EmployeeID EmployeeID
	LeaveType  LeaveType
}

// BalanceStore persists balance counters. All mutation goes through the
// Ledger, which serializes per key; the store itself only loads and saves.
type BalanceStore interface {
	// GetBalance returns the counters, ErrUnknownEmployee if the employee
	// doesn't exist, or ErrUnknownLeaveType if no bucket exists for the
	// leave type.
	GetBalance(ctx context.Context, key BalanceKey) (LeaveBalance, error)

	// SaveBalance creates or replaces the bucket.
	SaveBalance(ctx context.Context, key BalanceKey, b LeaveBalance) error

	// ListBalances returns all buckets for an employee.
	ListBalances(ctx context.Context, id EmployeeID) (map[LeaveType]LeaveBalance, error)
}

// HolidayStore persists the holiday calendar.
type HolidayStore interface {
	// ListHolidays returns all holidays in date order.
	ListHolidays(ctx context.Context) ([]Holiday, error)

	// AddHoliday persists a holiday; ErrDuplicateHoliday if the date is taken.
	AddHoliday(ctx context.Context, h Holiday) error

	// RemoveHoliday deletes the holiday on the date, if any.
	RemoveHoliday(ctx context.Context, d Date) error
}

// SettingsStore persists the single deployment-wide settings record.
type SettingsStore interface {
	// GetSettings returns the settings or ErrSettingsNotFound before seeding.
	GetSettings(ctx context.Context) (Settings, error)

	// SaveSettings replaces the settings. Callers validate first.
	SaveSettings(ctx context.Context, s Settings) error
}
