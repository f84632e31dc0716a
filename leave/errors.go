/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is against the sentinels; structured errors
  carry the details and Unwrap to them.

ERROR CATEGORIES:
  1. Validation errors - bad ranges, bad configuration
  2. Ledger errors - balance shortages and counter defects
  3. Lifecycle errors - authorization and lost races

USAGE:
  if errors.Is(err, leave.ErrInsufficientBalance) {
      // expected, user-actionable: show remaining balance
  }
  if leave.IsDefect(err) {
      // counter corruption: page an operator, do not retry
  }

SEE ALSO:
  - ledger.go: Uses the balance errors
  - request.go: Uses the lifecycle errors
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a range has start after end.
	ErrInvalidRange = errors.New("invalid range: start after end")

	// ErrOverlappingRanges is returned when a request's ranges overlap
	// or are out of ascending order.
	ErrOverlappingRanges = errors.New("overlapping or unordered ranges")

	// ErrUnknownEmployee is returned when a referenced employee doesn't exist.
	ErrUnknownEmployee = errors.New("unknown employee")

	// ErrUnknownLeaveType is returned when no balance bucket exists for
	// the employee and leave type.
	ErrUnknownLeaveType = errors.New("unknown leave type")

	// ErrRequestNotFound is returned when a referenced request doesn't exist.
	ErrRequestNotFound = errors.New("request not found")

	// ErrInsufficientBalance is returned when a reservation exceeds the
	// available balance. Expected and user-actionable.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvariantViolation indicates corrupted ledger counters
	// (used + pending > total, or a negative counter). This is a bug,
	// not a user error: surface to operators, never retry.
	ErrInvariantViolation = errors.New("ledger invariant violation")

	// ErrStaleState is returned when a transition lost a concurrent race
	// or targets a request already in a terminal state.
	ErrStaleState = errors.New("request state is stale")

	// ErrUnauthorized is returned when the actor lacks the role or
	// ownership relation for the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidAdjustment is returned when an admin tries to set a
	// balance total below what is already used or pending.
	ErrInvalidAdjustment = errors.New("invalid balance adjustment")

	// ErrDuplicateHoliday is returned when a holiday already exists on
	// the date being added.
	ErrDuplicateHoliday = errors.New("duplicate holiday")

	// ErrInvalidWorkweek is returned at configuration time for day
	// indices outside 0-6. Never raised at query time.
	ErrInvalidWorkweek = errors.New("invalid workweek configuration")

	// ErrSettingsNotFound is returned by a settings store that has not
	// been seeded yet.
	ErrSettingsNotFound = errors.New("settings not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports which range failed validation.
type InvalidRangeError struct {
	Range DateRange
	Cause string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %s: %s", e.Range, e.Cause)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// OverlappingRangesError reports the offending pair.
type OverlappingRangesError struct {
	First  DateRange
	Second DateRange
}

func (e *OverlappingRangesError) Error() string {
	return fmt.Sprintf("ranges %s and %s overlap or are out of order", e.First, e.Second)
}

func (e *OverlappingRangesError) Unwrap() error { return ErrOverlappingRanges }

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	LeaveType  LeaveType
	Available  Days
	Requested  Days
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance for %s: available %s, requested %s",
		e.LeaveType, e.EmployeeID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvariantViolationError reports corrupted counters with their values.
type InvariantViolationError struct {
	EmployeeID EmployeeID
	LeaveType  LeaveType
	Balance    LeaveBalance
	Cause      string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("ledger invariant violation for %s/%s: %s (total=%s used=%s pending=%s)",
		e.EmployeeID, e.LeaveType, e.Cause, e.Balance.Total, e.Balance.Used, e.Balance.Pending)
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }

// StaleStateError reports the status that made the transition impossible.
type StaleStateError struct {
	RequestID RequestID
	Status    RequestStatus
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("request %s is %s, not pending", e.RequestID, e.Status)
}

func (e *StaleStateError) Unwrap() error { return ErrStaleState }

// UnauthorizedError reports who tried to do what.
type UnauthorizedError struct {
	ActorID   EmployeeID
	Operation string
	RequestID RequestID
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s may not %s request %s", e.ActorID, e.Operation, e.RequestID)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// InvalidAdjustmentError reports why a total could not be set.
type InvalidAdjustmentError struct {
	EmployeeID EmployeeID
	LeaveType  LeaveType
	NewTotal   Days
	Committed  Days // used + pending
}

func (e *InvalidAdjustmentError) Error() string {
	return fmt.Sprintf("cannot set %s/%s total to %s: %s already used or pending",
		e.EmployeeID, e.LeaveType, e.NewTotal, e.Committed)
}

func (e *InvalidAdjustmentError) Unwrap() error { return ErrInvalidAdjustment }

// DuplicateHolidayError reports the holiday already occupying the date.
type DuplicateHolidayError struct {
	Date     Date
	Existing string
}

func (e *DuplicateHolidayError) Error() string {
	return fmt.Sprintf("holiday already exists on %s: %s", e.Date, e.Existing)
}

func (e *DuplicateHolidayError) Unwrap() error { return ErrDuplicateHoliday }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is an expected, user-actionable
// condition that the UI layer should display.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrOverlappingRanges) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidAdjustment) ||
		errors.Is(err, ErrDuplicateHoliday) ||
		errors.Is(err, ErrStaleState) ||
		errors.Is(err, ErrInvalidWorkweek)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownEmployee) ||
		errors.Is(err, ErrUnknownLeaveType) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrSettingsNotFound)
}

// IsDefect returns true if the error indicates a bug rather than a user
// or concurrency condition. Defects must reach operators, not be retried.
func IsDefect(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
