/*
request.go - Leave request lifecycle

PURPOSE:
  Drives a leave request through its state machine and keeps the balance
  ledger consistent with it:

    Draft ──submit──▶ Pending ──approve──▶ Approved
      │                  │
    edit              reject──▶ Rejected

  Draft:    owned by the employee, ranges and reason freely editable,
            calculation is a recomputable preview.
  Pending:  calculation frozen, TotalDeducted reserved in the ledger.
  Approved: reservation committed to used. Terminal.
  Rejected: reservation released. Terminal.

OWNERSHIP & AUTHORIZATION:
  Until submission the request belongs to the employee: only they may
  edit or submit it. From Pending on, only the employee's direct manager
  or an admin may resolve it.

ATOMICITY:
  Submit validates everything before touching the ledger; if persisting
  the pending request fails after the reservation, the reservation is
  released again. Approve/reject re-read the request under a per-request
  lock and check it is still Pending before committing or releasing, so
  of two racing resolutions exactly one wins and the loser sees
  StaleState. The ledger is never committed or released twice for one
  request.

SEE ALSO:
  - calculator.go: Where TotalDeducted comes from
  - ledger.go: Reserve/Commit/Release semantics
*/
package leave

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type RequestStatus string

const (
	StatusDraft    RequestStatus = "draft"
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Terminal reports whether no transition leads out of the status.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// LeaveRequest is a request for one or more date ranges of leave.
// Status only changes through RequestService operations.
type LeaveRequest struct {
	ID         RequestID
	EmployeeID EmployeeID
	LeaveType  LeaveType
	Ranges     []DateRange
	Reason     string
	Status     RequestStatus

	// Calculation is a preview while Draft; frozen from submission on.
	Calculation *DaysCalculation

	SubmittedAt     *time.Time
	ApproverID      *EmployeeID
	ApprovedAt      *time.Time
	ManagerComments string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Deducted returns the frozen total as a ledger quantity.
func (r *LeaveRequest) Deducted() Days {
	if r.Calculation == nil {
		return ZeroDays()
	}
	return NewDays(r.Calculation.TotalDeducted)
}

// =============================================================================
// REQUEST SERVICE - The state machine
// =============================================================================

// RequestService orchestrates the request lifecycle against the stores
// and the ledger.
type RequestService struct {
	Requests  RequestStore
	Employees EmployeeStore
	Holidays  HolidayStore
	Settings  SettingsStore
	Ledger    *Ledger

	logger *slog.Logger

	mu    sync.Mutex
	locks map[RequestID]*sync.Mutex
}

func NewRequestService(
	requests RequestStore,
	employees EmployeeStore,
	holidays HolidayStore,
	settings SettingsStore,
	ledger *Ledger,
	logger *slog.Logger,
) *RequestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestService{
		Requests:  requests,
		Employees: employees,
		Holidays:  holidays,
		Settings:  settings,
		Ledger:    ledger,
		logger:    logger,
		locks:     make(map[RequestID]*sync.Mutex),
	}
}

func (s *RequestService) lockFor(id RequestID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

// calculator builds a calculator from current settings and holidays.
func (s *RequestService) calculator(ctx context.Context) (*Calculator, Flags, error) {
	settings, err := s.Settings.GetSettings(ctx)
	if err != nil {
		return nil, Flags{}, fmt.Errorf("failed to load settings: %w", err)
	}
	holidays, err := s.Holidays.ListHolidays(ctx)
	if err != nil {
		return nil, Flags{}, fmt.Errorf("failed to load holidays: %w", err)
	}
	registry, err := NewHolidayRegistry(holidays)
	if err != nil {
		return nil, Flags{}, fmt.Errorf("failed to build holiday registry: %w", err)
	}
	return NewCalculator(settings.Workweek, registry), settings.Flags, nil
}

// Preview computes a calculation for ranges without touching any request.
// The UI uses this on the submission form.
func (s *RequestService) Preview(ctx context.Context, ranges []DateRange) (DaysCalculation, error) {
	if err := ValidateRanges(ranges); err != nil {
		return DaysCalculation{}, err
	}
	calc, flags, err := s.calculator(ctx)
	if err != nil {
		return DaysCalculation{}, err
	}
	return calc.Compute(ranges, flags), nil
}

// CreateDraft creates a new Draft request owned by the employee. The
// ranges are validated and a preview calculation attached; nothing is
// reserved until submission.
func (s *RequestService) CreateDraft(
	ctx context.Context,
	employeeID EmployeeID,
	leaveType LeaveType,
	ranges []DateRange,
	reason string,
) (*LeaveRequest, error) {
	if _, err := s.Employees.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	// The balance bucket must exist; a leave type nobody granted is unknown.
	if _, err := s.Ledger.Balance(ctx, BalanceKey{EmployeeID: employeeID, LeaveType: leaveType}); err != nil {
		return nil, err
	}
	if err := ValidateRanges(ranges); err != nil {
		return nil, err
	}

	preview, err := s.Preview(ctx, ranges)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	request := &LeaveRequest{
		ID:          RequestID(uuid.NewString()),
		EmployeeID:  employeeID,
		LeaveType:   leaveType,
		Ranges:      ranges,
		Reason:      reason,
		Status:      StatusDraft,
		Calculation: &preview,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Requests.SaveRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return request, nil
}

// Edit replaces a draft's ranges and reason and recomputes the preview.
// Only the owner may edit, and only while Draft.
func (s *RequestService) Edit(
	ctx context.Context,
	id RequestID,
	actorID EmployeeID,
	newRanges []DateRange,
	newReason string,
) (*LeaveRequest, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.Requests.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.EmployeeID != actorID {
		return nil, &UnauthorizedError{ActorID: actorID, Operation: "edit", RequestID: id}
	}
	if request.Status != StatusDraft {
		return nil, &StaleStateError{RequestID: id, Status: request.Status}
	}
	if err := ValidateRanges(newRanges); err != nil {
		return nil, err
	}

	preview, err := s.Preview(ctx, newRanges)
	if err != nil {
		return nil, err
	}

	request.Ranges = newRanges
	request.Reason = newReason
	request.Calculation = &preview
	request.UpdatedAt = time.Now()

	if err := s.Requests.SaveRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to save edit: %w", err)
	}
	return request, nil
}

// Submit freezes the calculation, reserves the deduction, and moves the
// request to Pending. All-or-nothing: on any failure neither the request
// nor the ledger changes.
func (s *RequestService) Submit(ctx context.Context, id RequestID, actorID EmployeeID) (*LeaveRequest, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.Requests.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.EmployeeID != actorID {
		return nil, &UnauthorizedError{ActorID: actorID, Operation: "submit", RequestID: id}
	}
	if request.Status != StatusDraft {
		return nil, &StaleStateError{RequestID: id, Status: request.Status}
	}
	if err := ValidateRanges(request.Ranges); err != nil {
		return nil, err
	}

	calc, flags, err := s.calculator(ctx)
	if err != nil {
		return nil, err
	}
	frozen := calc.Compute(request.Ranges, flags)

	key := BalanceKey{EmployeeID: request.EmployeeID, LeaveType: request.LeaveType}
	total := NewDays(frozen.TotalDeducted)
	if err := s.Ledger.Reserve(ctx, key, total); err != nil {
		return nil, err
	}

	now := time.Now()
	request.Status = StatusPending
	request.Calculation = &frozen
	request.SubmittedAt = &now
	request.UpdatedAt = now

	if err := s.Requests.SaveRequest(ctx, request); err != nil {
		// Compensate: the reservation must not outlive the failed save.
		if relErr := s.Ledger.Release(ctx, key, total); relErr != nil {
			s.logger.Error("failed to release reservation after save failure",
				slog.String("request_id", string(id)),
				slog.String("error", relErr.Error()),
			)
		}
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}
	return request, nil
}

// Approve commits the reservation and finalizes the request. Only the
// employee's direct manager or an admin may approve; racing resolutions
// lose with StaleState.
func (s *RequestService) Approve(ctx context.Context, id RequestID, actorID EmployeeID, comment string) (*LeaveRequest, error) {
	return s.resolve(ctx, id, actorID, comment, StatusApproved)
}

// Reject releases the reservation and finalizes the request. Same
// authorization and race rules as Approve.
func (s *RequestService) Reject(ctx context.Context, id RequestID, actorID EmployeeID, comment string) (*LeaveRequest, error) {
	return s.resolve(ctx, id, actorID, comment, StatusRejected)
}

func (s *RequestService) resolve(
	ctx context.Context,
	id RequestID,
	actorID EmployeeID,
	comment string,
	target RequestStatus,
) (*LeaveRequest, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: this is the compare half of the
	// compare-and-swap on status.
	request, err := s.Requests.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != StatusPending {
		return nil, &StaleStateError{RequestID: id, Status: request.Status}
	}

	actor, err := s.Employees.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	owner, err := s.Employees.GetEmployee(ctx, request.EmployeeID)
	if err != nil {
		return nil, err
	}
	op := "approve"
	if target == StatusRejected {
		op = "reject"
	}
	if !actor.CanResolve(owner) {
		return nil, &UnauthorizedError{ActorID: actorID, Operation: op, RequestID: id}
	}

	key := BalanceKey{EmployeeID: request.EmployeeID, LeaveType: request.LeaveType}
	total := request.Deducted()

	if target == StatusApproved {
		err = s.Ledger.Commit(ctx, key, total)
	} else {
		err = s.Ledger.Release(ctx, key, total)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	request.Status = target
	request.ApproverID = &actorID
	request.ApprovedAt = &now
	request.ManagerComments = comment
	request.UpdatedAt = now

	if err := s.Requests.SaveRequest(ctx, request); err != nil {
		s.logger.Error("failed to persist resolution after ledger update",
			slog.String("request_id", string(id)),
			slog.String("target", string(target)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to save %s: %w", op, err)
	}

	s.logger.Info("request resolved",
		slog.String("request_id", string(id)),
		slog.String("status", string(target)),
		slog.String("approver_id", string(actorID)),
		slog.Int("days_deducted", request.Calculation.TotalDeducted),
	)
	return request, nil
}
