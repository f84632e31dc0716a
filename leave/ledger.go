/*
ledger.go - Per-employee, per-leave-type balance counters

PURPOSE:
  Maintains the three counters of a balance bucket and the reservation
  protocol over them:

    Reserve:     total - used - pending >= days, then pending += days
    Commit:      pending -= days, used += days   (approval)
    Release:     pending -= days                 (rejection)
    AdjustTotal: admin change, never below used + pending

CRITICAL INVARIANT:
  After every operation: used + pending <= total, and no counter is
  negative. A violation is a bug in the caller's pairing of reserve with
  commit/release. It is returned as InvariantViolation and logged at
  error level; it is never clamped or silently corrected.

CONCURRENCY:
  Every operation is atomic per (employee, leaveType): a keyed mutex
  serializes the read-modify-write so two simultaneous reservations can't
  both read the old pending value. The ledger itself does no I/O beyond
  the balance store it owns.

SEE ALSO:
  - store.go: BalanceStore interface
  - request.go: The lifecycle pairing reserve with commit/release
*/
package leave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// =============================================================================
// LEAVE BALANCE - One bucket's counters
// =============================================================================

// LeaveBalance holds the counters for one (employee, leaveType) bucket.
type LeaveBalance struct {
	Total   Days
	Used    Days
	Pending Days
}

// Available returns what can still be reserved.
func (b LeaveBalance) Available() Days {
	return b.Total.Sub(b.Used).Sub(b.Pending)
}

// Committed returns used + pending, the floor for total adjustments.
func (b LeaveBalance) Committed() Days {
	return b.Used.Add(b.Pending)
}

// validate checks the counter invariant.
func (b LeaveBalance) validate() string {
	switch {
	case b.Total.IsNegative():
		return "negative total"
	case b.Used.IsNegative():
		return "negative used"
	case b.Pending.IsNegative():
		return "negative pending"
	case b.Committed().GreaterThan(b.Total):
		return "used + pending exceeds total"
	}
	return ""
}

// =============================================================================
// LEDGER - Serialized counter mutations
// =============================================================================

// Ledger performs the reservation protocol over a BalanceStore,
// serializing operations per balance key.
type Ledger struct {
	store  BalanceStore
	logger *slog.Logger

	mu    sync.Mutex
	locks map[BalanceKey]*sync.Mutex
}

func NewLedger(store BalanceStore, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store:  store,
		logger: logger,
		locks:  make(map[BalanceKey]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing one balance key.
func (l *Ledger) lockFor(key BalanceKey) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// Balance returns the current counters for a key.
func (l *Ledger) Balance(ctx context.Context, key BalanceKey) (LeaveBalance, error) {
	return l.store.GetBalance(ctx, key)
}

// Reserve sets days aside as pending. Fails with InsufficientBalance if
// the bucket cannot cover them; the counters are left untouched.
func (l *Ledger) Reserve(ctx context.Context, key BalanceKey, days Days) error {
	return l.mutate(ctx, key, days, func(b *LeaveBalance) error {
		if b.Available().LessThan(days) {
			return &InsufficientBalanceError{
				EmployeeID: key.EmployeeID,
				LeaveType:  key.LeaveType,
				Available:  b.Available(),
				Requested:  days,
			}
		}
		b.Pending = b.Pending.Add(days)
		return nil
	})
}

// Commit converts a reservation into finalized usage.
func (l *Ledger) Commit(ctx context.Context, key BalanceKey, days Days) error {
	return l.mutate(ctx, key, days, func(b *LeaveBalance) error {
		if b.Pending.LessThan(days) {
			return l.violation(key, *b, "commit exceeds pending")
		}
		b.Pending = b.Pending.Sub(days)
		b.Used = b.Used.Add(days)
		return nil
	})
}

// Release returns a reservation to the available pool.
func (l *Ledger) Release(ctx context.Context, key BalanceKey, days Days) error {
	return l.mutate(ctx, key, days, func(b *LeaveBalance) error {
		if b.Pending.LessThan(days) {
			return l.violation(key, *b, "release exceeds pending")
		}
		b.Pending = b.Pending.Sub(days)
		return nil
	})
}

// AdjustTotal sets a new total for the bucket, creating it if absent.
// Fails with InvalidAdjustment below the committed floor.
func (l *Ledger) AdjustTotal(ctx context.Context, key BalanceKey, newTotal Days) error {
	lock := l.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	b, err := l.store.GetBalance(ctx, key)
	if err != nil {
		// A missing bucket is created by the first adjustment; a missing
		// employee is still an error.
		if !errors.Is(err, ErrUnknownLeaveType) {
			return err
		}
		b = LeaveBalance{Total: ZeroDays(), Used: ZeroDays(), Pending: ZeroDays()}
	}

	if newTotal.LessThan(b.Committed()) {
		return &InvalidAdjustmentError{
			EmployeeID: key.EmployeeID,
			LeaveType:  key.LeaveType,
			NewTotal:   newTotal,
			Committed:  b.Committed(),
		}
	}

	b.Total = newTotal
	if cause := b.validate(); cause != "" {
		return l.violation(key, b, cause)
	}
	return l.store.SaveBalance(ctx, key, b)
}

// mutate runs one locked read-modify-write against the store. The store
// is only written when fn succeeds and the invariant still holds.
func (l *Ledger) mutate(ctx context.Context, key BalanceKey, days Days, fn func(*LeaveBalance) error) error {
	if days.IsNegative() {
		return l.violation(key, LeaveBalance{}, "negative day amount")
	}

	lock := l.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	b, err := l.store.GetBalance(ctx, key)
	if err != nil {
		return err
	}
	if err := fn(&b); err != nil {
		return err
	}
	if cause := b.validate(); cause != "" {
		return l.violation(key, b, cause)
	}
	return l.store.SaveBalance(ctx, key, b)
}

// violation builds the defect error and surfaces it to operators.
func (l *Ledger) violation(key BalanceKey, b LeaveBalance, cause string) error {
	err := &InvariantViolationError{
		EmployeeID: key.EmployeeID,
		LeaveType:  key.LeaveType,
		Balance:    b,
		Cause:      cause,
	}
	l.logger.Error("ledger invariant violation",
		slog.String("employee_id", string(key.EmployeeID)),
		slog.String("leave_type", string(key.LeaveType)),
		slog.String("cause", cause),
	)
	return err
}
