package leave_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhr/leave-engine/leave"
	"github.com/loomhr/leave-engine/leave/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newLedger(t *testing.T, total string) (*leave.Ledger, leave.BalanceKey, *store.Memory) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	require.NoError(t, mem.SaveEmployee(ctx, &leave.Employee{
		ID: "emp-1", Name: "Ada", Department: "Engineering", Role: leave.RoleEmployee,
	}))

	key := leave.BalanceKey{EmployeeID: "emp-1", LeaveType: leave.LeaveAnnual}
	totalDays, err := leave.ParseDays(total)
	require.NoError(t, err)
	require.NoError(t, mem.SaveBalance(ctx, key, leave.LeaveBalance{
		Total: totalDays, Used: leave.ZeroDays(), Pending: leave.ZeroDays(),
	}))

	return leave.NewLedger(mem, nil), key, mem
}

func days(t *testing.T, s string) leave.Days {
	t.Helper()
	d, err := leave.ParseDays(s)
	require.NoError(t, err)
	return d
}

func assertCounters(t *testing.T, b leave.LeaveBalance, total, used, pending string) {
	t.Helper()
	assert.True(t, b.Total.Equal(days(t, total)), "total: want %s got %s", total, b.Total)
	assert.True(t, b.Used.Equal(days(t, used)), "used: want %s got %s", used, b.Used)
	assert.True(t, b.Pending.Equal(days(t, pending)), "pending: want %s got %s", pending, b.Pending)
}

// =============================================================================
// RESERVATION PROTOCOL
// =============================================================================

func TestLedger_ReserveCommit(t *testing.T) {
	// GIVEN: total=20
	// WHEN: reserve 5 then commit 5
	// THEN: used=5, pending=0, invariant holds throughout
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "20")

	require.NoError(t, ledger.Reserve(ctx, key, days(t, "5")))
	b, err := ledger.Balance(ctx, key)
	require.NoError(t, err)
	assertCounters(t, b, "20", "0", "5")

	require.NoError(t, ledger.Commit(ctx, key, days(t, "5")))
	b, err = ledger.Balance(ctx, key)
	require.NoError(t, err)
	assertCounters(t, b, "20", "5", "0")
	assert.True(t, b.Available().Equal(days(t, "15")))
}

func TestLedger_ReserveRelease(t *testing.T) {
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "20")

	require.NoError(t, ledger.Reserve(ctx, key, days(t, "3")))
	require.NoError(t, ledger.Release(ctx, key, days(t, "3")))

	b, err := ledger.Balance(ctx, key)
	require.NoError(t, err)
	assertCounters(t, b, "20", "0", "0")
}

func TestLedger_ReserveInsufficient(t *testing.T) {
	// GIVEN: total=5 fully used
	// WHEN: reserving 1 more
	// THEN: InsufficientBalance, counters untouched
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "5")
	require.NoError(t, ledger.Reserve(ctx, key, days(t, "5")))
	require.NoError(t, ledger.Commit(ctx, key, days(t, "5")))

	err := ledger.Reserve(ctx, key, days(t, "1"))

	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	var detail *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &detail)
	assert.True(t, detail.Available.IsZero())

	b, getErr := ledger.Balance(ctx, key)
	require.NoError(t, getErr)
	assertCounters(t, b, "5", "5", "0")
}

func TestLedger_FractionalDays(t *testing.T) {
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "2")

	require.NoError(t, ledger.Reserve(ctx, key, days(t, "0.5")))
	require.NoError(t, ledger.Reserve(ctx, key, days(t, "1.5")))
	assert.ErrorIs(t, ledger.Reserve(ctx, key, days(t, "0.5")), leave.ErrInsufficientBalance)

	b, err := ledger.Balance(ctx, key)
	require.NoError(t, err)
	assertCounters(t, b, "2", "0", "2")
}

func TestLedger_CommitExceedsPending(t *testing.T) {
	// Committing more than was reserved is a caller bug, not a user error.
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "20")
	require.NoError(t, ledger.Reserve(ctx, key, days(t, "2")))

	err := ledger.Commit(ctx, key, days(t, "3"))

	assert.ErrorIs(t, err, leave.ErrInvariantViolation)
	assert.True(t, leave.IsDefect(err))

	b, getErr := ledger.Balance(ctx, key)
	require.NoError(t, getErr)
	assertCounters(t, b, "20", "0", "2")
}

func TestLedger_ReleaseExceedsPending(t *testing.T) {
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "20")

	err := ledger.Release(ctx, key, days(t, "1"))

	assert.ErrorIs(t, err, leave.ErrInvariantViolation)
}

func TestLedger_NegativeDaysRejected(t *testing.T) {
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "20")

	assert.ErrorIs(t, ledger.Reserve(ctx, key, days(t, "-1")), leave.ErrInvariantViolation)
}

func TestLedger_UnknownBucket(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(t, "20")

	err := ledger.Reserve(ctx, leave.BalanceKey{EmployeeID: "emp-1", LeaveType: leave.LeaveSick}, days(t, "1"))
	assert.ErrorIs(t, err, leave.ErrUnknownLeaveType)

	err = ledger.Reserve(ctx, leave.BalanceKey{EmployeeID: "ghost", LeaveType: leave.LeaveAnnual}, days(t, "1"))
	assert.ErrorIs(t, err, leave.ErrUnknownEmployee)
}

// =============================================================================
// TOTAL ADJUSTMENTS
// =============================================================================

func TestLedger_AdjustTotal(t *testing.T) {
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "20")

	require.NoError(t, ledger.AdjustTotal(ctx, key, days(t, "25")))

	b, err := ledger.Balance(ctx, key)
	require.NoError(t, err)
	assertCounters(t, b, "25", "0", "0")
}

func TestLedger_AdjustTotal_BelowCommittedRejected(t *testing.T) {
	// GIVEN: used=5, pending=3
	// WHEN: setting total to 7
	// THEN: InvalidAdjustment; the committed floor is 8
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "20")
	require.NoError(t, ledger.Reserve(ctx, key, days(t, "8")))
	require.NoError(t, ledger.Commit(ctx, key, days(t, "5")))

	err := ledger.AdjustTotal(ctx, key, days(t, "7"))

	assert.ErrorIs(t, err, leave.ErrInvalidAdjustment)
	var detail *leave.InvalidAdjustmentError
	require.ErrorAs(t, err, &detail)
	assert.True(t, detail.Committed.Equal(days(t, "8")))

	// Setting exactly to the floor is allowed.
	require.NoError(t, ledger.AdjustTotal(ctx, key, days(t, "8")))
	b, getErr := ledger.Balance(ctx, key)
	require.NoError(t, getErr)
	assertCounters(t, b, "8", "5", "3")
}

func TestLedger_AdjustTotal_CreatesBucket(t *testing.T) {
	// The first adjustment for a leave type creates the bucket.
	ctx := context.Background()
	ledger, _, _ := newLedger(t, "20")
	key := leave.BalanceKey{EmployeeID: "emp-1", LeaveType: leave.LeaveSick}

	require.NoError(t, ledger.AdjustTotal(ctx, key, days(t, "10")))

	b, err := ledger.Balance(ctx, key)
	require.NoError(t, err)
	assertCounters(t, b, "10", "0", "0")
}

func TestLedger_AdjustTotal_UnknownEmployee(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(t, "20")
	key := leave.BalanceKey{EmployeeID: "ghost", LeaveType: leave.LeaveAnnual}

	err := ledger.AdjustTotal(ctx, key, days(t, "10"))

	assert.ErrorIs(t, err, leave.ErrUnknownEmployee)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestLedger_ConcurrentReserves(t *testing.T) {
	// GIVEN: total=10
	// WHEN: 20 goroutines each reserve 1 day
	// THEN: exactly 10 succeed; pending never exceeds total
	ctx := context.Background()
	ledger, key, _ := newLedger(t, "10")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, failed := 0, 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.Reserve(ctx, key, days(t, "1"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
				failed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, failed)

	b, err := ledger.Balance(ctx, key)
	require.NoError(t, err)
	assertCounters(t, b, "10", "0", "10")
}
