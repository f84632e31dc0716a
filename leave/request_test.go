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
// TEST FIXTURE
// =============================================================================

// fixture wires the request service over a memory store with three people:
// alice (employee, reports to bob), bob (manager), carol (admin), plus a
// second employee dave who also reports to bob. Alice has 20 annual days.
type fixture struct {
	service *leave.RequestService
	ledger  *leave.Ledger
	mem     *store.Memory
}

const (
	alice = leave.EmployeeID("alice")
	bob   = leave.EmployeeID("bob")
	carol = leave.EmployeeID("carol")
	dave  = leave.EmployeeID("dave")
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	bobID := bob
	employees := []*leave.Employee{
		{ID: alice, Name: "Alice", Department: "Engineering", ManagerID: &bobID, Role: leave.RoleEmployee},
		{ID: bob, Name: "Bob", Department: "Engineering", Role: leave.RoleManager},
		{ID: carol, Name: "Carol", Department: "People", Role: leave.RoleAdmin},
		{ID: dave, Name: "Dave", Department: "Engineering", ManagerID: &bobID, Role: leave.RoleEmployee},
	}
	for _, e := range employees {
		require.NoError(t, mem.SaveEmployee(ctx, e))
	}

	require.NoError(t, mem.SaveBalance(ctx,
		leave.BalanceKey{EmployeeID: alice, LeaveType: leave.LeaveAnnual},
		leave.LeaveBalance{Total: leave.NewDays(20), Used: leave.ZeroDays(), Pending: leave.ZeroDays()},
	))
	require.NoError(t, mem.SaveSettings(ctx, leave.DefaultSettings()))
	require.NoError(t, mem.AddHoliday(ctx, leave.Holiday{
		Date: mustDate(t, "2024-07-04"), Name: "Independence Day", Category: leave.CategoryPublic,
	}))

	ledger := leave.NewLedger(mem, nil)
	service := leave.NewRequestService(mem, mem, mem, mem, ledger, nil)
	return &fixture{service: service, ledger: ledger, mem: mem}
}

func (f *fixture) balance(t *testing.T, id leave.EmployeeID) leave.LeaveBalance {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(),
		leave.BalanceKey{EmployeeID: id, LeaveType: leave.LeaveAnnual})
	require.NoError(t, err)
	return b
}

// draft creates Alice's standard bridged request: Mon-Wed plus Friday
// around the July 4th holiday. Deduction: 4 workdays + 1 bridge day = 5.
func (f *fixture) draft(t *testing.T) *leave.LeaveRequest {
	t.Helper()
	request, err := f.service.CreateDraft(context.Background(), alice, leave.LeaveAnnual,
		[]leave.DateRange{
			mustRange(t, "2024-07-01", "2024-07-03"),
			mustRange(t, "2024-07-05", "2024-07-05"),
		}, "family trip")
	require.NoError(t, err)
	return request
}

// =============================================================================
// DRAFT AND SUBMISSION
// =============================================================================

func TestLifecycle_CreateDraft(t *testing.T) {
	f := newFixture(t)

	request := f.draft(t)

	assert.Equal(t, leave.StatusDraft, request.Status)
	assert.NotEmpty(t, request.ID)
	require.NotNil(t, request.Calculation)
	assert.Equal(t, 5, request.Calculation.TotalDeducted)
	// Drafts reserve nothing.
	assertCounters(t, f.balance(t, alice), "20", "0", "0")
}

func TestLifecycle_CreateDraft_UnknownEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateDraft(context.Background(), "ghost", leave.LeaveAnnual,
		[]leave.DateRange{mustRange(t, "2024-07-01", "2024-07-01")}, "")

	assert.ErrorIs(t, err, leave.ErrUnknownEmployee)
}

func TestLifecycle_CreateDraft_NoBalanceBucket(t *testing.T) {
	// Alice has no sick balance, so a sick draft is rejected up front.
	f := newFixture(t)

	_, err := f.service.CreateDraft(context.Background(), alice, leave.LeaveSick,
		[]leave.DateRange{mustRange(t, "2024-07-01", "2024-07-01")}, "")

	assert.ErrorIs(t, err, leave.ErrUnknownLeaveType)
}

func TestLifecycle_CreateDraft_OverlappingRanges(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateDraft(context.Background(), alice, leave.LeaveAnnual,
		[]leave.DateRange{
			mustRange(t, "2024-07-01", "2024-07-05"),
			mustRange(t, "2024-07-03", "2024-07-08"),
		}, "")

	assert.ErrorIs(t, err, leave.ErrOverlappingRanges)
}

func TestLifecycle_EditDraft(t *testing.T) {
	f := newFixture(t)
	request := f.draft(t)

	edited, err := f.service.Edit(context.Background(), request.ID, alice,
		[]leave.DateRange{mustRange(t, "2024-07-08", "2024-07-09")}, "shorter trip")

	require.NoError(t, err)
	assert.Equal(t, "shorter trip", edited.Reason)
	assert.Equal(t, 2, edited.Calculation.TotalDeducted)
}

func TestLifecycle_EditByNonOwner(t *testing.T) {
	f := newFixture(t)
	request := f.draft(t)

	_, err := f.service.Edit(context.Background(), request.ID, dave,
		[]leave.DateRange{mustRange(t, "2024-07-08", "2024-07-09")}, "")

	assert.ErrorIs(t, err, leave.ErrUnauthorized)
}

func TestLifecycle_Submit(t *testing.T) {
	// GIVEN: a draft worth 5 days
	// WHEN: the owner submits it
	// THEN: status=Pending, calculation frozen, 5 days reserved
	f := newFixture(t)
	request := f.draft(t)

	submitted, err := f.service.Submit(context.Background(), request.ID, alice)

	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, 5, submitted.Calculation.TotalDeducted)
	assertCounters(t, f.balance(t, alice), "20", "0", "5")
}

func TestLifecycle_SubmitByNonOwner(t *testing.T) {
	f := newFixture(t)
	request := f.draft(t)

	_, err := f.service.Submit(context.Background(), request.ID, bob)

	assert.ErrorIs(t, err, leave.ErrUnauthorized)
	assertCounters(t, f.balance(t, alice), "20", "0", "0")
}

func TestLifecycle_SubmitTwice(t *testing.T) {
	f := newFixture(t)
	request := f.draft(t)
	_, err := f.service.Submit(context.Background(), request.ID, alice)
	require.NoError(t, err)

	_, err = f.service.Submit(context.Background(), request.ID, alice)

	assert.ErrorIs(t, err, leave.ErrStaleState)
	// Reserved exactly once.
	assertCounters(t, f.balance(t, alice), "20", "0", "5")
}

func TestLifecycle_SubmitInsufficientBalance(t *testing.T) {
	// GIVEN: a draft worth 5 days but only 3 available
	// WHEN: submitting
	// THEN: InsufficientBalance; the request stays Draft, the balance
	// untouched
	f := newFixture(t)
	ctx := context.Background()
	request := f.draft(t)
	key := leave.BalanceKey{EmployeeID: alice, LeaveType: leave.LeaveAnnual}
	require.NoError(t, f.mem.SaveBalance(ctx, key, leave.LeaveBalance{
		Total: leave.NewDays(3), Used: leave.ZeroDays(), Pending: leave.ZeroDays(),
	}))

	_, err := f.service.Submit(ctx, request.ID, alice)

	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	stored, getErr := f.mem.GetRequest(ctx, request.ID)
	require.NoError(t, getErr)
	assert.Equal(t, leave.StatusDraft, stored.Status)
	assertCounters(t, f.balance(t, alice), "3", "0", "0")
}

func TestLifecycle_EditAfterSubmit(t *testing.T) {
	f := newFixture(t)
	request := f.draft(t)
	_, err := f.service.Submit(context.Background(), request.ID, alice)
	require.NoError(t, err)

	_, err = f.service.Edit(context.Background(), request.ID, alice,
		[]leave.DateRange{mustRange(t, "2024-07-08", "2024-07-08")}, "")

	assert.ErrorIs(t, err, leave.ErrStaleState)
}

// =============================================================================
// RESOLUTION
// =============================================================================

func TestLifecycle_Approve(t *testing.T) {
	// GIVEN: a pending request reserving 5 days
	// WHEN: the direct manager approves
	// THEN: status=Approved, 5 days moved from pending to used
	f := newFixture(t)
	request := f.draft(t)
	_, err := f.service.Submit(context.Background(), request.ID, alice)
	require.NoError(t, err)

	approved, err := f.service.Approve(context.Background(), request.ID, bob, "enjoy")

	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApproverID)
	assert.Equal(t, bob, *approved.ApproverID)
	assert.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, "enjoy", approved.ManagerComments)
	assertCounters(t, f.balance(t, alice), "20", "5", "0")
}

func TestLifecycle_Reject(t *testing.T) {
	// Rejection releases the reservation back to available.
	f := newFixture(t)
	request := f.draft(t)
	_, err := f.service.Submit(context.Background(), request.ID, alice)
	require.NoError(t, err)

	rejected, err := f.service.Reject(context.Background(), request.ID, bob, "blackout week")

	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Status)
	assertCounters(t, f.balance(t, alice), "20", "0", "0")
}

func TestLifecycle_AdminMayResolve(t *testing.T) {
	f := newFixture(t)
	request := f.draft(t)
	_, err := f.service.Submit(context.Background(), request.ID, alice)
	require.NoError(t, err)

	approved, err := f.service.Approve(context.Background(), request.ID, carol, "")

	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
}

func TestLifecycle_PeerMayNotResolve(t *testing.T) {
	// Dave reports to the same manager but has no authority over Alice.
	f := newFixture(t)
	request := f.draft(t)
	_, err := f.service.Submit(context.Background(), request.ID, alice)
	require.NoError(t, err)

	_, err = f.service.Approve(context.Background(), request.ID, dave, "")

	assert.ErrorIs(t, err, leave.ErrUnauthorized)
	assertCounters(t, f.balance(t, alice), "20", "0", "5")
}

func TestLifecycle_OwnerMayNotSelfApprove(t *testing.T) {
	f := newFixture(t)
	request := f.draft(t)
	_, err := f.service.Submit(context.Background(), request.ID, alice)
	require.NoError(t, err)

	_, err = f.service.Approve(context.Background(), request.ID, alice, "")

	assert.ErrorIs(t, err, leave.ErrUnauthorized)
}

func TestLifecycle_TerminalIsImmutable(t *testing.T) {
	// GIVEN: an approved request
	// WHEN: any further transition is attempted
	// THEN: StaleState every time, and the ledger does not move again
	f := newFixture(t)
	ctx := context.Background()
	request := f.draft(t)
	_, err := f.service.Submit(ctx, request.ID, alice)
	require.NoError(t, err)
	_, err = f.service.Approve(ctx, request.ID, bob, "")
	require.NoError(t, err)

	_, err = f.service.Approve(ctx, request.ID, bob, "")
	assert.ErrorIs(t, err, leave.ErrStaleState)

	_, err = f.service.Reject(ctx, request.ID, bob, "")
	assert.ErrorIs(t, err, leave.ErrStaleState)

	_, err = f.service.Submit(ctx, request.ID, alice)
	assert.ErrorIs(t, err, leave.ErrStaleState)

	assertCounters(t, f.balance(t, alice), "20", "5", "0")
}

func TestLifecycle_ConcurrentResolutions(t *testing.T) {
	// GIVEN: one pending request
	// WHEN: an approve and a reject race
	// THEN: exactly one wins; the loser sees StaleState; the ledger moved
	// exactly once
	f := newFixture(t)
	ctx := context.Background()
	request := f.draft(t)
	_, err := f.service.Submit(ctx, request.ID, alice)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = f.service.Approve(ctx, request.ID, bob, "")
	}()
	go func() {
		defer wg.Done()
		_, results[1] = f.service.Reject(ctx, request.ID, carol, "")
	}()
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, leave.ErrStaleState)
		}
	}
	assert.Equal(t, 1, winners)

	final, err := f.mem.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.True(t, final.Status.Terminal())

	b := f.balance(t, alice)
	assert.True(t, b.Pending.IsZero())
	if final.Status == leave.StatusApproved {
		assertCounters(t, b, "20", "5", "0")
	} else {
		assertCounters(t, b, "20", "0", "0")
	}
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestPreview(t *testing.T) {
	f := newFixture(t)

	calc, err := f.service.Preview(context.Background(), []leave.DateRange{
		mustRange(t, "2024-07-01", "2024-07-03"),
		mustRange(t, "2024-07-05", "2024-07-05"),
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calc.Workdays)
	assert.Equal(t, 1, calc.BridgeDays)
	assert.Equal(t, 5, calc.TotalDeducted)
}

func TestPreview_InvalidRanges(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Preview(context.Background(), []leave.DateRange{
		mustRange(t, "2024-07-05", "2024-07-01"),
	})

	assert.ErrorIs(t, err, leave.ErrInvalidRange)
}
