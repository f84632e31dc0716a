// Package store provides in-memory implementations of the leave engine's
// store interfaces, used by tests and development servers.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/loomhr/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - All store interfaces, RWMutex-guarded
// =============================================================================

// Memory implements EmployeeStore, RequestStore, BalanceStore,
// HolidayStore and SettingsStore. Values are copied on the way in and
// out so callers never share mutable state with the store.
type Memory struct {
	mu        sync.RWMutex
	employees map[leave.EmployeeID]leave.Employee
	requests  map[leave.RequestID]leave.LeaveRequest
	balances  map[leave.BalanceKey]leave.LeaveBalance
	holidays  map[string]leave.Holiday
	settings  *leave.Settings
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[leave.EmployeeID]leave.Employee),
		requests:  make(map[leave.RequestID]leave.LeaveRequest),
		balances:  make(map[leave.BalanceKey]leave.LeaveBalance),
		holidays:  make(map[string]leave.Holiday),
	}
}

// Interface checks
var (
	_ leave.EmployeeStore = (*Memory)(nil)
	_ leave.RequestStore  = (*Memory)(nil)
	_ leave.BalanceStore  = (*Memory)(nil)
	_ leave.HolidayStore  = (*Memory)(nil)
	_ leave.SettingsStore = (*Memory)(nil)
)

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[id]
	if !ok {
		return nil, leave.ErrUnknownEmployee
	}
	out := cloneEmployee(e)
	return &out, nil
}

func (m *Memory) SaveEmployee(_ context.Context, e *leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = cloneEmployee(*e)
	return nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*leave.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		c := cloneEmployee(e)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneEmployee(e leave.Employee) leave.Employee {
	if e.ManagerID != nil {
		id := *e.ManagerID
		e.ManagerID = &id
	}
	return e
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) GetRequest(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	out := cloneRequest(r)
	return &out, nil
}

func (m *Memory) SaveRequest(_ context.Context, r *leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = cloneRequest(*r)
	return nil
}

func (m *Memory) ListByEmployee(_ context.Context, id leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*leave.LeaveRequest
	for _, r := range m.requests {
		if r.EmployeeID == id {
			c := cloneRequest(r)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListPendingForManager(ctx context.Context, managerID leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	return m.listForManager(managerID, leave.StatusPending, false)
}

func (m *Memory) ListApprovedForManager(ctx context.Context, managerID leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	return m.listForManager(managerID, leave.StatusApproved, true)
}

func (m *Memory) listForManager(managerID leave.EmployeeID, status leave.RequestStatus, newestFirst bool) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*leave.LeaveRequest
	for _, r := range m.requests {
		if r.Status != status {
			continue
		}
		owner, ok := m.employees[r.EmployeeID]
		if !ok || owner.ManagerID == nil || *owner.ManagerID != managerID {
			continue
		}
		c := cloneRequest(r)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneRequest(r leave.LeaveRequest) leave.LeaveRequest {
	r.Ranges = append([]leave.DateRange(nil), r.Ranges...)
	if r.Calculation != nil {
		c := *r.Calculation
		r.Calculation = &c
	}
	r.SubmittedAt = cloneTime(r.SubmittedAt)
	r.ApprovedAt = cloneTime(r.ApprovedAt)
	if r.ApproverID != nil {
		id := *r.ApproverID
		r.ApproverID = &id
	}
	return r
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// =============================================================================
// BALANCES
// =============================================================================

func (m *Memory) GetBalance(_ context.Context, key leave.BalanceKey) (leave.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.employees[key.EmployeeID]; !ok {
		return leave.LeaveBalance{}, leave.ErrUnknownEmployee
	}
	b, ok := m.balances[key]
	if !ok {
		return leave.LeaveBalance{}, leave.ErrUnknownLeaveType
	}
	return b, nil
}

func (m *Memory) SaveBalance(_ context.Context, key leave.BalanceKey, b leave.LeaveBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[key.EmployeeID]; !ok {
		return leave.ErrUnknownEmployee
	}
	m.balances[key] = b
	return nil
}

func (m *Memory) ListBalances(_ context.Context, id leave.EmployeeID) (map[leave.LeaveType]leave.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.employees[id]; !ok {
		return nil, leave.ErrUnknownEmployee
	}
	out := make(map[leave.LeaveType]leave.LeaveBalance)
	for key, b := range m.balances {
		if key.EmployeeID == id {
			out[key.LeaveType] = b
		}
	}
	return out, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) ListHolidays(_ context.Context) ([]leave.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]leave.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) AddHoliday(_ context.Context, h leave.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := h.Date.String()
	if existing, ok := m.holidays[key]; ok {
		return &leave.DuplicateHolidayError{Date: h.Date, Existing: existing.Name}
	}
	m.holidays[key] = h
	return nil
}

func (m *Memory) RemoveHoliday(_ context.Context, d leave.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holidays, d.String())
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (m *Memory) GetSettings(_ context.Context) (leave.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.settings == nil {
		return leave.Settings{}, leave.ErrSettingsNotFound
	}
	return *m.settings, nil
}

func (m *Memory) SaveSettings(_ context.Context, s leave.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}
