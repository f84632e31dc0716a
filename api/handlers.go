/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave accounting engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                        List all employees
    POST   /api/employees                        Create employee
    GET    /api/employees/{id}                   Get employee details
    GET    /api/employees/{id}/balances          Balance buckets
    PUT    /api/employees/{id}/balances/{type}   Adjust total (admin)
    GET    /api/employees/{id}/requests          Employee's requests
    POST   /api/employees/{id}/requests          Create draft

  Requests:
    GET    /api/requests/{id}                    Get request
    PUT    /api/requests/{id}                    Edit draft
    POST   /api/requests/{id}/submit             Submit draft
    POST   /api/requests/{id}/approve            Approve pending
    POST   /api/requests/{id}/reject             Reject pending
    GET    /api/requests/pending?manager=        Manager's queue

  Calendar & policy:
    GET    /api/team/{managerID}/calendar        Approved team leave
    GET    /api/holidays                         List holidays
    POST   /api/holidays                         Add holiday
    POST   /api/holidays/defaults?year=          Seed US federal set
    DELETE /api/holidays/{date}                  Remove holiday
    GET    /api/settings                         Current policy
    PUT    /api/settings                         Update policy
    POST   /api/calculate                        Preview a day count

ACTOR IDENTITY:
  Mutating lifecycle endpoints take the acting employee from the
  X-Actor-ID header. This stands in for a real auth layer, which is out
  of scope; the domain still enforces ownership and role checks.

ERROR HANDLING:
  Domain errors map to HTTP status via their sentinel kind:
  - 400: bad ranges, bad configuration, malformed input
  - 403: role/ownership check failed
  - 404: unknown employee, leave type, or request
  - 409: duplicate holiday, lost race / terminal state
  - 422: insufficient balance
  - 500: ledger invariant violations and other defects

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loomhr/leave-engine/leave"
)

const timeLayout = time.RFC3339

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *leave.RequestService
	Employees leave.EmployeeStore
	Requests  leave.RequestStore
	Balances  leave.BalanceStore
	Holidays  leave.HolidayStore
	Settings  leave.SettingsStore
	Ledger    *leave.Ledger
	Logger    *slog.Logger
}

// Stores bundles the five storage interfaces a single backend implements.
type Stores interface {
	leave.EmployeeStore
	leave.RequestStore
	leave.BalanceStore
	leave.HolidayStore
	leave.SettingsStore
}

// NewHandler wires a handler, ledger, and request service from one
// storage backend.
func NewHandler(stores Stores, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	ledger := leave.NewLedger(stores, logger)
	service := leave.NewRequestService(stores, stores, stores, stores, ledger, logger)
	return &Handler{
		Service:   service,
		Employees: stores,
		Requests:  stores,
		Balances:  stores,
		Holidays:  stores,
		Settings:  stores,
		Ledger:    ledger,
		Logger:    logger,
	}
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees returns all employees.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.ListEmployees(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates an employee record.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	role := leave.Role(req.Role)
	switch role {
	case leave.RoleEmployee, leave.RoleManager, leave.RoleAdmin:
	case "":
		role = leave.RoleEmployee
	default:
		writeError(w, http.StatusBadRequest, "Invalid role", nil)
		return
	}

	e := &leave.Employee{
		ID:         leave.EmployeeID(req.ID),
		Name:       req.Name,
		Department: req.Department,
		Role:       role,
	}
	if req.ManagerID != nil {
		mid := leave.EmployeeID(*req.ManagerID)
		e.ManagerID = &mid
	}

	if err := h.Employees.SaveEmployee(r.Context(), e); err != nil {
		writeDomainError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

// GetEmployee returns one employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))
	e, err := h.Employees.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// GetBalances returns all balance buckets for an employee.
// GET /api/employees/{id}/balances
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))
	balances, err := h.Balances.ListBalances(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get balances", err)
		return
	}
	dtos := make([]BalanceDTO, 0, len(balances))
	for leaveType, b := range balances {
		dtos = append(dtos, toBalanceDTO(leaveType, b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AdjustBalance sets a new total for one bucket. Admin only.
// PUT /api/employees/{id}/balances/{type}
func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != leave.RoleAdmin {
		writeError(w, http.StatusForbidden, "Only admins may adjust balance totals", nil)
		return
	}

	var req AdjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	newTotal, err := leave.ParseDays(req.NewTotal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid new_total", err)
		return
	}

	key := leave.BalanceKey{
		EmployeeID: leave.EmployeeID(chi.URLParam(r, "id")),
		LeaveType:  leave.LeaveType(chi.URLParam(r, "type")),
	}
	if err := h.Ledger.AdjustTotal(r.Context(), key, newTotal); err != nil {
		writeDomainError(w, "Failed to adjust balance", err)
		return
	}

	b, err := h.Ledger.Balance(r.Context(), key)
	if err != nil {
		writeDomainError(w, "Failed to read balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(key.LeaveType, b))
}

// =============================================================================
// REQUEST ENDPOINTS
// =============================================================================

// ListEmployeeRequests returns an employee's requests, newest first.
// GET /api/employees/{id}/requests
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))
	requests, err := h.Requests.ListByEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// CreateDraft creates a new draft request for the employee.
// POST /api/employees/{id}/requests
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	employeeID := leave.EmployeeID(chi.URLParam(r, "id"))
	if actor.ID != employeeID {
		writeError(w, http.StatusForbidden, "Drafts can only be created by their owner", nil)
		return
	}

	var req CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ranges, err := parseRanges(req.Ranges)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	request, err := h.Service.CreateDraft(r.Context(), employeeID, leave.LeaveType(req.LeaveType), ranges, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to create draft", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(request))
}

// GetRequest returns one request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	request, err := h.Requests.GetRequest(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// EditRequest replaces a draft's ranges and reason.
// PUT /api/requests/{id}
func (h *Handler) EditRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req EditRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ranges, err := parseRanges(req.Ranges)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	id := leave.RequestID(chi.URLParam(r, "id"))
	request, err := h.Service.Edit(r.Context(), id, actor.ID, ranges, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to edit request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// SubmitRequest freezes and submits a draft.
// POST /api/requests/{id}/submit
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id := leave.RequestID(chi.URLParam(r, "id"))
	request, err := h.Service.Submit(r.Context(), id, actor.ID)
	if err != nil {
		writeDomainError(w, "Failed to submit request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// ApproveRequest approves a pending request.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, true)
}

// RejectRequest rejects a pending request.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, false)
}

func (h *Handler) resolveRequest(w http.ResponseWriter, r *http.Request, approve bool) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req ResolveRequestRequest
	if r.Body != nil {
		// Comment body is optional.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	id := leave.RequestID(chi.URLParam(r, "id"))
	var (
		request *leave.LeaveRequest
		err     error
	)
	if approve {
		request, err = h.Service.Approve(r.Context(), id, actor.ID, req.Comment)
	} else {
		request, err = h.Service.Reject(r.Context(), id, actor.ID, req.Comment)
	}
	if err != nil {
		writeDomainError(w, "Failed to resolve request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// ListPendingRequests returns a manager's approval queue.
// GET /api/requests/pending?manager={id}
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	managerID := leave.EmployeeID(r.URL.Query().Get("manager"))
	if managerID == "" {
		writeError(w, http.StatusBadRequest, "manager query parameter is required", nil)
		return
	}
	requests, err := h.Requests.ListPendingForManager(r.Context(), managerID)
	if err != nil {
		writeDomainError(w, "Failed to list pending requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// =============================================================================
// TEAM CALENDAR
// =============================================================================

// TeamCalendar returns approved team absences with summary stats.
// GET /api/team/{managerID}/calendar
func (h *Handler) TeamCalendar(w http.ResponseWriter, r *http.Request) {
	managerID := leave.EmployeeID(chi.URLParam(r, "managerID"))
	requests, err := h.Requests.ListApprovedForManager(r.Context(), managerID)
	if err != nil {
		writeDomainError(w, "Failed to load team calendar", err)
		return
	}

	calendar := TeamCalendarDTO{Entries: []TeamCalendarEntryDTO{}}
	departments := make(map[string]bool)
	for _, request := range requests {
		owner, err := h.Employees.GetEmployee(r.Context(), request.EmployeeID)
		if err != nil {
			writeDomainError(w, "Failed to load team calendar", err)
			return
		}
		days := 0
		if request.Calculation != nil {
			days = request.Calculation.TotalDeducted
		}
		calendar.Entries = append(calendar.Entries, TeamCalendarEntryDTO{
			EmployeeID:   string(owner.ID),
			EmployeeName: owner.Name,
			Department:   owner.Department,
			LeaveType:    string(request.LeaveType),
			Ranges:       toRangeDTOs(request.Ranges),
			DaysDeducted: days,
		})
		calendar.TotalDaysApproved += days
		departments[owner.Department] = true
	}
	calendar.TotalApprovedLeave = len(calendar.Entries)
	calendar.Departments = len(departments)

	writeJSON(w, http.StatusOK, calendar)
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all holidays in date order.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Holidays.ListHolidays(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, holiday := range holidays {
		dtos = append(dtos, HolidayDTO{
			Date:     holiday.Date.String(),
			Name:     holiday.Name,
			Category: string(holiday.Category),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := leave.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	category := leave.HolidayCategory(req.Category)
	switch category {
	case leave.CategoryPublic, leave.CategoryReligious, leave.CategoryNational:
	case "":
		category = leave.CategoryPublic
	default:
		writeError(w, http.StatusBadRequest, "Invalid category", nil)
		return
	}

	holiday := leave.Holiday{Date: date, Name: req.Name, Category: category}
	if err := h.Holidays.AddHoliday(r.Context(), holiday); err != nil {
		writeDomainError(w, "Failed to add holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{
		Date:     holiday.Date.String(),
		Name:     holiday.Name,
		Category: string(holiday.Category),
	})
}

// AddDefaultHolidays seeds the standard US federal set for a year.
// POST /api/holidays/defaults?year=2024
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1900 || year > 2200 {
		writeError(w, http.StatusBadRequest, "year query parameter is required", err)
		return
	}

	added := 0
	for _, holiday := range leave.DefaultUSHolidays(year) {
		err := h.Holidays.AddHoliday(r.Context(), holiday)
		if err != nil {
			// Re-seeding is fine; dates already present keep their record.
			if errors.Is(err, leave.ErrDuplicateHoliday) {
				continue
			}
			writeDomainError(w, "Failed to seed holidays", err)
			return
		}
		added++
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

// DeleteHoliday removes the holiday on a date.
// DELETE /api/holidays/{date}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := leave.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if err := h.Holidays.RemoveHoliday(r.Context(), date); err != nil {
		writeDomainError(w, "Failed to remove holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SETTINGS ENDPOINTS
// =============================================================================

// GetSettings returns the current workweek and policy flags.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.GetSettings(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsDTO{
		WorkweekStart:   int(settings.Workweek.StartDay),
		WorkweekEnd:     int(settings.Workweek.EndDay),
		ExcludeHolidays: settings.Flags.ExcludeHolidays,
		WeekendBridging: settings.Flags.WeekendBridging,
	})
}

// UpdateSettings replaces the workweek and policy flags after validation.
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settings := leave.Settings{
		Workweek: leave.WorkweekConfig{
			StartDay: time.Weekday(req.WorkweekStart),
			EndDay:   time.Weekday(req.WorkweekEnd),
		},
		Flags: leave.Flags{
			ExcludeHolidays: req.ExcludeHolidays,
			WeekendBridging: req.WeekendBridging,
		},
	}
	if err := settings.Validate(); err != nil {
		writeDomainError(w, "Invalid settings", err)
		return
	}
	if err := h.Settings.SaveSettings(r.Context(), settings); err != nil {
		writeDomainError(w, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// CALCULATION PREVIEW
// =============================================================================

// Calculate previews the day count for a set of ranges under current
// settings. Nothing is created or reserved.
// POST /api/calculate
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ranges, err := parseRanges(req.Ranges)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	calc, err := h.Service.Preview(r.Context(), ranges)
	if err != nil {
		writeDomainError(w, "Failed to calculate", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTO(&calc))
}

// =============================================================================
// HELPERS
// =============================================================================

// requireActor loads the acting employee from the X-Actor-ID header.
func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (*leave.Employee, bool) {
	actorID := r.Header.Get("X-Actor-ID")
	if actorID == "" {
		writeError(w, http.StatusBadRequest, "X-Actor-ID header is required", nil)
		return nil, false
	}
	actor, err := h.Employees.GetEmployee(r.Context(), leave.EmployeeID(actorID))
	if err != nil {
		writeDomainError(w, "Unknown actor", err)
		return nil, false
	}
	return actor, true
}

func toRequestDTOs(requests []*leave.LeaveRequest) []RequestDTO {
	dtos := make([]RequestDTO, 0, len(requests))
	for _, r := range requests {
		dtos = append(dtos, toRequestDTO(r))
	}
	return dtos
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error to its HTTP status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, leave.ErrUnauthorized):
		return http.StatusForbidden
	case leave.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, leave.ErrDuplicateHoliday), errors.Is(err, leave.ErrStaleState):
		return http.StatusConflict
	case errors.Is(err, leave.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case leave.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
