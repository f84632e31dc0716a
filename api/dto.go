/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/loomhr/leave-engine/leave"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	ManagerID  *string `json:"manager_id,omitempty"`
	Role       string  `json:"role"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	ManagerID  *string `json:"manager_id,omitempty"`
	Role       string  `json:"role"`
}

// =============================================================================
// BALANCES
// =============================================================================

// BalanceDTO is one leave-type bucket of an employee's balance.
type BalanceDTO struct {
	LeaveType string `json:"leave_type"`
	Total     string `json:"total"`
	Used      string `json:"used"`
	Pending   string `json:"pending"`
	Available string `json:"available"`
}

// AdjustBalanceRequest sets a new total for a bucket (admin only).
type AdjustBalanceRequest struct {
	NewTotal string `json:"new_total"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// RangeDTO is one inclusive date range, ISO dates.
type RangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreateRequestRequest creates a draft leave request.
type CreateRequestRequest struct {
	LeaveType string     `json:"leave_type"`
	Ranges    []RangeDTO `json:"ranges"`
	Reason    string     `json:"reason"`
}

// EditRequestRequest replaces a draft's ranges and reason.
type EditRequestRequest struct {
	Ranges []RangeDTO `json:"ranges"`
	Reason string     `json:"reason"`
}

// ResolveRequestRequest carries the manager's comment on approve/reject.
type ResolveRequestRequest struct {
	Comment string `json:"comment"`
}

// CalculationDTO is the day accounting attached to a request.
type CalculationDTO struct {
	Workdays         int `json:"workdays"`
	BridgeDays       int `json:"bridge_days"`
	ExcludedHolidays int `json:"excluded_holidays"`
	TotalDeducted    int `json:"total_deducted"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	LeaveType       string          `json:"leave_type"`
	Ranges          []RangeDTO      `json:"ranges"`
	Reason          string          `json:"reason"`
	Status          string          `json:"status"`
	Calculation     *CalculationDTO `json:"calculation,omitempty"`
	SubmittedAt     string          `json:"submitted_at,omitempty"`
	ApproverID      string          `json:"approver_id,omitempty"`
	ApprovedAt      string          `json:"approved_at,omitempty"`
	ManagerComments string          `json:"manager_comments,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// =============================================================================
// CALCULATION PREVIEW
// =============================================================================

// CalculateRequest previews the day count for a set of ranges.
type CalculateRequest struct {
	Ranges []RangeDTO `json:"ranges"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	Date     string `json:"date"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CreateHolidayRequest adds one holiday.
type CreateHolidayRequest struct {
	Date     string `json:"date"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// SettingsDTO is the deployment-wide policy configuration.
// Days are weekday indices, 0=Sunday through 6=Saturday.
type SettingsDTO struct {
	WorkweekStart   int  `json:"workweek_start"`
	WorkweekEnd     int  `json:"workweek_end"`
	ExcludeHolidays bool `json:"exclude_holidays"`
	WeekendBridging bool `json:"weekend_bridging"`
}

// =============================================================================
// TEAM CALENDAR
// =============================================================================

// TeamCalendarEntryDTO is one approved absence row on the team calendar.
type TeamCalendarEntryDTO struct {
	EmployeeID   string     `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	Department   string     `json:"department"`
	LeaveType    string     `json:"leave_type"`
	Ranges       []RangeDTO `json:"ranges"`
	DaysDeducted int        `json:"days_deducted"`
}

// TeamCalendarDTO is the team calendar with its summary stats.
type TeamCalendarDTO struct {
	Entries            []TeamCalendarEntryDTO `json:"entries"`
	TotalApprovedLeave int                    `json:"total_approved_leaves"`
	TotalDaysApproved  int                    `json:"total_days_approved"`
	Departments        int                    `json:"departments_affected"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e *leave.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:         string(e.ID),
		Name:       e.Name,
		Department: e.Department,
		Role:       string(e.Role),
	}
	if e.ManagerID != nil {
		id := string(*e.ManagerID)
		dto.ManagerID = &id
	}
	return dto
}

func toRangeDTOs(ranges []leave.DateRange) []RangeDTO {
	out := make([]RangeDTO, len(ranges))
	for i, r := range ranges {
		out[i] = RangeDTO{Start: r.Start.String(), End: r.End.String()}
	}
	return out
}

func parseRanges(dtos []RangeDTO) ([]leave.DateRange, error) {
	out := make([]leave.DateRange, len(dtos))
	for i, dto := range dtos {
		start, err := leave.ParseDate(dto.Start)
		if err != nil {
			return nil, err
		}
		end, err := leave.ParseDate(dto.End)
		if err != nil {
			return nil, err
		}
		out[i] = leave.DateRange{Start: start, End: end}
	}
	return out, nil
}

func toCalculationDTO(c *leave.DaysCalculation) *CalculationDTO {
	if c == nil {
		return nil
	}
	return &CalculationDTO{
		Workdays:         c.Workdays,
		BridgeDays:       c.BridgeDays,
		ExcludedHolidays: c.ExcludedHolidays,
		TotalDeducted:    c.TotalDeducted,
	}
}

func toRequestDTO(r *leave.LeaveRequest) RequestDTO {
	dto := RequestDTO{
		ID:              string(r.ID),
		EmployeeID:      string(r.EmployeeID),
		LeaveType:       string(r.LeaveType),
		Ranges:          toRangeDTOs(r.Ranges),
		Reason:          r.Reason,
		Status:          string(r.Status),
		Calculation:     toCalculationDTO(r.Calculation),
		ManagerComments: r.ManagerComments,
		CreatedAt:       r.CreatedAt.Format(timeLayout),
		UpdatedAt:       r.UpdatedAt.Format(timeLayout),
	}
	if r.SubmittedAt != nil {
		dto.SubmittedAt = r.SubmittedAt.Format(timeLayout)
	}
	if r.ApproverID != nil {
		dto.ApproverID = string(*r.ApproverID)
	}
	if r.ApprovedAt != nil {
		dto.ApprovedAt = r.ApprovedAt.Format(timeLayout)
	}
	return dto
}

func toBalanceDTO(leaveType leave.LeaveType, b leave.LeaveBalance) BalanceDTO {
	return BalanceDTO{
		LeaveType: string(leaveType),
		Total:     b.Total.String(),
		Used:      b.Used.String(),
		Pending:   b.Pending.String(),
		Available: b.Available().String(),
	}
}
