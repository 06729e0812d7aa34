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
  Request bodies carry go-playground/validator struct tags; the Handler
  runs them before touching domain logic. Domain rules (overlaps,
  allowance, transitions) stay in the leave package.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: The domain model these map to
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Name        string `json:"name"`
	StartDate   string `json:"start_date"`
	AutoApprove bool   `json:"auto_approve"`
	Active      bool   `json:"active"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	ApproverID  string `json:"approver_id"`
	LeaveTypeID string `json:"leave_type_id"`
	StartDate   string `json:"start_date"`
	StartPart   string `json:"start_part"`
	EndDate     string `json:"end_date"`
	EndPart     string `json:"end_part"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   string `json:"created_at"`
	DecidedAt   string `json:"decided_at,omitempty"`
}

// BalanceDTO is the allowance summary for one user-year.
type BalanceDTO struct {
	UserID      string `json:"user_id"`
	Year        int    `json:"year"`
	Nominal     string `json:"nominal"`
	Adjustment  string `json:"adjustment"`
	CarriedOver string `json:"carried_over"`
	Entitlement string `json:"entitlement"`
	Used        string `json:"used"`
	Remaining   string `json:"remaining"`
}

// LeaveTypeDTO represents a leave type in API responses.
type LeaveTypeDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	UsesAllowance bool   `json:"uses_allowance"`
	AnnualLimit   string `json:"annual_limit,omitempty"`
	DisplayOrder  int    `json:"display_order"`
}

// ScheduleDTO is a resolved or stored work schedule. Week maps lowercase
// weekday names to whether the day is worked.
type ScheduleDTO struct {
	Scope     string          `json:"scope"`
	CompanyID string          `json:"company_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Week      map[string]bool `json:"week"`
}

// CarryOverOutcomeDTO is the per-user result of a carry-over run.
type CarryOverOutcomeDTO struct {
	UserID  string `json:"user_id"`
	Amount  string `json:"amount"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CarryOverReportDTO summarises a carry-over batch run.
type CarryOverReportDTO struct {
	CompanyID string                `json:"company_id"`
	FromYear  int                   `json:"from_year"`
	ToYear    int                   `json:"to_year"`
	Outcomes  []CarryOverOutcomeDTO `json:"outcomes"`
	Failures  int                   `json:"failures"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SubmitRequestRequest is the body for submitting a leave request.
type SubmitRequestRequest struct {
	LeaveTypeID string `json:"leave_type_id" validate:"required"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	StartPart   string `json:"start_part" validate:"omitempty,oneof=all morning afternoon"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
	EndPart     string `json:"end_part" validate:"omitempty,oneof=all morning afternoon"`
	Reason      string `json:"reason" validate:"max=500"`
	ApproverID  string `json:"approver_id" validate:"required"`
	ActorID     string `json:"actor_id" validate:"required"`
}

// DecisionRequest is the body for approve/reject/cancel/revoke actions.
type DecisionRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
}

// AdjustmentRequest is the body for a manual allowance adjustment.
type AdjustmentRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Year   int    `json:"year" validate:"required,min=2000,max=2200"`
	Amount string `json:"amount" validate:"required"`
}

// CarryOverRequest triggers the year-boundary carry-over batch.
type CarryOverRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
	FromYear  int    `json:"from_year" validate:"required,min=2000,max=2200"`
}

// ScheduleRequest sets a company schedule or a user override.
type ScheduleRequest struct {
	CompanyID string          `json:"company_id" validate:"required"`
	UserID    string          `json:"user_id"`
	Week      map[string]bool `json:"week" validate:"required"`
}

// HolidayRequest designates or removes a company holiday.
type HolidayRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"max=200"`
}

// HolidaysDTO lists a company's holidays in calendar order.
type HolidaysDTO struct {
	CompanyID string   `json:"company_id"`
	Dates     []string `json:"dates"`
}

// =============================================================================
// MAPPING HELPERS
// =============================================================================

func toUserDTO(u leave.User) UserDTO {
	return UserDTO{
		ID:          string(u.ID),
		CompanyID:   string(u.CompanyID),
		Name:        u.Name,
		StartDate:   u.StartDate.String(),
		AutoApprove: u.AutoApprove,
		Active:      u.Active,
	}
}

func toRequestDTO(r leave.Request) RequestDTO {
	dto := RequestDTO{
		ID:          string(r.ID),
		UserID:      string(r.UserID),
		ApproverID:  string(r.ApproverID),
		LeaveTypeID: string(r.LeaveTypeID),
		StartDate:   r.Interval.Start.String(),
		StartPart:   string(r.Interval.StartPart),
		EndDate:     r.Interval.End.String(),
		EndPart:     string(r.Interval.EndPart),
		Status:      string(r.Status),
		Reason:      r.Reason,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = r.DecidedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toBalanceDTO(b leave.Balance) BalanceDTO {
	return BalanceDTO{
		UserID:      string(b.UserID),
		Year:        b.Year,
		Nominal:     b.Nominal.String(),
		Adjustment:  b.Adjustment.String(),
		CarriedOver: b.CarriedOver.String(),
		Entitlement: b.Entitlement.String(),
		Used:        b.Used.String(),
		Remaining:   b.Remaining.String(),
	}
}

func toLeaveTypeDTO(lt leave.LeaveType) LeaveTypeDTO {
	dto := LeaveTypeDTO{
		ID:            string(lt.ID),
		Name:          lt.Name,
		UsesAllowance: lt.UsesAllowance,
		DisplayOrder:  lt.DisplayOrder,
	}
	if lt.AnnualLimit != nil {
		dto.AnnualLimit = lt.AnnualLimit.String()
	}
	return dto
}

func toScheduleDTO(ws leave.WorkSchedule) ScheduleDTO {
	return ScheduleDTO{
		Scope:     string(ws.Scope),
		CompanyID: string(ws.CompanyID),
		UserID:    string(ws.UserID),
		Week:      weekToJSON(ws.Pattern),
	}
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

func weekToJSON(wp leave.WeekPattern) map[string]bool {
	out := make(map[string]bool, 7)
	for name, day := range weekdayNames {
		out[name] = wp[day]
	}
	return out
}

func weekFromJSON(in map[string]bool) (leave.WeekPattern, error) {
	wp := make(leave.WeekPattern, 7)
	for name, working := range in {
		day, ok := weekdayNames[name]
		if !ok {
			return nil, &leave.ValidationError{Field: "week", Reason: "unknown weekday " + name}
		}
		wp[day] = working
	}
	return wp, nil
}
