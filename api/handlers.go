/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the allowance and booking engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Users:
    GET    /api/users/{id}              Get user details
    GET    /api/users/{id}/balance      Allowance summary for a year
    GET    /api/users/{id}/requests     Request history
    GET    /api/users/{id}/schedule     Resolved work schedule
    POST   /api/users/{id}/requests     Submit leave request

  Requests:
    GET    /api/requests/{id}           Get request details
    POST   /api/requests/{id}/approve   Approve a pending request
    POST   /api/requests/{id}/reject    Reject a pending request
    POST   /api/requests/{id}/cancel    Cancel own pending request
    POST   /api/requests/{id}/revoke    Start revoking an approved request
    POST   /api/requests/{id}/revoke/confirm  Confirm a pending revoke

  Leave types:
    GET    /api/leave-types?company_id= Ordered list of leave types

  Holidays:
    GET    /api/holidays?company_id=    Company holiday calendar

  Admin:
    POST   /api/admin/adjustments       Manual allowance adjustment
    POST   /api/admin/carryover         Run the year-boundary batch
    PUT    /api/admin/schedules         Set company schedule or user override
    DELETE /api/admin/schedules/{userID}  Remove a user override
    POST   /api/admin/holidays          Designate a company holiday
    DELETE /api/admin/holidays/{companyID}/{date}  Remove a holiday

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator tags)
  3. Call domain logic (lifecycle, allowance engine, batch)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Actor not permitted
  - 404: Resource not found
  - 409: Conflict (overlap, invalid transition)
  - 422: Allowance exceeded
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public
  and trust the actor_id field.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Repo      leave.Repository
	Lifecycle *leave.Lifecycle
	Allowance *leave.AllowanceEngine
	CarryOver *leave.CarryOverBatch
	Schedules *leave.ScheduleResolver

	validate *validator.Validate
}

// NewHandler wires the domain services around the given repository.
func NewHandler(repo leave.Repository, notifier leave.Notifier) *Handler {
	return &Handler{
		Repo:      repo,
		Lifecycle: leave.NewLifecycle(repo, notifier),
		Allowance: leave.NewAllowanceEngine(repo),
		CarryOver: leave.NewCarryOverBatch(repo),
		Schedules: leave.NewScheduleResolver(repo),
		validate:  validator.New(),
	}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := leave.UserID(chi.URLParam(r, "id"))

	user, err := h.Repo.UserByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// GetBalance returns the allowance summary for a user-year.
// GET /api/users/{id}/balance?year=2026
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := leave.UserID(chi.URLParam(r, "id"))

	year := time.Now().UTC().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	balance, err := h.Allowance.Balance(r.Context(), id, year)
	if err != nil {
		writeDomainError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(*balance))
}

// ListRequests returns a user's full request history, ordered by start date.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	id := leave.UserID(chi.URLParam(r, "id"))

	requests, err := h.Repo.RequestsByUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to list requests", err)
		return
	}

	dtos := make([]RequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSchedule returns the effective work schedule for a user.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := leave.UserID(chi.URLParam(r, "id"))

	user, err := h.Repo.UserByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}

	schedule, err := h.Schedules.Resolve(r.Context(), id, user.CompanyID)
	if err != nil {
		writeDomainError(w, "Failed to resolve schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(schedule))
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest creates a new leave request for a user.
// POST /api/users/{id}/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	userID := leave.UserID(chi.URLParam(r, "id"))

	var body SubmitRequestRequest
	if !h.decode(w, r, &body) {
		return
	}

	iv, err := intervalFromBody(body)
	if err != nil {
		writeDomainError(w, "Invalid interval", err)
		return
	}

	actor := leave.Actor{ID: leave.UserID(body.ActorID), MayAct: h.mayActFor(r, userID, leave.UserID(body.ActorID))}
	request, err := h.Lifecycle.Submit(r.Context(), leave.SubmitParams{
		UserID:      userID,
		ApproverID:  leave.UserID(body.ApproverID),
		LeaveTypeID: leave.LeaveTypeID(body.LeaveTypeID),
		Interval:    iv,
		Reason:      body.Reason,
		Actor:       actor,
	})
	if err != nil {
		writeDomainError(w, "Failed to submit request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*request))
}

// mayActFor resolves the permission fact for an actor working on a user's
// request. Without authentication every known actor passes; the resolution
// point exists so an auth layer can tighten it without touching the
// lifecycle.
func (h *Handler) mayActFor(r *http.Request, _ leave.UserID, actorID leave.UserID) bool {
	_, err := h.Repo.UserByID(r.Context(), actorID)
	return err == nil
}

func intervalFromBody(body SubmitRequestRequest) (leave.Interval, error) {
	start, err := leave.ParseDate(body.StartDate)
	if err != nil {
		return leave.Interval{}, &leave.ValidationError{Field: "start_date", Reason: err.Error()}
	}
	end, err := leave.ParseDate(body.EndDate)
	if err != nil {
		return leave.Interval{}, &leave.ValidationError{Field: "end_date", Reason: err.Error()}
	}

	startPart := leave.DayPart(body.StartPart)
	if body.StartPart == "" {
		startPart = leave.PartAll
	}
	endPart := leave.DayPart(body.EndPart)
	if body.EndPart == "" {
		endPart = leave.PartAll
	}
	return leave.NewInterval(start, startPart, end, endPart)
}

// GetRequest returns a single request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	request, err := h.Repo.RequestByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// ApproveRequest moves a pending request to approved.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decideRequest(w, r, h.Lifecycle.Approve)
}

// RejectRequest moves a pending request to rejected.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decideRequest(w, r, h.Lifecycle.Reject)
}

// CancelRequest cancels the requester's own pending request.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.decideRequest(w, r, h.Lifecycle.Cancel)
}

// StartRevoke begins revoking an approved request. Auto-approved users
// skip review and land directly in revoked.
func (h *Handler) StartRevoke(w http.ResponseWriter, r *http.Request) {
	h.decideRequest(w, r, h.Lifecycle.StartRevoke)
}

// ConfirmRevoke completes a pending revoke.
func (h *Handler) ConfirmRevoke(w http.ResponseWriter, r *http.Request) {
	h.decideRequest(w, r, h.Lifecycle.ConfirmRevoke)
}

type decisionFunc func(ctx context.Context, id leave.RequestID, actor leave.Actor) (*leave.Request, error)

func (h *Handler) decideRequest(w http.ResponseWriter, r *http.Request, decide decisionFunc) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var body DecisionRequest
	if !h.decode(w, r, &body) {
		return
	}

	actorID := leave.UserID(body.ActorID)
	actor := leave.Actor{ID: actorID, MayAct: h.mayActFor(r, "", actorID)}
	request, err := decide(r.Context(), id, actor)
	if err != nil {
		writeDomainError(w, "Failed to update request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*request))
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

// ListLeaveTypes returns the company's leave types in display order.
// GET /api/leave-types?company_id=acme
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	companyID := leave.CompanyID(r.URL.Query().Get("company_id"))
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}

	types, err := h.Repo.LeaveTypes(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, "Failed to list leave types", err)
		return
	}

	dtos := make([]LeaveTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = toLeaveTypeDTO(lt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// CreateAdjustment records a manual allowance adjustment for a user-year.
// Amounts must land on half-day steps.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var body AdjustmentRequest
	if !h.decode(w, r, &body) {
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	if err := leave.ValidateAdjustment(amount); err != nil {
		writeDomainError(w, "Invalid adjustment", err)
		return
	}

	userID := leave.UserID(body.UserID)
	if _, err := h.Repo.UserByID(r.Context(), userID); err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}
	if err := h.Repo.SaveAdjustment(r.Context(), userID, body.Year, amount); err != nil {
		writeDomainError(w, "Failed to save adjustment", err)
		return
	}

	balance, err := h.Allowance.Balance(r.Context(), userID, body.Year)
	if err != nil {
		writeDomainError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(*balance))
}

// TriggerCarryOver runs the carry-over batch for a company. Safe to
// re-run; results overwrite the previous run for the same year pair.
func (h *Handler) TriggerCarryOver(w http.ResponseWriter, r *http.Request) {
	var body CarryOverRequest
	if !h.decode(w, r, &body) {
		return
	}

	report, err := h.CarryOver.Run(r.Context(), leave.CompanyID(body.CompanyID), body.FromYear)
	if err != nil {
		writeDomainError(w, "Carry-over batch failed", err)
		return
	}

	dto := CarryOverReportDTO{
		CompanyID: body.CompanyID,
		FromYear:  body.FromYear,
		ToYear:    body.FromYear + 1,
		Outcomes:  make([]CarryOverOutcomeDTO, len(report.Outcomes)),
		Failures:  len(report.Failed()),
	}
	for i, o := range report.Outcomes {
		out := CarryOverOutcomeDTO{
			UserID:  string(o.UserID),
			Amount:  o.Amount.String(),
			Skipped: o.Skipped,
		}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		dto.Outcomes[i] = out
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListHolidays returns the company's designated holidays in calendar order.
// GET /api/holidays?company_id=acme
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	companyID := leave.CompanyID(r.URL.Query().Get("company_id"))
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}

	holidays, err := h.Repo.Holidays(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, "Failed to list holidays", err)
		return
	}

	dates := make([]string, 0, len(holidays))
	for d := range holidays {
		dates = append(dates, d.String())
	}
	sort.Strings(dates)
	writeJSON(w, http.StatusOK, HolidaysDTO{CompanyID: string(companyID), Dates: dates})
}

// CreateHoliday designates a date as a company holiday. Holidays zero the
// working value of whole days they fall on.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var body HolidayRequest
	if !h.decode(w, r, &body) {
		return
	}

	date, err := leave.ParseDate(body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if err := h.Repo.SaveHoliday(r.Context(), leave.CompanyID(body.CompanyID), date, body.Name); err != nil {
		writeDomainError(w, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// DeleteHoliday removes a designated holiday.
// DELETE /api/admin/holidays/{companyID}/{date}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	companyID := leave.CompanyID(chi.URLParam(r, "companyID"))

	date, err := leave.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if err := h.Repo.DeleteHoliday(r.Context(), companyID, date); err != nil {
		writeDomainError(w, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetSchedule sets the company schedule, or a user override when user_id
// is present.
func (h *Handler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	var body ScheduleRequest
	if !h.decode(w, r, &body) {
		return
	}

	pattern, err := weekFromJSON(body.Week)
	if err != nil {
		writeDomainError(w, "Invalid week pattern", err)
		return
	}

	companyID := leave.CompanyID(body.CompanyID)
	if body.UserID != "" {
		err = h.Schedules.Override(r.Context(), leave.UserID(body.UserID), companyID, pattern)
	} else {
		err = h.Schedules.SetCompanySchedule(r.Context(), companyID, pattern)
	}
	if err != nil {
		writeDomainError(w, "Failed to save schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteSchedule removes a user's schedule override, reverting them to
// the company schedule.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	userID := leave.UserID(chi.URLParam(r, "userID"))

	if err := h.Schedules.RevokeOverride(r.Context(), userID); err != nil {
		writeDomainError(w, "Failed to delete schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON body, writing the error response
// itself when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
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

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, leave.ErrOverlap), errors.Is(err, leave.ErrInvalidTransition):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, leave.ErrAllowanceExceeded):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	case errors.Is(err, leave.ErrNotPermitted):
		writeError(w, http.StatusForbidden, message, err)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
