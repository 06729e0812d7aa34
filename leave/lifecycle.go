/*
lifecycle.go - Leave request state machine

PURPOSE:
  Drives a leave request from creation through approval, rejection,
  cancellation, and the two-phase revoke protocol.

STATES AND TRANSITIONS:

         create                        approver
  (new) ───────▶ PENDING ───────────▶ APPROVED
                   │    ╲                 │ revoke
         requester │     ╲ approver       ▼
                   ▼      ╲          PENDING_REVOKE
               CANCELLED   ▶ REJECTED     │ approver confirms
                                          ▼
                                       REVOKED

  Auto-approve users skip the approval step on create, and their revokes
  confirm immediately. REJECTED, CANCELLED and REVOKED are terminal.

TWO-PHASE REVOKE:
  PENDING_REVOKE is deliberate, not an optimisation target: a request in
  that state still blocks overlapping bookings and still counts against
  usage. The slots are freed only when the revoke is confirmed.
  Collapsing the intermediate state would free the slot too early.

ADMISSION:
  Creation is refused - no record is written - when the interval is
  malformed, the actor lacks permission, the interval collides with a
  live booking, or the allowance engine reports the request would exceed
  the remaining balance or a category cap. The repository re-checks slot
  occupancy atomically at commit, so two concurrent submissions for the
  same user cannot both land.

EDITS:
  Editing a pending request's interval is cancel-then-recreate at the
  orchestration layer; this machine has no in-place interval mutation.

SEE ALSO:
  - overlap.go, allowance.go: The admission checks
  - events.go: The transition events this machine emits
*/
package leave

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TRANSITION TABLE
// =============================================================================

var transitions = map[RequestStatus]map[RequestStatus]bool{
	StatusPending: {
		StatusApproved:  true,
		StatusRejected:  true,
		StatusCancelled: true,
	},
	StatusApproved: {
		StatusPendingRevoke: true,
		StatusRevoked:       true, // one-step revoke, StartRevoke on auto-approve users
	},
	StatusPendingRevoke: {
		StatusRevoked: true,
	},
}

// CanTransition reports whether from -> to is in the lifecycle table.
func CanTransition(from, to RequestStatus) bool {
	return transitions[from][to]
}

// =============================================================================
// ACTOR - Pre-resolved permission fact
// =============================================================================

// Actor identifies who performs an operation together with the
// caller-resolved fact of whether they may act on the target user's
// requests. The engine does not compute organisational hierarchy.
type Actor struct {
	ID     UserID
	MayAct bool
}

// =============================================================================
// LIFECYCLE
// =============================================================================

type Lifecycle struct {
	Repo      Repository
	Allowance *AllowanceEngine
	Notifier  Notifier

	now func() time.Time
}

func NewLifecycle(repo Repository, notifier Notifier) *Lifecycle {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Lifecycle{
		Repo:      repo,
		Allowance: NewAllowanceEngine(repo),
		Notifier:  notifier,
		now:       time.Now,
	}
}

// SubmitParams describes a new leave request. The requester may submit for
// themselves, or an approver may submit on a user's behalf; either way the
// caller resolves the permission fact into Actor.MayAct.
type SubmitParams struct {
	UserID      UserID
	ApproverID  UserID
	LeaveTypeID LeaveTypeID
	Interval    Interval
	Reason      string
	Actor       Actor
}

// Submit validates and creates a leave request. The new request lands in
// PENDING, or directly in APPROVED when the requester has the
// auto-approve flag. On any refusal no record is created.
func (l *Lifecycle) Submit(ctx context.Context, p SubmitParams) (*Request, error) {
	// Re-validate even pre-built intervals; a zero Interval must not slip in.
	iv, err := NewInterval(p.Interval.Start, p.Interval.StartPart, p.Interval.End, p.Interval.EndPart)
	if err != nil {
		return nil, err
	}
	if !p.Actor.MayAct {
		return nil, ErrNotPermitted
	}

	user, err := l.Repo.UserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	leaveType, err := l.Repo.LeaveTypeByID(ctx, p.LeaveTypeID)
	if err != nil {
		return nil, err
	}

	existing, err := l.Repo.LiveRequests(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if err := CheckOverlap(p.UserID, iv, existing); err != nil {
		return nil, err
	}
	if err := l.Allowance.CheckRequest(ctx, user, leaveType, iv); err != nil {
		return nil, err
	}

	now := l.now()
	status := StatusPending
	var decidedAt *time.Time
	if user.AutoApprove {
		status = StatusApproved
		decidedAt = &now
	}

	request := Request{
		ID:          RequestID(uuid.NewString()),
		UserID:      p.UserID,
		ApproverID:  p.ApproverID,
		LeaveTypeID: p.LeaveTypeID,
		Interval:    iv,
		Status:      status,
		Reason:      p.Reason,
		CreatedAt:   now,
		DecidedAt:   decidedAt,
	}

	// The store re-checks slot occupancy under its own transaction; a
	// concurrent submission that won the race surfaces as ErrOverlap here.
	if err := l.Repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	l.emit(ctx, EventRequestCreated, request, "", status, p.Actor.ID)
	return &request, nil
}

// Approve moves a pending request to APPROVED.
func (l *Lifecycle) Approve(ctx context.Context, id RequestID, actor Actor) (*Request, error) {
	return l.decide(ctx, id, actor, StatusApproved, EventRequestApproved)
}

// Reject moves a pending request to REJECTED. Terminal.
func (l *Lifecycle) Reject(ctx context.Context, id RequestID, actor Actor) (*Request, error) {
	return l.decide(ctx, id, actor, StatusRejected, EventRequestRejected)
}

func (l *Lifecycle) decide(ctx context.Context, id RequestID, actor Actor, to RequestStatus, event EventType) (*Request, error) {
	if !actor.MayAct {
		return nil, ErrNotPermitted
	}
	request, err := l.Repo.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.transition(ctx, request, to, actor, event)
}

// Cancel moves a pending request to CANCELLED. Requester-only.
func (l *Lifecycle) Cancel(ctx context.Context, id RequestID, actor Actor) (*Request, error) {
	request, err := l.Repo.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != request.UserID {
		return nil, ErrNotPermitted
	}
	return l.transition(ctx, request, StatusCancelled, actor, EventRequestCanceled)
}

// StartRevoke begins the two-phase revoke of an approved request. The
// interval keeps blocking overlap and counting toward usage until the
// revoke is confirmed. When the original requester has auto-approve, the
// revoke confirms immediately.
func (l *Lifecycle) StartRevoke(ctx context.Context, id RequestID, actor Actor) (*Request, error) {
	if !actor.MayAct {
		return nil, ErrNotPermitted
	}
	request, err := l.Repo.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := l.Repo.UserByID(ctx, request.UserID)
	if err != nil {
		return nil, err
	}
	if user.AutoApprove {
		return l.transition(ctx, request, StatusRevoked, actor, EventRequestRevoked)
	}
	return l.transition(ctx, request, StatusPendingRevoke, actor, EventRevokeRequested)
}

// ConfirmRevoke completes the revoke: only now do the interval's slots
// stop blocking overlap and stop counting toward usage.
func (l *Lifecycle) ConfirmRevoke(ctx context.Context, id RequestID, actor Actor) (*Request, error) {
	if !actor.MayAct {
		return nil, ErrNotPermitted
	}
	request, err := l.Repo.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// The one-step APPROVED -> REVOKED edge belongs to StartRevoke on
	// auto-approve users; confirmation only completes a pending revoke.
	if request.Status != StatusPendingRevoke {
		return nil, &InvalidTransitionError{RequestID: request.ID, From: request.Status, To: StatusRevoked}
	}
	return l.transition(ctx, request, StatusRevoked, actor, EventRequestRevoked)
}

func (l *Lifecycle) transition(ctx context.Context, request Request, to RequestStatus, actor Actor, event EventType) (*Request, error) {
	from := request.Status
	if !CanTransition(from, to) {
		return nil, &InvalidTransitionError{RequestID: request.ID, From: from, To: to}
	}

	now := l.now()
	request.Status = to
	request.DecidedAt = &now
	if err := l.Repo.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}

	l.emit(ctx, event, request, from, to, actor.ID)
	return &request, nil
}

func (l *Lifecycle) emit(ctx context.Context, t EventType, r Request, from, to RequestStatus, actor UserID) {
	l.Notifier.Notify(ctx, Event{
		ID:        uuid.NewString(),
		Type:      t,
		RequestID: r.ID,
		UserID:    r.UserID,
		From:      from,
		To:        to,
		ActorID:   actor,
		At:        l.now(),
	})
}
