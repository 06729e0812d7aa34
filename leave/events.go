/*
events.go - Domain events emitted on lifecycle transitions

PURPOSE:
  Every state transition in the request lifecycle emits an event. The
  engine does not send email or write audit rows itself; a subscriber
  outside this package owns delivery. Notifier failures are the
  subscriber's problem: the engine never rolls back a committed
  transition because a notification could not be delivered.
*/
package leave

import (
	"context"
	"log"
	"time"
)

// =============================================================================
// EVENT
// =============================================================================

type EventType string

const (
	EventRequestCreated  EventType = "request_created"
	EventRequestApproved EventType = "request_approved"
	EventRequestRejected EventType = "request_rejected"
	EventRequestCanceled EventType = "request_canceled"
	EventRevokeRequested EventType = "revoke_requested"
	EventRequestRevoked  EventType = "request_revoked"
)

// Event describes one lifecycle transition.
type Event struct {
	ID        string
	Type      EventType
	RequestID RequestID
	UserID    UserID
	From      RequestStatus
	To        RequestStatus
	ActorID   UserID
	At        time.Time
}

// Notifier receives lifecycle events. Implementations deliver email,
// append audit rows, or fan out to both; the engine does not care.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// =============================================================================
// BUILT-IN NOTIFIERS
// =============================================================================

// NopNotifier drops all events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}

// LogNotifier writes events to the standard logger. Useful as a default
// and in development.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, e Event) {
	log.Printf("[Event] %s request=%s user=%s %s -> %s actor=%s",
		e.Type, e.RequestID, e.UserID, e.From, e.To, e.ActorID)
}

// MultiNotifier fans an event out to several subscribers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, e Event) {
	for _, n := range m {
		n.Notify(ctx, e)
	}
}
