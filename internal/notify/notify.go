// Package notify publishes case lifecycle events to the downstream feed.
// Publishing is best-effort and decoupled from the workflow: the transition
// commits first, the event is queued, and a failed publish is retried without
// ever touching case state.
package notify

import (
	"time"

	id "caseflow/pkg/domain"
)

// EventType labels what happened to the case.
type EventType string

const (
	EventCaseCreated       EventType = "case_created"
	EventStatusChanged     EventType = "status_changed"
	EventSubmissionUpdated EventType = "submission_updated"
	EventPartyLinked       EventType = "party_linked"
	EventCaseDeleted       EventType = "case_deleted"
)

// Event is the wire payload for the case event feed. Keep it flat and
// self-describing: consumers include UI push gateways that do not load the
// case document.
type Event struct {
	Type      EventType `json:"type"`
	CaseID    id.CaseID `json:"case_id"`
	Actor     id.UserID `json:"actor,omitzero"`
	ActorRole string    `json:"actor_role,omitempty"`
	Action    string    `json:"action,omitempty"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Emitter accepts events for asynchronous delivery. Implementations must not
// block the caller beyond a queue handoff.
type Emitter interface {
	Emit(event Event)
}

// Discard is an Emitter that drops everything, for tests and wiring without a
// broker.
type Discard struct{}

func (Discard) Emit(Event) {}
