// Package audit records who did what to principals and subscribers. Every
// significant mutation (user CRUD, subscriber CRUD, login, logout, API token
// issue) is captured as an Entry and persisted to the audit_log table.
//
// Audit writes are observations only: callers treat them as fire-and-forget
// and a failed write never blocks the request that caused it.
package audit

import "time"

// --- Action Constants ---
// Each action string follows the pattern "resource.verb" for consistent
// filtering and display grouping.

const (
	ActionUserCreated = "user.created"
	ActionUserUpdated = "user.updated"
	ActionUserDeleted = "user.deleted"

	ActionSubscriberCreated = "subscriber.created"
	ActionSubscriberUpdated = "subscriber.updated"
	ActionSubscriberDeleted = "subscriber.deleted"

	// ActionSessionLogin is logged on a successful browser login.
	ActionSessionLogin = "session.login"

	// ActionSessionLogout is logged when a browser session is destroyed.
	ActionSessionLogout = "session.logout"

	// ActionTokenIssued is logged when the API login hands out a bearer token.
	ActionTokenIssued = "token.issued"
)

// Entry is a single recorded action. ActorID is empty for anonymous actions
// (registration from the public form). Details holds action-specific
// metadata.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    string         `json:"actorId,omitempty"`
	Action     string         `json:"action"`
	TargetType string         `json:"targetType,omitempty"`
	TargetID   string         `json:"targetId,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
