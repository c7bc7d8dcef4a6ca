package models

import "time"

// AuditEntry is one recorded marketplace action: a negotiation transition,
// a moderation decision, or a listing change. Entries are append-only and
// written asynchronously off the request path.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`      // e.g. "application.accept", "property.moderate"
	EntityType string         `json:"entity_type"` // "application" or "property"
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor,omitempty"` // email of the acting user, empty for system actions
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOpts filters an audit log query. Zero values mean no filter.
type AuditQueryOpts struct {
	EntityType string
	EntityID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}
