package audit

import "time"

// Entry is a row read back from audit_logs. Writes go through
// shared.AuditLogger; this package only queries the trail.
type Entry struct {
	ID         int64
	ActorID    string
	SaccoID    string
	Action     string
	Entity     string
	EntityID   string
	Meta       map[string]any
	IP         string
	OccurredAt time.Time
}

// Query narrows a timeline request.
type Query struct {
	Entity string
	Action string
	Before time.Time
	Limit  int
}
