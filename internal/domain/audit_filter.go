package domain

import "time"

// AuditFilter narrows the read-side listing of committed audit records.
type AuditFilter struct {
	Action        string
	ResourceType  string
	ResourceID    string
	EventType     string
	CorrelationID string
	// Search matches case-insensitively against action, resource type,
	// user id and correlation id.
	Search string
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}

// Normalize applies sane defaults and bounds
func (f *AuditFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
