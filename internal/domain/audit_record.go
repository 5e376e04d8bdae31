package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Well-known audit actions. The column is free text; these cover the verbs
// the platform emits today.
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionLogin   = "login"
	ActionView    = "view"
)

// Resource type taxonomy keys.
const (
	ResourceTypeRecommendation = "recommendation"
	ResourceTypeMapping        = "mapping"
	ResourceTypeConnector      = "connector"
	ResourceTypeAuditLog       = "audit_log"
)

// EventTypeActionExecuted is the default event classification applied when a
// caller does not supply a finer-grained one.
const EventTypeActionExecuted = "action_executed"

// AuditRecord is an immutable, committed audit entry. Every state-mutating
// operation in the platform produces exactly one of these, atomically with
// the mutation itself.
type AuditRecord struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	UserID         *uuid.UUID      `json:"user_id,omitempty"`
	Action         string          `json:"action"`
	ResourceType   string          `json:"resource_type"`
	ResourceID     string          `json:"resource_id,omitempty"`
	EventType      string          `json:"event_type"`
	PreviousState  json.RawMessage `json:"previous_state,omitempty"`
	NewState       json.RawMessage `json:"new_state,omitempty"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	ParentEventID  *uuid.UUID      `json:"parent_event_id,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	IPAddress      string          `json:"ip_address,omitempty"`
	SequenceNumber int64           `json:"sequence_number"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AuditContext is the caller-supplied description of a mutation. It carries
// every AuditRecord field except the ones the store assigns at insert time
// (identity, sequence number, timestamp).
type AuditContext struct {
	TenantID      uuid.UUID
	UserID        *uuid.UUID
	Action        string
	ResourceType  string
	ResourceID    string
	EventType     string
	PreviousState any
	NewState      any
	CorrelationID string
	ParentEventID *uuid.UUID
	Metadata      map[string]any
	IPAddress     string
}

// Validate checks the required fields.
func (c AuditContext) Validate() error {
	if c.TenantID == uuid.Nil {
		return fmt.Errorf("audit context requires a tenant id")
	}
	if c.Action == "" {
		return fmt.Errorf("audit context requires an action")
	}
	if c.ResourceType == "" {
		return fmt.Errorf("audit context requires a resource type")
	}
	return nil
}

// NewAuditRecord builds a record from a context, assigning its identity and
// applying defaults. Sequence number and timestamp stay zero until the store
// assigns them.
func NewAuditRecord(c AuditContext) (AuditRecord, error) {
	if err := c.Validate(); err != nil {
		return AuditRecord{}, err
	}

	previous, err := marshalState(c.PreviousState)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("failed to marshal previous state: %w", err)
	}
	next, err := marshalState(c.NewState)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("failed to marshal new state: %w", err)
	}

	eventType := c.EventType
	if eventType == "" {
		eventType = EventTypeActionExecuted
	}

	return AuditRecord{
		ID:            uuid.New(),
		TenantID:      c.TenantID,
		UserID:        c.UserID,
		Action:        c.Action,
		ResourceType:  c.ResourceType,
		ResourceID:    c.ResourceID,
		EventType:     eventType,
		PreviousState: previous,
		NewState:      next,
		CorrelationID: c.CorrelationID,
		ParentEventID: c.ParentEventID,
		Metadata:      c.Metadata,
		IPAddress:     c.IPAddress,
	}, nil
}

func marshalState(state any) (json.RawMessage, error) {
	if state == nil {
		return nil, nil
	}
	if raw, ok := state.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return data, nil
}
