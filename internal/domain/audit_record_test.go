package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAuditContextValidate_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		ctx     AuditContext
		wantErr bool
	}{
		{
			name: "valid",
			ctx: AuditContext{
				TenantID:     uuid.New(),
				Action:       ActionApprove,
				ResourceType: ResourceTypeRecommendation,
			},
		},
		{
			name:    "missing tenant",
			ctx:     AuditContext{Action: ActionApprove, ResourceType: ResourceTypeRecommendation},
			wantErr: true,
		},
		{
			name:    "missing action",
			ctx:     AuditContext{TenantID: uuid.New(), ResourceType: ResourceTypeRecommendation},
			wantErr: true,
		},
		{
			name:    "missing resource type",
			ctx:     AuditContext{TenantID: uuid.New(), Action: ActionApprove},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ctx.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewAuditRecord_AppliesDefaults(t *testing.T) {
	ctx := AuditContext{
		TenantID:     uuid.New(),
		Action:       ActionCreate,
		ResourceType: ResourceTypeMapping,
	}

	record, err := NewAuditRecord(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.ID == uuid.Nil {
		t.Fatal("expected record identity to be assigned")
	}
	if record.EventType != EventTypeActionExecuted {
		t.Fatalf("expected default event type, got %q", record.EventType)
	}
	if record.SequenceNumber != 0 {
		t.Fatal("sequence number must stay unassigned until insert")
	}
	if !record.CreatedAt.Equal(time.Time{}) {
		t.Fatal("timestamp must stay unassigned until insert")
	}
	if record.PreviousState != nil || record.NewState != nil {
		t.Fatal("absent states must stay nil")
	}
}

func TestNewAuditRecord_MarshalsStates(t *testing.T) {
	ctx := AuditContext{
		TenantID:      uuid.New(),
		Action:        ActionUpdate,
		ResourceType:  ResourceTypeConnector,
		PreviousState: map[string]any{"status": "pending"},
		NewState:      map[string]any{"status": "active"},
	}

	record, err := NewAuditRecord(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var previous, next map[string]any
	if err := json.Unmarshal(record.PreviousState, &previous); err != nil {
		t.Fatalf("previous state is not valid JSON: %v", err)
	}
	if err := json.Unmarshal(record.NewState, &next); err != nil {
		t.Fatalf("new state is not valid JSON: %v", err)
	}
	if previous["status"] != "pending" || next["status"] != "active" {
		t.Fatalf("states not preserved: previous=%v new=%v", previous, next)
	}
}

func TestNewAuditRecord_PassesRawStateThrough(t *testing.T) {
	raw := json.RawMessage(`{"already":"encoded"}`)
	ctx := AuditContext{
		TenantID:     uuid.New(),
		Action:       ActionUpdate,
		ResourceType: ResourceTypeConnector,
		NewState:     raw,
	}

	record, err := NewAuditRecord(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(record.NewState) != string(raw) {
		t.Fatalf("raw state must pass through unchanged, got %s", record.NewState)
	}
}

func TestNewAuditRecord_UnmarshalableStateFails(t *testing.T) {
	ctx := AuditContext{
		TenantID:     uuid.New(),
		Action:       ActionUpdate,
		ResourceType: ResourceTypeConnector,
		NewState:     make(chan int),
	}

	if _, err := NewAuditRecord(ctx); err == nil {
		t.Fatal("expected error for unmarshalable state")
	}
}

func TestAuditFilterNormalize(t *testing.T) {
	f := AuditFilter{Limit: -5, Offset: -1}
	f.Normalize()
	if f.Limit != 100 || f.Offset != 0 {
		t.Fatalf("unexpected normalization: limit=%d offset=%d", f.Limit, f.Offset)
	}

	f = AuditFilter{Limit: 5000}
	f.Normalize()
	if f.Limit != 100 {
		t.Fatalf("expected oversized limit to be clamped, got %d", f.Limit)
	}

	f = AuditFilter{Limit: 25, Offset: 50}
	f.Normalize()
	if f.Limit != 25 || f.Offset != 50 {
		t.Fatalf("valid values must be preserved: limit=%d offset=%d", f.Limit, f.Offset)
	}
}
