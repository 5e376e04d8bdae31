package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tenantops/auditgate/internal/domain"
)

func TestBuildAuditWhere_TenantOnly(t *testing.T) {
	tenantID := uuid.New()
	where, args := buildAuditWhere(tenantID, domain.AuditFilter{})

	if where != "WHERE tenant_id = $1" {
		t.Fatalf("unexpected where clause: %q", where)
	}
	if len(args) != 1 || args[0] != tenantID {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildAuditWhere_AllFilters(t *testing.T) {
	tenantID := uuid.New()
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	where, args := buildAuditWhere(tenantID, domain.AuditFilter{
		Action:        "approve",
		ResourceType:  "recommendation",
		ResourceID:    "r1",
		EventType:     "action_executed",
		CorrelationID: "corr-1",
		Since:         &since,
		Until:         &until,
	})

	if len(args) != 8 {
		t.Fatalf("expected 8 args, got %d: %v", len(args), args)
	}
	for _, fragment := range []string{
		"tenant_id = $1",
		"action = $2",
		"resource_type = $3",
		"resource_id = $4",
		"event_type = $5",
		"correlation_id = $6",
		"created_at >= $7",
		"created_at <= $8",
	} {
		if !strings.Contains(where, fragment) {
			t.Fatalf("where clause missing %q: %q", fragment, where)
		}
	}
}

func TestBuildAuditWhere_SearchMatchesAllColumns(t *testing.T) {
	tenantID := uuid.New()
	where, args := buildAuditWhere(tenantID, domain.AuditFilter{Search: "alice"})

	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[1] != "%alice%" {
		t.Fatalf("expected wildcard-wrapped search term, got %v", args[1])
	}
	for _, fragment := range []string{
		"action ILIKE $2",
		"resource_type ILIKE $2",
		"user_id::text ILIKE $2",
		"correlation_id ILIKE $2",
	} {
		if !strings.Contains(where, fragment) {
			t.Fatalf("where clause missing %q: %q", fragment, where)
		}
	}
}

func TestBuildAuditWhere_SkipsEmptyFilters(t *testing.T) {
	where, args := buildAuditWhere(uuid.New(), domain.AuditFilter{Action: "create"})

	if strings.Contains(where, "resource_type") || strings.Contains(where, "ILIKE") {
		t.Fatalf("unexpected conditions in where clause: %q", where)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}

func TestNullableText(t *testing.T) {
	if nullableText("") != nil {
		t.Fatal("empty string must map to NULL")
	}
	if nullableText("value") != "value" {
		t.Fatal("non-empty string must pass through")
	}
}

func TestMarshalMetadata(t *testing.T) {
	data, err := marshalMetadata(nil)
	if err != nil || data != nil {
		t.Fatalf("empty metadata must map to NULL, got %s, %v", data, err)
	}

	data, err = marshalMetadata(map[string]any{"origin": "api"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"origin":"api"`) {
		t.Fatalf("unexpected metadata payload: %s", data)
	}
}
