package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestScopeRoundTrip(t *testing.T) {
	userID := uuid.New()
	scope := Scope{
		TenantID:      uuid.New(),
		UserID:        &userID,
		CorrelationID: "corr-1",
		IPAddress:     "10.0.0.1",
	}

	ctx := ContextWithScope(context.Background(), scope)
	got, ok := ScopeFromContext(ctx)
	if !ok {
		t.Fatal("expected scope in context")
	}
	if got != scope {
		t.Fatalf("scope mismatch: got %+v want %+v", got, scope)
	}
}

func TestScopeFromContext_Absent(t *testing.T) {
	if _, ok := ScopeFromContext(context.Background()); ok {
		t.Fatal("expected no scope in empty context")
	}
	if _, ok := ScopeFromContext(nil); ok {
		t.Fatal("expected no scope in nil context")
	}
}

func TestEnforceTenantScope(t *testing.T) {
	tenantID := uuid.New()

	if err := EnforceTenantScope(context.Background(), uuid.Nil); err == nil {
		t.Fatal("expected error for nil tenant id")
	}

	// No scope present: any tenant passes.
	if err := EnforceTenantScope(context.Background(), tenantID); err != nil {
		t.Fatalf("unexpected error without scope: %v", err)
	}

	ctx := ContextWithScope(context.Background(), Scope{TenantID: tenantID})
	if err := EnforceTenantScope(ctx, tenantID); err != nil {
		t.Fatalf("unexpected error for matching tenant: %v", err)
	}
	if err := EnforceTenantScope(ctx, uuid.New()); err == nil {
		t.Fatal("expected error for mismatched tenant")
	}
}
