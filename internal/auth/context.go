package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type contextKey string

const scopeKey contextKey = "requestScope"

// Scope carries the authenticated request identity the audit layer records:
// which tenant, which actor, which originating request, from where.
type Scope struct {
	TenantID      uuid.UUID
	UserID        *uuid.UUID
	CorrelationID string
	IPAddress     string
}

// ContextWithScope returns a new context that carries the request scope.
func ContextWithScope(ctx context.Context, scope Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeKey, scope)
}

// ScopeFromContext retrieves the request scope from the context, if any.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	value := ctx.Value(scopeKey)
	if value == nil {
		return Scope{}, false
	}
	scope, ok := value.(Scope)
	if !ok {
		return Scope{}, false
	}
	return scope, true
}

// EnforceTenantScope ensures the provided tenant matches the authenticated
// scope when present.
func EnforceTenantScope(ctx context.Context, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return fmt.Errorf("tenantId is required")
	}
	scope, ok := ScopeFromContext(ctx)
	if !ok || scope.TenantID == uuid.Nil {
		return nil
	}
	if scope.TenantID != tenantID {
		return fmt.Errorf("tenantId %s does not match authenticated scope", tenantID)
	}
	return nil
}
