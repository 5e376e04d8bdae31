package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tenantops/auditgate/internal/auth"
)

// Headers the platform's edge supplies after authentication. Session
// handling itself lives outside this layer.
const (
	HeaderTenantID      = "X-Tenant-ID"
	HeaderUserID        = "X-User-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// RequestScope extracts the tenant, actor and correlation identity from
// request headers into the context. A missing correlation id is assigned
// here, so every mutation triggered by this request shares one.
func RequestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := auth.Scope{
			CorrelationID: r.Header.Get(HeaderCorrelationID),
			IPAddress:     ClientIP(r.RemoteAddr),
		}

		if scope.CorrelationID == "" {
			scope.CorrelationID = uuid.NewString()
		}

		if raw := r.Header.Get(HeaderTenantID); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				scope.TenantID = id
			}
		}
		if raw := r.Header.Get(HeaderUserID); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				scope.UserID = &id
			}
		}

		w.Header().Set(HeaderCorrelationID, scope.CorrelationID)
		next.ServeHTTP(w, r.WithContext(auth.ContextWithScope(r.Context(), scope)))
	})
}
