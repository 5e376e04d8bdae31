package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tenantops/auditgate/internal/audit"
	"github.com/tenantops/auditgate/internal/auth"
	"github.com/tenantops/auditgate/internal/domain"
	"github.com/tenantops/auditgate/internal/repository"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) handleListAuditRecords(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	filter := parseAuditFilter(r)
	records, total, err := s.auditLogs.List(r.Context(), tenantID, filter)
	if err != nil {
		s.logger.Error("failed to list audit records", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func (s *Server) handleGetAuditRecord(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_id")
		return
	}

	record, err := s.auditLogs.GetByID(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "not_found")
			return
		}
		s.logger.Error("failed to get audit record", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCreateRecommendation(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var in struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json")
		return
	}

	rec, err := s.recommendations.Create(r.Context(), tenantID, in.Title, in.Body)
	if err != nil {
		s.writeGuardedErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleApproveRecommendation(w http.ResponseWriter, r *http.Request) {
	s.handleRecommendationAction(w, r, s.recommendations.Approve)
}

func (s *Server) handleRejectRecommendation(w http.ResponseWriter, r *http.Request) {
	s.handleRecommendationAction(w, r, s.recommendations.Reject)
}

func (s *Server) handleRecommendationAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (domain.Recommendation, error),
) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_id")
		return
	}

	rec, err := action(r.Context(), tenantID, id)
	if err != nil {
		s.writeGuardedErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// writeGuardedErr maps guard error kinds onto HTTP statuses. Any error from
// the guard means nothing was persisted.
func (s *Server) writeGuardedErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found")
	case audit.IsAuditError(err):
		s.logger.Error("audit pipeline failure", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "audit_failed")
	case audit.IsAcquireError(err):
		s.logger.Error("connection acquisition failure", zap.Error(err))
		writeErr(w, http.StatusServiceUnavailable, "store_unavailable")
	case audit.IsCommitError(err):
		s.logger.Error("commit failure", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "commit_failed")
	case audit.IsOperationError(err):
		writeErr(w, http.StatusUnprocessableEntity, "operation_failed")
	default:
		// Validation and scope errors land here; the detail stays in the
		// server log.
		s.logger.Warn("request rejected", zap.Error(err))
		writeErr(w, http.StatusBadRequest, "invalid_request")
	}
}

func tenantFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	scope, ok := auth.ScopeFromContext(r.Context())
	if !ok || scope.TenantID == uuid.Nil {
		writeErr(w, http.StatusBadRequest, "missing_tenant")
		return uuid.Nil, false
	}
	return scope.TenantID, true
}

func parseAuditFilter(r *http.Request) domain.AuditFilter {
	q := r.URL.Query()
	f := domain.AuditFilter{
		Action:        q.Get("action"),
		ResourceType:  q.Get("resourceType"),
		ResourceID:    q.Get("resourceId"),
		EventType:     q.Get("eventType"),
		CorrelationID: q.Get("correlationId"),
		Search:        q.Get("search"),
	}
	if v := q.Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.Since = &t
		}
	}
	if v := q.Get("until"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.Until = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = n
		}
	}
	f.Normalize()
	return f
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErr(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
