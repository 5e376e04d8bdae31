package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tenantops/auditgate/internal/audit"
	"github.com/tenantops/auditgate/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist within the
// caller's tenant scope.
var ErrNotFound = errors.New("not found")

// AuditLogRepository defines the interface for audit record persistence.
// Insert is only ever called by the guard; the rest is the committed-data
// read path consumed by the audit query surface.
type AuditLogRepository interface {
	Insert(ctx context.Context, tx audit.Tx, record domain.AuditRecord) (domain.AuditRecord, error)
	GetByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (domain.AuditRecord, error)
	List(ctx context.Context, tenantID uuid.UUID, filter domain.AuditFilter) ([]domain.AuditRecord, int, error)
}

// RecommendationRepository defines the interface for recommendation
// operations. Write methods require a transactional handle, so they cannot
// run outside the audit guard. GetByIDTx is the locking before-read used
// when a mutation records a previous-state snapshot; it must see the same
// row the mutation will change.
type RecommendationRepository interface {
	GetByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (domain.Recommendation, error)
	GetByIDTx(ctx context.Context, tx audit.Tx, tenantID uuid.UUID, id uuid.UUID) (domain.Recommendation, error)
	CreateTx(ctx context.Context, tx audit.Tx, rec domain.Recommendation) (domain.Recommendation, error)
	UpdateStatusTx(ctx context.Context, tx audit.Tx, tenantID uuid.UUID, id uuid.UUID, status string) (domain.Recommendation, error)
}
