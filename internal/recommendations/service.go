package recommendations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tenantops/auditgate/internal/audit"
	"github.com/tenantops/auditgate/internal/auth"
	"github.com/tenantops/auditgate/internal/domain"
	"github.com/tenantops/auditgate/internal/repository"
)

// Service mutates recommendations exclusively through the audit guard.
// Every method here either commits the mutation together with its audit
// record or leaves no trace at all.
type Service struct {
	guard  *audit.Guard
	repo   repository.RecommendationRepository
	logger *zap.Logger
}

// NewService wires the recommendation operations.
func NewService(guard *audit.Guard, repo repository.RecommendationRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{guard: guard, repo: repo, logger: logger}
}

// Create inserts a pending recommendation. The inserted row is captured as
// the audit record's new state.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, title, body string) (domain.Recommendation, error) {
	if err := auth.EnforceTenantScope(ctx, tenantID); err != nil {
		return domain.Recommendation{}, err
	}
	if title == "" {
		return domain.Recommendation{}, fmt.Errorf("title is required")
	}

	rec := domain.NewRecommendation(tenantID, title, body)
	auditCtx := s.auditContext(ctx, tenantID, domain.ActionCreate, rec.ID)

	return audit.WithAuditAndCapture(ctx, s.guard, auditCtx,
		func(ctx context.Context, tx audit.Tx) (domain.Recommendation, error) {
			return s.repo.CreateTx(ctx, tx, rec)
		})
}

// Approve transitions a recommendation to approved. The updated row is
// captured as the audit record's new state.
func (s *Service) Approve(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (domain.Recommendation, error) {
	if err := auth.EnforceTenantScope(ctx, tenantID); err != nil {
		return domain.Recommendation{}, err
	}

	auditCtx := s.auditContext(ctx, tenantID, domain.ActionApprove, id)

	return audit.WithAuditAndCapture(ctx, s.guard, auditCtx,
		func(ctx context.Context, tx audit.Tx) (domain.Recommendation, error) {
			return s.repo.UpdateStatusTx(ctx, tx, tenantID, id, domain.RecommendationStatusApproved)
		})
}

// Reject transitions a recommendation to rejected, recording explicit
// before/after snapshots. Both snapshots are read through the guarded
// transaction handle, so the before-image is the row the rejection
// actually replaced.
func (s *Service) Reject(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (domain.Recommendation, error) {
	if err := auth.EnforceTenantScope(ctx, tenantID); err != nil {
		return domain.Recommendation{}, err
	}

	auditCtx := s.auditContext(ctx, tenantID, domain.ActionReject, id)

	return audit.WithAuditAndSnapshots(ctx, s.guard, auditCtx,
		func(ctx context.Context, tx audit.Tx) (any, domain.Recommendation, error) {
			previous, err := s.repo.GetByIDTx(ctx, tx, tenantID, id)
			if err != nil {
				return nil, domain.Recommendation{}, err
			}

			updated, err := s.repo.UpdateStatusTx(ctx, tx, tenantID, id, domain.RecommendationStatusRejected)
			if err != nil {
				return nil, domain.Recommendation{}, err
			}

			return previous, updated, nil
		})
}

func (s *Service) auditContext(ctx context.Context, tenantID uuid.UUID, action string, resourceID uuid.UUID) domain.AuditContext {
	scope, _ := auth.ScopeFromContext(ctx)
	return domain.AuditContext{
		TenantID:      tenantID,
		UserID:        scope.UserID,
		Action:        action,
		ResourceType:  domain.ResourceTypeRecommendation,
		ResourceID:    resourceID.String(),
		CorrelationID: scope.CorrelationID,
		IPAddress:     scope.IPAddress,
	}
}
