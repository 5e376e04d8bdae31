// Package audit implements the audit-guarded transactional write layer: the
// single choke point through which every state-mutating operation in the
// platform must pass. Its one guarantee is that no persisted state change
// can exist without a corresponding, atomically committed audit record.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tenantops/auditgate/internal/domain"
)

// Recorder inserts one audit record through the supplied handle. The guard
// calls it on the same transaction as the business mutation; the bootstrap
// path calls it on the bare pool.
type Recorder interface {
	Insert(ctx context.Context, tx Tx, record domain.AuditRecord) (domain.AuditRecord, error)
}

// Guard couples a business mutation and its audit record into a single
// transaction. It holds no mutable state beyond the connection pool, so one
// instance serves arbitrarily many concurrent callers.
type Guard struct {
	pool     Pool
	recorder Recorder
	logger   *zap.Logger
	metrics  *Metrics
}

// NewGuard constructs a guard over the given pool and recorder. A nil
// logger or metrics falls back to no-op implementations.
func NewGuard(pool Pool, recorder Recorder, logger *zap.Logger, metrics *Metrics) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Guard{
		pool:     pool,
		recorder: recorder,
		logger:   logger,
		metrics:  metrics,
	}
}

// WithAudit runs op inside a transaction and inserts one audit record built
// from auditCtx on the same transaction. Both commit together or neither
// does. The op's result is returned only after a successful commit.
//
// Failures are classified: *OperationError when op fails, *AuditError when
// the record cannot be built or inserted, *AcquireError when no connection
// could be obtained, *CommitError when the store refuses the commit. All of
// them mean nothing was persisted.
func WithAudit[T any](ctx context.Context, g *Guard, auditCtx domain.AuditContext, op func(ctx context.Context, tx Tx) (T, error)) (T, error) {
	return guarded(ctx, g, auditCtx, func(ctx context.Context, tx Tx) (any, T, error) {
		result, err := op(ctx, tx)
		return nil, result, err
	}, false)
}

// WithAuditAndCapture is WithAudit, except the operation's return value is
// recorded verbatim as the audit record's new state. Callers must not set
// NewState on the context themselves.
func WithAuditAndCapture[T any](ctx context.Context, g *Guard, auditCtx domain.AuditContext, op func(ctx context.Context, tx Tx) (T, error)) (T, error) {
	return guarded(ctx, g, auditCtx, func(ctx context.Context, tx Tx) (any, T, error) {
		result, err := op(ctx, tx)
		return nil, result, err
	}, true)
}

// WithAuditAndSnapshots is WithAuditAndCapture for operations that also
// record a before-image. The op reads the previous state through its own
// transaction handle and returns it alongside the result, so the snapshot
// reflects the row the mutation actually saw rather than a racy pool read.
func WithAuditAndSnapshots[T any](ctx context.Context, g *Guard, auditCtx domain.AuditContext, op func(ctx context.Context, tx Tx) (previous any, result T, err error)) (T, error) {
	return guarded(ctx, g, auditCtx, op, true)
}

func guarded[T any](ctx context.Context, g *Guard, auditCtx domain.AuditContext, op func(ctx context.Context, tx Tx) (any, T, error), capture bool) (T, error) {
	var zero T

	if err := auditCtx.Validate(); err != nil {
		return zero, &AuditError{Err: err}
	}

	start := time.Now()

	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		g.metrics.AcquireFailures.Inc()
		return zero, &AcquireError{Err: err}
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		g.metrics.AcquireFailures.Inc()
		return zero, &AcquireError{Err: err}
	}

	// A panic inside op must not leave the transaction open.
	defer func() {
		if p := recover(); p != nil {
			g.rollback(ctx, tx, "operation")
			panic(p)
		}
	}()

	previous, result, err := op(ctx, tx)
	if err != nil {
		g.rollback(ctx, tx, "operation")
		g.observe(auditCtx, "operation_failed", start)
		return zero, &OperationError{Err: err}
	}

	if previous != nil {
		auditCtx.PreviousState = previous
	}
	if capture {
		auditCtx.NewState = result
	}

	record, err := domain.NewAuditRecord(auditCtx)
	if err != nil {
		g.rollback(ctx, tx, "audit")
		g.observe(auditCtx, "audit_failed", start)
		return zero, &AuditError{Err: err}
	}

	if _, err := g.recorder.Insert(ctx, tx, record); err != nil {
		g.rollback(ctx, tx, "audit")
		g.observe(auditCtx, "audit_failed", start)
		g.logger.Error("audit record insert failed",
			zap.String("tenant_id", auditCtx.TenantID.String()),
			zap.String("action", auditCtx.Action),
			zap.String("resource_type", auditCtx.ResourceType),
			zap.Error(err),
		)
		return zero, &AuditError{Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		g.rollback(ctx, tx, "commit")
		g.observe(auditCtx, "commit_failed", start)
		return zero, &CommitError{Err: err}
	}

	g.metrics.Commits.WithLabelValues(auditCtx.Action, auditCtx.ResourceType).Inc()
	g.observe(auditCtx, "committed", start)
	g.logger.Debug("guarded transaction committed",
		zap.String("tenant_id", auditCtx.TenantID.String()),
		zap.String("action", auditCtx.Action),
		zap.String("resource_type", auditCtx.ResourceType),
		zap.String("resource_id", auditCtx.ResourceID),
	)

	return result, nil
}

// CreateAuditLogDirect inserts one audit record outside any transaction.
// It exists only so that auditing the audit pipeline itself does not
// recurse into WithAudit; every other write goes through the guard.
func (g *Guard) CreateAuditLogDirect(ctx context.Context, auditCtx domain.AuditContext) (domain.AuditRecord, error) {
	record, err := domain.NewAuditRecord(auditCtx)
	if err != nil {
		return domain.AuditRecord{}, &AuditError{Err: err}
	}

	inserted, err := g.recorder.Insert(ctx, g.pool, record)
	if err != nil {
		return domain.AuditRecord{}, &AuditError{Err: err}
	}

	g.metrics.DirectInserts.Inc()
	return inserted, nil
}

func (g *Guard) rollback(ctx context.Context, tx TxControl, reason string) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		g.logger.Error("rollback failed",
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
	g.metrics.Rollbacks.WithLabelValues(reason).Inc()
}

func (g *Guard) observe(auditCtx domain.AuditContext, outcome string, start time.Time) {
	g.metrics.CallDuration.
		WithLabelValues(auditCtx.Action, auditCtx.ResourceType, outcome).
		Observe(time.Since(start).Seconds())
}
