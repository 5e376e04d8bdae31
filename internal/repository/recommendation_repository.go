package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantops/auditgate/internal/audit"
	"github.com/tenantops/auditgate/internal/domain"
)

type recommendationRepository struct {
	pool *pgxpool.Pool
}

// NewRecommendationRepository wires a repository backed by pgxpool. Reads
// go to the pool; writes demand the guard's transactional handle.
func NewRecommendationRepository(pool *pgxpool.Pool) RecommendationRepository {
	return &recommendationRepository{pool: pool}
}

func (r *recommendationRepository) GetByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (domain.Recommendation, error) {
	if r.pool == nil {
		return domain.Recommendation{}, fmt.Errorf("recommendation repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT id, tenant_id, title, body, status, created_at, updated_at
		 FROM recommendations
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID,
		id,
	)

	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Recommendation{}, ErrNotFound
		}
		return domain.Recommendation{}, fmt.Errorf("failed to get recommendation: %w", err)
	}

	return rec, nil
}

// GetByIDTx reads a recommendation through the transaction handle with a
// row lock, so the snapshot cannot drift from the row the transaction
// subsequently mutates.
func (r *recommendationRepository) GetByIDTx(ctx context.Context, tx audit.Tx, tenantID uuid.UUID, id uuid.UUID) (domain.Recommendation, error) {
	if tx == nil {
		return domain.Recommendation{}, fmt.Errorf("recommendation repository requires a data handle")
	}

	row := tx.QueryRow(
		ctx,
		`SELECT id, tenant_id, title, body, status, created_at, updated_at
		 FROM recommendations
		 WHERE tenant_id = $1 AND id = $2
		 FOR UPDATE`,
		tenantID,
		id,
	)

	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Recommendation{}, ErrNotFound
		}
		return domain.Recommendation{}, fmt.Errorf("failed to get recommendation: %w", err)
	}

	return rec, nil
}

func (r *recommendationRepository) CreateTx(ctx context.Context, tx audit.Tx, rec domain.Recommendation) (domain.Recommendation, error) {
	row := tx.QueryRow(
		ctx,
		`INSERT INTO recommendations (id, tenant_id, title, body, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, tenant_id, title, body, status, created_at, updated_at`,
		rec.ID,
		rec.TenantID,
		rec.Title,
		rec.Body,
		rec.Status,
	)

	created, err := scanRecommendation(row)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("failed to create recommendation: %w", err)
	}

	return created, nil
}

func (r *recommendationRepository) UpdateStatusTx(ctx context.Context, tx audit.Tx, tenantID uuid.UUID, id uuid.UUID, status string) (domain.Recommendation, error) {
	row := tx.QueryRow(
		ctx,
		`UPDATE recommendations
		 SET status = $3, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2
		 RETURNING id, tenant_id, title, body, status, created_at, updated_at`,
		tenantID,
		id,
		status,
	)

	updated, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Recommendation{}, ErrNotFound
		}
		return domain.Recommendation{}, fmt.Errorf("failed to update recommendation status: %w", err)
	}

	return updated, nil
}

func scanRecommendation(row pgx.Row) (domain.Recommendation, error) {
	var rec domain.Recommendation
	err := row.Scan(
		&rec.ID,
		&rec.TenantID,
		&rec.Title,
		&rec.Body,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return domain.Recommendation{}, err
	}
	return rec, nil
}
