package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantops/auditgate/internal/audit"
	"github.com/tenantops/auditgate/internal/domain"
)

const auditRecordColumns = `id, tenant_id, user_id, action, resource_type, resource_id, event_type,
	 previous_state, new_state, correlation_id, parent_event_id, metadata, ip_address,
	 sequence_number, created_at`

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository wires a repository backed by pgxpool.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

// Insert writes one audit record through the supplied handle and scans back
// the store-assigned sequence number and timestamp. A success with no
// returned row is surfaced as audit.ErrNoRowReturned.
func (r *auditLogRepository) Insert(ctx context.Context, tx audit.Tx, record domain.AuditRecord) (domain.AuditRecord, error) {
	if tx == nil {
		return domain.AuditRecord{}, fmt.Errorf("audit log repository requires a data handle")
	}

	metadataJSON, err := marshalMetadata(record.Metadata)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	row := tx.QueryRow(
		ctx,
		`INSERT INTO audit_records (id, tenant_id, user_id, action, resource_type, resource_id,
		     event_type, previous_state, new_state, correlation_id, parent_event_id, metadata, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING sequence_number, created_at`,
		record.ID,
		record.TenantID,
		record.UserID,
		record.Action,
		record.ResourceType,
		nullableText(record.ResourceID),
		record.EventType,
		nullableJSON(record.PreviousState),
		nullableJSON(record.NewState),
		nullableText(record.CorrelationID),
		record.ParentEventID,
		metadataJSON,
		nullableText(record.IPAddress),
	)

	if err := row.Scan(&record.SequenceNumber, &record.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AuditRecord{}, audit.ErrNoRowReturned
		}
		return domain.AuditRecord{}, fmt.Errorf("failed to insert audit record: %w", err)
	}

	return record, nil
}

// GetByID retrieves a committed audit record within a tenant scope.
func (r *auditLogRepository) GetByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (domain.AuditRecord, error) {
	if r.pool == nil {
		return domain.AuditRecord{}, fmt.Errorf("audit log repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT `+auditRecordColumns+`
		 FROM audit_records
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID,
		id,
	)

	record, err := scanAuditRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AuditRecord{}, ErrNotFound
		}
		return domain.AuditRecord{}, fmt.Errorf("failed to get audit record: %w", err)
	}

	return record, nil
}

// List retrieves committed audit records for a tenant, newest first, with
// the total count of matches.
func (r *auditLogRepository) List(ctx context.Context, tenantID uuid.UUID, filter domain.AuditFilter) ([]domain.AuditRecord, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("audit log repository not initialized")
	}

	filter.Normalize()
	where, args := buildAuditWhere(tenantID, filter)

	var total int
	countQuery := `SELECT count(*) FROM audit_records ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	pageQuery := fmt.Sprintf(
		`SELECT `+auditRecordColumns+`
		 FROM audit_records %s
		 ORDER BY sequence_number DESC
		 LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	records := []domain.AuditRecord{}
	for rows.Next() {
		record, scanErr := scanAuditRecord(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan audit record: %w", scanErr)
		}
		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, fmt.Errorf("failed to iterate audit records: %w", rowsErr)
	}

	return records, total, nil
}

// buildAuditWhere assembles the WHERE clause and its arguments for the
// listing filters. Kept pure so it can be tested without a store.
func buildAuditWhere(tenantID uuid.UUID, filter domain.AuditFilter) (string, []any) {
	conditions := []string{"tenant_id = $1"}
	args := []any{tenantID}

	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.ResourceType != "" {
		add("resource_type = $%d", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		add("resource_id = $%d", filter.ResourceID)
	}
	if filter.EventType != "" {
		add("event_type = $%d", filter.EventType)
	}
	if filter.CorrelationID != "" {
		add("correlation_id = $%d", filter.CorrelationID)
	}
	if filter.Since != nil {
		add("created_at >= $%d", *filter.Since)
	}
	if filter.Until != nil {
		add("created_at <= $%d", *filter.Until)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(action ILIKE $%d OR resource_type ILIKE $%d OR user_id::text ILIKE $%d OR correlation_id ILIKE $%d)",
			n, n, n, n,
		))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanAuditRecord(row pgx.Row) (domain.AuditRecord, error) {
	var (
		record        domain.AuditRecord
		userID        pgtype.UUID
		resourceID    pgtype.Text
		previousState []byte
		newState      []byte
		correlationID pgtype.Text
		parentEventID pgtype.UUID
		metadataJSON  []byte
		ipAddress     pgtype.Text
	)

	err := row.Scan(
		&record.ID,
		&record.TenantID,
		&userID,
		&record.Action,
		&record.ResourceType,
		&resourceID,
		&record.EventType,
		&previousState,
		&newState,
		&correlationID,
		&parentEventID,
		&metadataJSON,
		&ipAddress,
		&record.SequenceNumber,
		&record.CreatedAt,
	)
	if err != nil {
		return domain.AuditRecord{}, err
	}

	if userID.Valid {
		id := uuid.UUID(userID.Bytes)
		record.UserID = &id
	}
	if resourceID.Valid {
		record.ResourceID = resourceID.String
	}
	record.PreviousState = previousState
	record.NewState = newState
	if correlationID.Valid {
		record.CorrelationID = correlationID.String
	}
	if parentEventID.Valid {
		id := uuid.UUID(parentEventID.Bytes)
		record.ParentEventID = &id
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
		}
	}
	if ipAddress.Valid {
		record.IPAddress = ipAddress.String
	}

	return record, nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	return json.Marshal(metadata)
}

func nullableText(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableJSON(value json.RawMessage) any {
	if len(value) == 0 {
		return nil
	}
	return []byte(value)
}
