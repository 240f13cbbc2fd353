package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/repositories"
	"go.uber.org/zap"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// RecordRepository implements the repositories.RecordRepository interface
type RecordRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRecordRepository creates a new provisioning record repository
func NewRecordRepository(db *DB, logger *zap.Logger) repositories.RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new provisioning record
func (r *RecordRepository) Create(ctx context.Context, record *models.ProvisioningRecord) error {
	query := `
		INSERT INTO provisioning_records (id, case_number, salesforce_id, tenant_name, request_type, status, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		record.ID,
		record.CaseNumber,
		record.SalesforceID,
		record.TenantName,
		record.RequestType,
		record.Status,
		record.Payload,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return fmt.Errorf("case number %s: %w", record.CaseNumber, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create provisioning record: %w", err)
	}

	r.logger.Debug("provisioning record created",
		zap.String("id", record.ID.String()),
		zap.String("case_number", record.CaseNumber))
	return nil
}

// GetByID retrieves a record by ID
func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProvisioningRecord, error) {
	query := `
		SELECT id, case_number, salesforce_id, tenant_name, request_type, status, payload, created_at, updated_at
		FROM provisioning_records
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	return r.scanRecord(executor.QueryRowContext(ctx, query, id))
}

// GetByCaseNumber retrieves a record by its case number
func (r *RecordRepository) GetByCaseNumber(ctx context.Context, caseNumber string) (*models.ProvisioningRecord, error) {
	query := `
		SELECT id, case_number, salesforce_id, tenant_name, request_type, status, payload, created_at, updated_at
		FROM provisioning_records
		WHERE case_number = $1
	`

	executor := GetExecutor(ctx, r.db)
	return r.scanRecord(executor.QueryRowContext(ctx, query, caseNumber))
}

// List retrieves records with pagination, newest first
func (r *RecordRepository) List(ctx context.Context, limit, offset int) ([]*models.ProvisioningRecord, error) {
	query := `
		SELECT id, case_number, salesforce_id, tenant_name, request_type, status, payload, created_at, updated_at
		FROM provisioning_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	return r.queryRecords(ctx, query, limit, offset)
}

// ListByStatus retrieves records in a given status with pagination
func (r *RecordRepository) ListByStatus(ctx context.Context, status models.RecordStatus, limit, offset int) ([]*models.ProvisioningRecord, error) {
	query := `
		SELECT id, case_number, salesforce_id, tenant_name, request_type, status, payload, created_at, updated_at
		FROM provisioning_records
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryRecords(ctx, query, status, limit, offset)
}

// Update updates a record
func (r *RecordRepository) Update(ctx context.Context, record *models.ProvisioningRecord) error {
	query := `
		UPDATE provisioning_records
		SET tenant_name = $2, request_type = $3, status = $4, payload = $5, updated_at = $6
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		record.ID,
		record.TenantName,
		record.RequestType,
		record.Status,
		record.Payload,
		record.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update provisioning record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("provisioning record %s: %w", record.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("provisioning record updated", zap.String("id", record.ID.String()))
	return nil
}

// Count returns the total number of records
func (r *RecordRepository) Count(ctx context.Context) (int, error) {
	executor := GetExecutor(ctx, r.db)

	var count int
	if err := executor.QueryRowContext(ctx, "SELECT COUNT(*) FROM provisioning_records").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count provisioning records: %w", err)
	}
	return count, nil
}

func (r *RecordRepository) scanRecord(row *sql.Row) (*models.ProvisioningRecord, error) {
	record := &models.ProvisioningRecord{}
	err := row.Scan(
		&record.ID,
		&record.CaseNumber,
		&record.SalesforceID,
		&record.TenantName,
		&record.RequestType,
		&record.Status,
		&record.Payload,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get provisioning record: %w", err)
	}

	return record, nil
}

// queryRecords is a helper method to query multiple records
func (r *RecordRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*models.ProvisioningRecord, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query provisioning records: %w", err)
	}
	defer rows.Close()

	var records []*models.ProvisioningRecord
	for rows.Next() {
		record := &models.ProvisioningRecord{}
		err := rows.Scan(
			&record.ID,
			&record.CaseNumber,
			&record.SalesforceID,
			&record.TenantName,
			&record.RequestType,
			&record.Status,
			&record.Payload,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provisioning record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provisioning record rows: %w", err)
	}

	return records, nil
}
