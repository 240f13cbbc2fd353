package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/repositories"
	"go.uber.org/zap"
)

// ValidationRunRepository implements the repositories.ValidationRunRepository interface
type ValidationRunRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewValidationRunRepository creates a new validation run repository
func NewValidationRunRepository(db *DB, logger *zap.Logger) repositories.ValidationRunRepository {
	return &ValidationRunRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a completed validation run
func (r *ValidationRunRepository) Insert(ctx context.Context, run *models.ValidationRun) error {
	query := `
		INSERT INTO validation_runs (id, record_id, overall_status, rule_results, rule_count, failed_count, tooltip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		run.ID,
		run.RecordID,
		run.OverallStatus,
		run.RuleResults,
		run.RuleCount,
		run.FailedCount,
		run.Tooltip,
		run.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert validation run: %w", err)
	}

	r.logger.Debug("validation run inserted",
		zap.String("id", run.ID.String()),
		zap.String("record_id", run.RecordID.String()),
		zap.String("status", string(run.OverallStatus)))
	return nil
}

// GetLatestByRecordID retrieves the most recent run for a record
func (r *ValidationRunRepository) GetLatestByRecordID(ctx context.Context, recordID uuid.UUID) (*models.ValidationRun, error) {
	query := `
		SELECT id, record_id, overall_status, rule_results, rule_count, failed_count, tooltip, created_at
		FROM validation_runs
		WHERE record_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	executor := GetExecutor(ctx, r.db)
	run := &models.ValidationRun{}

	err := executor.QueryRowContext(ctx, query, recordID).Scan(
		&run.ID,
		&run.RecordID,
		&run.OverallStatus,
		&run.RuleResults,
		&run.RuleCount,
		&run.FailedCount,
		&run.Tooltip,
		&run.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get validation run: %w", err)
	}

	return run, nil
}

// GetByRecordID retrieves the run history for a record, newest first
func (r *ValidationRunRepository) GetByRecordID(ctx context.Context, recordID uuid.UUID, limit, offset int) ([]*models.ValidationRun, error) {
	query := `
		SELECT id, record_id, overall_status, rule_results, rule_count, failed_count, tooltip, created_at
		FROM validation_runs
		WHERE record_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, recordID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query validation runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ValidationRun
	for rows.Next() {
		run := &models.ValidationRun{}
		err := rows.Scan(
			&run.ID,
			&run.RecordID,
			&run.OverallStatus,
			&run.RuleResults,
			&run.RuleCount,
			&run.FailedCount,
			&run.Tooltip,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan validation run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating validation run rows: %w", err)
	}

	return runs, nil
}
