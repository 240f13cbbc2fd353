package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/repositories"
	"go.uber.org/zap"
)

// RuleSettingRepository implements the repositories.RuleSettingRepository interface
type RuleSettingRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRuleSettingRepository creates a new rule setting repository
func NewRuleSettingRepository(db *DB, logger *zap.Logger) repositories.RuleSettingRepository {
	return &RuleSettingRepository{
		db:     db,
		logger: logger,
	}
}

// GetAll retrieves every stored rule setting
func (r *RuleSettingRepository) GetAll(ctx context.Context) ([]*models.RuleSetting, error) {
	query := `
		SELECT id, rule_id, enabled, updated_by, created_at, updated_at
		FROM rule_settings
		ORDER BY rule_id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule settings: %w", err)
	}
	defer rows.Close()

	var settings []*models.RuleSetting
	for rows.Next() {
		setting := &models.RuleSetting{}
		err := rows.Scan(
			&setting.ID,
			&setting.RuleID,
			&setting.Enabled,
			&setting.UpdatedBy,
			&setting.CreatedAt,
			&setting.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule setting: %w", err)
		}
		settings = append(settings, setting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule setting rows: %w", err)
	}

	return settings, nil
}

// GetByRuleID retrieves the setting for one rule
func (r *RuleSettingRepository) GetByRuleID(ctx context.Context, ruleID string) (*models.RuleSetting, error) {
	query := `
		SELECT id, rule_id, enabled, updated_by, created_at, updated_at
		FROM rule_settings
		WHERE rule_id = $1
	`

	executor := GetExecutor(ctx, r.db)
	setting := &models.RuleSetting{}

	err := executor.QueryRowContext(ctx, query, ruleID).Scan(
		&setting.ID,
		&setting.RuleID,
		&setting.Enabled,
		&setting.UpdatedBy,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rule setting: %w", err)
	}

	return setting, nil
}

// Upsert inserts or updates the setting for a rule
func (r *RuleSettingRepository) Upsert(ctx context.Context, setting *models.RuleSetting) error {
	query := `
		INSERT INTO rule_settings (id, rule_id, enabled, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (rule_id) DO UPDATE
		SET enabled = EXCLUDED.enabled,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = EXCLUDED.updated_at
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		setting.ID,
		setting.RuleID,
		setting.Enabled,
		setting.UpdatedBy,
		setting.CreatedAt,
		setting.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert rule setting: %w", err)
	}

	r.logger.Debug("rule setting upserted",
		zap.String("rule_id", setting.RuleID),
		zap.Bool("enabled", setting.Enabled))
	return nil
}
