package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/psops/provisioning-dashboard/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Provisioning records table
		CREATE TABLE IF NOT EXISTS provisioning_records (
			id UUID PRIMARY KEY,
			case_number VARCHAR(100) NOT NULL UNIQUE,
			salesforce_id VARCHAR(100) NOT NULL,
			tenant_name VARCHAR(255),
			request_type VARCHAR(50) NOT NULL,
			status VARCHAR(50) NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Rule settings table
		CREATE TABLE IF NOT EXISTS rule_settings (
			id UUID PRIMARY KEY,
			rule_id VARCHAR(100) NOT NULL UNIQUE,
			enabled BOOLEAN NOT NULL DEFAULT true,
			updated_by VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Validation runs table
		CREATE TABLE IF NOT EXISTS validation_runs (
			id UUID PRIMARY KEY,
			record_id UUID NOT NULL REFERENCES provisioning_records(id) ON DELETE CASCADE,
			overall_status VARCHAR(10) NOT NULL,
			rule_results JSONB NOT NULL,
			rule_count INTEGER NOT NULL,
			failed_count INTEGER NOT NULL,
			tooltip TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Audit logs table
		CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			action VARCHAR(100) NOT NULL,
			resource_type VARCHAR(100) NOT NULL,
			resource_id UUID,
			actor VARCHAR(255),
			request_id VARCHAR(255),
			details JSONB,
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_provisioning_records_case_number ON provisioning_records(case_number);
		CREATE INDEX IF NOT EXISTS idx_provisioning_records_status ON provisioning_records(status);
		CREATE INDEX IF NOT EXISTS idx_provisioning_records_created_at ON provisioning_records(created_at);

		CREATE INDEX IF NOT EXISTS idx_rule_settings_rule_id ON rule_settings(rule_id);

		CREATE INDEX IF NOT EXISTS idx_validation_runs_record_id ON validation_runs(record_id);
		CREATE INDEX IF NOT EXISTS idx_validation_runs_created_at ON validation_runs(created_at);

		CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_resource_id ON audit_logs(resource_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
