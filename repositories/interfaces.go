package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/psops/provisioning-dashboard/models"
)

// ErrNotFound is returned by repositories when a row does not exist. The
// service layer maps it onto its own error taxonomy.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate")

// TransactionManager runs units of work inside database transactions. The
// transaction is carried on the context handed to fn, so repository calls made
// with that context execute against it.
type TransactionManager interface {
	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// RecordRepository handles provisioning record data operations
type RecordRepository interface {
	// Create creates a new provisioning record
	Create(ctx context.Context, record *models.ProvisioningRecord) error

	// GetByID retrieves a record by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProvisioningRecord, error)

	// GetByCaseNumber retrieves a record by its case number
	GetByCaseNumber(ctx context.Context, caseNumber string) (*models.ProvisioningRecord, error)

	// List retrieves records with pagination, newest first
	List(ctx context.Context, limit, offset int) ([]*models.ProvisioningRecord, error)

	// ListByStatus retrieves records in a given status with pagination
	ListByStatus(ctx context.Context, status models.RecordStatus, limit, offset int) ([]*models.ProvisioningRecord, error)

	// Update updates a record
	Update(ctx context.Context, record *models.ProvisioningRecord) error

	// Count returns the total number of records
	Count(ctx context.Context) (int, error)
}

// RuleSettingRepository handles rule enablement data operations
type RuleSettingRepository interface {
	// GetAll retrieves every stored rule setting
	GetAll(ctx context.Context) ([]*models.RuleSetting, error)

	// GetByRuleID retrieves the setting for one rule
	GetByRuleID(ctx context.Context, ruleID string) (*models.RuleSetting, error)

	// Upsert inserts or updates the setting for a rule
	Upsert(ctx context.Context, setting *models.RuleSetting) error
}

// ValidationRunRepository handles validation run data operations
type ValidationRunRepository interface {
	// Insert stores a completed validation run
	Insert(ctx context.Context, run *models.ValidationRun) error

	// GetLatestByRecordID retrieves the most recent run for a record
	GetLatestByRecordID(ctx context.Context, recordID uuid.UUID) (*models.ValidationRun, error)

	// GetByRecordID retrieves the run history for a record, newest first
	GetByRecordID(ctx context.Context, recordID uuid.UUID, limit, offset int) ([]*models.ValidationRun, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// List retrieves audit logs with pagination, newest first
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)

	// GetByResourceID retrieves audit logs for a resource with pagination
	GetByResourceID(ctx context.Context, resourceID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)

	// GetByAction retrieves audit logs by action type
	GetByAction(ctx context.Context, action models.AuditAction, limit, offset int) ([]*models.AuditLog, error)

	// GetByDateRange retrieves audit logs within a date range
	GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Records        RecordRepository
	RuleSettings   RuleSettingRepository
	ValidationRuns ValidationRunRepository
	AuditLogs      AuditRepository
}
