package records

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/repositories"
	"github.com/psops/provisioning-dashboard/services"
	"github.com/psops/provisioning-dashboard/services/validation"
	"go.uber.org/zap"
)

// EnabledRuleProvider supplies the current enabled rule ids. Implemented by
// the settings service; abstracted so record validation can be tested without
// a settings store.
type EnabledRuleProvider interface {
	EnabledRuleIDs(ctx context.Context) ([]string, error)
}

// Auditor records record lifecycle events on the audit trail. Implementations
// must not block the caller; failures are the auditor's problem.
type Auditor interface {
	RecordCreated(ctx context.Context, record *models.ProvisioningRecord, actor string)
	RecordValidated(ctx context.Context, record *models.ProvisioningRecord, run *models.ValidationRun)
	BatchValidation(ctx context.Context, validated, passed, failed int)
}

// CreateRecordInput carries the fields needed to register a provisioning
// record. TenantName is always derived from the payload, never supplied.
type CreateRecordInput struct {
	CaseNumber   string             `json:"case_number" validate:"required"`
	SalesforceID string             `json:"salesforce_id" validate:"required"`
	RequestType  models.RequestType `json:"request_type" validate:"required,oneof=add update remove"`
	Payload      string             `json:"payload"`
	Actor        string             `json:"actor"`
}

// BatchSummary is the outcome of a batch revalidation.
type BatchSummary struct {
	Validated int `json:"validated"`
	Passed    int `json:"passed"`
	Failed    int `json:"failed"`
	Errors    int `json:"errors"`
}

// Service orchestrates provisioning records and their validation runs.
type Service struct {
	records      repositories.RecordRepository
	runs         repositories.ValidationRunRepository
	tx           repositories.TransactionManager
	settings     EnabledRuleProvider
	engine       *validation.Service
	auditor      Auditor
	batchWorkers int
	pageSize     int
	logger       *zap.Logger
}

// NewService creates a new records Service instance
func NewService(
	records repositories.RecordRepository,
	runs repositories.ValidationRunRepository,
	tx repositories.TransactionManager,
	settings EnabledRuleProvider,
	engine *validation.Service,
	auditor Auditor,
	batchWorkers, pageSize int,
	logger *zap.Logger,
) *Service {
	if batchWorkers < 1 {
		batchWorkers = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}
	return &Service{
		records:      records,
		runs:         runs,
		tx:           tx,
		settings:     settings,
		engine:       engine,
		auditor:      auditor,
		batchWorkers: batchWorkers,
		pageSize:     pageSize,
		logger:       logger,
	}
}

// CreateRecord registers a new provisioning record. The tenant name is pulled
// out of the payload up front so list views never need to parse payloads.
func (s *Service) CreateRecord(ctx context.Context, input CreateRecordInput) (*models.ProvisioningRecord, error) {
	if input.CaseNumber == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "case_number")
	}
	switch input.RequestType {
	case models.RequestTypeAdd, models.RequestTypeUpdate, models.RequestTypeRemove:
	default:
		return nil, services.ErrInvalidRequestType.WithDetail("request_type", string(input.RequestType))
	}

	record := models.NewProvisioningRecord(input.CaseNumber, input.SalesforceID, input.RequestType, input.Payload)
	record.TenantName = validation.ParseTenantName(input.Payload)

	// Case-number check and insert share one transaction; the unique index
	// still backstops concurrent creates.
	err := services.WithTransaction(ctx, s.tx, func(txCtx context.Context) error {
		if _, err := s.records.GetByCaseNumber(txCtx, input.CaseNumber); err == nil {
			return services.ErrDuplicateCaseNumber.WithDetail("case_number", input.CaseNumber)
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return services.WrapInternal("failed to check case number", err)
		}

		if err := s.records.Create(txCtx, record); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return services.ErrDuplicateCaseNumber.WithDetail("case_number", input.CaseNumber)
			}
			return services.WrapInternal("failed to create record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("provisioning record created",
		zap.String("id", record.ID.String()),
		zap.String("case_number", record.CaseNumber),
		zap.String("tenant_name", record.TenantName))

	if s.auditor != nil {
		s.auditor.RecordCreated(ctx, record, input.Actor)
	}

	return record, nil
}

// GetRecord retrieves one record by id
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*models.ProvisioningRecord, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrRecordNotFound
		}
		return nil, services.WrapInternal("failed to get record", err)
	}
	return record, nil
}

// ListRecords retrieves records with pagination, newest first. An empty
// status means no filter.
func (s *Service) ListRecords(ctx context.Context, status models.RecordStatus, limit, offset int) ([]*models.ProvisioningRecord, error) {
	if limit < 1 || limit > 200 {
		limit = s.pageSize
	}
	if offset < 0 {
		offset = 0
	}

	var (
		records []*models.ProvisioningRecord
		err     error
	)
	switch status {
	case "":
		records, err = s.records.List(ctx, limit, offset)
	case models.RecordStatusOpen, models.RecordStatusInProgress, models.RecordStatusCompleted, models.RecordStatusCancelled:
		records, err = s.records.ListByStatus(ctx, status, limit, offset)
	default:
		return nil, services.ErrInvalidInput.WithDetail("status", string(status))
	}
	if err != nil {
		return nil, services.WrapInternal("failed to list records", err)
	}
	if records == nil {
		records = []*models.ProvisioningRecord{}
	}
	return records, nil
}

// ValidateRecord runs the enabled rules against one record and persists the
// outcome as a new validation run. Earlier runs are kept as history.
func (s *Service) ValidateRecord(ctx context.Context, id uuid.UUID) (*models.ValidationRun, error) {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.validateAndStore(ctx, record)
}

// LatestValidation retrieves the most recent validation run for a record
func (s *Service) LatestValidation(ctx context.Context, id uuid.UUID) (*models.ValidationRun, error) {
	if _, err := s.GetRecord(ctx, id); err != nil {
		return nil, err
	}

	run, err := s.runs.GetLatestByRecordID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrValidationRunNotFound
		}
		return nil, services.WrapInternal("failed to get validation run", err)
	}
	return run, nil
}

// ValidationHistory retrieves past validation runs for a record, newest first
func (s *Service) ValidationHistory(ctx context.Context, id uuid.UUID, limit, offset int) ([]*models.ValidationRun, error) {
	if _, err := s.GetRecord(ctx, id); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 200 {
		limit = s.pageSize
	}
	if offset < 0 {
		offset = 0
	}

	runs, err := s.runs.GetByRecordID(ctx, id, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to get validation history", err)
	}
	if runs == nil {
		runs = []*models.ValidationRun{}
	}
	return runs, nil
}

// ValidateAll revalidates every record through a bounded worker pool. The
// enabled rule set is snapshotted once so every record in the batch is judged
// by the same rules even if someone toggles a rule mid-batch.
func (s *Service) ValidateAll(ctx context.Context) (BatchSummary, error) {
	enabledIDs, err := s.settings.EnabledRuleIDs(ctx)
	if err != nil {
		return BatchSummary{}, err
	}

	var summary BatchSummary
	var mu sync.Mutex
	var wg sync.WaitGroup

	jobs := make(chan *models.ProvisioningRecord)

	for i := 0; i < s.batchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range jobs {
				run, err := s.storeRun(ctx, record, enabledIDs)

				mu.Lock()
				if err != nil {
					summary.Errors++
				} else {
					summary.Validated++
					if run.OverallStatus == models.StatusPass {
						summary.Passed++
					} else {
						summary.Failed++
					}
				}
				mu.Unlock()

				if err != nil {
					s.logger.Error("batch validation failed for record",
						zap.String("record_id", record.ID.String()),
						zap.Error(err))
				}
			}
		}()
	}

	feedErr := s.feedRecords(ctx, jobs)
	close(jobs)
	wg.Wait()

	if feedErr != nil {
		return summary, services.WrapInternal("failed to list records for batch validation", feedErr)
	}

	s.logger.Info("batch validation completed",
		zap.Int("validated", summary.Validated),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("errors", summary.Errors))

	if s.auditor != nil {
		s.auditor.BatchValidation(ctx, summary.Validated, summary.Passed, summary.Failed)
	}

	return summary, nil
}

// feedRecords pages through the record table and pushes each record onto the
// jobs channel.
func (s *Service) feedRecords(ctx context.Context, jobs chan<- *models.ProvisioningRecord) error {
	offset := 0
	for {
		page, err := s.records.List(ctx, s.pageSize, offset)
		if err != nil {
			return err
		}
		for _, record := range page {
			select {
			case jobs <- record:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if len(page) < s.pageSize {
			return nil
		}
		offset += s.pageSize
	}
}

func (s *Service) validateAndStore(ctx context.Context, record *models.ProvisioningRecord) (*models.ValidationRun, error) {
	enabledIDs, err := s.settings.EnabledRuleIDs(ctx)
	if err != nil {
		return nil, err
	}
	return s.storeRun(ctx, record, enabledIDs)
}

func (s *Service) storeRun(ctx context.Context, record *models.ProvisioningRecord, enabledIDs []string) (*models.ValidationRun, error) {
	result := s.engine.ValidateRecord(record.Payload, enabledIDs)
	run := models.NewValidationRun(record.ID, result, validation.Tooltip(result))

	if err := s.runs.Insert(ctx, run); err != nil {
		return nil, services.WrapInternal("failed to store validation run", err)
	}

	s.logger.Debug("record validated",
		zap.String("record_id", record.ID.String()),
		zap.String("status", string(run.OverallStatus)),
		zap.Int("failed_count", run.FailedCount))

	if s.auditor != nil {
		s.auditor.RecordValidated(ctx, record, run)
	}

	return run, nil
}
