package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/repositories"
	"go.uber.org/zap"
)

// AuditEvent represents an event to be audited
type AuditEvent struct {
	Log *models.AuditLog
}

// AuditService handles asynchronous audit logging. Writes are buffered
// through a channel and drained by background workers so audit persistence
// never sits on the request path.
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	ctx, cancel := context.WithCancel(context.Background())

	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
		started:     false,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service
// Waits for all pending events to be processed
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	// Close the event channel (no more events will be accepted)
	close(s.eventChan)

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent logs an event asynchronously (non-blocking)
// Returns immediately, event is processed in background
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.mu.Unlock()

	select {
	case s.eventChan <- event:
		return nil
	default:
		// Channel is full, log warning and drop event
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)))
		return fmt.Errorf("audit event buffer full")
	}
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent processes a single audit event
func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// List retrieves audit log entries with pagination, newest first.
// Reads go straight to the repository; only writes are buffered.
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return s.auditRepo.List(ctx, limit, offset)
}

// Convenience methods for logging common events

// RecordCreated logs the creation of a provisioning record
func (s *AuditService) RecordCreated(ctx context.Context, record *models.ProvisioningRecord, actor string) {
	log := models.NewAuditLog(models.AuditActionRecordCreated, "record").
		WithResource(record.ID).
		WithActor(actor).
		WithDetails(map[string]interface{}{
			"case_number":  record.CaseNumber,
			"request_type": record.RequestType,
			"tenant_name":  record.TenantName,
		})

	_ = s.LogEvent(&AuditEvent{Log: log})
}

// RecordValidated logs a completed validation run for a record
func (s *AuditService) RecordValidated(ctx context.Context, record *models.ProvisioningRecord, run *models.ValidationRun) {
	log := models.NewAuditLog(models.AuditActionRecordValidated, "record").
		WithResource(record.ID).
		WithDetails(map[string]interface{}{
			"run_id":         run.ID,
			"overall_status": run.OverallStatus,
			"rule_count":     run.RuleCount,
			"failed_count":   run.FailedCount,
		})

	_ = s.LogEvent(&AuditEvent{Log: log})
}

// BatchValidation logs the outcome of a batch revalidation
func (s *AuditService) BatchValidation(ctx context.Context, validated, passed, failed int) {
	log := models.NewAuditLog(models.AuditActionBatchValidation, "record").
		WithDetails(map[string]interface{}{
			"validated": validated,
			"passed":    passed,
			"failed":    failed,
		})

	_ = s.LogEvent(&AuditEvent{Log: log})
}

// RecordRuleToggle logs a rule enablement change
func (s *AuditService) RecordRuleToggle(ctx context.Context, ruleID string, enabled bool, actor string) {
	action := models.AuditActionRuleDisabled
	if enabled {
		action = models.AuditActionRuleEnabled
	}

	log := models.NewAuditLog(action, "rule").
		WithActor(actor).
		WithDetails(map[string]interface{}{
			"rule_id": ruleID,
			"enabled": enabled,
		})

	_ = s.LogEvent(&AuditEvent{Log: log})
}
