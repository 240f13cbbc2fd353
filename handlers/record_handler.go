package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/psops/provisioning-dashboard/middleware"
	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/services/records"
	"github.com/psops/provisioning-dashboard/utils"
	"go.uber.org/zap"
)

// CreateRecordRequest represents a request to register a provisioning record
type CreateRecordRequest struct {
	CaseNumber   string `json:"case_number" validate:"required"`
	SalesforceID string `json:"salesforce_id"`
	RequestType  string `json:"request_type" validate:"required,oneof=add update remove"`
	Payload      string `json:"payload"`
}

// RecordResponse represents a provisioning record in API responses
type RecordResponse struct {
	ID           uuid.UUID `json:"id"`
	CaseNumber   string    `json:"case_number"`
	SalesforceID string    `json:"salesforce_id,omitempty"`
	TenantName   string    `json:"tenant_name,omitempty"`
	RequestType  string    `json:"request_type"`
	Status       string    `json:"status"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

// ValidationRunResponse represents a stored validation run in API responses
type ValidationRunResponse struct {
	ID            uuid.UUID       `json:"id"`
	RecordID      uuid.UUID       `json:"record_id"`
	OverallStatus string          `json:"overall_status"`
	RuleResults   json.RawMessage `json:"rule_results"`
	RuleCount     int             `json:"rule_count"`
	FailedCount   int             `json:"failed_count"`
	Tooltip       string          `json:"tooltip"`
	CreatedAt     string          `json:"created_at"`
}

// RecordHandler handles provisioning record HTTP requests
type RecordHandler struct {
	records *records.Service
	logger  *zap.Logger
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(records *records.Service, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		records: records,
		logger:  logger,
	}
}

// HandleCreateRecord handles POST /v1/records
func (h *RecordHandler) HandleCreateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	record, err := h.records.CreateRecord(ctx, records.CreateRecordInput{
		CaseNumber:   req.CaseNumber,
		SalesforceID: req.SalesforceID,
		RequestType:  models.RequestType(req.RequestType),
		Payload:      req.Payload,
		Actor:        middleware.GetActorFromContext(ctx),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("record created",
		zap.String("request_id", requestID),
		zap.String("record_id", record.ID.String()),
		zap.String("case_number", record.CaseNumber))

	_ = utils.WriteCreated(w, recordToResponse(record))
}

// HandleListRecords handles GET /v1/records
func (h *RecordHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}

	status := models.RecordStatus(r.URL.Query().Get("status"))

	list, err := h.records.ListRecords(ctx, status, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]RecordResponse, len(list))
	for i, record := range list {
		responses[i] = recordToResponse(record)
	}

	h.logger.Debug("listed records",
		zap.String("request_id", requestID),
		zap.String("status", string(status)),
		zap.Int("count", len(responses)))

	_ = utils.WriteOK(w, responses)
}

// HandleGetRecord handles GET /v1/records/{id}
func (h *RecordHandler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	record, err := h.records.GetRecord(ctx, recordID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, recordToResponse(record))
}

// HandleValidateRecord handles POST /v1/records/{id}/validate
func (h *RecordHandler) HandleValidateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	run, err := h.records.ValidateRecord(ctx, recordID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("record validated",
		zap.String("request_id", requestID),
		zap.String("record_id", recordID.String()),
		zap.String("status", string(run.OverallStatus)))

	_ = utils.WriteOK(w, runToResponse(run))
}

// HandleLatestValidation handles GET /v1/records/{id}/validation
func (h *RecordHandler) HandleLatestValidation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	run, err := h.records.LatestValidation(ctx, recordID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, runToResponse(run))
}

// HandleValidationHistory handles GET /v1/records/{id}/validation/history
func (h *RecordHandler) HandleValidationHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}

	runs, err := h.records.ValidationHistory(ctx, recordID, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]ValidationRunResponse, len(runs))
	for i, run := range runs {
		responses[i] = runToResponse(run)
	}

	_ = utils.WriteOK(w, responses)
}

// HandleValidateAll handles POST /v1/records/validate
func (h *RecordHandler) HandleValidateAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	summary, err := h.records.ValidateAll(ctx)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("batch validation requested",
		zap.String("request_id", requestID),
		zap.Int("validated", summary.Validated),
		zap.Int("errors", summary.Errors))

	_ = utils.WriteOK(w, summary)
}

// parseRecordID extracts and parses the record id path parameter. On failure
// it writes the error response and returns false.
func parseRecordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	recordID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid record ID format", nil)
		return uuid.Nil, false
	}
	return recordID, true
}

// parsePagination reads limit/offset query parameters, leaving zero values for
// the service layer to default.
func parsePagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid limit format", nil)
			return 0, 0, false
		}
		limit = parsed
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid offset format", nil)
			return 0, 0, false
		}
		offset = parsed
	}
	return limit, offset, true
}

// recordToResponse converts a ProvisioningRecord model to a RecordResponse
func recordToResponse(record *models.ProvisioningRecord) RecordResponse {
	return RecordResponse{
		ID:           record.ID,
		CaseNumber:   record.CaseNumber,
		SalesforceID: record.SalesforceID,
		TenantName:   record.TenantName,
		RequestType:  string(record.RequestType),
		Status:       string(record.Status),
		CreatedAt:    record.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    record.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// runToResponse converts a ValidationRun model to a ValidationRunResponse
func runToResponse(run *models.ValidationRun) ValidationRunResponse {
	return ValidationRunResponse{
		ID:            run.ID,
		RecordID:      run.RecordID,
		OverallStatus: string(run.OverallStatus),
		RuleResults:   run.RuleResults,
		RuleCount:     run.RuleCount,
		FailedCount:   run.FailedCount,
		Tooltip:       run.Tooltip,
		CreatedAt:     run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
