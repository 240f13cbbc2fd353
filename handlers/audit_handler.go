package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/psops/provisioning-dashboard/middleware"
	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/services/audit"
	"github.com/psops/provisioning-dashboard/utils"
	"go.uber.org/zap"
)

// AuditLogResponse represents an audit trail entry in API responses
type AuditLogResponse struct {
	ID           uuid.UUID  `json:"id"`
	Action       string     `json:"action"`
	ResourceType string     `json:"resource_type"`
	ResourceID   *uuid.UUID `json:"resource_id,omitempty"`
	Actor        string     `json:"actor,omitempty"`
	Details      string     `json:"details,omitempty"`
	Timestamp    string     `json:"timestamp"`
}

// AuditHandler handles audit trail HTTP requests
type AuditHandler struct {
	audit  *audit.AuditService
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit *audit.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		logger: logger,
	}
}

// HandleListAuditLogs handles GET /v1/audit
func (h *AuditHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := h.audit.List(ctx, limit, offset)
	if err != nil {
		h.logger.Error("failed to list audit logs",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve audit logs")
		return
	}

	responses := make([]AuditLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = auditLogToResponse(log)
	}

	_ = utils.WriteOK(w, responses)
}

// auditLogToResponse converts an AuditLog model to an AuditLogResponse
func auditLogToResponse(log *models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:           log.ID,
		Action:       string(log.Action),
		ResourceType: log.ResourceType,
		ResourceID:   log.ResourceID,
		Actor:        log.Actor,
		Details:      string(log.Details),
		Timestamp:    log.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
}
