package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/psops/provisioning-dashboard/middleware"
	"github.com/psops/provisioning-dashboard/services/settings"
	"github.com/psops/provisioning-dashboard/utils"
	"go.uber.org/zap"
)

// UpdateRuleRequest represents a request to toggle a validation rule
type UpdateRuleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// RulesHandler handles validation rule settings HTTP requests
type RulesHandler struct {
	settings *settings.Service
	logger   *zap.Logger
}

// NewRulesHandler creates a new RulesHandler
func NewRulesHandler(settings *settings.Service, logger *zap.Logger) *RulesHandler {
	return &RulesHandler{
		settings: settings,
		logger:   logger,
	}
}

// HandleListRules handles GET /v1/rules
func (h *RulesHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	views, err := h.settings.ListRules(ctx)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("listed rules",
		zap.String("request_id", requestID),
		zap.Int("count", len(views)))

	_ = utils.WriteOK(w, views)
}

// HandleUpdateRule handles PATCH /v1/rules/{ruleID}
func (h *RulesHandler) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	ruleID := chi.URLParam(r, "ruleID")

	var req UpdateRuleRequest
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

	view, err := h.settings.SetRuleEnabled(ctx, ruleID, *req.Enabled, middleware.GetActorFromContext(ctx))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("rule updated",
		zap.String("request_id", requestID),
		zap.String("rule_id", ruleID),
		zap.Bool("enabled", view.Enabled))

	_ = utils.WriteOK(w, view)
}
