package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/psops/provisioning-dashboard/utils"
	"go.uber.org/zap"
)

const serviceName = "provisioning-dashboard"

// HealthResponse is the body served on the health and readiness endpoints.
// Components reports each checked dependency by name.
type HealthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *sql.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz. Liveness only: returns 200 whenever the
// process is serving requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Service:   serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz. Checks that the record store is
// reachable before the service takes traffic.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string)
	ready := true

	if err := h.checkRecordStore(ctx); err != nil {
		h.logger.Warn("record store readiness check failed", zap.Error(err))
		components["postgres"] = "unreachable"
		ready = false
	} else {
		components["postgres"] = "ok"
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !ready {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:     status,
		Service:    serviceName,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkRecordStore pings the database and runs a trivial query so a wedged
// pool fails the probe, not just a dropped connection.
func (h *HealthHandler) checkRecordStore(ctx context.Context) error {
	if h.db == nil {
		return nil
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
}
