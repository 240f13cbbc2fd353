package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/repositories"
	"github.com/psops/provisioning-dashboard/services/records"
	"github.com/psops/provisioning-dashboard/services/validation"
	"github.com/psops/provisioning-dashboard/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validPayload = `{
	"properties": {
		"provisioningDetail": {
			"tenantName": "acme-insurance",
			"entitlements": {
				"appEntitlements": [
					{"productCode": "APP-EXPOSUREIQ", "packageName": "ExposureIQ Standard", "quantity": 5, "startDate": "2025-01-01", "endDate": "2025-12-31"}
				]
			}
		}
	}
}`

// stubRecordRepository is an in-memory RecordRepository for handler tests.
type stubRecordRepository struct {
	byID      map[uuid.UUID]*models.ProvisioningRecord
	createErr error
}

func newStubRecordRepository() *stubRecordRepository {
	return &stubRecordRepository{byID: make(map[uuid.UUID]*models.ProvisioningRecord)}
}

func (s *stubRecordRepository) Create(ctx context.Context, record *models.ProvisioningRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.byID[record.ID] = record
	return nil
}

func (s *stubRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProvisioningRecord, error) {
	record, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return record, nil
}

func (s *stubRecordRepository) GetByCaseNumber(ctx context.Context, caseNumber string) (*models.ProvisioningRecord, error) {
	for _, record := range s.byID {
		if record.CaseNumber == caseNumber {
			return record, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubRecordRepository) List(ctx context.Context, limit, offset int) ([]*models.ProvisioningRecord, error) {
	out := make([]*models.ProvisioningRecord, 0, len(s.byID))
	for _, record := range s.byID {
		out = append(out, record)
	}
	return out, nil
}

func (s *stubRecordRepository) ListByStatus(ctx context.Context, status models.RecordStatus, limit, offset int) ([]*models.ProvisioningRecord, error) {
	var out []*models.ProvisioningRecord
	for _, record := range s.byID {
		if record.Status == status {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubRecordRepository) Update(ctx context.Context, record *models.ProvisioningRecord) error {
	s.byID[record.ID] = record
	return nil
}

func (s *stubRecordRepository) Count(ctx context.Context) (int, error) {
	return len(s.byID), nil
}

// stubTxManager runs the unit of work without a real transaction.
type stubTxManager struct{}

func (stubTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, nil)
}

// stubRunRepository is an in-memory ValidationRunRepository for handler tests.
type stubRunRepository struct {
	runs []*models.ValidationRun
}

func (s *stubRunRepository) Insert(ctx context.Context, run *models.ValidationRun) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *stubRunRepository) GetLatestByRecordID(ctx context.Context, recordID uuid.UUID) (*models.ValidationRun, error) {
	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].RecordID == recordID {
			return s.runs[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubRunRepository) GetByRecordID(ctx context.Context, recordID uuid.UUID, limit, offset int) ([]*models.ValidationRun, error) {
	var out []*models.ValidationRun
	for _, run := range s.runs {
		if run.RecordID == recordID {
			out = append(out, run)
		}
	}
	return out, nil
}

// allRulesEnabled provides the full catalog as the enabled rule set.
type allRulesEnabled struct{}

func (allRulesEnabled) EnabledRuleIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for _, desc := range validation.Catalog() {
		ids = append(ids, desc.ID)
	}
	return ids, nil
}

func newRecordHandler(recordRepo *stubRecordRepository, runRepo *stubRunRepository) *RecordHandler {
	logger := zap.NewNop()
	engine := validation.NewService(logger)
	svc := records.NewService(recordRepo, runRepo, stubTxManager{}, allRulesEnabled{}, engine, nil, 1, 50, logger)
	return NewRecordHandler(svc, logger)
}

func recordRouter(h *RecordHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/records", h.HandleCreateRecord)
	r.Get("/records", h.HandleListRecords)
	r.Post("/records/validate", h.HandleValidateAll)
	r.Get("/records/{id}", h.HandleGetRecord)
	r.Post("/records/{id}/validate", h.HandleValidateRecord)
	r.Get("/records/{id}/validation", h.HandleLatestValidation)
	r.Get("/records/{id}/validation/history", h.HandleValidationHistory)
	return r
}

func TestHandleCreateRecord(t *testing.T) {
	t.Run("creates record and derives tenant name", func(t *testing.T) {
		h := newRecordHandler(newStubRecordRepository(), &stubRunRepository{})

		body := map[string]string{
			"case_number":   "CS-1001",
			"salesforce_id": "SF-42",
			"request_type":  "add",
			"payload":       validPayload,
		}
		data, err := json.Marshal(body)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(string(data)))
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		record := response["data"].(map[string]interface{})
		assert.Equal(t, "CS-1001", record["case_number"])
		assert.Equal(t, "acme-insurance", record["tenant_name"])
		assert.Equal(t, "open", record["status"])
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		h := newRecordHandler(newStubRecordRepository(), &stubRunRepository{})

		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects missing case number", func(t *testing.T) {
		h := newRecordHandler(newStubRecordRepository(), &stubRunRepository{})

		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"request_type":"add"}`))
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "bad_request", response.Error)
	})

	t.Run("rejects unknown request type", func(t *testing.T) {
		h := newRecordHandler(newStubRecordRepository(), &stubRunRepository{})

		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"case_number":"CS-1","request_type":"delete"}`))
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate case number yields conflict", func(t *testing.T) {
		repo := newStubRecordRepository()
		repo.createErr = repositories.ErrDuplicate
		h := newRecordHandler(repo, &stubRunRepository{})

		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"case_number":"CS-1","request_type":"add"}`))
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("resubmitting a stored case number yields conflict", func(t *testing.T) {
		repo := newStubRecordRepository()
		existing := models.NewProvisioningRecord("CS-1", "SF-42", models.RequestTypeAdd, "")
		repo.byID[existing.ID] = existing
		h := newRecordHandler(repo, &stubRunRepository{})

		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"case_number":"CS-1","request_type":"add"}`))
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Len(t, repo.byID, 1)
	})
}

func TestHandleGetRecord(t *testing.T) {
	t.Run("returns stored record", func(t *testing.T) {
		repo := newStubRecordRepository()
		record := models.NewProvisioningRecord("CS-1001", "SF-42", models.RequestTypeAdd, validPayload)
		repo.byID[record.ID] = record
		h := newRecordHandler(repo, &stubRunRepository{})

		req := httptest.NewRequest(http.MethodGet, "/records/"+record.ID.String(), nil)
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid id format", func(t *testing.T) {
		h := newRecordHandler(newStubRecordRepository(), &stubRunRepository{})

		req := httptest.NewRequest(http.MethodGet, "/records/not-a-uuid", nil)
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown record", func(t *testing.T) {
		h := newRecordHandler(newStubRecordRepository(), &stubRunRepository{})

		req := httptest.NewRequest(http.MethodGet, "/records/"+uuid.New().String(), nil)
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleValidateRecord(t *testing.T) {
	t.Run("validates and stores a run", func(t *testing.T) {
		repo := newStubRecordRepository()
		runs := &stubRunRepository{}
		record := models.NewProvisioningRecord("CS-1001", "SF-42", models.RequestTypeAdd, validPayload)
		repo.byID[record.ID] = record
		h := newRecordHandler(repo, runs)

		req := httptest.NewRequest(http.MethodPost, "/records/"+record.ID.String()+"/validate", nil)
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		run := response["data"].(map[string]interface{})
		assert.Equal(t, "PASS", run["overall_status"])
		assert.Equal(t, record.ID.String(), run["record_id"])
		assert.NotEmpty(t, run["tooltip"])
		require.Len(t, runs.runs, 1)
	})

	t.Run("latest validation before any run is not found", func(t *testing.T) {
		repo := newStubRecordRepository()
		record := models.NewProvisioningRecord("CS-1001", "SF-42", models.RequestTypeAdd, validPayload)
		repo.byID[record.ID] = record
		h := newRecordHandler(repo, &stubRunRepository{})

		req := httptest.NewRequest(http.MethodGet, "/records/"+record.ID.String()+"/validation", nil)
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleValidateAll(t *testing.T) {
	repo := newStubRecordRepository()
	runs := &stubRunRepository{}
	for i := 0; i < 3; i++ {
		record := models.NewProvisioningRecord("CS-100"+string(rune('1'+i)), "SF-42", models.RequestTypeAdd, validPayload)
		repo.byID[record.ID] = record
	}
	h := newRecordHandler(repo, runs)

	req := httptest.NewRequest(http.MethodPost, "/records/validate", nil)
	w := httptest.NewRecorder()
	recordRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	summary := response["data"].(map[string]interface{})
	assert.Equal(t, float64(3), summary["validated"])
	assert.Equal(t, float64(3), summary["passed"])
	assert.Equal(t, float64(0), summary["errors"])
	assert.Len(t, runs.runs, 3)
}

func TestHandleListRecords(t *testing.T) {
	repo := newStubRecordRepository()
	record := models.NewProvisioningRecord("CS-1001", "SF-42", models.RequestTypeAdd, "")
	record.CreatedAt = time.Now().Add(-time.Hour)
	repo.byID[record.ID] = record
	h := newRecordHandler(repo, &stubRunRepository{})

	t.Run("lists records", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/records?limit=10&offset=0", nil)
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Len(t, response["data"], 1)
	})

	t.Run("filters by status", func(t *testing.T) {
		completed := models.NewProvisioningRecord("CS-1002", "SF-43", models.RequestTypeAdd, "")
		completed.Status = models.RecordStatusCompleted
		repo.byID[completed.ID] = completed

		req := httptest.NewRequest(http.MethodGet, "/records?status=completed", nil)
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		data := response["data"].([]interface{})
		require.Len(t, data, 1)
		filtered := data[0].(map[string]interface{})
		assert.Equal(t, "CS-1002", filtered["case_number"])
		assert.Equal(t, "completed", filtered["status"])
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/records?status=archived", nil)
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects non-numeric limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/records?limit=abc", nil)
		w := httptest.NewRecorder()
		recordRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
