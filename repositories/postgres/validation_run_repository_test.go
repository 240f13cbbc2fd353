package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runColumns() []string {
	return []string{"id", "record_id", "overall_status", "rule_results", "rule_count", "failed_count", "tooltip", "created_at"}
}

func TestValidationRunRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewValidationRunRepository(db, zap.NewNop())

	recordID := uuid.New()
	run := models.NewValidationRun(recordID, models.ValidationResult{
		OverallStatus: models.StatusPass,
		RuleResults:   []models.RuleResult{},
	}, "All validation rules passed")

	mock.ExpectExec("INSERT INTO validation_runs").
		WithArgs(run.ID, recordID, models.StatusPass, run.RuleResults,
			0, 0, "All validation rules passed", run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), run)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidationRunRepository_GetLatestByRecordID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewValidationRunRepository(db, zap.NewNop())

		recordID := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM validation_runs").
			WithArgs(recordID).
			WillReturnRows(sqlmock.NewRows(runColumns()).
				AddRow(uuid.New(), recordID, "FAIL", []byte(`[{"rule_id":"app-quantity-validation","status":"FAIL"}]`),
					5, 1, "App Quantity: 1 affected", time.Now()))

		run, err := repo.GetLatestByRecordID(context.Background(), recordID)

		require.NoError(t, err)
		assert.Equal(t, recordID, run.RecordID)
		assert.Equal(t, models.StatusFail, run.OverallStatus)
		assert.Equal(t, 1, run.FailedCount)
	})

	t.Run("no runs maps to ErrNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewValidationRunRepository(db, zap.NewNop())

		recordID := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM validation_runs").
			WithArgs(recordID).
			WillReturnRows(sqlmock.NewRows(runColumns()))

		_, err := repo.GetLatestByRecordID(context.Background(), recordID)

		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestValidationRunRepository_GetByRecordID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewValidationRunRepository(db, zap.NewNop())

	recordID := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM validation_runs").
		WithArgs(recordID, 10, 0).
		WillReturnRows(sqlmock.NewRows(runColumns()).
			AddRow(uuid.New(), recordID, "PASS", []byte(`[]`), 5, 0, "All validation rules passed", time.Now()).
			AddRow(uuid.New(), recordID, "FAIL", []byte(`[]`), 5, 2, "Model Count: 101 affected", time.Now()))

	runs, err := repo.GetByRecordID(context.Background(), recordID, 10, 0)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, models.StatusPass, runs[0].OverallStatus)
	assert.Equal(t, models.StatusFail, runs[1].OverallStatus)
}
