package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ValidationRun is a persisted validation outcome for one record. The engine
// itself never stores results; runs exist so the dashboard can show the last
// verdict without re-validating on every page load.
type ValidationRun struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	RecordID      uuid.UUID        `json:"record_id" db:"record_id"`
	OverallStatus ValidationStatus `json:"overall_status" db:"overall_status"`
	RuleResults   json.RawMessage  `json:"rule_results" db:"rule_results"` // JSONB snapshot of []RuleResult
	RuleCount     int              `json:"rule_count" db:"rule_count"`
	FailedCount   int              `json:"failed_count" db:"failed_count"`
	Tooltip       string           `json:"tooltip" db:"tooltip"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the ValidationRun model
func (ValidationRun) TableName() string {
	return "validation_runs"
}

// NewValidationRun snapshots a ValidationResult for storage. Marshalling the
// rule results cannot fail for the types involved; an empty result list is
// stored as an empty JSON array.
func NewValidationRun(recordID uuid.UUID, result ValidationResult, tooltip string) *ValidationRun {
	results := result.RuleResults
	if results == nil {
		results = []RuleResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		data = []byte("[]")
	}
	return &ValidationRun{
		ID:            uuid.New(),
		RecordID:      recordID,
		OverallStatus: result.OverallStatus,
		RuleResults:   data,
		RuleCount:     len(results),
		FailedCount:   len(result.FailedRules()),
		Tooltip:       tooltip,
		CreatedAt:     time.Now(),
	}
}
