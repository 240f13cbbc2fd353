package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestType is the provisioning action requested for a tenant.
type RequestType string

const (
	RequestTypeAdd    RequestType = "add"
	RequestTypeUpdate RequestType = "update"
	RequestTypeRemove RequestType = "remove"
)

// RecordStatus tracks where a provisioning request sits in its lifecycle.
type RecordStatus string

const (
	RecordStatusOpen       RecordStatus = "open"
	RecordStatusInProgress RecordStatus = "in_progress"
	RecordStatusCompleted  RecordStatus = "completed"
	RecordStatusCancelled  RecordStatus = "cancelled"
)

// ProvisioningRecord is one Professional-Services provisioning request as
// synced from Salesforce. Payload holds the raw provisioning JSON exactly as
// received; it may be empty or malformed and is only interpreted by the
// validation engine.
type ProvisioningRecord struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	CaseNumber   string       `json:"case_number" db:"case_number"`
	SalesforceID string       `json:"salesforce_id,omitempty" db:"salesforce_id"`
	TenantName   string       `json:"tenant_name,omitempty" db:"tenant_name"`
	RequestType  RequestType  `json:"request_type" db:"request_type"`
	Status       RecordStatus `json:"status" db:"status"`
	Payload      string       `json:"payload,omitempty" db:"payload"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the ProvisioningRecord model
func (ProvisioningRecord) TableName() string {
	return "provisioning_records"
}

// NewProvisioningRecord creates a new ProvisioningRecord instance
func NewProvisioningRecord(caseNumber, salesforceID string, requestType RequestType, payload string) *ProvisioningRecord {
	now := time.Now()
	return &ProvisioningRecord{
		ID:           uuid.New(),
		CaseNumber:   caseNumber,
		SalesforceID: salesforceID,
		RequestType:  requestType,
		Status:       RecordStatusOpen,
		Payload:      payload,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
