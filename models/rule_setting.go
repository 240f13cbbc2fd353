package models

import (
	"time"

	"github.com/google/uuid"
)

// RuleSetting is the persisted enablement state for one validation rule.
// Rules without a stored setting default to enabled; the catalog itself
// never changes at runtime, only these flags do.
type RuleSetting struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RuleID    string    `json:"rule_id" db:"rule_id"`
	Enabled   bool      `json:"enabled" db:"enabled"`
	UpdatedBy string    `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the RuleSetting model
func (RuleSetting) TableName() string {
	return "rule_settings"
}

// NewRuleSetting creates a new RuleSetting instance
func NewRuleSetting(ruleID string, enabled bool, updatedBy string) *RuleSetting {
	now := time.Now()
	return &RuleSetting{
		ID:        uuid.New(),
		RuleID:    ruleID,
		Enabled:   enabled,
		UpdatedBy: updatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
