package models

// ValidationStatus is the verdict of a single rule or of a whole validation.
type ValidationStatus string

const (
	StatusPass ValidationStatus = "PASS"
	StatusFail ValidationStatus = "FAIL"
)

// DateRange carries the raw date strings of one entitlement, kept verbatim
// for display in the drill-down view.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EntitlementPair describes two entitlements of the same type and product
// code whose date ranges conflict, either by overlapping or by leaving a gap.
type EntitlementPair struct {
	Type        EntitlementType `json:"type"`
	ProductCode string          `json:"product_code"`
	First       DateRange       `json:"first"`
	Second      DateRange       `json:"second"`
	GapDays     int             `json:"gap_days,omitempty"`
}

// RuleDetails is the rule-specific failure payload. Quantity and package
// rules fill Offending, the date rules fill Pairs, and the model-count rule
// fills ModelCount.
type RuleDetails struct {
	Offending  []Entitlement     `json:"offending_entitlements,omitempty"`
	Pairs      []EntitlementPair `json:"conflicting_pairs,omitempty"`
	ModelCount int               `json:"model_count,omitempty"`
}

// AffectedCount returns the number of entitlements (or pairs) a failing rule
// flagged, used by the tooltip summary.
func (d *RuleDetails) AffectedCount() int {
	if d == nil {
		return 0
	}
	if len(d.Pairs) > 0 {
		return len(d.Pairs)
	}
	if len(d.Offending) > 0 {
		return len(d.Offending)
	}
	if d.ModelCount > 0 {
		return d.ModelCount
	}
	return 0
}

// RuleResult is the outcome of evaluating one rule against an entitlement
// set. Details is nil for passing rules.
type RuleResult struct {
	RuleID   string           `json:"rule_id"`
	RuleName string           `json:"rule_name"`
	Status   ValidationStatus `json:"status"`
	Details  *RuleDetails     `json:"details,omitempty"`
}

// ValidationResult is the aggregate verdict for one record. It is created
// fresh per validation call and never cached by the engine.
type ValidationResult struct {
	OverallStatus ValidationStatus `json:"overall_status"`
	RuleResults   []RuleResult     `json:"rule_results"`
}

// FailedRules returns the failing subset of RuleResults in result order.
func (r ValidationResult) FailedRules() []RuleResult {
	var failed []RuleResult
	for _, rr := range r.RuleResults {
		if rr.Status == StatusFail {
			failed = append(failed, rr)
		}
	}
	return failed
}
