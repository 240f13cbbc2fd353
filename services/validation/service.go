package validation

import (
	"fmt"
	"strings"

	"github.com/psops/provisioning-dashboard/models"
	"go.uber.org/zap"
)

// allRulesPassedMessage is the fixed tooltip shown for a clean record.
const allRulesPassedMessage = "All validation rules passed"

// Service runs the entitlement validation engine. It is purely
// computational: every call works on immutable snapshots, so one Service is
// safe for concurrent use across many records without locking. The set of
// enabled rules is always passed in per call; the engine holds no enablement
// state of its own.
type Service struct {
	logger *zap.Logger
}

// NewService creates a new validation Service instance
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// ValidateRecord parses a raw payload and evaluates the enabled rules
// against it. A missing or malformed payload parses to an empty entitlement
// set, which every rule passes; "nothing found" and "found but clean" are
// indistinguishable in control flow, only in the returned data.
func (s *Service) ValidateRecord(payload string, enabledRuleIDs []string) models.ValidationResult {
	set := Parse(payload)
	return Aggregate(s.Evaluate(set, enabledRuleIDs))
}

// Evaluate runs each enabled rule against the entitlement set. Ids with no
// catalog entry are skipped so stale settings cannot break validation.
// Result order follows enabledRuleIDs, not catalog order, so callers control
// display priority. Rules run independently; a panicking rule is a
// programming defect and is deliberately not recovered here.
func (s *Service) Evaluate(set models.EntitlementSet, enabledRuleIDs []string) []models.RuleResult {
	results := make([]models.RuleResult, 0, len(enabledRuleIDs))
	for _, id := range enabledRuleIDs {
		desc, ok := LookupRule(id)
		if !ok {
			s.logger.Debug("skipping unknown rule id", zap.String("rule_id", id))
			continue
		}
		results = append(results, desc.Evaluate(set))
	}
	return results
}

// Aggregate folds rule results into one overall verdict. Any FAIL fails the
// record; zero results is a vacuous PASS, since nothing checked is not a
// failure.
func Aggregate(results []models.RuleResult) models.ValidationResult {
	if results == nil {
		results = []models.RuleResult{}
	}
	overall := models.StatusPass
	for _, r := range results {
		if r.Status == models.StatusFail {
			overall = models.StatusFail
			break
		}
	}
	return models.ValidationResult{OverallStatus: overall, RuleResults: results}
}

// Tooltip renders the one-line badge summary: a fixed message when the
// record passed, otherwise one clause per failing rule in result order.
func Tooltip(result models.ValidationResult) string {
	if result.OverallStatus == models.StatusPass {
		return allRulesPassedMessage
	}
	clauses := make([]string, 0, len(result.RuleResults))
	for _, r := range result.RuleResults {
		if r.Status != models.StatusFail {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s: %d affected", r.RuleName, r.Details.AffectedCount()))
	}
	return strings.Join(clauses, "; ")
}
