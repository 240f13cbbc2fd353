package validation

import (
	"strings"

	"github.com/psops/provisioning-dashboard/models"
)

// maxModelEntitlements is the ceiling enforced by model-count-validation.
const maxModelEntitlements = 100

// appQuantityExemptions lists the product codes allowed to carry an app
// quantity other than 1.
var appQuantityExemptions = map[string]struct{}{
	"IC-DATABRIDGE":            {},
	"RI-RISKMODELER-EXPANSION": {},
}

// resultFor builds a RuleResult for the given rule id. A nil details value
// means the rule passed.
func resultFor(ruleID string, details *models.RuleDetails) models.RuleResult {
	desc := catalogByID[ruleID]
	status := models.StatusPass
	if details != nil {
		status = models.StatusFail
	}
	return models.RuleResult{
		RuleID:   ruleID,
		RuleName: desc.Name,
		Status:   status,
		Details:  details,
	}
}

func offendingDetails(offending []models.Entitlement) *models.RuleDetails {
	if len(offending) == 0 {
		return nil
	}
	return &models.RuleDetails{Offending: offending}
}

func pairDetails(pairs []models.EntitlementPair) *models.RuleDetails {
	if len(pairs) == 0 {
		return nil
	}
	return &models.RuleDetails{Pairs: pairs}
}

// checkAppQuantity requires every app entitlement to carry quantity 1 unless
// its product code is exempt. An absent quantity conceptually defaults to 1
// and passes; only an explicit quantity other than 1 is a violation.
func checkAppQuantity(set models.EntitlementSet) models.RuleResult {
	var offending []models.Entitlement
	for _, ent := range set.Apps {
		if _, exempt := appQuantityExemptions[ent.ProductCode]; exempt {
			continue
		}
		if ent.Quantity != nil && *ent.Quantity != 1 {
			offending = append(offending, ent)
		}
	}
	return resultFor(RuleAppQuantity, offendingDetails(offending))
}

// checkModelCount caps the number of model entitlements on one record.
func checkModelCount(set models.EntitlementSet) models.RuleResult {
	count := len(set.Models)
	if count <= maxModelEntitlements {
		return resultFor(RuleModelCount, nil)
	}
	return resultFor(RuleModelCount, &models.RuleDetails{ModelCount: count})
}

// checkAppPackageName requires a non-empty package name on every app
// entitlement.
func checkAppPackageName(set models.EntitlementSet) models.RuleResult {
	var offending []models.Entitlement
	for _, ent := range set.Apps {
		if strings.TrimSpace(ent.PackageName) == "" {
			offending = append(offending, ent)
		}
	}
	return resultFor(RuleAppPackageName, offendingDetails(offending))
}

// checkDateOverlap reports every pair of same-type, same-product entitlements
// whose closed-inclusive date ranges intersect on at least one day.
func checkDateOverlap(set models.EntitlementSet) models.RuleResult {
	groups := collectIntervals(set)
	var pairs []models.EntitlementPair
	for _, key := range sortedGroupKeys(groups) {
		ivs := groups[key]
		for i := 0; i < len(ivs); i++ {
			for j := i + 1; j < len(ivs); j++ {
				if overlaps(ivs[i], ivs[j]) {
					pairs = append(pairs, conflictPair(key, ivs[i], ivs[j], 0))
				}
			}
		}
	}
	return resultFor(RuleDateOverlap, pairDetails(pairs))
}

// checkDateGap reports chronologically adjacent entitlements of the same
// type and product whose coverage breaks for more than one day. Back-to-back
// ranges (next start = previous end + 1 day) are contiguous, not gapped.
func checkDateGap(set models.EntitlementSet) models.RuleResult {
	groups := collectIntervals(set)
	var pairs []models.EntitlementPair
	for _, key := range sortedGroupKeys(groups) {
		ivs := groups[key]
		for i := 0; i+1 < len(ivs); i++ {
			if days, gapped := gapAfter(ivs[i], ivs[i+1]); gapped {
				pairs = append(pairs, conflictPair(key, ivs[i], ivs[i+1], days))
			}
		}
	}
	return resultFor(RuleDateGap, pairDetails(pairs))
}
