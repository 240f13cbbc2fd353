package validation

import "github.com/psops/provisioning-dashboard/models"

// Rule ids are stable strings so the settings store can persist enablement
// without referencing Go symbols.
const (
	RuleAppQuantity    = "app-quantity-validation"
	RuleModelCount     = "model-count-validation"
	RuleDateOverlap    = "entitlement-date-overlap-validation"
	RuleDateGap        = "entitlement-date-gap-validation"
	RuleAppPackageName = "app-package-name-validation"
)

// RuleFunc evaluates one data-quality rule against a parsed entitlement set.
// Rule functions are pure: no I/O, no state shared between invocations.
type RuleFunc func(models.EntitlementSet) models.RuleResult

// RuleDescriptor describes one rule in the catalog. Adding a rule means
// adding a descriptor here; the evaluator never changes.
type RuleDescriptor struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Evaluate RuleFunc `json:"-"`
}

// catalog order is the default display order. Evaluation order always
// follows the caller's enabled-rule list, never this slice.
var catalog = []RuleDescriptor{
	{ID: RuleAppQuantity, Name: "App Quantity", Category: "quantity", Evaluate: checkAppQuantity},
	{ID: RuleModelCount, Name: "Model Count", Category: "quantity", Evaluate: checkModelCount},
	{ID: RuleDateOverlap, Name: "Entitlement Date Overlap", Category: "dates", Evaluate: checkDateOverlap},
	{ID: RuleDateGap, Name: "Entitlement Date Gap", Category: "dates", Evaluate: checkDateGap},
	{ID: RuleAppPackageName, Name: "App Package Name", Category: "packaging", Evaluate: checkAppPackageName},
}

var catalogByID map[string]RuleDescriptor

func init() {
	catalogByID = make(map[string]RuleDescriptor, len(catalog))
	for _, desc := range catalog {
		catalogByID[desc.ID] = desc
	}
}

// Catalog returns the rule descriptors in display order. The returned slice
// is a copy; the catalog itself is read-only after package init.
func Catalog() []RuleDescriptor {
	out := make([]RuleDescriptor, len(catalog))
	copy(out, catalog)
	return out
}

// LookupRule resolves a rule id against the catalog. Unknown ids report
// ok=false; the caller decides whether that is a skip or an error.
func LookupRule(id string) (RuleDescriptor, bool) {
	desc, ok := catalogByID[id]
	return desc, ok
}
