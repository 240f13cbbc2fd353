package models

// EntitlementType distinguishes the three entitlement lists carried by a
// provisioning payload.
type EntitlementType string

const (
	EntitlementTypeModel EntitlementType = "model"
	EntitlementTypeData  EntitlementType = "data"
	EntitlementTypeApp   EntitlementType = "app"
)

// Entitlement represents one granted product instance from a provisioning
// payload. Every field except Type and ProductCode is optional in the source
// data; Quantity stays nil when the payload does not specify one so that
// rules can distinguish "not specified" from an explicit 1.
type Entitlement struct {
	Type            EntitlementType `json:"type"`
	ProductCode     string          `json:"product_code"`
	ProductName     string          `json:"product_name,omitempty"`
	PackageName     string          `json:"package_name,omitempty"`
	Quantity        *int            `json:"quantity,omitempty"`
	ProductModifier string          `json:"product_modifier,omitempty"`
	StartDate       string          `json:"start_date,omitempty"`
	EndDate         string          `json:"end_date,omitempty"`
}

// EntitlementSet holds the three typed entitlement lists produced by parsing
// one provisioning record. The set is a snapshot owned by the caller;
// repeated identical entries are preserved as-is.
type EntitlementSet struct {
	Models []Entitlement `json:"models"`
	Data   []Entitlement `json:"data"`
	Apps   []Entitlement `json:"apps"`
}

// Count returns the total number of entitlements across all three lists.
func (s EntitlementSet) Count() int {
	return len(s.Models) + len(s.Data) + len(s.Apps)
}

// IsEmpty reports whether the set contains no entitlements at all, which is
// the case for absent or malformed payloads.
func (s EntitlementSet) IsEmpty() bool {
	return s.Count() == 0
}
