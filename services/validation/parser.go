package validation

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/psops/provisioning-dashboard/models"
)

// Parse turns a raw provisioning payload into the three typed entitlement
// lists. Absent, empty, or syntactically invalid payloads yield an empty set;
// payload absence is common and must never surface as an error. Entitlement
// arrays live at properties.provisioningDetail.entitlements and any missing
// sub-array defaults to empty.
//
// Extraction is total: a field of the wrong type reads as absent rather than
// failing the whole entry, and unknown fields are dropped. Repeated identical
// entries are preserved; deduplication is not this layer's concern.
func Parse(payload string) models.EntitlementSet {
	set := models.EntitlementSet{
		Models: []models.Entitlement{},
		Data:   []models.Entitlement{},
		Apps:   []models.Entitlement{},
	}

	root := decodeObject(payload)
	entitlements := childObject(root, "properties", "provisioningDetail", "entitlements")
	if entitlements == nil {
		return set
	}

	set.Models = normalizeList(childArray(entitlements, "modelEntitlements"), models.EntitlementTypeModel)
	set.Data = normalizeList(childArray(entitlements, "dataEntitlements"), models.EntitlementTypeData)
	set.Apps = normalizeList(childArray(entitlements, "appEntitlements"), models.EntitlementTypeApp)
	return set
}

// decodeObject parses the payload into a generic object, returning nil for
// anything that is not a JSON object.
func decodeObject(payload string) map[string]interface{} {
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	var root map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &root); err != nil {
		return nil
	}
	return root
}

// childObject walks a path of nested objects, returning nil as soon as any
// step is missing or not an object.
func childObject(m map[string]interface{}, path ...string) map[string]interface{} {
	current := m
	for _, key := range path {
		if current == nil {
			return nil
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// childArray returns the array under key, or nil when absent or not an array.
func childArray(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	arr, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	return arr
}

func normalizeList(raw []interface{}, typ models.EntitlementType) []models.Entitlement {
	out := make([]models.Entitlement, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, normalizeEntry(entry, typ))
	}
	return out
}

func normalizeEntry(entry map[string]interface{}, typ models.EntitlementType) models.Entitlement {
	return models.Entitlement{
		Type:            typ,
		ProductCode:     stringField(entry, "productCode"),
		ProductName:     stringField(entry, "productName"),
		PackageName:     stringField(entry, "packageName"),
		Quantity:        intField(entry, "quantity"),
		ProductModifier: stringField(entry, "productModifier"),
		StartDate:       stringField(entry, "startDate"),
		EndDate:         stringField(entry, "endDate"),
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// intField reads an integer field, tolerating the numeric-string form some
// payload producers emit. Fractional values read as absent.
func intField(m map[string]interface{}, key string) *int {
	switch v := m[key].(type) {
	case float64:
		n := int(v)
		if float64(n) != v {
			return nil
		}
		return &n
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return &n
		}
	}
	return nil
}
