package validation

// ParseTenantName digs the tenant name out of a provisioning payload. The
// field sits next to the entitlements sub-tree at
// properties.provisioningDetail.tenantName. Missing or malformed payloads
// yield an empty string; this helper never fails.
func ParseTenantName(payload string) string {
	detail := childObject(decodeObject(payload), "properties", "provisioningDetail")
	return stringField(detail, "tenantName")
}
