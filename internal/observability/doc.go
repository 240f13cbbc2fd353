// Package observability builds the structured zap logger for the
// provisioning dashboard from its runtime configuration.
package observability
