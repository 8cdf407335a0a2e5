// Package internaldefs holds the shared metric name table consumed by
// the Prometheus and OpenTelemetry exporters.
package internaldefs
