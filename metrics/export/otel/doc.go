// Package otel bridges engine metric snapshots into OpenTelemetry
// observable instruments.
package otel
