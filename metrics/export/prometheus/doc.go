// Package prometheus exposes engine metrics in Prometheus text
// exposition format without taking a client library dependency.
package prometheus
