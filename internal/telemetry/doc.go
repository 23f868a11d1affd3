// Package telemetry records stack operation metrics and pushes them to a
// Prometheus Pushgateway. The CLI is short lived, so metrics are pushed
// once per operation instead of being scraped.
package telemetry
