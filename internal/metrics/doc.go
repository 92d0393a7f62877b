// Package metrics turns a collected statistics report into Prometheus
// gauges, for node-exporter's textfile collector or any other Gatherer
// consumer.
package metrics
