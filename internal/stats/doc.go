// Package stats turns raw metadata aggregates into operator-facing reports.
//
// It classifies queue rows into operational states using the next-try
// sentinels and the database server's clock, resolves numeric domain and
// class ids to names, and groups device, file, and replication counts. Report
// kinds form a closed set; Collector runs the requested kinds against a
// Source and returns a fully materialized Report for rendering.
//
// Nothing here mutates the metadata store. Every function is deterministic
// given its inputs, which keeps the classification rules testable without a
// database.
package stats
