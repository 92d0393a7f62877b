// Command mogstats prints statistics about a MogileFS installation by
// querying its metadata database directly.
//
// Reports are selected with --stats (comma separated, default "all"):
// devices, fids, files, domains, replication, replication-queue,
// delete-queue and general-queues. Output is a set of text tables, or JSON
// with --json. With --prom-textfile the same figures are also written as
// Prometheus gauges for node-exporter's textfile collector.
//
// The database is reached with a DSN in the tracker's own format
// (DBI:mysql:..., DBI:Pg:..., DBI:SQLite:...) or as a URL. Connection
// settings come from flags, the configuration file, or MOG_DB_DSN,
// MOG_DB_USER and MOG_DB_PASS.
package main
