// Package metadb is the read-only gateway to the storage system's metadata
// database.
//
// A DB is opened once per run from a DSN and reused for every query. The DSN
// prefix selects a Dialect (MySQL, PostgreSQL, or SQLite) which supplies the
// database/sql driver and the backend-specific expressions the reports need,
// most importantly the server's current epoch time. Queries return plain row
// structs; grouping and naming happen in the stats package.
package metadb
