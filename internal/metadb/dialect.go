package metadb

// Dialect captures the backend-specific pieces of SQL the reports rely on.
type Dialect interface {
	// Name is the short backend name used in logs and errors.
	Name() string
	// DriverName is the database/sql driver registered for the backend.
	DriverName() string
	// NowQuery returns a statement yielding the server's current unix time
	// in whole seconds.
	NowQuery() string
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }
func (mysqlDialect) NowQuery() string { return "SELECT UNIX_TIMESTAMP()" }

type postgresDialect struct {
	driver string
}

func (postgresDialect) Name() string { return "postgres" }

func (d postgresDialect) DriverName() string {
	if d.driver == "pq" {
		return "postgres"
	}
	return "pgx"
}

func (postgresDialect) NowQuery() string {
	return "SELECT CAST(EXTRACT(EPOCH FROM NOW()) AS BIGINT)"
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }
func (sqliteDialect) NowQuery() string { return "SELECT CAST(strftime('%s','now') AS INTEGER)" }
