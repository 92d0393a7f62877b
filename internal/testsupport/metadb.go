package testsupport

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"mogtools/internal/logging"
	"mogtools/internal/metadb"
)

// Fixture timestamps. FixturePast is older than any real clock reading and
// FixtureFuture is later than any plausible one, so queue classification of
// the seeded rows does not depend on when tests run.
const (
	FixturePast   int64 = 1_000_000
	FixtureFuture int64 = 4_000_000_000
	FixtureManual int64 = 2147483647
)

const metaSchema = `
CREATE TABLE domain (dmid INTEGER PRIMARY KEY, namespace VARCHAR(255));
CREATE TABLE class (
    dmid INTEGER NOT NULL,
    classid INTEGER NOT NULL,
    classname VARCHAR(50),
    mindevcount INTEGER NOT NULL,
    PRIMARY KEY (dmid, classid)
);
CREATE TABLE host (hostid INTEGER PRIMARY KEY, hostname VARCHAR(255));
CREATE TABLE device (devid INTEGER PRIMARY KEY, hostid INTEGER NOT NULL, status VARCHAR(10));
CREATE TABLE file (
    fid INTEGER PRIMARY KEY,
    dmid INTEGER NOT NULL,
    dkey VARCHAR(255),
    length BIGINT,
    classid INTEGER,
    devcount INTEGER NOT NULL
);
CREATE TABLE file_on (fid INTEGER NOT NULL, devid INTEGER NOT NULL, PRIMARY KEY (fid, devid));
CREATE TABLE file_to_replicate (fid INTEGER PRIMARY KEY, nexttry INTEGER NOT NULL);
CREATE TABLE file_to_delete2 (fid INTEGER PRIMARY KEY, nexttry INTEGER NOT NULL);
CREATE TABLE file_to_queue (fid INTEGER NOT NULL, type INTEGER NOT NULL, nexttry INTEGER NOT NULL, PRIMARY KEY (fid, type));
`

// seedStatements populate a small cluster:
//
//	domains: photos (thumbs mindev 2, originals mindev 3), backups (nightly
//	mindev 1), empty (no classes)
//	files:   8, including one with classid 0 and one with a NULL classid
//	devices: 4, one on a host missing from the host table
var seedStatements = []string{
	`INSERT INTO domain (dmid, namespace) VALUES (1, 'photos'), (2, 'backups'), (3, 'empty')`,
	`INSERT INTO class (dmid, classid, classname, mindevcount) VALUES
        (1, 1, 'thumbs', 2), (1, 2, 'originals', 3), (2, 1, 'nightly', 1)`,
	`INSERT INTO host (hostid, hostname) VALUES (1, 'store1'), (2, 'store2')`,
	`INSERT INTO device (devid, hostid, status) VALUES
        (1, 1, 'alive'), (2, 1, 'alive'), (3, 2, 'dead'), (4, 9, 'down')`,
	`INSERT INTO file (fid, dmid, dkey, length, classid, devcount) VALUES
        (1, 1, 't1', 100, 1, 2),
        (2, 1, 't2', 200, 1, 2),
        (3, 1, 'o1', 1000, 2, 3),
        (4, 1, 'o2', 1000, 2, 2),
        (5, 1, 'd1', 50, 0, 2),
        (6, 1, 'd2', 50, NULL, 1),
        (7, 2, 'n1', 10, 1, 1),
        (8, 2, 'n2', 10, 1, 2)`,
	`INSERT INTO file_on (fid, devid) VALUES
        (1, 1), (2, 1), (3, 1), (4, 1), (5, 1), (6, 1), (7, 1), (8, 1),
        (1, 2), (2, 2), (3, 2), (4, 2), (5, 2), (8, 2),
        (3, 3)`,
}

type seedStatement struct {
	query string
	args  []any
}

var queueSeed = []seedStatement{
	{
		`INSERT INTO file_to_replicate (fid, nexttry) VALUES (10, 0), (11, 0), (12, 1), (13, ?), (14, ?), (15, ?)`,
		[]any{FixtureManual, FixturePast, FixtureFuture},
	},
	{
		`INSERT INTO file_to_delete2 (fid, nexttry) VALUES (20, 0), (21, 5), (22, 999), (23, ?)`,
		[]any{FixturePast},
	},
	{
		`INSERT INTO file_to_queue (fid, type, nexttry) VALUES (30, 1, 0), (31, 1, 0), (32, 1, ?), (33, 2, 1), (34, 7, ?)`,
		[]any{FixtureFuture, FixtureManual},
	},
}

// NewMetaDBFile creates a SQLite metadata database with the fixture schema
// and, when seed is true, the fixture rows. Any extra statements run last.
// It returns the database path.
func NewMetaDBFile(t testing.TB, seed bool, extra ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mogilefs.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, metaSchema); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}
	if seed {
		for _, stmt := range seedStatements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				t.Fatalf("seed fixture: %v", err)
			}
		}
		for _, stmt := range queueSeed {
			if _, err := db.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
				t.Fatalf("seed fixture queue: %v", err)
			}
		}
	}
	for _, stmt := range extra {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("apply fixture statement %q: %v", stmt, err)
		}
	}
	return path
}

// MustOpenMetaDB opens a metadb.DB on a fresh fixture database and registers
// cleanup.
func MustOpenMetaDB(t testing.TB, seed bool, extra ...string) *metadb.DB {
	t.Helper()

	path := NewMetaDBFile(t, seed, extra...)
	db, err := metadb.Open(context.Background(), metadb.Options{DSN: "sqlite:" + path}, logging.NewNop())
	if err != nil {
		t.Fatalf("metadb.Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
