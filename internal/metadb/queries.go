package metadb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mogtools/internal/logging"
)

const (
	domainClassQuery = `SELECT d.dmid, d.namespace, c.classid, c.classname, c.mindevcount
FROM domain d
LEFT JOIN class c ON c.dmid = d.dmid
ORDER BY d.dmid, c.classid`

	deviceQuery = `SELECT d.devid, h.hostname, d.status, COUNT(fo.fid)
FROM device d
LEFT JOIN host h ON h.hostid = d.hostid
LEFT JOIN file_on fo ON fo.devid = d.devid
GROUP BY d.devid, h.hostname, d.status
ORDER BY d.devid`

	fileQuery = `SELECT dmid, classid, COUNT(*), COALESCE(SUM(length), 0), COALESCE(SUM(length * devcount), 0)
FROM file
GROUP BY dmid, classid`

	replicationQuery = `SELECT dmid, classid, devcount, COUNT(*)
FROM file
GROUP BY dmid, classid, devcount`

	maxFIDQuery = `SELECT MAX(fid) FROM file`

	replicationQueueQuery = `SELECT nexttry, COUNT(*) FROM file_to_replicate GROUP BY nexttry`
	deleteQueueQuery      = `SELECT nexttry, COUNT(*) FROM file_to_delete2 GROUP BY nexttry`
	generalQueueQuery     = `SELECT type, nexttry, COUNT(*) FROM file_to_queue GROUP BY type, nexttry`
)

// Now returns the database server's current unix time. Queue classification
// compares against this rather than the local clock.
func (d *DB) Now(ctx context.Context) (int64, error) {
	var now int64
	if err := d.db.QueryRowContext(ctx, d.dialect.NowQuery()).Scan(&now); err != nil {
		return 0, fmt.Errorf("query database time: %w", err)
	}
	return now, nil
}

// DomainClasses loads the domain and class reference tables.
func (d *DB) DomainClasses(ctx context.Context) ([]DomainClassRow, error) {
	var out []DomainClassRow
	err := d.query(ctx, "domain classes", domainClassQuery, func(rows *sql.Rows) error {
		var (
			row         DomainClassRow
			namespace   sql.NullString
			classID     sql.NullInt64
			className   sql.NullString
			minDevCount sql.NullInt64
		)
		if err := rows.Scan(&row.DomainID, &namespace, &classID, &className, &minDevCount); err != nil {
			return err
		}
		row.Namespace = namespace.String
		row.HasClass = classID.Valid
		row.ClassID = classID.Int64
		row.ClassName = className.String
		row.MinDevCount = minDevCount.Int64
		out = append(out, row)
		return nil
	})
	return out, err
}

// Devices returns per-device file counts joined with host and status.
func (d *DB) Devices(ctx context.Context) ([]DeviceRow, error) {
	var out []DeviceRow
	err := d.query(ctx, "devices", deviceQuery, func(rows *sql.Rows) error {
		var (
			row    DeviceRow
			host   sql.NullString
			status sql.NullString
		)
		if err := rows.Scan(&row.DeviceID, &host, &status, &row.Files); err != nil {
			return err
		}
		row.Host = host.String
		row.Status = status.String
		out = append(out, row)
		return nil
	})
	return out, err
}

// Files returns file counts and byte totals per domain and class.
func (d *DB) Files(ctx context.Context) ([]FileRow, error) {
	var out []FileRow
	err := d.query(ctx, "files", fileQuery, func(rows *sql.Rows) error {
		var (
			row     FileRow
			classID sql.NullInt64
		)
		if err := rows.Scan(&row.DomainID, &classID, &row.Files, &row.Bytes, &row.ReplicatedSize); err != nil {
			return err
		}
		row.ClassID = classID.Int64
		out = append(out, row)
		return nil
	})
	return out, err
}

// Replication returns file counts per domain, class, and devcount.
func (d *DB) Replication(ctx context.Context) ([]ReplicationRow, error) {
	var out []ReplicationRow
	err := d.query(ctx, "replication", replicationQuery, func(rows *sql.Rows) error {
		var (
			row      ReplicationRow
			classID  sql.NullInt64
			devCount sql.NullInt64
		)
		if err := rows.Scan(&row.DomainID, &classID, &devCount, &row.Files); err != nil {
			return err
		}
		row.ClassID = classID.Int64
		row.DevCount = devCount.Int64
		out = append(out, row)
		return nil
	})
	return out, err
}

// MaxFID returns the highest allocated file id, or 0 for an empty table.
func (d *DB) MaxFID(ctx context.Context) (int64, error) {
	var fid sql.NullInt64
	if err := d.db.QueryRowContext(ctx, maxFIDQuery).Scan(&fid); err != nil {
		return 0, fmt.Errorf("query max fid: %w", err)
	}
	return fid.Int64, nil
}

// ReplicationQueue groups file_to_replicate by next-try value.
func (d *DB) ReplicationQueue(ctx context.Context) ([]QueueRow, error) {
	return d.queueRows(ctx, "replication queue", replicationQueueQuery, false)
}

// DeleteQueue groups file_to_delete2 by next-try value.
func (d *DB) DeleteQueue(ctx context.Context) ([]QueueRow, error) {
	return d.queueRows(ctx, "delete queue", deleteQueueQuery, false)
}

// GeneralQueue groups file_to_queue by queue type and next-try value.
func (d *DB) GeneralQueue(ctx context.Context) ([]QueueRow, error) {
	return d.queueRows(ctx, "general queue", generalQueueQuery, true)
}

func (d *DB) queueRows(ctx context.Context, label, query string, typed bool) ([]QueueRow, error) {
	var out []QueueRow
	err := d.query(ctx, label, query, func(rows *sql.Rows) error {
		var row QueueRow
		dest := []any{&row.NextTry, &row.Count}
		if typed {
			dest = append([]any{&row.Type}, dest...)
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

func (d *DB) query(ctx context.Context, label, query string, scan func(*sql.Rows) error) error {
	started := time.Now()
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", label, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan %s: %w", label, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read %s: %w", label, err)
	}
	d.logger.Debug("query complete",
		logging.String("query", label),
		logging.Int("rows", count),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
