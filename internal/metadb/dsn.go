package metadb

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ErrUnsupportedDialect is returned for DSNs whose prefix names no known backend.
var ErrUnsupportedDialect = errors.New("unsupported database dialect")

const (
	defaultMySQLHost = "127.0.0.1"
	defaultMySQLPort = "3306"
)

// Credentials carries the user name and password configured separately from
// the DSN, as the tracker's own configuration does.
type Credentials struct {
	User     string
	Password string
}

// Target is a resolved connection: the dialect plus the DSN in the form the
// selected database/sql driver expects.
type Target struct {
	Dialect Dialect
	DSN     string
}

// ParseDSN resolves a tracker-style ("DBI:mysql:database=mogilefs;host=db")
// or URL-style ("postgres://db/mogilefs", "sqlite:/var/lib/mogilefs.db")
// connection string. postgresDriver picks "pgx" or "pq" for PostgreSQL.
func ParseDSN(raw string, creds Credentials, postgresDriver string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, errors.New("database dsn is empty")
	}

	if driver, rest, ok := splitDBI(raw); ok {
		attrs := parseDBIAttrs(rest)
		switch strings.ToLower(driver) {
		case "mysql":
			return mysqlFromAttrs(attrs, creds)
		case "pg":
			return postgresFromAttrs(attrs, creds, postgresDriver)
		case "sqlite":
			return sqliteTarget(attrs.database)
		}
		return Target{}, fmt.Errorf("%w: DBI driver %q", ErrUnsupportedDialect, driver)
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "mysql://"):
		return mysqlFromURL(raw, creds)
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return postgresFromURL(raw, creds, postgresDriver)
	case strings.HasPrefix(lower, "sqlite:"):
		path := raw[len("sqlite:"):]
		if strings.HasPrefix(path, "//") {
			path = path[2:]
		}
		return sqliteTarget(path)
	}
	return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dsnPrefix(raw))
}

type dbiAttrs struct {
	database string
	host     string
	port     string
	socket   string
	extra    map[string]string
}

func splitDBI(raw string) (string, string, bool) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || !strings.EqualFold(parts[0], "dbi") {
		return "", "", false
	}
	if len(parts) == 2 {
		return parts[1], "", true
	}
	return parts[1], parts[2], true
}

// parseDBIAttrs reads "key=value;key=value" pairs. A bare leading token is the
// database name, matching DBI's short form.
func parseDBIAttrs(rest string) dbiAttrs {
	attrs := dbiAttrs{extra: map[string]string{}}
	for _, field := range strings.Split(rest, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, found := strings.Cut(field, "=")
		if !found {
			if attrs.database == "" {
				attrs.database = field
			}
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "database", "dbname", "db":
			attrs.database = value
		case "host", "hostname":
			attrs.host = value
		case "port":
			attrs.port = value
		case "mysql_socket":
			attrs.socket = value
		default:
			attrs.extra[key] = value
		}
	}
	return attrs
}

func mysqlFromAttrs(attrs dbiAttrs, creds Credentials) (Target, error) {
	cfg := mysql.NewConfig()
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.DBName = attrs.database
	if attrs.socket != "" {
		cfg.Net = "unix"
		cfg.Addr = attrs.socket
	} else {
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(orDefault(attrs.host, defaultMySQLHost), orDefault(attrs.port, defaultMySQLPort))
	}
	if cfg.DBName == "" {
		return Target{}, errors.New("mysql dsn: database name is required")
	}
	if err := applyMySQLAttrs(cfg, attrs.extra); err != nil {
		return Target{}, err
	}
	return Target{Dialect: mysqlDialect{}, DSN: cfg.FormatDSN()}, nil
}

// applyMySQLAttrs maps DBD::mysql connection attributes onto the driver
// config. Attributes the driver has no equivalent for are rejected.
func applyMySQLAttrs(cfg *mysql.Config, extra map[string]string) error {
	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := extra[key]
		switch key {
		case "mysql_ssl":
			if dbiTrue(value) {
				cfg.TLSConfig = "true"
			}
		case "mysql_connect_timeout", "mysql_read_timeout", "mysql_write_timeout":
			secs, err := strconv.Atoi(value)
			if err != nil || secs < 0 {
				return fmt.Errorf("mysql dsn: %s must be a non-negative number of seconds", key)
			}
			timeout := time.Duration(secs) * time.Second
			switch key {
			case "mysql_connect_timeout":
				cfg.Timeout = timeout
			case "mysql_read_timeout":
				cfg.ReadTimeout = timeout
			default:
				cfg.WriteTimeout = timeout
			}
		case "mysql_enable_utf8", "mysql_enable_utf8mb4":
			if !dbiTrue(value) {
				continue
			}
			if cfg.Params == nil {
				cfg.Params = map[string]string{}
			}
			if key == "mysql_enable_utf8mb4" {
				cfg.Params["charset"] = "utf8mb4"
			} else if cfg.Params["charset"] == "" {
				cfg.Params["charset"] = "utf8"
			}
		default:
			return fmt.Errorf("mysql dsn: unsupported attribute %q", key)
		}
	}
	return nil
}

func dbiTrue(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

func mysqlFromURL(raw string, creds Credentials) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("mysql dsn: %w", err)
	}
	attrs := dbiAttrs{
		database: strings.TrimPrefix(u.Path, "/"),
		host:     u.Hostname(),
		port:     u.Port(),
		extra:    map[string]string{},
	}
	for key, values := range u.Query() {
		if len(values) > 0 {
			attrs.extra[strings.ToLower(key)] = values[len(values)-1]
		}
	}
	if u.User != nil {
		creds.User = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			creds.Password = pass
		}
	}
	return mysqlFromAttrs(attrs, creds)
}

func postgresFromAttrs(attrs dbiAttrs, creds Credentials, driver string) (Target, error) {
	if attrs.database == "" {
		return Target{}, errors.New("postgres dsn: dbname is required")
	}
	pairs := []string{"dbname=" + quoteConnValue(attrs.database)}
	if attrs.host != "" {
		pairs = append(pairs, "host="+quoteConnValue(attrs.host))
	}
	if attrs.port != "" {
		pairs = append(pairs, "port="+quoteConnValue(attrs.port))
	}
	extraKeys := make([]string, 0, len(attrs.extra))
	for key := range attrs.extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		pairs = append(pairs, key+"="+quoteConnValue(attrs.extra[key]))
	}
	if creds.User != "" {
		pairs = append(pairs, "user="+quoteConnValue(creds.User))
	}
	if creds.Password != "" {
		pairs = append(pairs, "password="+quoteConnValue(creds.Password))
	}
	return Target{Dialect: postgresDialect{driver: driver}, DSN: strings.Join(pairs, " ")}, nil
}

func postgresFromURL(raw string, creds Credentials, driver string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("postgres dsn: %w", err)
	}
	if u.User == nil && creds.User != "" {
		if creds.Password != "" {
			u.User = url.UserPassword(creds.User, creds.Password)
		} else {
			u.User = url.User(creds.User)
		}
	}
	return Target{Dialect: postgresDialect{driver: driver}, DSN: u.String()}, nil
}

func sqliteTarget(path string) (Target, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Target{}, errors.New("sqlite dsn: database path is required")
	}
	return Target{Dialect: sqliteDialect{}, DSN: path}, nil
}

// quoteConnValue quotes a libpq keyword/value for the conninfo format.
func quoteConnValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}

func dsnPrefix(raw string) string {
	if idx := strings.Index(raw, ":"); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
