package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect describes how to reach one supported relational backend.
type Dialect struct {
	// Name is "sqlite" or "postgres".
	Name string
	// Driver is the database/sql driver name.
	Driver string
	// DSN is passed to sql.Open.
	DSN string
	// Path is the SQLite database file, empty for Postgres.
	Path string
	// MigrateURL is the golang-migrate database URL.
	MigrateURL string
}

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// ParseDatabaseURL maps DATABASE_URL onto a Dialect.
// Accepted forms: sqlite://<path>, postgres://..., postgresql://...
func ParseDatabaseURL(raw string) (Dialect, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path == "" {
			return Dialect{}, fmt.Errorf("sqlite url %q has no path", raw)
		}
		return Dialect{
			Name:       "sqlite",
			Driver:     "sqlite",
			DSN:        path + "?" + sqlitePragmas,
			Path:       path,
			MigrateURL: "sqlite://" + path,
		}, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		rest := raw[strings.Index(raw, "://")+3:]
		return Dialect{
			Name:       "postgres",
			Driver:     "pgx",
			DSN:        raw,
			MigrateURL: "pgx5://" + rest,
		}, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database url %q", raw)
	}
}

// Rebind rewrites ? placeholders into the dialect's positional form.
func (d Dialect) Rebind(query string) string {
	if d.Name != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
