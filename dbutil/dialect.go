package dbutil

import (
	"strconv"
	"strings"
)

// Dialect is the flavor of SQL a database speaks.  Queries are written with
// ? placeholders and rebound for Postgres.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// Rebind rewrites ? placeholders as $1, $2, ... for Postgres.  It doesn't
// understand quoting, so don't put a literal ? in a query.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
