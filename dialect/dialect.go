// Package dialect describes the SQL engines exprql can target and the
// fixed text fragments that differ between them.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect identifies a target SQL engine.
type Dialect int

const (
	SQLServer Dialect = iota
	MySQL
	PostgreSQL
	Oracle
	SQLite
)

var dialectNames = [...]string{
	SQLServer:  "sqlserver",
	MySQL:      "mysql",
	PostgreSQL: "postgres",
	Oracle:     "oracle",
	SQLite:     "sqlite",
}

// aliases accepted by Parse in addition to the canonical names.
var aliases = map[string]Dialect{
	"mssql":      SQLServer,
	"sqlserver":  SQLServer,
	"mysql":      MySQL,
	"postgres":   PostgreSQL,
	"postgresql": PostgreSQL,
	"pg":         PostgreSQL,
	"oracle":     Oracle,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

func (d Dialect) String() string {
	if d < 0 || int(d) >= len(dialectNames) {
		return fmt.Sprintf("dialect(%d)", int(d))
	}
	return dialectNames[d]
}

// Valid reports whether d is one of the known dialects.
func (d Dialect) Valid() bool {
	return d >= 0 && int(d) < len(dialectNames)
}

// Parse resolves a dialect by name. Matching is case-insensitive and
// accepts common aliases such as "mssql", "postgresql" and "sqlite3".
func Parse(name string) (Dialect, error) {
	d, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("exprql: unknown dialect %q", name)
	}
	return d, nil
}

// All returns every dialect in declaration order.
func All() []Dialect {
	return []Dialect{SQLServer, MySQL, PostgreSQL, Oracle, SQLite}
}

// Names returns the canonical dialect names in declaration order.
func Names() []string {
	out := make([]string, len(dialectNames))
	copy(out, dialectNames[:])
	return out
}

// Profile returns the text profile for d. It panics on an unknown dialect,
// which can only come from converting an arbitrary integer.
func (d Dialect) Profile() *Profile {
	if !d.Valid() {
		panic(fmt.Sprintf("exprql: no profile for %s", d))
	}
	return profiles[d]
}

var profiles = [...]*Profile{
	SQLServer:  sqlServerProfile,
	MySQL:      mySQLProfile,
	PostgreSQL: postgresProfile,
	Oracle:     oracleProfile,
	SQLite:     sqliteProfile,
}
