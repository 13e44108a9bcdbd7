package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/bawdo/exprql/dialect"
)

// driverName maps the dialects that have a bundled database/sql driver.
var driverName = map[dialect.Dialect]string{
	dialect.PostgreSQL: "pgx",
	dialect.MySQL:      "mysql",
	dialect.SQLite:     "sqlite",
}

const maxRows = 1000

type dbConn struct {
	db      *sql.DB
	dsn     string
	dialect dialect.Dialect
	tables  []string
}

func connect(ctx context.Context, d dialect.Dialect, dsn string, logger *slog.Logger) (*dbConn, error) {
	driver, ok := driverName[d]
	if !ok {
		return nil, fmt.Errorf("no driver for dialect %s", d)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if d == dialect.SQLite {
		// Every connection to :memory: opens a fresh database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	conn := &dbConn{db: db, dsn: dsn, dialect: d}
	if err := conn.loadSchema(ctx); err != nil {
		logger.Warn("schema introspection failed", "dialect", d.String(), "err", err)
	}
	return conn, nil
}

func (c *dbConn) close() error {
	return c.db.Close()
}

func (c *dbConn) execQuery(ctx context.Context, sqlStr string, params []any) (string, error) {
	rows, err := c.db.QueryContext(ctx, sqlStr, params...)
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return formatRows(rows)
}

func (c *dbConn) execStatement(ctx context.Context, sqlStr string, params []any) (string, error) {
	res, err := c.db.ExecContext(ctx, sqlStr, params...)
	if err != nil {
		return "", fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return "(1 row affected)\n", nil
	}
	return fmt.Sprintf("(%d rows affected)\n", n), nil
}

func formatRows(rows *sql.Rows) (string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("columns: %w", err)
	}

	var data [][]string
	truncated := false
	for rows.Next() {
		if len(data) >= maxRows {
			truncated = true
			break
		}
		vals := make([]*sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			vals[i] = &sql.NullString{}
			ptrs[i] = vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("scan: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("rows: %w", err)
	}

	result := formatTable(columns, data)
	if truncated {
		result += fmt.Sprintf("(truncated at %d rows)\n", maxRows)
	}
	return result, nil
}

func formatTable(columns []string, rows [][]string) string {
	if len(columns) == 0 {
		return "(0 rows)\n"
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	sep := buildSeparator(widths)

	b.WriteString(sep)
	b.WriteByte('|')
	for i, c := range columns {
		fmt.Fprintf(&b, " %-*s |", widths[i], c)
	}
	b.WriteByte('\n')
	b.WriteString(sep)

	for _, row := range rows {
		b.WriteByte('|')
		for i, cell := range row {
			fmt.Fprintf(&b, " %-*s |", widths[i], cell)
		}
		b.WriteByte('\n')
	}
	b.WriteString(sep)

	if n := len(rows); n == 1 {
		b.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(&b, "(%d rows)\n", n)
	}
	return b.String()
}

func buildSeparator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

// tableQueries list the user tables of a connected database.
var tableQueries = map[dialect.Dialect]string{
	dialect.PostgreSQL: "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name",
	dialect.MySQL:      "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name",
	dialect.SQLite:     "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
}

func (c *dbConn) loadSchema(ctx context.Context) error {
	query, ok := tableQueries[c.dialect]
	if !ok {
		return fmt.Errorf("unsupported dialect: %s", c.dialect)
	}
	tables, err := c.queryStringColumn(ctx, query)
	if err != nil {
		return err
	}
	c.tables = tables
	return nil
}

func (c *dbConn) queryStringColumn(ctx context.Context, query string, params ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// sanitizeDSN masks the password of URL and MySQL style DSNs.
func sanitizeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			// Rebuild manually to avoid percent-encoding the mask.
			masked := u.Scheme + "://" + u.User.Username() + ":****@" + u.Host + u.Path
			if u.RawQuery != "" {
				masked += "?" + u.RawQuery
			}
			return masked
		}
		return dsn
	}

	if strings.Contains(dsn, "@") {
		if cfg, err := mysql.ParseDSN(dsn); err == nil && cfg.Passwd != "" {
			cfg.Passwd = "****"
			return cfg.FormatDSN()
		}
	}
	return dsn
}

// mysqlDSN builds a go-sql-driver DSN from its parts.
func mysqlDSN(user, pass, host, port, database string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = host + ":" + port
	cfg.DBName = database
	return cfg.FormatDSN()
}

// postgresDSN builds a URL style DSN understood by pgx.
func postgresDSN(user, pass, host, port, database, sslMode string) string {
	userInfo := url.User(user)
	if pass != "" {
		userInfo = url.UserPassword(user, pass)
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     host + ":" + port,
		Path:     "/" + database,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}
