package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/exprql/dialect"
)

// TestSQLiteRoundTrip runs generated statements against an in-memory
// SQLite database.
func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	sess, buf := newTestSession(t, dialect.SQLite)
	run(t, sess, "connect :memory:")
	t.Cleanup(sess.close)
	assert.Contains(t, buf.String(), "Connected to :memory: (0 tables)")

	_, err := sess.conn.db.ExecContext(context.Background(), `CREATE TABLE customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT,
		age INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		deleted_at TIMESTAMP
	)`)
	require.NoError(t, err)

	run(t, sess, "insert customer name='Alice' age=34", "values name='Bob' age=17")
	buf.Reset()
	run(t, sess, "exec")
	assert.Equal(t, "(2 rows affected)\n", buf.String())

	run(t, sess, "from customer c", "select c.name, c.age", "where c.age >= 18", "order c.name")
	buf.Reset()
	run(t, sess, "exec")
	out := buf.String()
	assert.Contains(t, out, "| Alice | 34  |")
	assert.NotContains(t, out, "Bob")
	assert.Contains(t, out, "(1 row)")

	run(t, sess, "update customer set age = customer.age + 1 where customer.name = 'Bob'", "exec")
	run(t, sess, "delete customer where customer.age < 20")
	buf.Reset()
	run(t, sess, "exec")
	assert.Equal(t, "(1 row affected)\n", buf.String())

	run(t, sess, "from customer c", "select count(*) as n")
	buf.Reset()
	run(t, sess, "exec")
	assert.Contains(t, buf.String(), "| 1 |")
}

func TestSQLiteConnectLoadsTables(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn, err := connect(ctx, dialect.SQLite, ":memory:", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer func() { _ = conn.close() }()

	_, err = conn.db.ExecContext(ctx, "CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL)")
	require.NoError(t, err)
	require.NoError(t, conn.loadSchema(ctx))
	assert.Equal(t, []string{"orders"}, conn.tables)
}
