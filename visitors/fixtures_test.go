package visitors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/nodes"
)

type customer struct {
	ID      int64   `db:"id,pk,auto"`
	Name    string  `db:"name"`
	Email   *string `db:"email"`
	Active  bool    `db:"active"`
	Age     int     `db:"age"`
	Balance float64 `db:"balance,type=decimal"`
}

type order struct {
	ID         int64   `db:"id,pk,auto"`
	CustomerID int64   `db:"customer_id"`
	Total      float64 `db:"total"`
	Status     string  `db:"status"`
}

type point struct {
	A int `db:"col_a"`
	B int `db:"col_b"`
}

// compile renders n under clause for d and fails the test on error.
func compile(t *testing.T, d dialect.Dialect, clause Clause, n nodes.Node, opts ...Option) *Context {
	t.Helper()
	ctx := NewContext(d, opts...)
	require.NoError(t, Compile(n, clause, ctx))
	return ctx
}

// compileErr renders n under clause for SQL Server and returns the error.
func compileErr(n nodes.Node, clause Clause, opts ...Option) error {
	return Compile(n, clause, NewContext(dialect.SQLServer, opts...))
}
