// Package exprql compiles typed expression trees into parameterised SQL
// for SQL Server, MySQL, PostgreSQL, Oracle and SQLite.
//
// This package re-exports commonly used types and functions from its
// subpackages. Advanced users can import the subpackages directly:
//   - github.com/bawdo/exprql/managers (statement builders)
//   - github.com/bawdo/exprql/nodes (expression trees)
//   - github.com/bawdo/exprql/visitors (SQL generation)
//   - github.com/bawdo/exprql/mapping (struct to table mapping)
//   - github.com/bawdo/exprql/plugins (statement transformers)
package exprql

import (
	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/managers"
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/visitors"
)

// --- Manager Types ---

// SelectManager builds SELECT statements.
type SelectManager = managers.SelectManager

// InsertManager builds INSERT statements.
type InsertManager = managers.InsertManager

// UpdateManager builds UPDATE statements.
type UpdateManager = managers.UpdateManager

// DeleteManager builds DELETE statements.
type DeleteManager = managers.DeleteManager

// --- Manager Constructors ---

// NewSelect starts a SELECT over the rows of from.
func NewSelect(from *nodes.ParameterNode, opts ...visitors.Option) *managers.SelectManager {
	return managers.NewSelectManager(from, opts...)
}

// NewInsert starts an INSERT into the table of into.
func NewInsert(into *nodes.ParameterNode, opts ...visitors.Option) *managers.InsertManager {
	return managers.NewInsertManager(into, opts...)
}

// NewUpdate starts an UPDATE of the table of table.
func NewUpdate(table *nodes.ParameterNode, opts ...visitors.Option) *managers.UpdateManager {
	return managers.NewUpdateManager(table, opts...)
}

// NewDelete starts a DELETE from the table of from.
func NewDelete(from *nodes.ParameterNode, opts ...visitors.Option) *managers.DeleteManager {
	return managers.NewDeleteManager(from, opts...)
}

// --- Nodes ---

// Node is the interface every expression node implements.
type Node = nodes.Node

// Dialect selects the SQL flavour a statement is compiled for.
type Dialect = dialect.Dialect

const (
	SQLServer  = dialect.SQLServer
	MySQL      = dialect.MySQL
	PostgreSQL = dialect.PostgreSQL
	Oracle     = dialect.Oracle
	SQLite     = dialect.SQLite
)

// Param declares a row of T named name.
func Param[T any](name string) *nodes.ParameterNode {
	return nodes.Param[T](name)
}

// Const wraps a Go value. It is sent as a bind parameter.
func Const(v any) *nodes.ConstantNode {
	return nodes.Const(v)
}

// And joins conditions with AND. Nil conditions are skipped.
func And(conds ...nodes.Node) nodes.Node {
	return nodes.And(conds...)
}

// Or joins conditions with OR.
func Or(conds ...nodes.Node) nodes.Node {
	return nodes.Or(conds...)
}

// Not negates a condition.
func Not(x nodes.Node) nodes.Node {
	return nodes.Not(x)
}

// Lambda binds body to the given rows.
func Lambda(body nodes.Node, params ...*nodes.ParameterNode) *nodes.LambdaNode {
	return nodes.Lambda(body, params...)
}

// Bind names a member of an anonymous shape built with New.
func Bind(name string, v any) nodes.Binding {
	return nodes.Bind(name, v)
}

// New builds an anonymous shape used for projections and SET lists.
func New(members ...nodes.Binding) *nodes.NewNode {
	return nodes.New(members...)
}

// --- Aggregates ---

// Count counts rows, or the rows where x holds.
func Count(x ...nodes.Node) *nodes.CallNode { return nodes.Count(x...) }

// Sum totals x.
func Sum(x nodes.Node) *nodes.CallNode { return nodes.Sum(x) }

// Avg averages x.
func Avg(x nodes.Node) *nodes.CallNode { return nodes.Avg(x) }

// Min returns the smallest x.
func Min(x nodes.Node) *nodes.CallNode { return nodes.Min(x) }

// Max returns the largest x.
func Max(x nodes.Node) *nodes.CallNode { return nodes.Max(x) }

// --- Options ---

// NewRegistry creates a table mapping registry.
func NewRegistry(opts ...mapping.Option) *mapping.Registry {
	return mapping.NewRegistry(opts...)
}

// WithResolver compiles against r instead of the default registry.
func WithResolver(r mapping.Resolver) visitors.Option {
	return visitors.WithResolver(r)
}

// WithQuotedIdentifiers quotes every table, alias and column name.
func WithQuotedIdentifiers(on bool) visitors.Option {
	return visitors.WithQuotedIdentifiers(on)
}

// Interpolate writes the parameters of a compiled statement into its text
// as literals. The result is for display only and must never be executed.
func Interpolate(ctx *visitors.Context, d dialect.Dialect) string {
	return visitors.Interpolate(ctx.String(), ctx.Params(), d)
}
