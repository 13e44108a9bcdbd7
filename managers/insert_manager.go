package managers

import (
	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/plugins"
	"github.com/bawdo/exprql/visitors"
)

// InsertManager provides a fluent API for building INSERT statements.
type InsertManager struct {
	treeManager
	Statement    *nodes.InsertStatement
	includeNulls bool
}

// NewInsertManager creates an InsertManager writing to the table of into's
// entity type. Anonymous shapes and maps passed to Values resolve their
// members against that entity.
func NewInsertManager(into *nodes.ParameterNode, opts ...visitors.Option) *InsertManager {
	return &InsertManager{
		treeManager: treeManager{opts: opts},
		Statement:   &nodes.InsertStatement{Into: into},
	}
}

// Values appends rows. Each value is a node (New, MemberInit or an array
// of them) or an object: an entity, a shape, a map, or a slice of those.
func (m *InsertManager) Values(rows ...any) *InsertManager {
	for _, r := range rows {
		m.Statement.Values = append(m.Statement.Values, nodeOf(r))
	}
	return m
}

// IncludeNulls writes nil members as NULL instead of omitting them.
func (m *InsertManager) IncludeNulls(on ...bool) *InsertManager {
	m.includeNulls = len(on) == 0 || on[0]
	return m
}

// Use registers a transformer plugin.
func (m *InsertManager) Use(t plugins.Transformer) *InsertManager {
	m.addTransformer(t)
	return m
}

// Compile applies transformers and compiles the INSERT for d.
func (m *InsertManager) Compile(d dialect.Dialect) (*visitors.Context, error) {
	stmt := m.Statement.Clone()
	for _, t := range m.transformers {
		var err error
		stmt, err = t.TransformInsert(stmt)
		if err != nil {
			return nil, err
		}
	}
	ctx := m.newContext(d,
		visitors.WithDefaultType(stmt.Into.Type),
		visitors.WithIncludeNulls(m.includeNulls))
	e, _, err := ctx.ParameterTable(stmt.Into)
	if err != nil {
		return nil, err
	}
	ctx.WriteString("INSERT INTO " + ctx.Ident(e.Table) + " ")
	var rows nodes.Node
	if len(stmt.Values) > 0 {
		rows = listOf(stmt.Values)
	}
	if err := visitors.Compile(rows, visitors.Insert, ctx); err != nil {
		return nil, err
	}
	logCompiled(ctx)
	return ctx, nil
}

// ToSQL applies transformers and returns the INSERT for d.
func (m *InsertManager) ToSQL(d dialect.Dialect) (string, []any, error) {
	return toSQL(m.Compile(d))
}

// nodeOf wraps a plain value in a constant node.
func nodeOf(v any) nodes.Node {
	if n, ok := v.(nodes.Node); ok {
		return n
	}
	return nodes.Const(v)
}
