package managers

import (
	"fmt"
	"reflect"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/plugins"
	"github.com/bawdo/exprql/visitors"
)

// UpdateManager provides a fluent API for building UPDATE statements.
// Columns render without a table alias.
type UpdateManager struct {
	treeManager
	Statement    *nodes.UpdateStatement
	includeNulls bool
}

// NewUpdateManager creates an UpdateManager for the table of table's
// entity type.
func NewUpdateManager(table *nodes.ParameterNode, opts ...visitors.Option) *UpdateManager {
	return &UpdateManager{
		treeManager: treeManager{opts: opts},
		Statement:   &nodes.UpdateStatement{Table: table},
	}
}

// Set sets the assigned values: a New or MemberInit node, or an object.
// When the value is an entity of the table's type and no Where is given,
// the statement filters on the entity's primary key.
func (m *UpdateManager) Set(values any) *UpdateManager {
	m.Statement.Set = nodeOf(values)
	return m
}

// Where appends conditions to the WHERE clause.
func (m *UpdateManager) Where(conditions ...nodes.Node) *UpdateManager {
	m.Statement.Wheres = append(m.Statement.Wheres, conditions...)
	return m
}

// IncludeNulls writes nil members as NULL instead of omitting them.
func (m *UpdateManager) IncludeNulls(on ...bool) *UpdateManager {
	m.includeNulls = len(on) == 0 || on[0]
	return m
}

// Use registers a transformer plugin.
func (m *UpdateManager) Use(t plugins.Transformer) *UpdateManager {
	m.addTransformer(t)
	return m
}

// Compile applies transformers and compiles the UPDATE for d.
func (m *UpdateManager) Compile(d dialect.Dialect) (*visitors.Context, error) {
	ctx := m.newContext(d,
		visitors.WithDefaultType(m.Statement.Table.Type),
		visitors.WithIncludeNulls(m.includeNulls),
		visitors.WithSingleTable(true))
	e, _, err := ctx.ParameterTable(m.Statement.Table)
	if err != nil {
		return nil, err
	}

	stmt := m.Statement.Clone()
	if len(stmt.Wheres) == 0 {
		if keyed, ok := keyFilter(e, stmt.Table, stmt.Set); ok {
			if keyed == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoKey, e.Type)
			}
			stmt.Wheres = []nodes.Node{keyed}
		}
	}
	for _, t := range m.transformers {
		stmt, err = t.TransformUpdate(stmt)
		if err != nil {
			return nil, err
		}
	}

	ctx.WriteString("UPDATE " + ctx.Ident(e.Table) + " SET ")
	if err := visitors.Compile(stmt.Set, visitors.Update, ctx); err != nil {
		return nil, err
	}
	if err := writeCondition(ctx, " WHERE ", stmt.Wheres, visitors.Where); err != nil {
		return nil, err
	}
	logCompiled(ctx)
	return ctx, nil
}

// ToSQL applies transformers and returns the UPDATE for d.
func (m *UpdateManager) ToSQL(d dialect.Dialect) (string, []any, error) {
	return toSQL(m.Compile(d))
}

// keyFilter builds "key = value AND ..." from v when v is a constant
// holding an entity of e's type. ok is false for any other value; a nil
// node with ok set means the entity declares no key.
func keyFilter(e *mapping.Entity, p *nodes.ParameterNode, v nodes.Node) (nodes.Node, bool) {
	c, isConst := v.(*nodes.ConstantNode)
	if !isConst || c.Value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(c.Value)
	if mapping.Indirect(rv.Type()) != e.Type {
		return nil, false
	}
	return keyPredicate(e, p, rv), true
}

// keyPredicate matches p's key columns to the values read from rv. It
// returns nil when e has no key.
func keyPredicate(e *mapping.Entity, p *nodes.ParameterNode, rv reflect.Value) nodes.Node {
	keys := e.Keys()
	if len(keys) == 0 {
		return nil
	}
	conds := make([]nodes.Node, len(keys))
	for i, k := range keys {
		conds[i] = p.Field(k.Member).Eq(k.Value(rv))
	}
	return nodes.And(conds...)
}
