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

// DeleteManager provides a fluent API for building DELETE statements.
// Columns render without a table alias.
type DeleteManager struct {
	treeManager
	Statement *nodes.DeleteStatement
	byKey     []any
}

// NewDeleteManager creates a DeleteManager removing rows of from's entity
// table.
func NewDeleteManager(from *nodes.ParameterNode, opts ...visitors.Option) *DeleteManager {
	return &DeleteManager{
		treeManager: treeManager{opts: opts},
		Statement:   &nodes.DeleteStatement{From: from},
	}
}

// Where appends conditions to the WHERE clause.
func (m *DeleteManager) Where(conditions ...nodes.Node) *DeleteManager {
	m.Statement.Wheres = append(m.Statement.Wheres, conditions...)
	return m
}

// ByKey restricts the statement to the rows whose primary key matches one
// of entities. The key columns are resolved at compile time.
func (m *DeleteManager) ByKey(entities ...any) *DeleteManager {
	m.byKey = append(m.byKey, entities...)
	return m
}

// Use registers a transformer plugin.
func (m *DeleteManager) Use(t plugins.Transformer) *DeleteManager {
	m.addTransformer(t)
	return m
}

// Compile applies transformers and compiles the DELETE for d.
func (m *DeleteManager) Compile(d dialect.Dialect) (*visitors.Context, error) {
	ctx := m.newContext(d, visitors.WithSingleTable(true))
	e, _, err := ctx.ParameterTable(m.Statement.From)
	if err != nil {
		return nil, err
	}

	stmt := m.Statement.Clone()
	if len(m.byKey) > 0 {
		keyed, err := m.keyConditions(e)
		if err != nil {
			return nil, err
		}
		stmt.Wheres = append(stmt.Wheres, keyed)
	}
	for _, t := range m.transformers {
		stmt, err = t.TransformDelete(stmt)
		if err != nil {
			return nil, err
		}
	}

	ctx.WriteString("DELETE FROM " + ctx.Ident(e.Table))
	if err := writeCondition(ctx, " WHERE ", stmt.Wheres, visitors.Where); err != nil {
		return nil, err
	}
	logCompiled(ctx)
	return ctx, nil
}

// ToSQL applies transformers and returns the DELETE for d.
func (m *DeleteManager) ToSQL(d dialect.Dialect) (string, []any, error) {
	return toSQL(m.Compile(d))
}

// keyConditions ORs together the key predicates of the ByKey entities.
func (m *DeleteManager) keyConditions(e *mapping.Entity) (nodes.Node, error) {
	conds := make([]nodes.Node, 0, len(m.byKey))
	for _, v := range m.byKey {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || mapping.Indirect(rv.Type()) != e.Type {
			return nil, fmt.Errorf("exprql: ByKey value %T is not a %s", v, e.Type)
		}
		pred := keyPredicate(e, m.Statement.From, rv)
		if pred == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoKey, e.Type)
		}
		conds = append(conds, pred)
	}
	return nodes.Or(conds...), nil
}
