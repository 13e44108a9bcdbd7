package managers

import (
	"fmt"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/plugins"
	"github.com/bawdo/exprql/visitors"
)

// SelectManager provides a fluent API for building SELECT queries over the
// rows of one or more entity parameters. It wraps a SelectCore and applies
// transformer plugins before SQL generation.
type SelectManager struct {
	treeManager
	Core *nodes.SelectCore
}

// NewSelectManager creates a SelectManager reading the rows of from. opts
// configure every Context the manager compiles into.
func NewSelectManager(from *nodes.ParameterNode, opts ...visitors.Option) *SelectManager {
	return &SelectManager{
		treeManager: treeManager{opts: opts},
		Core:        &nodes.SelectCore{From: from, Limit: -1},
	}
}

// Select sets the projection, replacing any existing one. Several items
// are projected as a list; none selects every column.
func (m *SelectManager) Select(items ...nodes.Node) *SelectManager {
	m.Core.Projection = listOf(items)
	return m
}

// Distinct enables or disables the DISTINCT modifier.
func (m *SelectManager) Distinct(on ...bool) *SelectManager {
	m.Core.Distinct = len(on) == 0 || on[0]
	return m
}

// Where appends conditions to the WHERE clause. All conditions are
// combined with AND.
func (m *SelectManager) Where(conditions ...nodes.Node) *SelectManager {
	m.Core.Wheres = append(m.Core.Wheres, conditions...)
	return m
}

// Join adds an inner join to the rows of p and returns a JoinContext for
// the ON condition.
func (m *SelectManager) Join(p *nodes.ParameterNode) *JoinContext {
	return m.join(nodes.InnerJoin, p)
}

// LeftJoin adds a LEFT JOIN.
func (m *SelectManager) LeftJoin(p *nodes.ParameterNode) *JoinContext {
	return m.join(nodes.LeftJoin, p)
}

// RightJoin adds a RIGHT JOIN.
func (m *SelectManager) RightJoin(p *nodes.ParameterNode) *JoinContext {
	return m.join(nodes.RightJoin, p)
}

// FullJoin adds a FULL JOIN.
func (m *SelectManager) FullJoin(p *nodes.ParameterNode) *JoinContext {
	return m.join(nodes.FullJoin, p)
}

func (m *SelectManager) join(kind nodes.JoinKind, p *nodes.ParameterNode) *JoinContext {
	j := &nodes.JoinClause{Kind: kind, Param: p}
	m.Core.Joins = append(m.Core.Joins, j)
	return &JoinContext{manager: m, join: j}
}

// GroupBy appends expressions to the GROUP BY clause.
func (m *SelectManager) GroupBy(columns ...nodes.Node) *SelectManager {
	m.Core.Groups = append(m.Core.Groups, columns...)
	return m
}

// Having appends conditions to the HAVING clause, combined with AND.
func (m *SelectManager) Having(conditions ...nodes.Node) *SelectManager {
	m.Core.Havings = append(m.Core.Havings, conditions...)
	return m
}

// OrderBy appends an ordering. dirs apply positionally when expr is a list
// of several items and default to ascending.
func (m *SelectManager) OrderBy(expr nodes.Node, dirs ...nodes.Direction) *SelectManager {
	m.Core.Orders = append(m.Core.Orders, &nodes.OrderClause{Expr: expr, Dirs: dirs})
	return m
}

// Limit bounds the number of rows returned. A negative n removes the bound.
func (m *SelectManager) Limit(n int) *SelectManager {
	m.Core.Limit = n
	return m
}

// Offset skips the first n rows.
func (m *SelectManager) Offset(n int) *SelectManager {
	m.Core.Offset = n
	return m
}

// Page selects page index (zero based) of the given size.
func (m *SelectManager) Page(size, index int) *SelectManager {
	m.Core.Limit = size
	m.Core.Offset = size * max(index, 0)
	return m
}

// Use registers a transformer plugin to be applied before SQL generation.
func (m *SelectManager) Use(t plugins.Transformer) *SelectManager {
	m.addTransformer(t)
	return m
}

// transformed runs the plugin pipeline over a copy of the core.
func (m *SelectManager) transformed() (*nodes.SelectCore, error) {
	core := m.Core.Clone()
	for _, t := range m.transformers {
		var err error
		core, err = t.TransformSelect(core)
		if err != nil {
			return nil, err
		}
	}
	return core, nil
}

// Compile applies transformers and compiles the statement for d. The
// returned Context carries the SQL text, the bound parameters and the
// projected field names.
func (m *SelectManager) Compile(d dialect.Dialect) (*visitors.Context, error) {
	core, err := m.transformed()
	if err != nil {
		return nil, err
	}
	ctx := m.newContext(d)
	if err := writeSelect(ctx, core); err != nil {
		return nil, err
	}
	logCompiled(ctx)
	return ctx, nil
}

// ToSQL applies transformers and returns the SQL for d with its arguments
// in placeholder order.
func (m *SelectManager) ToSQL(d dialect.Dialect) (string, []any, error) {
	return toSQL(m.Compile(d))
}

func writeSelect(ctx *visitors.Context, core *nodes.SelectCore) error {
	if core.From == nil {
		return fmt.Errorf("%w: select has no FROM parameter", mapping.ErrNoTable)
	}
	// Aliases are bound in FROM and JOIN order before any column renders.
	from, fromAlias, err := ctx.ParameterTable(core.From)
	if err != nil {
		return err
	}
	joinRefs := make([]string, len(core.Joins))
	for i, j := range core.Joins {
		e, alias, err := ctx.ParameterTable(j.Param)
		if err != nil {
			return err
		}
		joinRefs[i] = ctx.TableRef(e.Table, alias)
	}

	ctx.WriteString("SELECT ")
	if core.Distinct {
		ctx.WriteString("DISTINCT ")
	}
	if err := visitors.Compile(core.Projection, visitors.Select, ctx); err != nil {
		return err
	}
	ctx.WriteString(" FROM " + ctx.TableRef(from.Table, fromAlias))

	for i, j := range core.Joins {
		ctx.WriteString(" " + j.Kind.String() + " " + joinRefs[i] + " ON ")
		mark := ctx.Len()
		if j.On != nil {
			if err := visitors.Compile(j.On, visitors.Join, ctx); err != nil {
				return err
			}
		}
		if ctx.Len() == mark {
			ctx.WriteString("1 = 1")
		}
	}

	if err := writeCondition(ctx, " WHERE ", core.Wheres, visitors.Where); err != nil {
		return err
	}
	if len(core.Groups) > 0 {
		ctx.WriteString(" GROUP BY ")
		if err := visitors.Compile(listOf(core.Groups), visitors.GroupBy, ctx); err != nil {
			return err
		}
	}
	if err := writeCondition(ctx, " HAVING ", core.Havings, visitors.Having); err != nil {
		return err
	}
	if len(core.Orders) > 0 {
		ctx.WriteString(" ORDER BY ")
		for i, o := range core.Orders {
			if i > 0 {
				ctx.WriteString(", ")
			}
			if err := visitors.Compile(o.Expr, visitors.OrderBy, ctx, o.Dirs...); err != nil {
				return err
			}
		}
	}

	if core.Limit >= 0 || core.Offset > 0 {
		p := ctx.Profile()
		if p.PagingNeedsOrder && len(core.Orders) == 0 {
			ctx.WriteString(" ORDER BY (SELECT NULL)")
		}
		ctx.WriteString(" " + p.Page(core.Limit, core.Offset))
	}
	return nil
}

// listOf collapses items into the single node a clause compiles.
func listOf(items []nodes.Node) nodes.Node {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return items[0]
	}
	return &nodes.NewArrayNode{Items: items}
}
