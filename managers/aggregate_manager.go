package managers

import (
	"fmt"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/visitors"
)

// AggregateManager builds a single-value query such as
// "SELECT COUNT(*) FROM customers AS c WHERE ...". It shares the clause
// builders of SelectManager; the projection is replaced by the aggregate.
type AggregateManager struct {
	*SelectManager
	fn     visitors.Clause
	target nodes.Node
}

// NewAggregateManager creates a manager applying fn (visitors.Count, Sum,
// Avg, Min or Max) to target over the rows of from. A nil target counts
// rows.
func NewAggregateManager(fn visitors.Clause, from *nodes.ParameterNode, target nodes.Node, opts ...visitors.Option) *AggregateManager {
	return &AggregateManager{
		SelectManager: NewSelectManager(from, opts...),
		fn:            fn,
		target:        target,
	}
}

// Where appends conditions to the WHERE clause.
func (m *AggregateManager) Where(conditions ...nodes.Node) *AggregateManager {
	m.SelectManager.Where(conditions...)
	return m
}

// Compile applies transformers and compiles the aggregate query for d.
func (m *AggregateManager) Compile(d dialect.Dialect) (*visitors.Context, error) {
	if !m.fn.IsAggregate() {
		return nil, fmt.Errorf("%w: %s", ErrNotAggregate, m.fn)
	}
	core, err := m.transformed()
	if err != nil {
		return nil, err
	}
	core.Projection = aggregateCall(m.fn, m.target)
	ctx := m.newContext(d)
	if err := writeSelect(ctx, core); err != nil {
		return nil, err
	}
	logCompiled(ctx)
	return ctx, nil
}

// ToSQL applies transformers and returns the aggregate SQL for d.
func (m *AggregateManager) ToSQL(d dialect.Dialect) (string, []any, error) {
	return toSQL(m.Compile(d))
}

func aggregateCall(fn visitors.Clause, target nodes.Node) *nodes.CallNode {
	switch fn {
	case visitors.Sum:
		return nodes.Sum(target)
	case visitors.Avg:
		return nodes.Avg(target)
	case visitors.Min:
		return nodes.Min(target)
	case visitors.Max:
		return nodes.Max(target)
	}
	if target == nil {
		return nodes.Count()
	}
	return nodes.Count(target)
}
