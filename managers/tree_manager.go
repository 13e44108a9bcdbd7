// Package managers provides fluent builders that assemble whole SQL
// statements from expression trees.
package managers

import (
	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/plugins"
	"github.com/bawdo/exprql/visitors"
)

// treeManager is the shared base for all manager types. It holds the
// transformer pipeline and the Context options common to every statement.
type treeManager struct {
	transformers []plugins.Transformer
	opts         []visitors.Option
}

// addTransformer appends a transformer plugin to the pipeline.
func (tm *treeManager) addTransformer(t plugins.Transformer) {
	tm.transformers = append(tm.transformers, t)
}

// Transformers returns the registered transformer pipeline.
func (tm *treeManager) Transformers() []plugins.Transformer {
	return tm.transformers
}

// newContext creates the Context a statement compiles into. extra options
// are applied after the manager's own.
func (tm *treeManager) newContext(d dialect.Dialect, extra ...visitors.Option) *visitors.Context {
	opts := make([]visitors.Option, 0, len(tm.opts)+len(extra))
	opts = append(opts, tm.opts...)
	opts = append(opts, extra...)
	return visitors.NewContext(d, opts...)
}

// toSQL is the shared tail of every manager's ToSQL.
func toSQL(ctx *visitors.Context, err error) (string, []any, error) {
	if err != nil {
		return "", nil, err
	}
	return ctx.String(), ctx.Args(), nil
}

// logCompiled reports a finished statement through the Context logger.
func logCompiled(ctx *visitors.Context) {
	ctx.Logger().Debug("compiled statement",
		"dialect", ctx.Dialect().String(),
		"sql", ctx.String(),
		"params", len(ctx.Params()))
}

// writeCondition appends keyword followed by the AND of conds. The keyword
// is dropped again when the conditions compile to nothing.
func writeCondition(ctx *visitors.Context, keyword string, conds []nodes.Node, clause visitors.Clause) error {
	if len(conds) == 0 {
		return nil
	}
	start := ctx.Len()
	ctx.WriteString(keyword)
	mark := ctx.Len()
	if err := visitors.Compile(nodes.And(conds...), clause, ctx); err != nil {
		return err
	}
	if ctx.Len() == mark {
		ctx.Truncate(start)
	}
	return nil
}
