// Package policy provides a Transformer that enforces row-level access
// rules by injecting policy-derived WHERE conditions.
//
// You supply a [PolicyFunc] that is called once per table referenced in a
// statement. It returns zero or more predicates to AND into the WHERE
// clause. Returning an error rejects the statement.
//
// A predicate that is a single-parameter lambda is applied to the row
// parameter of the statement, so the rule renders with the query's own
// alias:
//
//	rules := func(table string) ([]nodes.Node, error) {
//	    switch table {
//	    case "secrets":
//	        return nil, errors.New("access denied")
//	    case "customers":
//	        c := nodes.Param[Customer]("c")
//	        return []nodes.Node{nodes.Lambda(c.Field("TenantID").Eq(42), c)}, nil
//	    }
//	    return nil, nil
//	}
//
//	query := managers.NewSelectManager(nodes.Param[Customer]("x")).Use(policy.New(rules))
//	// SELECT * FROM customers AS x WHERE x.tenant_id = @p1
//
// Other predicates are appended unchanged.
package policy

import (
	"fmt"

	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/plugins"
)

// PolicyFunc evaluates a policy for the given table name and returns
// conditions to inject into the statement's WHERE clause.
type PolicyFunc func(table string) ([]nodes.Node, error)

// Option configures a Policy transformer.
type Option func(*Policy)

// WithResolver sets the entity resolver. Default is mapping.Default.
func WithResolver(r mapping.Resolver) Option {
	return func(p *Policy) { p.resolver = r }
}

// Policy is a Transformer that evaluates a PolicyFunc against every table
// of a SELECT, UPDATE or DELETE.
type Policy struct {
	plugins.BaseTransformer
	eval     PolicyFunc
	resolver mapping.Resolver
}

// New creates a Policy transformer with the given policy function.
func New(fn PolicyFunc, opts ...Option) *Policy {
	p := &Policy{eval: fn, resolver: mapping.Default}
	for _, o := range opts {
		o(p)
	}
	return p
}

// TransformSelect applies the policy to the FROM and JOIN tables.
func (p *Policy) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	for _, ref := range plugins.CollectParams(core, p.resolver) {
		conds, err := p.conditions(ref)
		if err != nil {
			return nil, err
		}
		core.Wheres = append(core.Wheres, conds...)
	}
	return core, nil
}

// TransformUpdate applies the policy to the updated table.
func (p *Policy) TransformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	ref, ok := plugins.StatementParam(stmt.Table, p.resolver)
	if !ok {
		return stmt, nil
	}
	conds, err := p.conditions(ref)
	if err != nil {
		return nil, err
	}
	stmt.Wheres = append(stmt.Wheres, conds...)
	return stmt, nil
}

// TransformDelete applies the policy to the table rows are deleted from.
func (p *Policy) TransformDelete(stmt *nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	ref, ok := plugins.StatementParam(stmt.From, p.resolver)
	if !ok {
		return stmt, nil
	}
	conds, err := p.conditions(ref)
	if err != nil {
		return nil, err
	}
	stmt.Wheres = append(stmt.Wheres, conds...)
	return stmt, nil
}

func (p *Policy) conditions(ref plugins.ParamRef) ([]nodes.Node, error) {
	conds, err := p.eval(ref.Table())
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", ref.Table(), err)
	}
	out := make([]nodes.Node, 0, len(conds))
	for _, c := range conds {
		if l, ok := c.(*nodes.LambdaNode); ok && len(l.Params) == 1 {
			c = nodes.Invoke(l, ref.Param)
		}
		out = append(out, c)
	}
	return out, nil
}
