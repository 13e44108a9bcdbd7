package plugins

import (
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
)

// ParamRef pairs a row parameter with the table its entity maps to.
type ParamRef struct {
	Param  *nodes.ParameterNode
	Entity *mapping.Entity
}

// Table returns the mapped table name.
func (r ParamRef) Table() string { return r.Entity.Table }

// CollectParams resolves every parameter in the FROM and JOIN clauses of
// core. Parameters whose type the resolver cannot map, such as anonymous
// shapes, are skipped.
func CollectParams(core *nodes.SelectCore, r mapping.Resolver) []ParamRef {
	var refs []ParamRef
	for _, p := range core.Params() {
		if ref, ok := resolve(p, r); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// StatementParam resolves the single table parameter of an UPDATE or DELETE.
func StatementParam(p *nodes.ParameterNode, r mapping.Resolver) (ParamRef, bool) {
	return resolve(p, r)
}

func resolve(p *nodes.ParameterNode, r mapping.Resolver) (ParamRef, bool) {
	if p == nil || r.IsAnonymous(p.Type) {
		return ParamRef{}, false
	}
	e, err := r.Entity(p.Type)
	if err != nil {
		return ParamRef{}, false
	}
	return ParamRef{Param: p, Entity: e}, true
}
