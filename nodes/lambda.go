package nodes

import "errors"

// LambdaNode is a function literal over row parameters.
type LambdaNode struct {
	Body   Node
	Params []*ParameterNode
}

// Lambda creates a LambdaNode.
func Lambda(body Node, params ...*ParameterNode) *LambdaNode {
	return &LambdaNode{Body: body, Params: params}
}

func (n *LambdaNode) Kind() Kind { return KindLambda }
func (n *LambdaNode) Accept(v Visitor) error { return v.VisitLambda(n) }

// InvocationNode applies Expr, which must evaluate to a lambda, to Args.
type InvocationNode struct {
	Expr Node
	Args []Node
}

// Invoke creates an InvocationNode.
func Invoke(expr Node, args ...Node) *InvocationNode {
	return &InvocationNode{Expr: expr, Args: args}
}

func (n *InvocationNode) Kind() Kind { return KindInvocation }
func (n *InvocationNode) Accept(v Visitor) error { return v.VisitInvocation(n) }

// ErrNotInvocable is returned when an invocation target is not a lambda.
var ErrNotInvocable = errors.New("exprql: invocation target is not a lambda")

// Inline substitutes the invocation's arguments for the lambda parameters
// and returns the resulting body.
func Inline(n *InvocationNode) (Node, error) {
	target := n.Expr
	for {
		u, ok := target.(*UnaryNode)
		if !ok || u.Op != OpQuote {
			break
		}
		target = u.Operand
	}
	lam, ok := target.(*LambdaNode)
	if !ok {
		return nil, ErrNotInvocable
	}
	if len(lam.Params) != len(n.Args) {
		return nil, errors.New("exprql: invocation argument count does not match lambda parameters")
	}
	subst := make(map[*ParameterNode]Node, len(lam.Params))
	for i, p := range lam.Params {
		subst[p] = n.Args[i]
	}
	return Rewrite(lam.Body, func(x Node) (Node, bool) {
		p, ok := x.(*ParameterNode)
		if !ok {
			return nil, false
		}
		if r, ok := subst[p]; ok {
			return r, true
		}
		for q, r := range subst {
			if q.Name == p.Name && q.Type == p.Type {
				return r, true
			}
		}
		return nil, false
	}), nil
}
