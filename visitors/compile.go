package visitors

import (
	"errors"
	"fmt"

	"github.com/bawdo/exprql/nodes"
)

// ErrNoColumns is returned when an INSERT or UPDATE has nothing to write.
var ErrNoColumns = errors.New("exprql: no columns to write")

// Compile appends the SQL for n, compiled under clause, to ctx. orders
// supplies positional directions for OrderBy lists; missing entries default
// to ascending.
//
// On error the Context holds partial output and must be discarded.
func Compile(n nodes.Node, clause Clause, ctx *Context, orders ...Direction) error {
	start := ctx.Len()
	switch {
	case clause.IsAggregate():
		ctx.WriteString(clause.Function() + "(")
		if err := compileWith(n, clause, ctx, orders); err != nil {
			return err
		}
		ctx.WriteString(")")
		return nil
	case n == nil:
		switch clause {
		case Select:
			ctx.WriteString("*")
			ctx.addField("*")
		case Insert, Update:
			return ErrNoColumns
		}
		return nil
	}
	if err := compileWith(n, clause, ctx, orders); err != nil {
		return err
	}
	switch clause {
	case Select:
		ctx.TrimSuffix(itemSep)
		if ctx.Len() == start {
			ctx.WriteString("*")
			ctx.addField("*")
		}
	case GroupBy, OrderBy:
		ctx.TrimSuffix(itemSep)
	case Update:
		ctx.TrimSuffix(itemSep)
		if ctx.Len() == start {
			return ErrNoColumns
		}
	}
	return nil
}

func compileWith(n nodes.Node, clause Clause, ctx *Context, orders []Direction) error {
	b := base{ctx: ctx, clause: clause}
	var v nodes.Visitor
	switch clause {
	case Select, GroupBy, OrderBy, Max, Min, Avg, Sum, Count:
		b.raw = true
	}
	switch clause {
	case Select:
		v = &selectCompiler{base: b}
	case Insert:
		v = &insertCompiler{base: b}
	case Update:
		v = &updateCompiler{base: b}
	case Where, Join, Having:
		v = &predicateCompiler{base: b}
	case In:
		v = &inCompiler{base: b}
	case GroupBy, OrderBy:
		v = &listCompiler{base: b, orders: orders}
	case Max, Min, Avg, Sum, Count:
		v = &aggregateCompiler{base: b}
	default:
		return fmt.Errorf("exprql: unknown clause %s", clause)
	}
	setSelf(v)
	if n == nil {
		if clause == Count {
			ctx.WriteString("*")
			return nil
		}
		return fmt.Errorf("%w: nil argument in %s clause", ErrUnsupportedConstruct, clause)
	}
	return selfOf(v).visit(n)
}

// itemSep separates projected, grouped and ordered items.
const itemSep = ", "

// base is embedded by every clause compiler. Its Visit methods reject the
// variant for the clause; compilers override the variants they support.
// self is the embedding compiler, so recursion reaches the overrides.
type base struct {
	ctx    *Context
	clause Clause
	self   nodes.Visitor
	// raw is set where a string constant is literal SQL text. Folding is
	// left to the item compilers so computed strings stay bound values.
	raw bool
}

type compiler interface {
	nodes.Visitor
	baseOf() *base
}

func (b *base) baseOf() *base { return b }

func setSelf(v nodes.Visitor) {
	if c, ok := v.(compiler); ok {
		c.baseOf().self = v
	}
}

func selfOf(v nodes.Visitor) *base { return v.(compiler).baseOf() }

// visit folds closed subtrees to constants, strips quoting and dispatches n
// to the embedding compiler.
func (b *base) visit(n nodes.Node) error {
	n = unquote(n)
	if !b.raw {
		if folded, ok := fold(n); ok {
			n = folded
		}
	}
	return n.Accept(b.self)
}

// value compiles n as a SQL value expression.
func (b *base) value(n nodes.Node) error {
	v := &valueCompiler{base: base{ctx: b.ctx, clause: b.clause}}
	v.self = v
	return v.visit(n)
}

// predicate compiles n as a SQL boolean condition. It may emit nothing when
// n is vacuously true.
func (b *base) predicate(n nodes.Node) error {
	p := &predicateCompiler{base: base{ctx: b.ctx, clause: b.clause}}
	p.self = p
	return p.visit(n)
}

// condition compiles n as a predicate that always produces text, for use
// inside CASE expressions.
func (b *base) condition(n nodes.Node) error {
	start := b.ctx.Len()
	if err := b.predicate(n); err != nil {
		return err
	}
	if b.ctx.Len() == start {
		b.ctx.WriteString("1 = 1")
	}
	return nil
}

func unquote(n nodes.Node) nodes.Node {
	for {
		u, ok := n.(*nodes.UnaryNode)
		if !ok || u.Op != nodes.OpQuote {
			return n
		}
		n = u.Operand
	}
}

// fold evaluates a subtree that references no row parameter. Aggregates
// and row-shaped nodes are left for the clause compilers.
func fold(n nodes.Node) (nodes.Node, bool) {
	switch x := n.(type) {
	case *nodes.MemberNode, *nodes.BinaryNode, *nodes.UnaryNode, *nodes.ConditionalNode:
	case *nodes.CallNode:
		if x.Object == nil && nodes.IsAggregate(x.Method) {
			return n, false
		}
	default:
		return n, false
	}
	if len(nodes.Params(n)) > 0 {
		return n, false
	}
	v, err := nodes.Eval(n)
	if err != nil {
		return n, false
	}
	return nodes.ConstOf(v, nodes.TypeOf(n)), true
}

func (b *base) VisitConstant(n *nodes.ConstantNode) error   { return unsupported(n, b.clause) }
func (b *base) VisitParameter(n *nodes.ParameterNode) error { return unsupported(n, b.clause) }
func (b *base) VisitMember(n *nodes.MemberNode) error       { return unsupported(n, b.clause) }
func (b *base) VisitBinary(n *nodes.BinaryNode) error       { return unsupported(n, b.clause) }
func (b *base) VisitUnary(n *nodes.UnaryNode) error         { return unsupported(n, b.clause) }
func (b *base) VisitCall(n *nodes.CallNode) error           { return unsupported(n, b.clause) }
func (b *base) VisitNew(n *nodes.NewNode) error             { return unsupported(n, b.clause) }
func (b *base) VisitMemberInit(n *nodes.MemberInitNode) error {
	return unsupported(n, b.clause)
}
func (b *base) VisitListInit(n *nodes.ListInitNode) error { return unsupported(n, b.clause) }
func (b *base) VisitNewArray(n *nodes.NewArrayNode) error { return unsupported(n, b.clause) }
func (b *base) VisitConditional(n *nodes.ConditionalNode) error {
	return unsupported(n, b.clause)
}

// VisitLambda compiles the body under the same clause.
func (b *base) VisitLambda(n *nodes.LambdaNode) error {
	return b.visit(n.Body)
}

// VisitInvocation inlines the arguments into the invoked lambda.
func (b *base) VisitInvocation(n *nodes.InvocationNode) error {
	body, err := nodes.Inline(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedConstruct, err)
	}
	return b.visit(body)
}
