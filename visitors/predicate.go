package visitors

import (
	"reflect"

	"github.com/bawdo/exprql/nodes"
)

// predicateCompiler renders boolean conditions for WHERE, JOIN ... ON and
// HAVING.
type predicateCompiler struct {
	base
}

// VisitConstant renders true as nothing and false as 1 = 0.
func (p *predicateCompiler) VisitConstant(n *nodes.ConstantNode) error {
	b, ok := n.BoolValue()
	if !ok {
		return unsupported(n, p.clause)
	}
	if !b {
		p.ctx.WriteString("1 = 0")
	}
	return nil
}

// VisitMember renders a boolean column as a truth test.
func (p *predicateCompiler) VisitMember(n *nodes.MemberNode) error {
	if !nodes.IsBool(n) {
		return unsupported(n, p.clause)
	}
	if err := p.column(n); err != nil {
		return err
	}
	p.ctx.pendingType = ""
	p.ctx.WriteString(p.ctx.profile.TruthTest)
	return nil
}

func (p *predicateCompiler) VisitBinary(n *nodes.BinaryNode) error {
	switch {
	case n.Op.IsLogical():
		return p.logical(n)
	case n.Op.IsComparison():
		return p.comparison(n)
	}
	if _, ok := binaryTokens[n.Op]; !ok {
		return &UnsupportedOperatorError{Op: n.Op, Clause: p.clause}
	}
	return unsupported(n, p.clause)
}

// logical renders AND and OR. A literal true operand makes OR vacuous and
// drops out of AND; an operand that emits nothing suppresses the operator.
func (p *predicateCompiler) logical(n *nodes.BinaryNode) error {
	or := n.Op == nodes.OpOr || n.Op == nodes.OpOrElse
	lv, lok := literalBool(n.Left)
	rv, rok := literalBool(n.Right)
	switch {
	case or && ((lok && lv) || (rok && rv)):
		return nil
	case !or && lok && lv:
		return p.visit(n.Right)
	}

	leftStart := p.ctx.Len()
	if err := p.operand(n.Left, needsParens(n.Left)); err != nil {
		return err
	}
	opIndex := p.ctx.Len()
	leftEmpty := opIndex == leftStart
	if err := p.operand(n.Right, needsParens(n.Right)); err != nil {
		return err
	}
	if leftEmpty || p.ctx.Len() == opIndex {
		return nil
	}
	p.ctx.InsertAt(opIndex, binaryTokens[n.Op])
	return nil
}

// comparison renders a comparison operator. Comparing a condition with a
// literal bool keeps or negates the condition; NULL operands render IS and
// IS NOT.
func (p *predicateCompiler) comparison(n *nodes.BinaryNode) error {
	if n.Op == nodes.OpEqual || n.Op == nodes.OpNotEqual {
		cond, lit, ok := boolComparison(n)
		if ok {
			negate := (n.Op == nodes.OpEqual) != lit
			return p.negatable(cond, negate)
		}
	}

	left, right := n.Left, n.Right
	if isNullConstant(left) && !isNullConstant(right) {
		left, right = right, left
	}
	if err := p.valueOperand(left, needsParens(left)); err != nil {
		return err
	}
	opIndex := p.ctx.Len()
	if err := p.valueOperand(right, needsParens(right)); err != nil {
		return err
	}
	p.ctx.pendingType = ""

	tok := binaryTokens[n.Op]
	if p.ctx.Span(opIndex) == "NULL" {
		switch n.Op {
		case nodes.OpEqual:
			tok = " IS "
		case nodes.OpNotEqual:
			tok = " IS NOT "
		}
	}
	p.ctx.InsertAt(opIndex, tok)
	return nil
}

// negatable compiles cond and, when negate is set, rewrites the span it
// produced into its complement. Compound conditions are parenthesised so
// the rewritten operators keep their grouping.
func (p *predicateCompiler) negatable(cond nodes.Node, negate bool) error {
	start := p.ctx.Len()
	if err := p.operand(cond, isLogical(cond)); err != nil {
		return err
	}
	if !negate {
		return nil
	}
	if p.ctx.Len() == start {
		p.ctx.WriteString("1 = 0")
		return nil
	}
	p.ctx.ReplaceFrom(start, Negate(p.ctx.Span(start)))
	return nil
}

func (p *predicateCompiler) VisitUnary(n *nodes.UnaryNode) error {
	switch n.Op {
	case nodes.OpNot:
		return p.negatable(n.Operand, true)
	case nodes.OpConvert:
		return p.visit(n.Operand)
	}
	return &UnsupportedOperatorError{Op: n.Op, Clause: p.clause}
}

func (p *predicateCompiler) VisitCall(n *nodes.CallNode) error {
	return p.call(n, true)
}

func (p *predicateCompiler) VisitConditional(n *nodes.ConditionalNode) error {
	test, ok := closedBool(n.Test)
	if !ok {
		return unsupported(n, p.clause)
	}
	if test {
		return p.visit(n.IfTrue)
	}
	return p.visit(n.IfFalse)
}

// operand compiles a predicate operand, wrapped in parentheses when asked.
// Parentheses around an operand that emits nothing are removed.
func (p *predicateCompiler) operand(n nodes.Node, parens bool) error {
	if !parens {
		return p.visit(n)
	}
	open := p.ctx.Len()
	p.ctx.WriteString("(")
	if err := p.visit(n); err != nil {
		return err
	}
	if p.ctx.Len() == open+1 {
		p.ctx.Truncate(open)
		return nil
	}
	p.ctx.WriteString(")")
	return nil
}

func (p *predicateCompiler) valueOperand(n nodes.Node, parens bool) error {
	if !parens {
		return p.value(n)
	}
	p.ctx.WriteString("(")
	if err := p.value(n); err != nil {
		return err
	}
	p.ctx.WriteString(")")
	return nil
}

// needsParens reports whether an operand is wrapped: it must be a binary
// node whose children are both binary nodes or boolean calls.
func needsParens(n nodes.Node) bool {
	b, ok := n.(*nodes.BinaryNode)
	if !ok {
		return false
	}
	return compound(b.Left) && compound(b.Right)
}

func compound(n nodes.Node) bool {
	switch x := n.(type) {
	case *nodes.BinaryNode:
		return true
	case *nodes.CallNode:
		return nodes.IsBool(x)
	}
	return false
}

func isLogical(n nodes.Node) bool {
	b, ok := n.(*nodes.BinaryNode)
	return ok && b.Op.IsLogical()
}

// literalBool reports the value of a boolean literal, looking through
// conversions. A converted numeric literal is true when non-zero.
func literalBool(n nodes.Node) (value, ok bool) {
	switch x := n.(type) {
	case *nodes.ConstantNode:
		return x.BoolValue()
	case *nodes.UnaryNode:
		if x.Op != nodes.OpConvert {
			return false, false
		}
		c, isConst := x.Operand.(*nodes.ConstantNode)
		if !isConst {
			return literalBool(x.Operand)
		}
		if b, ok := c.BoolValue(); ok {
			return b, true
		}
		rv := reflect.ValueOf(c.Value)
		switch {
		case rv.CanInt():
			return rv.Int() != 0, true
		case rv.CanUint():
			return rv.Uint() != 0, true
		case rv.CanFloat():
			return rv.Float() != 0, true
		}
	}
	return false, false
}

// boolComparison splits cond = literal into the condition and the literal,
// with the literal on either side.
func boolComparison(n *nodes.BinaryNode) (cond nodes.Node, lit, ok bool) {
	if v, ok := literalBool(n.Right); ok && isCondition(n.Left) {
		return n.Left, v, true
	}
	if v, ok := literalBool(n.Left); ok && isCondition(n.Right) {
		return n.Right, v, true
	}
	return nil, false, false
}

// isCondition reports whether n compiles as a predicate.
func isCondition(n nodes.Node) bool {
	switch x := unquote(n).(type) {
	case *nodes.BinaryNode:
		return x.Op.IsLogical() || x.Op.IsComparison()
	case *nodes.UnaryNode:
		if x.Op == nodes.OpNot {
			return true
		}
		return x.Op == nodes.OpConvert && isCondition(x.Operand)
	case *nodes.ConstantNode:
		return false
	}
	return nodes.IsBool(n)
}

func isNullConstant(n nodes.Node) bool {
	c, ok := n.(*nodes.ConstantNode)
	return ok && c.IsNil()
}

// closedBool evaluates a test that references no row parameter.
func closedBool(n nodes.Node) (bool, bool) {
	if len(nodes.Params(n)) > 0 {
		return false, false
	}
	v, err := nodes.Eval(n)
	if err != nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
