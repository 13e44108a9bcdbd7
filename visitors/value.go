package visitors

import (
	"reflect"

	"github.com/bawdo/exprql/nodes"
)

// valueCompiler renders scalar expressions: columns, bound values,
// arithmetic and function calls.
type valueCompiler struct {
	base
}

func (v *valueCompiler) VisitConstant(n *nodes.ConstantNode) error {
	if n.IsNil() {
		v.ctx.WriteString("NULL")
		return nil
	}
	v.ctx.WriteString(v.ctx.AddParam(n.Value, ""))
	return nil
}

func (v *valueCompiler) VisitMember(n *nodes.MemberNode) error {
	return v.column(n)
}

// column renders a member reached from a row parameter, including the
// length of a string column.
func (b *base) column(n *nodes.MemberNode) error {
	switch x := n.Expr.(type) {
	case *nodes.ParameterNode:
		col, c, err := b.ctx.column(x, n.Name)
		if err != nil {
			return err
		}
		b.ctx.WriteString(col)
		b.ctx.pendingType = c.DataType
		return nil
	case *nodes.MemberNode:
		if n.Name == nodes.LengthMember && isString(x.Type) {
			b.ctx.WriteString(b.ctx.profile.LengthFunc + "(")
			if err := b.column(x); err != nil {
				return err
			}
			b.ctx.WriteString(")")
			b.ctx.pendingType = ""
			return nil
		}
	}
	return unsupported(n, b.clause)
}

func (v *valueCompiler) VisitBinary(n *nodes.BinaryNode) error {
	if !n.Op.IsArithmetic() {
		return v.caseOf(n)
	}
	if n.Op == nodes.OpAdd && (isString(nodes.TypeOf(n.Left)) || isString(nodes.TypeOf(n.Right))) {
		return v.concat(n)
	}
	tok, ok := binaryTokens[n.Op]
	if !ok {
		return &UnsupportedOperatorError{Op: n.Op, Clause: v.clause}
	}
	if err := v.operand(n.Left, arithmeticParens(n.Op, n.Left, false)); err != nil {
		return err
	}
	v.ctx.WriteString(tok)
	return v.operand(n.Right, arithmeticParens(n.Op, n.Right, true))
}

func (v *valueCompiler) operand(n nodes.Node, parens bool) error {
	if !parens {
		return v.visit(n)
	}
	v.ctx.WriteString("(")
	if err := v.visit(n); err != nil {
		return err
	}
	v.ctx.WriteString(")")
	return nil
}

// concat renders string addition with the dialect's concatenation,
// flattening left-nested additions into one operand list.
func (v *valueCompiler) concat(n *nodes.BinaryNode) error {
	var operands []nodes.Node
	var collect func(x nodes.Node)
	collect = func(x nodes.Node) {
		if b, ok := x.(*nodes.BinaryNode); ok && b.Op == nodes.OpAdd {
			collect(b.Left)
			collect(b.Right)
			return
		}
		operands = append(operands, x)
	}
	collect(n)

	parts := make([]string, len(operands))
	for i, x := range operands {
		start := v.ctx.Len()
		if err := v.visit(x); err != nil {
			return err
		}
		parts[i] = v.ctx.Span(start)
		v.ctx.Truncate(start)
	}
	v.ctx.WriteString(v.ctx.profile.ConcatAll(parts...))
	return nil
}

// caseOf renders a predicate in value position as 1 or 0.
func (v *valueCompiler) caseOf(n nodes.Node) error {
	v.ctx.WriteString("CASE WHEN ")
	if err := v.condition(n); err != nil {
		return err
	}
	v.ctx.WriteString(" THEN 1 ELSE 0 END")
	return nil
}

func (v *valueCompiler) VisitUnary(n *nodes.UnaryNode) error {
	switch n.Op {
	case nodes.OpConvert:
		return v.visit(n.Operand)
	case nodes.OpNegate:
		v.ctx.WriteString("-")
		_, compound := n.Operand.(*nodes.BinaryNode)
		return v.operand(n.Operand, compound)
	case nodes.OpNot:
		return v.caseOf(n)
	}
	return &UnsupportedOperatorError{Op: n.Op, Clause: v.clause}
}

func (v *valueCompiler) VisitCall(n *nodes.CallNode) error {
	return v.call(n, false)
}

func (v *valueCompiler) VisitConditional(n *nodes.ConditionalNode) error {
	if test, ok := closedBool(n.Test); ok {
		if test {
			return v.visit(n.IfTrue)
		}
		return v.visit(n.IfFalse)
	}
	v.ctx.WriteString("CASE WHEN ")
	if err := v.condition(n.Test); err != nil {
		return err
	}
	v.ctx.WriteString(" THEN ")
	if err := v.visit(n.IfTrue); err != nil {
		return err
	}
	v.ctx.WriteString(" ELSE ")
	if err := v.visit(n.IfFalse); err != nil {
		return err
	}
	v.ctx.WriteString(" END")
	return nil
}

var binaryTokens = map[nodes.BinaryOp]string{
	nodes.OpAnd:                " AND ",
	nodes.OpAndAlso:            " AND ",
	nodes.OpOr:                 " OR ",
	nodes.OpOrElse:             " OR ",
	nodes.OpEqual:              " = ",
	nodes.OpNotEqual:           " <> ",
	nodes.OpGreaterThan:        " > ",
	nodes.OpGreaterThanOrEqual: " >= ",
	nodes.OpLessThan:           " < ",
	nodes.OpLessThanOrEqual:    " <= ",
	nodes.OpAdd:                " + ",
	nodes.OpSubtract:           " - ",
	nodes.OpMultiply:           " * ",
	nodes.OpDivide:             " / ",
	nodes.OpModulo:             " % ",
}

func precedence(op nodes.BinaryOp) int {
	switch op {
	case nodes.OpMultiply, nodes.OpDivide, nodes.OpModulo:
		return 2
	case nodes.OpAdd, nodes.OpSubtract:
		return 1
	}
	return 0
}

// arithmeticParens reports whether child needs parentheses under op. Right
// operands of equal precedence are wrapped since - / % do not associate.
func arithmeticParens(op nodes.BinaryOp, child nodes.Node, right bool) bool {
	b, ok := child.(*nodes.BinaryNode)
	if !ok {
		return false
	}
	if !b.Op.IsArithmetic() {
		return false
	}
	p, cp := precedence(op), precedence(b.Op)
	return cp < p || (right && cp == p)
}

func isString(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.String
}

// isCollection reports whether t is a slice or array other than []byte.
func isCollection(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8
	}
	return false
}
