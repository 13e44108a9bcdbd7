package visitors

import "github.com/bawdo/exprql/nodes"

// aggregateCompiler renders the argument of MAX, MIN, AVG, SUM and COUNT.
// Compile writes the function name and parentheses around it.
type aggregateCompiler struct {
	base
}

// VisitConstant takes a string as a raw column reference. A nil argument
// counts rows.
func (a *aggregateCompiler) VisitConstant(n *nodes.ConstantNode) error {
	if n.IsNil() {
		if a.clause != Count {
			return unsupported(n, a.clause)
		}
		a.ctx.WriteString("*")
		return nil
	}
	if s, ok := n.Value.(string); ok {
		items, err := rawItems(s, false)
		if err != nil {
			return err
		}
		if len(items) != 1 {
			return unsupported(n, a.clause)
		}
		a.ctx.WriteString(items[0])
		return nil
	}
	return a.value(n)
}

// VisitParameter counts whole rows.
func (a *aggregateCompiler) VisitParameter(n *nodes.ParameterNode) error {
	if a.clause != Count {
		return unsupported(n, a.clause)
	}
	a.ctx.WriteString("*")
	return nil
}

func (a *aggregateCompiler) VisitMember(n *nodes.MemberNode) error {
	if a.clause == Count && nodes.IsBool(n) {
		return a.counted(n)
	}
	return a.value(n)
}

func (a *aggregateCompiler) VisitBinary(n *nodes.BinaryNode) error {
	if a.clause == Count && !n.Op.IsArithmetic() {
		return a.counted(n)
	}
	return a.value(n)
}

func (a *aggregateCompiler) VisitUnary(n *nodes.UnaryNode) error {
	if a.clause == Count && n.Op == nodes.OpNot {
		return a.counted(n)
	}
	return a.value(n)
}

func (a *aggregateCompiler) VisitCall(n *nodes.CallNode) error {
	if a.clause == Count && nodes.IsBool(n) {
		return a.counted(n)
	}
	return a.value(n)
}

func (a *aggregateCompiler) VisitConditional(n *nodes.ConditionalNode) error {
	return a.value(n)
}

// counted renders a condition under COUNT so that only matching rows are
// counted.
func (a *aggregateCompiler) counted(n nodes.Node) error {
	a.ctx.WriteString("CASE WHEN ")
	if err := a.condition(n); err != nil {
		return err
	}
	a.ctx.WriteString(" THEN 1 END")
	return nil
}
