package nodes

// ConditionalNode selects IfTrue or IfFalse depending on Test.
type ConditionalNode struct {
	Test    Node
	IfTrue  Node
	IfFalse Node
	Predications
	Arithmetics
	Combinable
}

// Cond creates a ConditionalNode; raw values are wrapped with Literal.
func Cond(test Node, ifTrue, ifFalse any) *ConditionalNode {
	n := &ConditionalNode{Test: test, IfTrue: Literal(ifTrue), IfFalse: Literal(ifFalse)}
	wire(n, &n.Predications, &n.Arithmetics, &n.Combinable)
	return n
}

func (n *ConditionalNode) Kind() Kind { return KindConditional }
func (n *ConditionalNode) Accept(v Visitor) error { return v.VisitConditional(n) }
