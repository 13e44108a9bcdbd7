package nodes

// Combinable provides logical chaining methods to types that embed it.
// The self field must be set to the embedding node.
type Combinable struct {
	self Node
}

// And creates self AND other.
func (c Combinable) And(other Node) *BinaryNode {
	return NewBinary(OpAndAlso, c.self, other)
}

// Or creates self OR other.
func (c Combinable) Or(other Node) *BinaryNode {
	return NewBinary(OpOrElse, c.self, other)
}

// Not negates self.
func (c Combinable) Not() *UnaryNode {
	return Not(c.self)
}

// And folds conditions left to right with AND. A nil entry is skipped; an
// empty list yields the constant true.
func And(conds ...Node) Node {
	return fold(OpAndAlso, true, conds)
}

// Or folds conditions left to right with OR. A nil entry is skipped; an
// empty list yields the constant false.
func Or(conds ...Node) Node {
	return fold(OpOrElse, false, conds)
}

func fold(op BinaryOp, empty bool, conds []Node) Node {
	var out Node
	for _, c := range conds {
		if c == nil {
			continue
		}
		if out == nil {
			out = c
			continue
		}
		out = NewBinary(op, out, c)
	}
	if out == nil {
		return Const(empty)
	}
	return out
}

// wire points the embedded helper structs at their owning node.
func wire(n Node, p *Predications, a *Arithmetics, c *Combinable) {
	p.self = n
	a.self = n
	c.self = n
}
