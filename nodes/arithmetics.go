package nodes

// Arithmetics provides math methods to types that embed it.
// The self field must be set to the embedding node.
type Arithmetics struct {
	self Node
}

func (a Arithmetics) Add(val any) *BinaryNode { return NewBinary(OpAdd, a.self, Literal(val)) }
func (a Arithmetics) Sub(val any) *BinaryNode { return NewBinary(OpSubtract, a.self, Literal(val)) }
func (a Arithmetics) Mul(val any) *BinaryNode { return NewBinary(OpMultiply, a.self, Literal(val)) }
func (a Arithmetics) Div(val any) *BinaryNode { return NewBinary(OpDivide, a.self, Literal(val)) }
func (a Arithmetics) Mod(val any) *BinaryNode { return NewBinary(OpModulo, a.self, Literal(val)) }

// Negate creates the arithmetic negation -self.
func (a Arithmetics) Negate() *UnaryNode { return Negate(a.self) }
