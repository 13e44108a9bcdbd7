package nodes

import "fmt"

// BinaryOp identifies the operator of a BinaryNode.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpAndAlso
	OpOr
	OpOrElse
	OpEqual
	OpNotEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	// The operators below can be represented and evaluated but have no SQL
	// rendering.
	OpExclusiveOr
	OpLeftShift
	OpRightShift
	OpPower
	OpCoalesce
	OpArrayIndex
)

var binaryOpNames = [...]string{
	OpAnd:                "And",
	OpAndAlso:            "AndAlso",
	OpOr:                 "Or",
	OpOrElse:             "OrElse",
	OpEqual:              "Equal",
	OpNotEqual:           "NotEqual",
	OpGreaterThan:        "GreaterThan",
	OpGreaterThanOrEqual: "GreaterThanOrEqual",
	OpLessThan:           "LessThan",
	OpLessThanOrEqual:    "LessThanOrEqual",
	OpAdd:                "Add",
	OpSubtract:           "Subtract",
	OpMultiply:           "Multiply",
	OpDivide:             "Divide",
	OpModulo:             "Modulo",
	OpExclusiveOr:        "ExclusiveOr",
	OpLeftShift:          "LeftShift",
	OpRightShift:         "RightShift",
	OpPower:              "Power",
	OpCoalesce:           "Coalesce",
	OpArrayIndex:         "ArrayIndex",
}

func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binaryOpNames) {
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
	return binaryOpNames[op]
}

// IsLogical reports whether op is a conjunction or disjunction.
func (op BinaryOp) IsLogical() bool {
	switch op {
	case OpAnd, OpAndAlso, OpOr, OpOrElse:
		return true
	}
	return false
}

// IsComparison reports whether op compares its operands.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual && op <= OpLessThanOrEqual
}

// IsArithmetic reports whether op produces a value rather than a truth value.
func (op BinaryOp) IsArithmetic() bool {
	return (op >= OpAdd && op <= OpModulo) || (op >= OpExclusiveOr && op <= OpArrayIndex)
}

// BinaryNode applies Op to Left and Right.
type BinaryNode struct {
	Op    BinaryOp
	Left  Node
	Right Node
	Predications
	Arithmetics
	Combinable
}

// NewBinary creates a BinaryNode.
func NewBinary(op BinaryOp, left, right Node) *BinaryNode {
	n := &BinaryNode{Op: op, Left: left, Right: right}
	wire(n, &n.Predications, &n.Arithmetics, &n.Combinable)
	return n
}

func (n *BinaryNode) Kind() Kind { return KindBinary }
func (n *BinaryNode) Accept(v Visitor) error { return v.VisitBinary(n) }
