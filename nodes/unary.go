package nodes

import (
	"fmt"
	"reflect"
)

// UnaryOp identifies the operator of a UnaryNode.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpConvert
	OpQuote
	OpNegate
	// Representable but without SQL rendering.
	OpOnesComplement
	OpArrayLength
	OpTypeAs
)

var unaryOpNames = [...]string{
	OpNot:            "Not",
	OpConvert:        "Convert",
	OpQuote:          "Quote",
	OpNegate:         "Negate",
	OpOnesComplement: "OnesComplement",
	OpArrayLength:    "ArrayLength",
	OpTypeAs:         "TypeAs",
}

func (op UnaryOp) String() string {
	if op < 0 || int(op) >= len(unaryOpNames) {
		return fmt.Sprintf("UnaryOp(%d)", int(op))
	}
	return unaryOpNames[op]
}

// UnaryNode applies Op to Operand. Type is set for conversions.
type UnaryNode struct {
	Op      UnaryOp
	Operand Node
	Type    reflect.Type
	Predications
	Arithmetics
	Combinable
}

// NewUnary creates a UnaryNode.
func NewUnary(op UnaryOp, operand Node, t reflect.Type) *UnaryNode {
	n := &UnaryNode{Op: op, Operand: operand, Type: t}
	wire(n, &n.Predications, &n.Arithmetics, &n.Combinable)
	return n
}

func (n *UnaryNode) Kind() Kind { return KindUnary }
func (n *UnaryNode) Accept(v Visitor) error { return v.VisitUnary(n) }

// Not negates a boolean expression.
func Not(x Node) *UnaryNode { return NewUnary(OpNot, x, boolType) }

// Negate creates the arithmetic negation of x.
func Negate(x Node) *UnaryNode { return NewUnary(OpNegate, x, nil) }

// Convert converts x to t.
func Convert(x Node, t reflect.Type) *UnaryNode { return NewUnary(OpConvert, x, t) }

// Quote marks x as a quoted lambda.
func Quote(x Node) *UnaryNode { return NewUnary(OpQuote, x, nil) }
