// Package nodes defines the expression tree compiled into SQL: a closed set
// of node variants plus a fluent builder API for assembling them.
package nodes

import (
	"fmt"
	"reflect"
)

// Kind identifies a node variant.
type Kind int

const (
	KindConstant Kind = iota
	KindParameter
	KindMember
	KindBinary
	KindUnary
	KindCall
	KindNew
	KindMemberInit
	KindListInit
	KindNewArray
	KindLambda
	KindInvocation
	KindConditional
)

var kindNames = [...]string{
	KindConstant:    "Constant",
	KindParameter:   "Parameter",
	KindMember:      "MemberAccess",
	KindBinary:      "Binary",
	KindUnary:       "Unary",
	KindCall:        "MethodCall",
	KindNew:         "New",
	KindMemberInit:  "MemberInit",
	KindListInit:    "ListInit",
	KindNewArray:    "NewArray",
	KindLambda:      "Lambda",
	KindInvocation:  "Invocation",
	KindConditional: "Conditional",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Node is implemented by every expression variant. Trees are immutable
// once built; visitors only read them.
type Node interface {
	Kind() Kind
	Accept(v Visitor) error
}

// Visitor walks an expression tree. Each method handles one variant.
type Visitor interface {
	VisitConstant(n *ConstantNode) error
	VisitParameter(n *ParameterNode) error
	VisitMember(n *MemberNode) error
	VisitBinary(n *BinaryNode) error
	VisitUnary(n *UnaryNode) error
	VisitCall(n *CallNode) error
	VisitNew(n *NewNode) error
	VisitMemberInit(n *MemberInitNode) error
	VisitListInit(n *ListInitNode) error
	VisitNewArray(n *NewArrayNode) error
	VisitLambda(n *LambdaNode) error
	VisitInvocation(n *InvocationNode) error
	VisitConditional(n *ConditionalNode) error
}

var boolType = reflect.TypeFor[bool]()

// TypeOf returns the static result type of n, or nil when it is unknown.
func TypeOf(n Node) reflect.Type {
	switch v := n.(type) {
	case *ConstantNode:
		if v.Type != nil {
			return v.Type
		}
		if v.Value == nil {
			return nil
		}
		return reflect.TypeOf(v.Value)
	case *ParameterNode:
		return v.Type
	case *MemberNode:
		return v.Type
	case *BinaryNode:
		if v.Op.IsArithmetic() {
			if t := TypeOf(v.Left); t != nil {
				return t
			}
			return TypeOf(v.Right)
		}
		return boolType
	case *UnaryNode:
		if v.Type != nil {
			return v.Type
		}
		if v.Op == OpNot {
			return boolType
		}
		return TypeOf(v.Operand)
	case *CallNode:
		return v.Type
	case *NewNode:
		return v.Type
	case *MemberInitNode:
		return v.Type
	case *ListInitNode:
		return v.Type
	case *NewArrayNode:
		return v.Type
	case *LambdaNode:
		return TypeOf(v.Body)
	case *InvocationNode:
		return TypeOf(v.Expr)
	case *ConditionalNode:
		if t := TypeOf(v.IfTrue); t != nil {
			return t
		}
		return TypeOf(v.IfFalse)
	}
	return nil
}

// IsBool reports whether n statically produces a boolean.
func IsBool(n Node) bool {
	t := TypeOf(n)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Bool
}

// Literal wraps a raw Go value into a ConstantNode. If val already
// implements Node, it is returned as-is.
func Literal(val any) Node {
	if n, ok := val.(Node); ok {
		return n
	}
	return Const(val)
}

// Binding pairs a result member name with the expression that produces it.
type Binding struct {
	Name string
	Expr Node
}

// Bind creates a Binding, wrapping raw values with Literal.
func Bind(name string, val any) Binding {
	return Binding{Name: name, Expr: Literal(val)}
}
