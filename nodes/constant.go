package nodes

import "reflect"

// ConstantNode holds a value known when the tree is built.
type ConstantNode struct {
	Value any
	// Type is the declared type; nil means the dynamic type of Value.
	Type reflect.Type
	Predications
	Arithmetics
	Combinable
}

// Const creates a ConstantNode typed by its value.
func Const(val any) *ConstantNode {
	return ConstOf(val, nil)
}

// ConstOf creates a ConstantNode with an explicit declared type.
func ConstOf(val any, t reflect.Type) *ConstantNode {
	n := &ConstantNode{Value: val, Type: t}
	wire(n, &n.Predications, &n.Arithmetics, &n.Combinable)
	return n
}

// Null creates a ConstantNode holding nil.
func Null() *ConstantNode { return Const(nil) }

func (n *ConstantNode) Kind() Kind { return KindConstant }
func (n *ConstantNode) Accept(v Visitor) error { return v.VisitConstant(n) }

// IsNil reports whether the constant holds nil or a nil pointer, map,
// slice or interface.
func (n *ConstantNode) IsNil() bool {
	return isNil(n.Value)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// BoolValue reports the constant's boolean value, if it holds one.
func (n *ConstantNode) BoolValue() (value, ok bool) {
	b, ok := n.Value.(bool)
	return b, ok
}
