package nodes

import "reflect"

// LengthMember is the member name that reads the length of a string.
const LengthMember = "Length"

var intType = reflect.TypeFor[int]()

// MemberNode reads member Name of Expr. A nil Expr is a static member,
// which only constant folding can resolve.
type MemberNode struct {
	Expr Node
	Name string
	// Type is the member's type, nil when unknown.
	Type reflect.Type
	// Declaring is the struct type that declares the member.
	Declaring reflect.Type
	Predications
	Arithmetics
	Combinable
}

// Member creates a MemberNode, resolving the member's type from the
// target's struct type when possible.
func Member(expr Node, name string) *MemberNode {
	n := &MemberNode{Expr: expr, Name: name}
	if expr != nil {
		n.Type, n.Declaring = memberType(TypeOf(expr), name)
	}
	wire(n, &n.Predications, &n.Arithmetics, &n.Combinable)
	return n
}

func memberType(t reflect.Type, name string) (reflect.Type, reflect.Type) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return nil, nil
	}
	switch t.Kind() {
	case reflect.Struct:
		if f, ok := t.FieldByName(name); ok {
			return f.Type, t
		}
	case reflect.Map:
		return t.Elem(), t
	case reflect.String, reflect.Slice, reflect.Array:
		if name == LengthMember {
			return intType, t
		}
	}
	return nil, nil
}

func (n *MemberNode) Kind() Kind { return KindMember }
func (n *MemberNode) Accept(v Visitor) error { return v.VisitMember(n) }

// Field accesses a nested member.
func (n *MemberNode) Field(name string) *MemberNode {
	return Member(n, name)
}

// Len reads the length of a string member.
func (n *MemberNode) Len() *MemberNode {
	return Member(n, LengthMember)
}

// Root returns the node at the start of the member chain.
func (n *MemberNode) Root() Node {
	var cur Node = n
	for {
		m, ok := cur.(*MemberNode)
		if !ok || m.Expr == nil {
			return cur
		}
		cur = m.Expr
	}
}
