package nodes

import "reflect"

// NewNode constructs an object from member bindings. A nil Type denotes an
// anonymous shape.
type NewNode struct {
	Type    reflect.Type
	Members []Binding
}

// New creates an anonymous object from bindings.
func New(members ...Binding) *NewNode {
	return &NewNode{Members: members}
}

// NewOf creates an object of type T from bindings.
func NewOf[T any](members ...Binding) *NewNode {
	return &NewNode{Type: reflect.TypeFor[T](), Members: members}
}

func (n *NewNode) Kind() Kind { return KindNew }
func (n *NewNode) Accept(v Visitor) error { return v.VisitNew(n) }

// MemberInitNode constructs a value of Type and assigns its members.
type MemberInitNode struct {
	Type     reflect.Type
	Bindings []Binding
}

// Init creates a member initialiser for T.
func Init[T any](bindings ...Binding) *MemberInitNode {
	return &MemberInitNode{Type: reflect.TypeFor[T](), Bindings: bindings}
}

func (n *MemberInitNode) Kind() Kind { return KindMemberInit }
func (n *MemberInitNode) Accept(v Visitor) error { return v.VisitMemberInit(n) }

// ListInitNode builds a list from items.
type ListInitNode struct {
	Type  reflect.Type
	Items []Node
}

// List creates a list initialiser; raw values are wrapped with Literal.
func List(items ...any) *ListInitNode {
	nodes, t := itemNodes(items)
	return &ListInitNode{Type: t, Items: nodes}
}

func (n *ListInitNode) Kind() Kind { return KindListInit }
func (n *ListInitNode) Accept(v Visitor) error { return v.VisitListInit(n) }

// NewArrayNode builds an array from items.
type NewArrayNode struct {
	Type  reflect.Type
	Items []Node
}

// Array creates an array; raw values are wrapped with Literal.
func Array(items ...any) *NewArrayNode {
	nodes, t := itemNodes(items)
	return &NewArrayNode{Type: t, Items: nodes}
}

func (n *NewArrayNode) Kind() Kind { return KindNewArray }
func (n *NewArrayNode) Accept(v Visitor) error { return v.VisitNewArray(n) }

var anyType = reflect.TypeFor[any]()

// itemNodes wraps items and derives a slice type from their common element
// type, falling back to []any.
func itemNodes(items []any) ([]Node, reflect.Type) {
	out := make([]Node, len(items))
	var elem reflect.Type
	for i, it := range items {
		out[i] = Literal(it)
		t := TypeOf(out[i])
		switch {
		case i == 0:
			elem = t
		case elem != t:
			elem = nil
		}
	}
	if elem == nil {
		elem = anyType
	}
	return out, reflect.SliceOf(elem)
}
