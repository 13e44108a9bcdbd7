package nodes

import "reflect"

// ParameterNode is a lambda parameter standing for a row of an entity.
type ParameterNode struct {
	Name string
	Type reflect.Type
}

// Param creates a parameter of entity type T.
func Param[T any](name string) *ParameterNode {
	return &ParameterNode{Name: name, Type: reflect.TypeFor[T]()}
}

// ParamOf creates a parameter of the given entity type.
func ParamOf(name string, t reflect.Type) *ParameterNode {
	return &ParameterNode{Name: name, Type: t}
}

func (n *ParameterNode) Kind() Kind { return KindParameter }
func (n *ParameterNode) Accept(v Visitor) error { return v.VisitParameter(n) }

// Field accesses a member of the row.
func (n *ParameterNode) Field(name string) *MemberNode {
	return Member(n, name)
}
