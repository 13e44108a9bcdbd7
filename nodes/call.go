package nodes

import "reflect"

var stringType = reflect.TypeFor[string]()

// CallNode invokes Method on Object, or a static function when Object is
// nil. Func optionally carries a Go function so the call can be folded to a
// constant.
type CallNode struct {
	Object  Node
	Method  string
	Generic bool
	Args    []Node
	Type    reflect.Type
	Func    any
	Predications
	Arithmetics
	Combinable
}

func (n *CallNode) Kind() Kind { return KindCall }
func (n *CallNode) Accept(v Visitor) error { return v.VisitCall(n) }

// Call creates an instance method call. The result type is inferred for
// the well-known method names.
func Call(obj Node, method string, args ...Node) *CallNode {
	return CallOf(callType(method, obj, args), obj, method, args...)
}

// CallOf creates a method call with an explicit result type.
func CallOf(t reflect.Type, obj Node, method string, args ...Node) *CallNode {
	n := &CallNode{Object: obj, Method: method, Args: args, Type: t}
	wire(n, &n.Predications, &n.Arithmetics, &n.Combinable)
	return n
}

// StaticCall creates a call of the Go function fn. The result type is
// fn's first result.
func StaticCall(fn any, method string, args ...Node) *CallNode {
	var t reflect.Type
	if ft := reflect.TypeOf(fn); ft != nil && ft.Kind() == reflect.Func && ft.NumOut() > 0 {
		t = ft.Out(0)
	}
	n := CallOf(t, nil, method, args...)
	n.Func = fn
	return n
}

// callType infers the result type of the methods the compiler knows about.
func callType(method string, obj Node, args []Node) reflect.Type {
	switch method {
	case "Like", "LikeLeft", "LikeRight", "NotLike", "In", "NotIn", "Contains",
		"StartsWith", "EndsWith", "HasPrefix", "HasSuffix", "IsNullOrEmpty", "Equals":
		return boolType
	case "ToUpper", "ToLower", "Trim", "TrimSpace", "TrimStart", "TrimEnd":
		return stringType
	case "Count":
		return intType
	case "Sum", "Avg", "Max", "Min":
		if len(args) > 0 {
			return TypeOf(args[len(args)-1])
		}
		if obj != nil {
			return TypeOf(obj)
		}
	}
	return nil
}
