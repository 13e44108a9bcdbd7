package nodes

// Rewrite rebuilds the tree rooted at n. fn is consulted for every node
// before its children; when it reports true the returned node replaces the
// subtree. Unchanged subtrees are shared with the input.
func Rewrite(n Node, fn func(Node) (Node, bool)) Node {
	if n == nil {
		return nil
	}
	if r, ok := fn(n); ok {
		return r
	}
	switch v := n.(type) {
	case *MemberNode:
		if e := Rewrite(v.Expr, fn); e != v.Expr {
			m := Member(e, v.Name)
			if m.Type == nil {
				m.Type, m.Declaring = v.Type, v.Declaring
			}
			return m
		}
	case *BinaryNode:
		l, r := Rewrite(v.Left, fn), Rewrite(v.Right, fn)
		if l != v.Left || r != v.Right {
			return NewBinary(v.Op, l, r)
		}
	case *UnaryNode:
		if o := Rewrite(v.Operand, fn); o != v.Operand {
			return NewUnary(v.Op, o, v.Type)
		}
	case *CallNode:
		obj := Rewrite(v.Object, fn)
		args, changed := rewriteAll(v.Args, fn)
		if changed || obj != v.Object {
			c := CallOf(v.Type, obj, v.Method, args...)
			c.Generic, c.Func = v.Generic, v.Func
			return c
		}
	case *NewNode:
		if b, changed := rewriteBindings(v.Members, fn); changed {
			return &NewNode{Type: v.Type, Members: b}
		}
	case *MemberInitNode:
		if b, changed := rewriteBindings(v.Bindings, fn); changed {
			return &MemberInitNode{Type: v.Type, Bindings: b}
		}
	case *ListInitNode:
		if items, changed := rewriteAll(v.Items, fn); changed {
			return &ListInitNode{Type: v.Type, Items: items}
		}
	case *NewArrayNode:
		if items, changed := rewriteAll(v.Items, fn); changed {
			return &NewArrayNode{Type: v.Type, Items: items}
		}
	case *LambdaNode:
		if b := Rewrite(v.Body, fn); b != v.Body {
			return &LambdaNode{Body: b, Params: v.Params}
		}
	case *InvocationNode:
		e := Rewrite(v.Expr, fn)
		args, changed := rewriteAll(v.Args, fn)
		if changed || e != v.Expr {
			return &InvocationNode{Expr: e, Args: args}
		}
	case *ConditionalNode:
		t, a, b := Rewrite(v.Test, fn), Rewrite(v.IfTrue, fn), Rewrite(v.IfFalse, fn)
		if t != v.Test || a != v.IfTrue || b != v.IfFalse {
			return Cond(t, a, b)
		}
	}
	return n
}

func rewriteAll(in []Node, fn func(Node) (Node, bool)) ([]Node, bool) {
	out := make([]Node, len(in))
	changed := false
	for i, x := range in {
		out[i] = Rewrite(x, fn)
		if out[i] != x {
			changed = true
		}
	}
	return out, changed
}

func rewriteBindings(in []Binding, fn func(Node) (Node, bool)) ([]Binding, bool) {
	out := make([]Binding, len(in))
	changed := false
	for i, b := range in {
		out[i] = Binding{Name: b.Name, Expr: Rewrite(b.Expr, fn)}
		if out[i].Expr != b.Expr {
			changed = true
		}
	}
	return out, changed
}

// Walk calls fn for n and its descendants in depth-first order. Returning
// false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Children returns the direct child nodes of n.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *MemberNode:
		if v.Expr != nil {
			return []Node{v.Expr}
		}
	case *BinaryNode:
		return []Node{v.Left, v.Right}
	case *UnaryNode:
		return []Node{v.Operand}
	case *CallNode:
		out := make([]Node, 0, len(v.Args)+1)
		if v.Object != nil {
			out = append(out, v.Object)
		}
		return append(out, v.Args...)
	case *NewNode:
		return bindingExprs(v.Members)
	case *MemberInitNode:
		return bindingExprs(v.Bindings)
	case *ListInitNode:
		return v.Items
	case *NewArrayNode:
		return v.Items
	case *LambdaNode:
		out := make([]Node, 0, len(v.Params)+1)
		for _, p := range v.Params {
			out = append(out, p)
		}
		return append(out, v.Body)
	case *InvocationNode:
		return append([]Node{v.Expr}, v.Args...)
	case *ConditionalNode:
		return []Node{v.Test, v.IfTrue, v.IfFalse}
	}
	return nil
}

func bindingExprs(bs []Binding) []Node {
	out := make([]Node, len(bs))
	for i, b := range bs {
		out[i] = b.Expr
	}
	return out
}

// Params returns the distinct parameters referenced by n, in order of first
// appearance.
func Params(n Node) []*ParameterNode {
	var out []*ParameterNode
	seen := map[*ParameterNode]bool{}
	Walk(n, func(x Node) bool {
		if p, ok := x.(*ParameterNode); ok && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
		return true
	})
	return out
}
