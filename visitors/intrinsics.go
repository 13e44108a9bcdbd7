package visitors

import (
	"fmt"
	"reflect"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/nodes"
)

// intrinsic renders one recognised method call. Predicate intrinsics
// produce a condition; the rest produce a value.
type intrinsic struct {
	predicate bool
	args      int
	emit      func(b *base, target nodes.Node, args []nodes.Node) error
}

// intrinsics is read-only after package initialisation. It is populated in
// init because the emitters recurse back into the compiler.
var intrinsics map[string]intrinsic

func init() {
	intrinsics = map[string]intrinsic{
		"Like":          {true, 1, like(false, (*dialect.Profile).LikeContains)},
		"LikeLeft":      {true, 1, like(false, (*dialect.Profile).LikeEndsWith)},
		"LikeRight":     {true, 1, like(false, (*dialect.Profile).LikeStartsWith)},
		"NotLike":       {true, 1, like(true, (*dialect.Profile).LikeContains)},
		"StartsWith":    {true, 1, like(false, (*dialect.Profile).LikeStartsWith)},
		"HasPrefix":     {true, 1, like(false, (*dialect.Profile).LikeStartsWith)},
		"EndsWith":      {true, 1, like(false, (*dialect.Profile).LikeEndsWith)},
		"HasSuffix":     {true, 1, like(false, (*dialect.Profile).LikeEndsWith)},
		"In":            {true, 1, in(false)},
		"NotIn":         {true, 1, in(true)},
		"Contains":      {true, 1, contains},
		"IsNullOrEmpty": {true, 0, isNullOrEmpty},
		"Equals":        {true, 1, equals},
		"ToUpper":       {false, 0, wrap("UPPER")},
		"ToLower":       {false, 0, wrap("LOWER")},
		"Trim":          {false, 0, trim},
		"TrimSpace":     {false, 0, trim},
		"TrimStart":     {false, 0, wrap("LTRIM")},
		"TrimEnd":       {false, 0, wrap("RTRIM")},
		"Count":         {false, 0, aggregate(Count)},
		"Sum":           {false, 0, aggregate(Sum)},
		"Avg":           {false, 0, aggregate(Avg)},
		"Max":           {false, 0, aggregate(Max)},
		"Min":           {false, 0, aggregate(Min)},
	}
}

// call renders a method call through the intrinsics table. Unknown methods
// are folded to a constant when their operands allow it.
func (b *base) call(n *nodes.CallNode, predicate bool) error {
	fn, ok := intrinsics[n.Method]
	if !ok || (nodes.IsAggregate(n.Method) && n.Object != nil) {
		return b.foldCall(n)
	}
	target, args := callOperands(n)
	if (target == nil && !nodes.IsAggregate(n.Method)) || len(args) < fn.args {
		return fmt.Errorf("%w: %s expects %d argument(s)", ErrUnsupportedMethod, n.Method, fn.args)
	}
	switch {
	case fn.predicate == predicate:
		return fn.emit(b, target, args)
	case fn.predicate:
		b.ctx.WriteString("CASE WHEN ")
		mark := b.ctx.Len()
		if err := fn.emit(b, target, args); err != nil {
			return err
		}
		if b.ctx.Len() == mark {
			b.ctx.WriteString("1 = 1")
		}
		b.ctx.WriteString(" THEN 1 ELSE 0 END")
		return nil
	}
	return unsupported(n, b.clause)
}

func (b *base) foldCall(n *nodes.CallNode) error {
	v, err := nodes.Eval(n)
	if err != nil {
		return &UnsupportedMethodError{Method: n.Method, Clause: b.clause, Err: err}
	}
	return nodes.ConstOf(v, n.Type).Accept(b.self)
}

// callOperands splits a call into the value it applies to and its
// remaining arguments. Static calls take the first argument as target.
func callOperands(n *nodes.CallNode) (nodes.Node, []nodes.Node) {
	if n.Object != nil {
		return n.Object, n.Args
	}
	if len(n.Args) == 0 {
		return nil, nil
	}
	return n.Args[0], n.Args[1:]
}

func like(not bool, pattern func(*dialect.Profile, string) string) func(*base, nodes.Node, []nodes.Node) error {
	return func(b *base, target nodes.Node, args []nodes.Node) error {
		if err := b.value(target); err != nil {
			return err
		}
		if not {
			b.ctx.WriteString(" NOT LIKE ")
		} else {
			b.ctx.WriteString(" LIKE ")
		}
		start := b.ctx.Len()
		if err := b.value(args[0]); err != nil {
			return err
		}
		b.ctx.ReplaceFrom(start, pattern(b.ctx.profile, b.ctx.Span(start)))
		return nil
	}
}

func in(not bool) func(*base, nodes.Node, []nodes.Node) error {
	return func(b *base, target nodes.Node, args []nodes.Node) error {
		return b.membership(target, args[0], not)
	}
}

// membership renders x IN (collection). An empty collection holds no x:
// IN renders 1 = 0, and NOT IN holds for every row, so it emits nothing at
// predicate position and 1 = 1 elsewhere.
func (b *base) membership(x, collection nodes.Node, not bool) error {
	if emptyCollection(collection) {
		switch {
		case !not:
			b.ctx.WriteString("1 = 0")
		case b.clause != Where && b.clause != Join && b.clause != Having:
			b.ctx.WriteString("1 = 1")
		}
		return nil
	}
	if err := b.value(x); err != nil {
		return err
	}
	if not {
		b.ctx.WriteString(" NOT IN ")
	} else {
		b.ctx.WriteString(" IN ")
	}
	return compileWith(collection, In, b.ctx, nil)
}

// emptyCollection reports whether n is a list known to hold no items.
func emptyCollection(n nodes.Node) bool {
	switch v := unquote(n).(type) {
	case *nodes.NewArrayNode:
		return len(v.Items) == 0
	case *nodes.ListInitNode:
		return len(v.Items) == 0
	case *nodes.ConstantNode:
		if v.Value == nil {
			return false
		}
		rv := reflect.ValueOf(v.Value)
		for rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return false
			}
			rv = rv.Elem()
		}
		return isCollection(rv.Type()) && rv.Len() == 0
	}
	return false
}

// contains tests collection membership when the target is a collection and
// substring containment otherwise.
func contains(b *base, target nodes.Node, args []nodes.Node) error {
	if isCollection(nodes.TypeOf(target)) {
		return b.membership(args[0], target, false)
	}
	return like(false, (*dialect.Profile).LikeContains)(b, target, args)
}

func isNullOrEmpty(b *base, target nodes.Node, _ []nodes.Node) error {
	b.ctx.WriteString("(")
	if err := b.value(target); err != nil {
		return err
	}
	b.ctx.WriteString(" IS NULL OR ")
	if err := b.value(target); err != nil {
		return err
	}
	b.ctx.WriteString(" = '')")
	return nil
}

func equals(b *base, target nodes.Node, args []nodes.Node) error {
	return b.predicate(nodes.NewBinary(nodes.OpEqual, target, args[0]))
}

func wrap(fn string) func(*base, nodes.Node, []nodes.Node) error {
	return func(b *base, target nodes.Node, _ []nodes.Node) error {
		b.ctx.WriteString(fn + "(")
		if err := b.value(target); err != nil {
			return err
		}
		b.ctx.WriteString(")")
		return nil
	}
}

func trim(b *base, target nodes.Node, _ []nodes.Node) error {
	start := b.ctx.Len()
	if err := b.value(target); err != nil {
		return err
	}
	b.ctx.ReplaceFrom(start, b.ctx.profile.Trim(b.ctx.Span(start)))
	return nil
}

func aggregate(c Clause) func(*base, nodes.Node, []nodes.Node) error {
	return func(b *base, target nodes.Node, _ []nodes.Node) error {
		return Compile(target, c, b.ctx)
	}
}
