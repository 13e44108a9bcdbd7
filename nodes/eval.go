package nodes

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"
)

// ErrNotConstant is returned by Eval when a tree depends on a row parameter
// or otherwise cannot be folded.
var ErrNotConstant = errors.New("exprql: expression is not a compile-time constant")

// Eval folds n to a Go value. It fails with ErrNotConstant when n refers to
// a lambda parameter.
func Eval(n Node) (any, error) {
	switch v := n.(type) {
	case nil:
		return nil, nil
	case *ConstantNode:
		return v.Value, nil
	case *ParameterNode:
		return nil, fmt.Errorf("%w: parameter %q", ErrNotConstant, v.Name)
	case *MemberNode:
		return evalMember(v)
	case *BinaryNode:
		return evalBinary(v)
	case *UnaryNode:
		return evalUnary(v)
	case *CallNode:
		return evalCall(v)
	case *ConditionalNode:
		t, err := Eval(v.Test)
		if err != nil {
			return nil, err
		}
		b, ok := t.(bool)
		if !ok {
			return nil, fmt.Errorf("exprql: conditional test is %T, not bool", t)
		}
		if b {
			return Eval(v.IfTrue)
		}
		return Eval(v.IfFalse)
	case *NewArrayNode:
		return evalItems(v.Type, v.Items)
	case *ListInitNode:
		return evalItems(v.Type, v.Items)
	case *NewNode:
		return evalObject(v.Type, v.Members)
	case *MemberInitNode:
		return evalObject(v.Type, v.Bindings)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotConstant, n.Kind())
}

func evalMember(n *MemberNode) (any, error) {
	if n.Expr == nil {
		return nil, fmt.Errorf("%w: static member %q", ErrNotConstant, n.Name)
	}
	target, err := Eval(n.Expr)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(target)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, fmt.Errorf("exprql: member %q of nil %s", n.Name, rv.Type())
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("exprql: member %q of nil value", n.Name)
	}
	switch rv.Kind() {
	case reflect.Struct:
		f := rv.FieldByName(n.Name)
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			e := rv.MapIndex(reflect.ValueOf(n.Name).Convert(rv.Type().Key()))
			if !e.IsValid() {
				return nil, nil
			}
			return e.Interface(), nil
		}
	case reflect.String, reflect.Slice, reflect.Array:
		if n.Name == LengthMember {
			return rv.Len(), nil
		}
	}
	return nil, fmt.Errorf("exprql: %s has no member %q", rv.Type(), n.Name)
}

func evalBinary(n *BinaryNode) (any, error) {
	l, err := Eval(n.Left)
	if err != nil {
		return nil, err
	}
	if n.Op.IsLogical() {
		lb, ok := l.(bool)
		if !ok {
			return nil, fmt.Errorf("exprql: %s operand is %T, not bool", n.Op, l)
		}
		if n.Op == OpAndAlso && !lb {
			return false, nil
		}
		if n.Op == OpOrElse && lb {
			return true, nil
		}
		r, err := Eval(n.Right)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(bool)
		if !ok {
			return nil, fmt.Errorf("exprql: %s operand is %T, not bool", n.Op, r)
		}
		if n.Op == OpAnd || n.Op == OpAndAlso {
			return lb && rb, nil
		}
		return lb || rb, nil
	}
	if n.Op == OpCoalesce && !isNil(l) {
		return l, nil
	}
	r, err := Eval(n.Right)
	if err != nil {
		return nil, err
	}
	if n.Op.IsComparison() {
		return compareValues(n.Op, l, r)
	}
	return arith(n.Op, l, r)
}

func evalUnary(n *UnaryNode) (any, error) {
	x, err := Eval(n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OpNot:
		if b, ok := x.(bool); ok {
			return !b, nil
		}
		return nil, fmt.Errorf("exprql: Not operand is %T, not bool", x)
	case OpNegate:
		return arith(OpSubtract, zeroOf(x), x)
	case OpOnesComplement:
		rv := reflect.ValueOf(x)
		if isIntKind(rv) {
			return reflect.ValueOf(^rv.Int()).Convert(rv.Type()).Interface(), nil
		}
		return nil, fmt.Errorf("exprql: OnesComplement operand is %T", x)
	case OpArrayLength:
		rv := reflect.ValueOf(x)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			return rv.Len(), nil
		}
		return nil, fmt.Errorf("exprql: ArrayLength operand is %T", x)
	case OpConvert:
		return convertTo(x, n.Type)
	}
	return x, nil
}

func zeroOf(x any) any {
	if x == nil {
		return 0
	}
	return reflect.Zero(reflect.TypeOf(x)).Interface()
}

func convertTo(x any, t reflect.Type) (any, error) {
	if t == nil || x == nil {
		return x, nil
	}
	rv := reflect.ValueOf(x)
	if rv.Type() == t {
		return x, nil
	}
	if t.Kind() == reflect.Pointer && rv.Type().ConvertibleTo(t.Elem()) {
		p := reflect.New(t.Elem())
		p.Elem().Set(rv.Convert(t.Elem()))
		return p.Interface(), nil
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("exprql: cannot convert %T to %s", x, t)
}

func evalCall(n *CallNode) (any, error) {
	args := make([]any, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if n.Func != nil {
		return callFunc(reflect.ValueOf(n.Func), n.Method, args)
	}
	if n.Object == nil {
		if n.Method == "IsNullOrEmpty" && len(args) == 1 {
			s, _ := args[0].(string)
			return args[0] == nil || s == "", nil
		}
		return nil, fmt.Errorf("%w: static call %s", ErrNotConstant, n.Method)
	}
	obj, err := Eval(n.Object)
	if err != nil {
		return nil, err
	}
	if s, ok := obj.(string); ok {
		if fn, ok := stringMethods[n.Method]; ok {
			return fn(s, args)
		}
	}
	rv := reflect.ValueOf(obj)
	if n.Method == "Contains" && len(args) == 1 && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		for i := range rv.Len() {
			eq, err := compareValues(OpEqual, rv.Index(i).Interface(), args[0])
			if err == nil && eq.(bool) {
				return true, nil
			}
		}
		return false, nil
	}
	m := rv.MethodByName(n.Method)
	if !m.IsValid() && rv.IsValid() && rv.Kind() != reflect.Pointer {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		m = p.MethodByName(n.Method)
	}
	if !m.IsValid() {
		return nil, fmt.Errorf("exprql: %T has no method %s", obj, n.Method)
	}
	return callFunc(m, n.Method, args)
}

var errorType = reflect.TypeFor[error]()

func callFunc(fv reflect.Value, name string, args []any) (any, error) {
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("exprql: %s is %s, not a function", name, ft)
	}
	if (!ft.IsVariadic() && len(args) != ft.NumIn()) || (ft.IsVariadic() && len(args) < ft.NumIn()-1) {
		return nil, fmt.Errorf("exprql: %s expects %d arguments, got %d", name, ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var want reflect.Type
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			want = ft.In(ft.NumIn() - 1).Elem()
		} else {
			want = ft.In(i)
		}
		av, err := argValue(a, want)
		if err != nil {
			return nil, fmt.Errorf("exprql: %s argument %d: %w", name, i, err)
		}
		in[i] = av
	}
	out := fv.Call(in)
	if len(out) == 0 {
		return nil, nil
	}
	if last := out[len(out)-1]; ft.Out(len(out)-1) == errorType && !last.IsNil() {
		return nil, last.Interface().(error)
	}
	return out[0].Interface(), nil
}

func argValue(a any, want reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(want), nil
	}
	rv := reflect.ValueOf(a)
	switch {
	case rv.Type().AssignableTo(want):
		return rv, nil
	case rv.Type().ConvertibleTo(want):
		return rv.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, want)
}

func isSpace(r rune) bool { return unicode.IsSpace(r) }

var stringMethods = map[string]func(s string, args []any) (any, error){
	"ToUpper":    func(s string, _ []any) (any, error) { return strings.ToUpper(s), nil },
	"ToLower":    func(s string, _ []any) (any, error) { return strings.ToLower(s), nil },
	"Trim":       func(s string, _ []any) (any, error) { return strings.TrimSpace(s), nil },
	"TrimSpace":  func(s string, _ []any) (any, error) { return strings.TrimSpace(s), nil },
	"TrimStart":  func(s string, _ []any) (any, error) { return strings.TrimLeftFunc(s, isSpace), nil },
	"TrimEnd":    func(s string, _ []any) (any, error) { return strings.TrimRightFunc(s, isSpace), nil },
	"Contains":   stringPredicate(strings.Contains),
	"StartsWith": stringPredicate(strings.HasPrefix),
	"HasPrefix":  stringPredicate(strings.HasPrefix),
	"EndsWith":   stringPredicate(strings.HasSuffix),
	"HasSuffix":  stringPredicate(strings.HasSuffix),
	"Equals":     stringPredicate(func(a, b string) bool { return a == b }),
}

func stringPredicate(fn func(s, arg string) bool) func(string, []any) (any, error) {
	return func(s string, args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("exprql: expected 1 argument, got %d", len(args))
		}
		arg, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("exprql: expected string argument, got %T", args[0])
		}
		return fn(s, arg), nil
	}
}

func evalItems(t reflect.Type, items []Node) (any, error) {
	vals := make([]any, len(items))
	for i, it := range items {
		v, err := Eval(it)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	if t == nil || t.Kind() != reflect.Slice || t.Elem() == anyType {
		return vals, nil
	}
	out := reflect.MakeSlice(t, len(vals), len(vals))
	for i, v := range vals {
		av, err := argValue(v, t.Elem())
		if err != nil {
			return nil, err
		}
		out.Index(i).Set(av)
	}
	return out.Interface(), nil
}

func evalObject(t reflect.Type, bindings []Binding) (any, error) {
	if t == nil || t.Kind() != reflect.Struct {
		m := make(map[string]any, len(bindings))
		for _, b := range bindings {
			v, err := Eval(b.Expr)
			if err != nil {
				return nil, err
			}
			m[b.Name] = v
		}
		return m, nil
	}
	obj := reflect.New(t).Elem()
	for _, b := range bindings {
		v, err := Eval(b.Expr)
		if err != nil {
			return nil, err
		}
		f := obj.FieldByName(b.Name)
		if !f.IsValid() || !f.CanSet() {
			return nil, fmt.Errorf("exprql: %s has no settable member %q", t, b.Name)
		}
		av, err := argValue(v, f.Type())
		if err != nil {
			return nil, err
		}
		f.Set(av)
	}
	return obj.Interface(), nil
}

// numeric classification

func isIntKind(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloatKind(rv reflect.Value) bool {
	return rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64
}

func isNumber(rv reflect.Value) bool {
	return rv.IsValid() && (isIntKind(rv) || isUintKind(rv) || isFloatKind(rv))
}

func asInt(rv reflect.Value) int64 {
	if isUintKind(rv) {
		return int64(rv.Uint())
	}
	return rv.Int()
}

func asFloat(rv reflect.Value) float64 {
	switch {
	case isFloatKind(rv):
		return rv.Float()
	case isUintKind(rv):
		return float64(rv.Uint())
	}
	return float64(rv.Int())
}

func compareValues(op BinaryOp, l, r any) (any, error) {
	lv, rv := reflect.ValueOf(l), reflect.ValueOf(r)
	var c int
	switch {
	case isNumber(lv) && isNumber(rv):
		if isFloatKind(lv) || isFloatKind(rv) {
			a, b := asFloat(lv), asFloat(rv)
			c = cmp3(a < b, a > b)
		} else {
			a, b := asInt(lv), asInt(rv)
			c = cmp3(a < b, a > b)
		}
	case lv.Kind() == reflect.String && rv.Kind() == reflect.String:
		c = strings.Compare(lv.String(), rv.String())
	case op == OpEqual || op == OpNotEqual:
		eq := reflect.DeepEqual(l, r) || (isNil(l) && isNil(r))
		return eq == (op == OpEqual), nil
	default:
		return nil, fmt.Errorf("exprql: cannot order %T and %T", l, r)
	}
	switch op {
	case OpEqual:
		return c == 0, nil
	case OpNotEqual:
		return c != 0, nil
	case OpGreaterThan:
		return c > 0, nil
	case OpGreaterThanOrEqual:
		return c >= 0, nil
	case OpLessThan:
		return c < 0, nil
	}
	return c <= 0, nil
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

func arith(op BinaryOp, l, r any) (any, error) {
	if op == OpCoalesce {
		return r, nil
	}
	lv, rv := reflect.ValueOf(l), reflect.ValueOf(r)
	if op == OpArrayIndex {
		if (lv.Kind() == reflect.Slice || lv.Kind() == reflect.Array) && isNumber(rv) {
			i := int(asInt(rv))
			if i < 0 || i >= lv.Len() {
				return nil, fmt.Errorf("exprql: index %d out of range", i)
			}
			return lv.Index(i).Interface(), nil
		}
		return nil, fmt.Errorf("exprql: cannot index %T", l)
	}
	if op == OpAdd && lv.Kind() == reflect.String && rv.Kind() == reflect.String {
		return lv.String() + rv.String(), nil
	}
	if !isNumber(lv) || !isNumber(rv) {
		return nil, fmt.Errorf("exprql: %s needs numeric operands, got %T and %T", op, l, r)
	}
	if isFloatKind(lv) || isFloatKind(rv) || op == OpPower {
		a, b := asFloat(lv), asFloat(rv)
		var out float64
		switch op {
		case OpAdd:
			out = a + b
		case OpSubtract:
			out = a - b
		case OpMultiply:
			out = a * b
		case OpDivide:
			out = a / b
		case OpModulo:
			out = math.Mod(a, b)
		case OpPower:
			out = math.Pow(a, b)
		default:
			return nil, fmt.Errorf("exprql: %s needs integer operands", op)
		}
		if isFloatKind(lv) {
			return reflect.ValueOf(out).Convert(lv.Type()).Interface(), nil
		}
		return out, nil
	}
	a, b := asInt(lv), asInt(rv)
	var out int64
	switch op {
	case OpAdd:
		out = a + b
	case OpSubtract:
		out = a - b
	case OpMultiply:
		out = a * b
	case OpDivide, OpModulo:
		if b == 0 {
			return nil, errors.New("exprql: integer division by zero")
		}
		if op == OpDivide {
			out = a / b
		} else {
			out = a % b
		}
	case OpExclusiveOr:
		out = a ^ b
	case OpLeftShift:
		out = a << uint(b)
	case OpRightShift:
		out = a >> uint(b)
	default:
		return nil, fmt.Errorf("exprql: operator %s cannot be evaluated", op)
	}
	return reflect.ValueOf(out).Convert(lv.Type()).Interface(), nil
}
