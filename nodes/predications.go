package nodes

import "reflect"

// Predications provides comparison and string-matching methods to types
// that embed it. The self field must be set to the embedding node so that
// comparisons reference the correct left-hand side.
type Predications struct {
	self Node
}

// Eq creates self = val. A nil val renders as IS NULL.
func (p Predications) Eq(val any) *BinaryNode {
	return NewBinary(OpEqual, p.self, Literal(val))
}

// NotEq creates self <> val. A nil val renders as IS NOT NULL.
func (p Predications) NotEq(val any) *BinaryNode {
	return NewBinary(OpNotEqual, p.self, Literal(val))
}

// Gt creates self > val.
func (p Predications) Gt(val any) *BinaryNode {
	return NewBinary(OpGreaterThan, p.self, Literal(val))
}

// GtEq creates self >= val.
func (p Predications) GtEq(val any) *BinaryNode {
	return NewBinary(OpGreaterThanOrEqual, p.self, Literal(val))
}

// Lt creates self < val.
func (p Predications) Lt(val any) *BinaryNode {
	return NewBinary(OpLessThan, p.self, Literal(val))
}

// LtEq creates self <= val.
func (p Predications) LtEq(val any) *BinaryNode {
	return NewBinary(OpLessThanOrEqual, p.self, Literal(val))
}

// IsNull creates self IS NULL.
func (p Predications) IsNull() *BinaryNode { return p.Eq(nil) }

// IsNotNull creates self IS NOT NULL.
func (p Predications) IsNotNull() *BinaryNode { return p.NotEq(nil) }

// Like matches self against val anywhere in the string.
func (p Predications) Like(val any) *CallNode {
	return Call(nil, "Like", p.self, Literal(val))
}

// LikeLeft matches strings ending with val (wildcard on the left).
func (p Predications) LikeLeft(val any) *CallNode {
	return Call(nil, "LikeLeft", p.self, Literal(val))
}

// LikeRight matches strings starting with val (wildcard on the right).
func (p Predications) LikeRight(val any) *CallNode {
	return Call(nil, "LikeRight", p.self, Literal(val))
}

// NotLike is the negation of Like.
func (p Predications) NotLike(val any) *CallNode {
	return Call(nil, "NotLike", p.self, Literal(val))
}

// In creates self IN (vals...). A single slice or Node argument is used as
// the collection itself.
func (p Predications) In(vals ...any) *CallNode {
	return Call(nil, "In", p.self, collection(vals))
}

// NotIn creates self NOT IN (vals...).
func (p Predications) NotIn(vals ...any) *CallNode {
	return Call(nil, "NotIn", p.self, collection(vals))
}

// Contains tests whether the string self contains val, or whether the
// collection self contains the element val.
func (p Predications) Contains(val any) *CallNode {
	return Call(p.self, "Contains", Literal(val))
}

// StartsWith tests whether self begins with val.
func (p Predications) StartsWith(val any) *CallNode {
	return Call(p.self, "StartsWith", Literal(val))
}

// EndsWith tests whether self ends with val.
func (p Predications) EndsWith(val any) *CallNode {
	return Call(p.self, "EndsWith", Literal(val))
}

// Equals compares self to val, treating nil as IS NULL.
func (p Predications) Equals(val any) *CallNode {
	return Call(p.self, "Equals", Literal(val))
}

// IsNullOrEmpty tests whether self is NULL or the empty string.
func (p Predications) IsNullOrEmpty() *CallNode {
	return Call(nil, "IsNullOrEmpty", p.self)
}

func (p Predications) ToUpper() *CallNode   { return Call(p.self, "ToUpper") }
func (p Predications) ToLower() *CallNode   { return Call(p.self, "ToLower") }
func (p Predications) Trim() *CallNode      { return Call(p.self, "Trim") }
func (p Predications) TrimStart() *CallNode { return Call(p.self, "TrimStart") }
func (p Predications) TrimEnd() *CallNode   { return Call(p.self, "TrimEnd") }

// collection turns variadic In arguments into a single collection node.
func collection(vals []any) Node {
	if len(vals) == 1 {
		if n, ok := vals[0].(Node); ok {
			return n
		}
		if rv := reflect.ValueOf(vals[0]); rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
			return Const(vals[0])
		}
	}
	return Array(vals...)
}
