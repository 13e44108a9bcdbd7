package visitors

import (
	"errors"
	"fmt"

	"github.com/bawdo/exprql/nodes"
)

// Sentinel errors for compilation failures. Each typed error below matches
// its sentinel with errors.Is.
var (
	ErrUnsupportedConstruct = errors.New("exprql: unsupported construct")
	ErrUnsupportedOperator  = errors.New("exprql: unsupported operator")
	ErrUnsupportedMethod    = errors.New("exprql: unsupported method")
	ErrInconsistentRows     = errors.New("exprql: inconsistent insert rows")
	ErrUnsafeIdentifier     = errors.New("exprql: unsafe identifier")
)

// UnsupportedConstructError reports a node variant with no rule for the
// clause being compiled.
type UnsupportedConstructError struct {
	Kind   nodes.Kind
	Clause Clause
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("exprql: unsupported construct: %s in %s clause", e.Kind, e.Clause)
}

// Is reports whether target is ErrUnsupportedConstruct.
func (e *UnsupportedConstructError) Is(target error) bool {
	return target == ErrUnsupportedConstruct
}

// UnsupportedOperatorError reports an operator outside the token table.
type UnsupportedOperatorError struct {
	Op     fmt.Stringer
	Clause Clause
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("exprql: unsupported operator: %s in %s clause", e.Op, e.Clause)
}

// Is reports whether target is ErrUnsupportedOperator.
func (e *UnsupportedOperatorError) Is(target error) bool {
	return target == ErrUnsupportedOperator
}

// UnsupportedMethodError reports a call that is neither an intrinsic nor
// foldable to a constant. Err holds the folding failure.
type UnsupportedMethodError struct {
	Method string
	Clause Clause
	Err    error
}

func (e *UnsupportedMethodError) Error() string {
	msg := fmt.Sprintf("exprql: unsupported method: %s in %s clause", e.Method, e.Clause)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrUnsupportedMethod.
func (e *UnsupportedMethodError) Is(target error) bool {
	return target == ErrUnsupportedMethod
}

func (e *UnsupportedMethodError) Unwrap() error { return e.Err }

func unsupported(n nodes.Node, clause Clause) error {
	return &UnsupportedConstructError{Kind: n.Kind(), Clause: clause}
}
