package mapping

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalidColumn is returned when a member has no resolvable column.
	ErrInvalidColumn = errors.New("exprql: invalid column mapping")
	// ErrNoTable is returned when a type cannot be mapped to a table.
	ErrNoTable = errors.New("exprql: type is not mapped to a table")
)

// ColumnError reports a member that could not be resolved to a column.
type ColumnError struct {
	Type   reflect.Type
	Member string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("exprql: invalid column mapping: %s has no column for member %q", typeName(e.Type), e.Member)
}

// Is reports whether target is ErrInvalidColumn.
func (e *ColumnError) Is(target error) bool {
	return target == ErrInvalidColumn
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
