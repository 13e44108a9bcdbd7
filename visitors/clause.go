package visitors

import (
	"fmt"

	"github.com/bawdo/exprql/nodes"
)

// Clause selects the compilation rules applied to a node.
type Clause int

const (
	Select Clause = iota
	Insert
	Update
	Where
	Join
	In
	GroupBy
	Having
	OrderBy
	Max
	Min
	Avg
	Sum
	Count
)

var clauseNames = [...]string{
	Select:  "Select",
	Insert:  "Insert",
	Update:  "Update",
	Where:   "Where",
	Join:    "Join",
	In:      "In",
	GroupBy: "GroupBy",
	Having:  "Having",
	OrderBy: "OrderBy",
	Max:     "Max",
	Min:     "Min",
	Avg:     "Avg",
	Sum:     "Sum",
	Count:   "Count",
}

func (c Clause) String() string {
	if c < 0 || int(c) >= len(clauseNames) {
		return fmt.Sprintf("Clause(%d)", int(c))
	}
	return clauseNames[c]
}

// IsAggregate reports whether c is one of the aggregate function clauses.
func (c Clause) IsAggregate() bool {
	return c >= Max && c <= Count
}

// Function returns the SQL function name of an aggregate clause.
func (c Clause) Function() string {
	switch c {
	case Max:
		return "MAX"
	case Min:
		return "MIN"
	case Avg:
		return "AVG"
	case Sum:
		return "SUM"
	case Count:
		return "COUNT"
	}
	return ""
}

// aggregateClause maps an aggregate method name to its clause.
func aggregateClause(method string) (Clause, bool) {
	switch method {
	case "Max":
		return Max, true
	case "Min":
		return Min, true
	case "Avg":
		return Avg, true
	case "Sum":
		return Sum, true
	case "Count":
		return Count, true
	}
	return 0, false
}

// Direction is an ORDER BY direction.
type Direction = nodes.Direction

const (
	Asc  = nodes.Asc
	Desc = nodes.Desc
)
