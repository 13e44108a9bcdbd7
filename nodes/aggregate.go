package nodes

// Aggregate calls are static calls whose single argument is the aggregated
// expression, usually a lambda over the row parameter.

// Count creates COUNT(x). With no argument it counts rows.
func Count(x ...Node) *CallNode { return Call(nil, "Count", x...) }

// Sum creates SUM(x).
func Sum(x Node) *CallNode { return Call(nil, "Sum", x) }

// Avg creates AVG(x).
func Avg(x Node) *CallNode { return Call(nil, "Avg", x) }

// Max creates MAX(x).
func Max(x Node) *CallNode { return Call(nil, "Max", x) }

// Min creates MIN(x).
func Min(x Node) *CallNode { return Call(nil, "Min", x) }

// IsAggregate reports whether method names one of the aggregate functions.
func IsAggregate(method string) bool {
	switch method {
	case "Count", "Sum", "Avg", "Max", "Min":
		return true
	}
	return false
}
