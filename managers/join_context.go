package managers

import "github.com/bawdo/exprql/nodes"

// JoinContext is returned by the SelectManager join methods and enforces
// that a join condition is provided via On before the query continues.
type JoinContext struct {
	manager *SelectManager
	join    *nodes.JoinClause
}

// On sets the join condition and returns the SelectManager for continued
// method chaining.
func (jc *JoinContext) On(condition nodes.Node) *SelectManager {
	jc.join.On = condition
	return jc.manager
}
