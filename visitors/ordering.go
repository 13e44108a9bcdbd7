package visitors

import (
	"strings"

	"github.com/bawdo/exprql/nodes"
)

// listCompiler renders GROUP BY and ORDER BY lists. For ORDER BY, the i-th
// item takes the i-th direction, defaulting to ascending, unless its own
// text already ends in ASC or DESC.
type listCompiler struct {
	base
	orders []Direction
	next   int
}

func (l *listCompiler) VisitConstant(n *nodes.ConstantNode) error {
	switch v := n.Value.(type) {
	case string:
		return l.raw(v)
	case []string:
		for _, s := range v {
			if err := l.raw(s); err != nil {
				return err
			}
		}
		return nil
	}
	return unsupported(n, l.clause)
}

func (l *listCompiler) raw(s string) error {
	items, err := rawItems(s, l.clause == OrderBy)
	if err != nil {
		return err
	}
	for _, it := range items {
		l.ctx.WriteString(it)
		l.finish(it)
	}
	return nil
}

func (l *listCompiler) VisitMember(n *nodes.MemberNode) error { return l.item(n) }
func (l *listCompiler) VisitBinary(n *nodes.BinaryNode) error { return l.item(n) }
func (l *listCompiler) VisitUnary(n *nodes.UnaryNode) error   { return l.item(n) }
func (l *listCompiler) VisitCall(n *nodes.CallNode) error     { return l.item(n) }
func (l *listCompiler) VisitConditional(n *nodes.ConditionalNode) error {
	return l.item(n)
}

func (l *listCompiler) VisitNew(n *nodes.NewNode) error { return l.bindings(n.Members) }
func (l *listCompiler) VisitMemberInit(n *nodes.MemberInitNode) error {
	return l.bindings(n.Bindings)
}
func (l *listCompiler) VisitListInit(n *nodes.ListInitNode) error { return l.list(n.Items) }
func (l *listCompiler) VisitNewArray(n *nodes.NewArrayNode) error { return l.list(n.Items) }

func (l *listCompiler) bindings(bs []nodes.Binding) error {
	for _, b := range bs {
		if err := l.visit(b.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (l *listCompiler) list(items []nodes.Node) error {
	for _, it := range items {
		if err := l.visit(it); err != nil {
			return err
		}
	}
	return nil
}

func (l *listCompiler) item(n nodes.Node) error {
	start := l.ctx.Len()
	if err := l.value(n); err != nil {
		return err
	}
	l.ctx.pendingType = ""
	l.finish(l.ctx.Span(start))
	return nil
}

// finish appends the direction of an ORDER BY item and the separator.
func (l *listCompiler) finish(text string) {
	if l.clause == OrderBy {
		dir := Asc
		if l.next < len(l.orders) {
			dir = l.orders[l.next]
		}
		if !hasDirection(text) {
			l.ctx.WriteString(" " + dir.String())
		}
	}
	l.next++
	l.ctx.WriteString(itemSep)
}

func hasDirection(s string) bool {
	u := strings.ToUpper(strings.TrimSpace(s))
	return strings.HasSuffix(u, " ASC") || strings.HasSuffix(u, " DESC")
}
