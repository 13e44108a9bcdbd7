package visitors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bawdo/exprql/nodes"
)

// selectCompiler renders the projection list. Each item is followed by a
// separator that Compile trims once the list is complete.
type selectCompiler struct {
	base
}

// VisitConstant treats a string as a raw comma-separated field list. Other
// values are projected as bound parameters.
func (s *selectCompiler) VisitConstant(n *nodes.ConstantNode) error {
	raw, ok := n.Value.(string)
	if !ok {
		return s.item(n, "")
	}
	items, err := rawItems(raw, false)
	if err != nil {
		return err
	}
	for _, it := range items {
		s.ctx.WriteString(it)
		s.ctx.addField(it)
		s.ctx.WriteString(itemSep)
	}
	return nil
}

// VisitParameter projects every column of the row.
func (s *selectCompiler) VisitParameter(n *nodes.ParameterNode) error {
	_, alias, err := s.ctx.ParameterTable(n)
	if err != nil {
		return err
	}
	f := "*"
	if !s.ctx.singleTable {
		f = s.ctx.Ident(alias) + ".*"
	}
	s.ctx.WriteString(f)
	s.ctx.addField(f)
	s.ctx.WriteString(itemSep)
	return nil
}

func (s *selectCompiler) VisitMember(n *nodes.MemberNode) error { return s.item(n, "") }
func (s *selectCompiler) VisitBinary(n *nodes.BinaryNode) error { return s.item(n, "") }
func (s *selectCompiler) VisitUnary(n *nodes.UnaryNode) error   { return s.item(n, "") }
func (s *selectCompiler) VisitCall(n *nodes.CallNode) error     { return s.item(n, "") }
func (s *selectCompiler) VisitConditional(n *nodes.ConditionalNode) error {
	return s.item(n, "")
}

func (s *selectCompiler) VisitNew(n *nodes.NewNode) error { return s.bindings(n.Members) }
func (s *selectCompiler) VisitMemberInit(n *nodes.MemberInitNode) error {
	return s.bindings(n.Bindings)
}

func (s *selectCompiler) VisitListInit(n *nodes.ListInitNode) error { return s.list(n.Items) }
func (s *selectCompiler) VisitNewArray(n *nodes.NewArrayNode) error { return s.list(n.Items) }

func (s *selectCompiler) list(items []nodes.Node) error {
	for _, it := range items {
		if err := s.visit(it); err != nil {
			return err
		}
	}
	return nil
}

func (s *selectCompiler) bindings(bs []nodes.Binding) error {
	for _, b := range bs {
		if p, ok := unquote(b.Expr).(*nodes.ParameterNode); ok {
			if err := s.VisitParameter(p); err != nil {
				return err
			}
			continue
		}
		if err := s.item(b.Expr, b.Name); err != nil {
			return err
		}
	}
	return nil
}

// item renders one projected value. When name is set and differs from the
// bare column the value renders as, the item is aliased AS name.
func (s *selectCompiler) item(n nodes.Node, name string) error {
	start := s.ctx.Len()
	if err := s.value(n); err != nil {
		return err
	}
	s.ctx.pendingType = ""
	if name != "" && bareColumn(s.ctx.Span(start)) != name {
		s.ctx.WriteString(" AS " + s.ctx.Ident(name))
	}
	s.ctx.addField(s.ctx.Span(start))
	s.ctx.WriteString(itemSep)
	return nil
}

// bareColumn strips the table qualifier and identifier quotes from a
// rendered column reference.
func bareColumn(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return strings.Trim(s, "\"`[]")
}

var (
	rawField = regexp.MustCompile(`^(\*|[A-Za-z_][A-Za-z0-9_]*(\.([A-Za-z_][A-Za-z0-9_]*|\*))?)(\s+(?i:AS)\s+[A-Za-z_][A-Za-z0-9_]*)?$`)
	rawOrder = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?(\s+(?i:ASC|DESC))?$`)
)

// rawItems splits a raw field list and checks that every item is a plain,
// optionally qualified identifier. ordered permits a trailing ASC or DESC.
func rawItems(raw string, ordered bool) ([]string, error) {
	re := rawField
	if ordered {
		re = rawOrder
	}
	var out []string
	for _, it := range strings.Split(raw, ",") {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if !re.MatchString(it) {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeIdentifier, it)
		}
		out = append(out, it)
	}
	return out, nil
}
