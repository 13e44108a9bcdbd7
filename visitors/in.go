package visitors

import (
	"reflect"

	"github.com/bawdo/exprql/nodes"
)

// inCompiler renders the parenthesised list of an IN test. An empty list
// renders (NULL), which matches no row.
type inCompiler struct {
	base
}

func (c *inCompiler) VisitConstant(n *nodes.ConstantNode) error {
	if n.IsNil() {
		c.ctx.WriteString("(NULL)")
		return nil
	}
	rv := reflect.ValueOf(n.Value)
	if !isCollection(rv.Type()) {
		c.ctx.WriteString("(" + c.ctx.AddParam(n.Value, "") + ")")
		return nil
	}
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Len() == 0 {
		c.ctx.WriteString("(NULL)")
		return nil
	}
	typ := c.ctx.pendingType
	c.ctx.WriteString("(")
	for i := range rv.Len() {
		if i > 0 {
			c.ctx.WriteString(",")
		}
		c.ctx.WriteString(c.ctx.AddParam(rv.Index(i).Interface(), typ))
	}
	c.ctx.WriteString(")")
	return nil
}

func (c *inCompiler) VisitNewArray(n *nodes.NewArrayNode) error { return c.items(n.Items) }
func (c *inCompiler) VisitListInit(n *nodes.ListInitNode) error { return c.items(n.Items) }

func (c *inCompiler) items(items []nodes.Node) error {
	if len(items) == 0 {
		c.ctx.WriteString("(NULL)")
		return nil
	}
	typ := c.ctx.pendingType
	c.ctx.WriteString("(")
	for _, it := range items {
		c.ctx.pendingType = typ
		if err := c.value(it); err != nil {
			return err
		}
		c.ctx.WriteString(",")
	}
	c.ctx.pendingType = ""
	c.ctx.TrimSuffix(",")
	c.ctx.WriteString(")")
	return nil
}
