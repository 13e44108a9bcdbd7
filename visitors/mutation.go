package visitors

import (
	"database/sql/driver"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
)

// cell is one column value of a row being written. Exactly one of value
// and expr is meaningful: expr is set for SQL expressions such as
// count + 1.
type cell struct {
	col   *mapping.Column
	value any
	expr  nodes.Node
}

type row struct {
	entity *mapping.Entity
	cells  []cell
}

func (r *row) lookup(col *mapping.Column) (cell, bool) {
	for _, c := range r.cells {
		if c.col == col {
			return c, true
		}
	}
	return cell{}, false
}

// rowReader turns INSERT and UPDATE inputs into rows, keeping only the
// columns the statement may write.
type rowReader struct {
	ctx      *Context
	writable func(*mapping.Column) bool
}

func (rr rowReader) keep(c *mapping.Column, v any) bool {
	if !rr.writable(c) {
		return false
	}
	return rr.ctx.includeNulls || !isNilValue(v)
}

// objects reads a bound value: a struct, a map or a slice of either.
func (rr rowReader) objects(v any) ([]*row, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() != reflect.Struct {
		rv = rv.Elem()
	}
	if rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		out := make([]*row, 0, rv.Len())
		for i := range rv.Len() {
			r, err := rr.object(rv.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	}
	r, err := rr.object(rv)
	if err != nil {
		return nil, err
	}
	return []*row{r}, nil
}

func (rr rowReader) object(rv reflect.Value) (*row, error) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil row", ErrUnsupportedConstruct)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil row", ErrUnsupportedConstruct)
	}
	switch rv.Kind() {
	case reflect.Map:
		return rr.fromMap(rv)
	case reflect.Struct:
		if rr.ctx.resolver.IsAnonymous(rv.Type()) {
			return rr.fromShape(rv)
		}
		return rr.fromEntity(rv)
	}
	return nil, fmt.Errorf("%w: cannot write a row from %s", ErrUnsupportedConstruct, rv.Type())
}

func (rr rowReader) fromEntity(rv reflect.Value) (*row, error) {
	e, err := rr.ctx.resolver.Entity(rv.Type())
	if err != nil {
		return nil, err
	}
	r := &row{entity: e}
	for _, c := range e.Columns {
		v := c.Value(rv)
		if rr.keep(c, v) {
			r.cells = append(r.cells, cell{col: c, value: v})
		}
	}
	return r, nil
}

// fromShape reads an anonymous struct against the default entity.
func (rr rowReader) fromShape(rv reflect.Value) (*row, error) {
	e, err := rr.ctx.entityOf(rv.Type())
	if err != nil {
		return nil, err
	}
	r := &row{entity: e}
	t := rv.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		c, ok := e.Column(f.Name)
		if !ok {
			return nil, &mapping.ColumnError{Type: e.Type, Member: f.Name}
		}
		v := rv.Field(i).Interface()
		if rr.keep(c, v) {
			r.cells = append(r.cells, cell{col: c, value: v})
		}
	}
	return r, nil
}

// fromMap reads a map keyed by member or column name against the default
// entity. Cells follow the entity's column order.
func (rr rowReader) fromMap(rv reflect.Value) (*row, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: map keys must be strings", ErrUnsupportedConstruct)
	}
	e, err := rr.ctx.entityOf(rv.Type())
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		values[iter.Key().String()] = iter.Value().Interface()
	}
	r := &row{entity: e}
	for _, c := range e.Columns {
		key := c.Member
		v, ok := values[key]
		if !ok {
			key = c.Name
			v, ok = values[key]
		}
		if !ok {
			continue
		}
		delete(values, key)
		if rr.keep(c, v) {
			r.cells = append(r.cells, cell{col: c, value: v})
		}
	}
	if len(values) > 0 {
		keys := slices.Sorted(maps.Keys(values))
		return nil, &mapping.ColumnError{Type: e.Type, Member: keys[0]}
	}
	return r, nil
}

// bindings reads New and MemberInit nodes. Closed expressions are folded
// to values; the rest stay SQL expressions.
func (rr rowReader) bindings(t reflect.Type, bs []nodes.Binding) (*row, error) {
	e, err := rr.ctx.entityOf(t)
	if err != nil {
		return nil, err
	}
	r := &row{entity: e}
	for _, b := range bs {
		c, ok := e.Column(b.Name)
		if !ok {
			return nil, &mapping.ColumnError{Type: e.Type, Member: b.Name}
		}
		if len(nodes.Params(b.Expr)) > 0 {
			if rr.writable(c) {
				r.cells = append(r.cells, cell{col: c, expr: b.Expr})
			}
			continue
		}
		v, err := nodes.Eval(b.Expr)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", b.Name, err)
		}
		if rr.keep(c, v) {
			r.cells = append(r.cells, cell{col: c, value: v})
		}
	}
	return r, nil
}

// node reads one row-valued node.
func (rr rowReader) node(n nodes.Node) ([]*row, error) {
	switch x := unquote(n).(type) {
	case *nodes.NewNode:
		r, err := rr.bindings(x.Type, x.Members)
		return []*row{r}, err
	case *nodes.MemberInitNode:
		r, err := rr.bindings(x.Type, x.Bindings)
		return []*row{r}, err
	case *nodes.ConstantNode:
		return rr.objects(x.Value)
	}
	v, err := nodes.Eval(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %s row: %w", ErrUnsupportedConstruct, n.Kind(), err)
	}
	return rr.objects(v)
}

func isNilValue(v any) bool {
	if dv, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return true
		}
		x, err := dv.Value()
		return err == nil && x == nil
	}
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// insertCompiler renders "(cols) VALUES (...),(...)" or, for dialects
// without multi-row VALUES, "(cols) SELECT ... FROM DUAL UNION ALL ...".
type insertCompiler struct {
	base
}

func (c *insertCompiler) reader() rowReader {
	return rowReader{ctx: c.ctx, writable: func(col *mapping.Column) bool { return col.Insertable }}
}

func (c *insertCompiler) VisitConstant(n *nodes.ConstantNode) error {
	rows, err := c.reader().objects(n.Value)
	if err != nil {
		return err
	}
	return c.rows(rows)
}

func (c *insertCompiler) VisitNew(n *nodes.NewNode) error {
	return c.nodeRows(n)
}

func (c *insertCompiler) VisitMemberInit(n *nodes.MemberInitNode) error {
	return c.nodeRows(n)
}

func (c *insertCompiler) VisitNewArray(n *nodes.NewArrayNode) error { return c.nodeRows(n.Items...) }
func (c *insertCompiler) VisitListInit(n *nodes.ListInitNode) error { return c.nodeRows(n.Items...) }

func (c *insertCompiler) nodeRows(items ...nodes.Node) error {
	rr := c.reader()
	var rows []*row
	for _, it := range items {
		rs, err := rr.node(it)
		if err != nil {
			return err
		}
		rows = append(rows, rs...)
	}
	return c.rows(rows)
}

// rows writes the value rows, then back-fills the column list in front of
// them once every row has been scanned.
func (c *insertCompiler) rows(rows []*row) error {
	if len(rows) == 0 {
		return ErrNoColumns
	}
	var cols []*mapping.Column
	seen := make(map[*mapping.Column]bool)
	for _, r := range rows {
		if r.entity.Type != rows[0].entity.Type {
			return fmt.Errorf("%w: %s and %s", ErrInconsistentRows, rows[0].entity.Type, r.entity.Type)
		}
		for _, cl := range r.cells {
			if !seen[cl.col] {
				seen[cl.col] = true
				cols = append(cols, cl.col)
			}
		}
	}
	if len(cols) == 0 {
		return ErrNoColumns
	}

	dual := c.ctx.profile.Insert == dialect.InsertSelectDual
	rowSep := ","
	if dual {
		rowSep = " UNION ALL "
	}
	head := c.ctx.Len()
	for _, r := range rows {
		if dual {
			c.ctx.WriteString("SELECT ")
		} else {
			c.ctx.WriteString("(")
		}
		for _, col := range cols {
			cl, ok := r.lookup(col)
			if !ok {
				c.ctx.WriteString("NULL")
			} else if err := c.writeCell(cl); err != nil {
				return err
			}
			c.ctx.WriteString(",")
		}
		c.ctx.TrimSuffix(",")
		if dual {
			c.ctx.WriteString(" FROM DUAL")
		} else {
			c.ctx.WriteString(")")
		}
		c.ctx.WriteString(rowSep)
	}
	c.ctx.TrimSuffix(rowSep)

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = c.ctx.Ident(col.Name)
	}
	// Oracle has no multi-row VALUES list. Its rows are a UNION ALL of
	// SELECT ... FROM DUAL under a single column list, rather than an
	// INSERT ALL with one INTO t(cols) VALUES(...) per row, so parameters
	// keep row order.
	lead := "(" + strings.Join(names, ",") + ") "
	if !dual {
		lead += "VALUES "
	}
	c.ctx.InsertAt(head, lead)
	return nil
}

func (b *base) writeCell(cl cell) error {
	if cl.expr != nil {
		b.ctx.pendingType = cl.col.DataType
		err := b.value(cl.expr)
		b.ctx.pendingType = ""
		return err
	}
	b.ctx.WriteString(b.ctx.AddParam(cl.value, cl.col.DataType))
	return nil
}

// updateCompiler renders the SET list "col = value, ...".
type updateCompiler struct {
	base
}

func (c *updateCompiler) reader() rowReader {
	return rowReader{ctx: c.ctx, writable: func(col *mapping.Column) bool { return col.Updatable }}
}

func (c *updateCompiler) VisitConstant(n *nodes.ConstantNode) error {
	rows, err := c.reader().objects(n.Value)
	if err != nil {
		return err
	}
	return c.set(rows)
}

func (c *updateCompiler) VisitNew(n *nodes.NewNode) error {
	rows, err := c.reader().node(n)
	if err != nil {
		return err
	}
	return c.set(rows)
}

func (c *updateCompiler) VisitMemberInit(n *nodes.MemberInitNode) error {
	rows, err := c.reader().node(n)
	if err != nil {
		return err
	}
	return c.set(rows)
}

func (c *updateCompiler) set(rows []*row) error {
	if len(rows) != 1 {
		return fmt.Errorf("%w: update takes one row, got %d", ErrInconsistentRows, len(rows))
	}
	for _, cl := range rows[0].cells {
		c.ctx.WriteString(c.ctx.Ident(cl.col.Name) + " = ")
		if err := c.writeCell(cl); err != nil {
			return err
		}
		c.ctx.WriteString(itemSep)
	}
	return nil
}
