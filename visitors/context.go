// Package visitors compiles expression trees into dialect-specific SQL.
//
// A Context holds the state of one statement under construction. Compile
// routes a node to the compiler for the requested clause, which appends
// text and bound parameters to the Context.
package visitors

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
)

// Param is a bound value and its explicit database type, if any.
type Param struct {
	Value any
	Type  string
}

type aliasKey struct {
	table string
	hint  string
}

// Context is the mutable state of one compilation unit. It is not safe for
// concurrent use and must be discarded after a compilation error.
type Context struct {
	buf     []byte
	params  []Param
	fields  []string
	profile *dialect.Profile

	aliases    map[aliasKey]string
	firstAlias map[string]string
	usedAlias  map[string]bool
	paramAlias map[*nodes.ParameterNode]string

	defaultType  reflect.Type
	includeNulls bool
	singleTable  bool
	quoted       bool
	resolver     mapping.Resolver
	logger       *slog.Logger

	// pendingType is the explicit data type of the last column emitted,
	// consumed by the next bound parameter.
	pendingType string
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithDefaultType sets the entity type used for anonymous shapes and maps.
func WithDefaultType(t reflect.Type) Option {
	return func(c *Context) { c.defaultType = mapping.Indirect(t) }
}

// WithIncludeNulls emits nil members in INSERT and UPDATE statements.
func WithIncludeNulls(on bool) Option {
	return func(c *Context) { c.includeNulls = on }
}

// WithSingleTable renders columns without a table alias.
func WithSingleTable(on bool) Option {
	return func(c *Context) { c.singleTable = on }
}

// WithQuotedIdentifiers quotes table, alias and column names using the
// dialect's identifier quoting.
func WithQuotedIdentifiers(on bool) Option {
	return func(c *Context) { c.quoted = on }
}

// WithResolver sets the column metadata service. The default is
// mapping.Default.
func WithResolver(r mapping.Resolver) Option {
	return func(c *Context) { c.resolver = r }
}

// WithLogger sets the logger used for compilation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// NewContext creates an empty Context for dialect d.
func NewContext(d dialect.Dialect, opts ...Option) *Context {
	c := &Context{
		profile:    d.Profile(),
		aliases:    make(map[aliasKey]string),
		firstAlias: make(map[string]string),
		usedAlias:  make(map[string]bool),
		paramAlias: make(map[*nodes.ParameterNode]string),
		resolver:   mapping.Default,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Context) Dialect() dialect.Dialect  { return c.profile.Dialect }
func (c *Context) Profile() *dialect.Profile { return c.profile }
func (c *Context) Logger() *slog.Logger      { return c.logger }
func (c *Context) Resolver() mapping.Resolver {
	return c.resolver
}

// DefaultType returns the entity type used for anonymous shapes.
func (c *Context) DefaultType() reflect.Type { return c.defaultType }

// SetDefaultType replaces the default entity type.
func (c *Context) SetDefaultType(t reflect.Type) { c.defaultType = mapping.Indirect(t) }

// SetSingleTable toggles alias-free column rendering.
func (c *Context) SetSingleTable(on bool) { c.singleTable = on }

// IncludeNulls reports whether nil members are emitted in mutations.
func (c *Context) IncludeNulls() bool { return c.includeNulls }

// --- text buffer ---

// String returns the SQL text built so far.
func (c *Context) String() string { return string(c.buf) }

// Len returns the current buffer length, used as an offset by callers.
func (c *Context) Len() int { return len(c.buf) }

// WriteString appends s.
func (c *Context) WriteString(s string) { c.buf = append(c.buf, s...) }

// InsertAt inserts s at offset i.
func (c *Context) InsertAt(i int, s string) {
	if s == "" {
		return
	}
	c.buf = append(c.buf[:i], append([]byte(s), c.buf[i:]...)...)
}

// Truncate discards everything after offset n.
func (c *Context) Truncate(n int) { c.buf = c.buf[:n] }

// Span returns the text from offset i to the end.
func (c *Context) Span(i int) string { return string(c.buf[i:]) }

// ReplaceFrom replaces the text from offset i to the end with s.
func (c *Context) ReplaceFrom(i int, s string) {
	c.buf = append(c.buf[:i], s...)
}

// HasSuffix reports whether the buffer ends with s.
func (c *Context) HasSuffix(s string) bool {
	return strings.HasSuffix(string(c.buf), s)
}

// TrimSuffix removes a trailing s, reporting whether it was present.
func (c *Context) TrimSuffix(s string) bool {
	if !c.HasSuffix(s) {
		return false
	}
	c.buf = c.buf[:len(c.buf)-len(s)]
	return true
}

// --- parameters and fields ---

// AddParam binds v and returns its placeholder. The pending column data
// type, if any, is attached when typ is empty.
func (c *Context) AddParam(v any, typ string) string {
	if typ == "" {
		typ = c.pendingType
	}
	c.pendingType = ""
	c.params = append(c.params, Param{Value: v, Type: typ})
	return c.profile.Placeholder(len(c.params))
}

// Params returns the bound parameters in placeholder order.
func (c *Context) Params() []Param { return c.params }

// Args returns the bound values in placeholder order.
func (c *Context) Args() []any {
	out := make([]any, len(c.params))
	for i, p := range c.params {
		out[i] = p.Value
	}
	return out
}

// Fields returns the projected select items.
func (c *Context) Fields() []string { return c.fields }

func (c *Context) addField(f string) { c.fields = append(c.fields, f) }

// --- identifiers and aliases ---

// Ident renders an identifier, quoting it when quoting is enabled.
func (c *Context) Ident(name string) string {
	if c.quoted {
		return c.profile.QuoteIdent(name)
	}
	return name
}

// Alias returns the alias of table for hint. The same pair always yields
// the same alias. An empty hint reuses the first alias given to the table,
// or the table name itself when the table has none yet. A hint already held
// by a different table is made unique with a numeric suffix.
func (c *Context) Alias(table, hint string) string {
	key := aliasKey{table: table, hint: hint}
	if a, ok := c.aliases[key]; ok {
		return a
	}
	var a string
	if hint == "" {
		if first, ok := c.firstAlias[table]; ok {
			a = first
		} else {
			a = c.unique(table)
		}
	} else {
		a = c.unique(hint)
	}
	c.aliases[key] = a
	if _, ok := c.firstAlias[table]; !ok {
		c.firstAlias[table] = a
	}
	return a
}

// BindParameter assigns the alias used for columns reached through p. A
// second parameter that shares an earlier parameter's name and table gets
// its own alias, so self-joins stay distinct.
func (c *Context) BindParameter(p *nodes.ParameterNode, table string) string {
	if a, ok := c.paramAlias[p]; ok {
		return a
	}
	a := c.Alias(table, p.Name)
	for other, oa := range c.paramAlias {
		if other != p && oa == a {
			a = c.unique(p.Name)
			break
		}
	}
	c.paramAlias[p] = a
	return a
}

func (c *Context) unique(name string) string {
	candidate := name
	for n := 2; c.usedAlias[strings.ToLower(candidate)]; n++ {
		candidate = name + strconv.Itoa(n)
	}
	c.usedAlias[strings.ToLower(candidate)] = true
	return candidate
}

// TableRef renders "table AS alias", or the table alone when the alias is
// the table name.
func (c *Context) TableRef(table, alias string) string {
	if alias == "" || alias == table {
		return c.Ident(table)
	}
	return c.Ident(table) + c.profile.AliasKeyword + c.Ident(alias)
}

// entityOf resolves the entity for t, substituting the default type for
// anonymous shapes.
func (c *Context) entityOf(t reflect.Type) (*mapping.Entity, error) {
	if c.resolver.IsAnonymous(t) {
		if c.defaultType == nil {
			return nil, fmt.Errorf("%w: %s and no default entity type", mapping.ErrNoTable, typeString(t))
		}
		t = c.defaultType
	}
	return c.resolver.Entity(t)
}

// ParameterTable resolves the entity behind p and the alias its columns
// are qualified with.
func (c *Context) ParameterTable(p *nodes.ParameterNode) (*mapping.Entity, string, error) {
	e, err := c.entityOf(p.Type)
	if err != nil {
		return nil, "", err
	}
	return e, c.BindParameter(p, e.Table), nil
}

// column renders the column for member of the row p.
func (c *Context) column(p *nodes.ParameterNode, member string) (string, *mapping.Column, error) {
	e, alias, err := c.ParameterTable(p)
	if err != nil {
		return "", nil, err
	}
	col, ok := e.Column(member)
	if !ok {
		return "", nil, &mapping.ColumnError{Type: e.Type, Member: member}
	}
	if c.singleTable {
		return c.Ident(col.Name), col, nil
	}
	return c.Ident(alias) + "." + c.Ident(col.Name), col, nil
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
