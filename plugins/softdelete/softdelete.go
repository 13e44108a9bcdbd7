// Package softdelete provides a Transformer that hides soft-deleted rows by
// appending "<alias>.<column> IS NULL" conditions to SELECT statements.
//
// By default it filters on the DeletedAt field of every entity in the FROM
// and JOIN clauses that declares one. Entities without the field are left
// alone. Both the field and the set of tables can be customised.
//
// # Basic usage
//
//	query := managers.NewSelectManager(nodes.Param[Customer]("c"))
//	query.Use(softdelete.New())
//	// SELECT * FROM customers AS c WHERE c.deleted_at IS NULL
//
// # Custom field
//
//	softdelete.New(softdelete.WithField("RemovedAt"))
//
// # Per-table fields
//
//	softdelete.New(
//	    softdelete.WithTableField("customers", "DeletedAt"),
//	    softdelete.WithTableField("orders", "ArchivedAt"),
//	)
//
// # REPL usage
//
//	exprql> softdelete
//	exprql> softdelete RemovedAt on customers orders
//	exprql> softdelete off
package softdelete

import (
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/plugins"
)

// SoftDelete is a Transformer that appends IS NULL conditions for a
// soft-delete field on every referenced entity (or a configured subset).
type SoftDelete struct {
	plugins.BaseTransformer
	Field    string
	Fields   map[string]string // per-table field overrides (table name → member name)
	tables   map[string]bool   // nil means apply to all tables
	resolver mapping.Resolver
}

// Option configures a SoftDelete transformer.
type Option func(*SoftDelete)

// WithField sets the soft-delete member name. Default is "DeletedAt".
func WithField(name string) Option {
	return func(sd *SoftDelete) { sd.Field = name }
}

// WithTables restricts the plugin to only the named tables.
func WithTables(names ...string) Option {
	return func(sd *SoftDelete) {
		sd.tables = make(map[string]bool, len(names))
		for _, n := range names {
			sd.tables[n] = true
		}
	}
}

// WithTableField sets a per-table field override. The table is added to
// the whitelist, restricting the plugin's scope.
func WithTableField(table, field string) Option {
	return func(sd *SoftDelete) {
		if sd.Fields == nil {
			sd.Fields = make(map[string]string)
		}
		sd.Fields[table] = field
		if sd.tables == nil {
			sd.tables = make(map[string]bool)
		}
		sd.tables[table] = true
	}
}

// WithResolver sets the entity resolver. Default is mapping.Default.
func WithResolver(r mapping.Resolver) Option {
	return func(sd *SoftDelete) { sd.resolver = r }
}

// New creates a SoftDelete transformer with the given options.
func New(opts ...Option) *SoftDelete {
	sd := &SoftDelete{Field: "DeletedAt", resolver: mapping.Default}
	for _, o := range opts {
		o(sd)
	}
	return sd
}

// TransformSelect appends "field IS NULL" to the WHERE clause for each
// matching entity referenced in the query (FROM and JOINs).
func (sd *SoftDelete) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	for _, ref := range plugins.CollectParams(core, sd.resolver) {
		if !sd.appliesTo(ref.Table()) {
			continue
		}
		field := sd.fieldFor(ref.Table())
		if _, ok := ref.Entity.Column(field); !ok {
			continue
		}
		core.Wheres = append(core.Wheres, ref.Param.Field(field).IsNull())
	}
	return core, nil
}

func (sd *SoftDelete) appliesTo(table string) bool {
	if sd.tables == nil {
		return true
	}
	return sd.tables[table]
}

// fieldFor returns the member to test for the given table, checking Fields
// for an override before falling back to Field.
func (sd *SoftDelete) fieldFor(table string) string {
	if f, ok := sd.Fields[table]; ok {
		return f
	}
	return sd.Field
}
