// Package mapping resolves entity types to tables and their members to
// columns. Metadata is derived once per type from struct tags and memoised,
// so lookups are safe for concurrent use.
//
// Tags use the db key:
//
//	type User struct {
//	    ID        int64     `db:"id,pk,auto"`
//	    Email     string    `db:"email_address"`
//	    CreatedAt time.Time `db:",noupdate,type=timestamp"`
//	    Secret    string    `db:"-"`
//	}
//
// Untagged exported fields map to the snake_case of their name. Tables
// default to the plural snake_case of the type name unless the type has a
// TableName method or was registered with an explicit name.
package mapping

import (
	"reflect"
	"strings"
)

// Column describes how one struct member maps to a column.
type Column struct {
	Member     string
	Name       string
	Insertable bool
	Updatable  bool
	// DataType is the explicit database type, empty when inferred.
	DataType string
	Key      bool
	Auto     bool
	// Index is the field path for reflect.Value.FieldByIndex.
	Index []int
}

// Entity is the resolved metadata of one mapped type.
type Entity struct {
	Type    reflect.Type
	Table   string
	Columns []*Column

	byMember map[string]*Column
}

// Column returns the mapping for member.
func (e *Entity) Column(member string) (*Column, bool) {
	c, ok := e.byMember[member]
	return c, ok
}

// Keys returns the primary key columns in declaration order.
func (e *Entity) Keys() []*Column {
	var out []*Column
	for _, c := range e.Columns {
		if c.Key {
			out = append(out, c)
		}
	}
	return out
}

// Value reads the member's value from obj, which may be a struct or a
// pointer to one. A nil pointer on the path yields nil.
func (c *Column) Value(obj reflect.Value) any {
	for obj.Kind() == reflect.Pointer {
		if obj.IsNil() {
			return nil
		}
		obj = obj.Elem()
	}
	f, err := obj.FieldByIndexErr(c.Index)
	if err != nil {
		return nil
	}
	return f.Interface()
}

// Tabler lets a type choose its own table name.
type Tabler interface {
	TableName() string
}

// Resolver is the lookup service consulted by the compiler.
type Resolver interface {
	// Entity returns the metadata of t, which may be a pointer type.
	Entity(t reflect.Type) (*Entity, error)
	// Table returns the table t maps to.
	Table(t reflect.Type) (string, error)
	// Column returns the column that member of t maps to.
	Column(t reflect.Type, member string) (*Column, error)
	// IsAnonymous reports whether t is an anonymous struct or a map, whose
	// members are resolved against the statement's default entity instead.
	IsAnonymous(t reflect.Type) bool
}

var _ Resolver = (*Registry)(nil)

// Indirect strips pointer indirections from t.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

type tagOptions struct {
	name     string
	skip     bool
	key      bool
	auto     bool
	noInsert bool
	noUpdate bool
	dataType string
}

func parseTag(tag string) tagOptions {
	if tag == "-" {
		return tagOptions{skip: true}
	}
	parts := strings.Split(tag, ",")
	opts := tagOptions{name: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch {
		case p == "pk" || p == "key":
			opts.key = true
		case p == "auto":
			opts.auto = true
		case p == "noinsert":
			opts.noInsert = true
		case p == "noupdate":
			opts.noUpdate = true
		case p == "readonly":
			opts.noInsert, opts.noUpdate = true, true
		case strings.HasPrefix(p, "type="):
			opts.dataType = strings.TrimPrefix(p, "type=")
		}
	}
	return opts
}
