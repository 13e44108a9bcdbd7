package mapping

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-openapi/inflect"
	"golang.org/x/sync/singleflight"
)

// Registry derives and caches entity metadata. The zero value is not
// usable; create one with NewRegistry.
type Registry struct {
	entities sync.Map // reflect.Type -> *Entity
	group    singleflight.Group

	mu     sync.RWMutex
	tables map[reflect.Type]string

	tableName  func(typeName string) string
	columnName func(fieldName string) string
}

// Option configures a Registry.
type Option func(*Registry)

// WithTableNamer overrides how default table names are derived from type
// names.
func WithTableNamer(fn func(typeName string) string) Option {
	return func(r *Registry) { r.tableName = fn }
}

// WithColumnNamer overrides how default column names are derived from
// field names.
func WithColumnNamer(fn func(fieldName string) string) Option {
	return func(r *Registry) { r.columnName = fn }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tables:     make(map[reflect.Type]string),
		tableName:  DefaultTableName,
		columnName: Snake,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Default is the process-wide registry used when none is configured.
var Default = NewRegistry()

// DefaultTableName pluralises the snake_case type name: OrderItem becomes
// order_items and Person becomes people.
func DefaultTableName(typeName string) string {
	return inflect.Pluralize(Snake(typeName))
}

// Register binds t to an explicit table name. It must be called before the
// type is first resolved.
func (r *Registry) Register(t reflect.Type, table string) {
	t = Indirect(t)
	r.mu.Lock()
	r.tables[t] = table
	r.mu.Unlock()
	r.entities.Delete(t)
}

// Register binds T to an explicit table name in r.
func Register[T any](r *Registry, table string) {
	r.Register(reflect.TypeFor[T](), table)
}

// IsAnonymous reports whether t is an anonymous struct, a map or unknown.
// An unnamed struct type bound with Register is not anonymous.
func (r *Registry) IsAnonymous(t reflect.Type) bool {
	t = Indirect(t)
	if t == nil {
		return true
	}
	if t.Kind() == reflect.Map {
		return true
	}
	return t.Kind() == reflect.Struct && t.Name() == "" && !r.registered(t)
}

func (r *Registry) registered(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tables[t]
	return ok
}

// Entity returns the metadata for t, deriving it on first use.
func (r *Registry) Entity(t reflect.Type) (*Entity, error) {
	t = Indirect(t)
	if t == nil || t.Kind() != reflect.Struct || (t.Name() == "" && !r.registered(t)) {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, typeName(t))
	}
	if e, ok := r.entities.Load(t); ok {
		return e.(*Entity), nil
	}
	v, err, _ := r.group.Do(fmt.Sprintf("%p", t), func() (any, error) {
		if e, ok := r.entities.Load(t); ok {
			return e, nil
		}
		e := r.build(t)
		r.entities.Store(t, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entity), nil
}

// Table returns the table name of t.
func (r *Registry) Table(t reflect.Type) (string, error) {
	e, err := r.Entity(t)
	if err != nil {
		return "", err
	}
	return e.Table, nil
}

// Column returns the column that member of t maps to.
func (r *Registry) Column(t reflect.Type, member string) (*Column, error) {
	e, err := r.Entity(t)
	if err != nil {
		return nil, &ColumnError{Type: t, Member: member}
	}
	c, ok := e.Column(member)
	if !ok {
		return nil, &ColumnError{Type: t, Member: member}
	}
	return c, nil
}

var tablerType = reflect.TypeFor[Tabler]()

func (r *Registry) build(t reflect.Type) *Entity {
	e := &Entity{Type: t, byMember: make(map[string]*Column)}

	r.mu.RLock()
	table, ok := r.tables[t]
	r.mu.RUnlock()
	switch {
	case ok:
		e.Table = table
	case t.Implements(tablerType):
		e.Table = reflect.Zero(t).Interface().(Tabler).TableName()
	case reflect.PointerTo(t).Implements(tablerType):
		e.Table = reflect.New(t).Interface().(Tabler).TableName()
	default:
		e.Table = r.tableName(t.Name())
	}

	r.collect(e, t, nil)
	return e
}

// collect walks the exported fields of t, flattening untagged embedded
// structs into the parent.
func (r *Registry) collect(e *Entity, t reflect.Type, prefix []int) {
	for i := range t.NumField() {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		tag, tagged := f.Tag.Lookup("db")
		if f.Anonymous && !tagged {
			ft := Indirect(f.Type)
			if ft.Kind() == reflect.Struct {
				r.collect(e, ft, index)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		opts := parseTag(tag)
		if opts.skip {
			continue
		}
		if _, dup := e.byMember[f.Name]; dup {
			continue
		}
		name := opts.name
		if name == "" {
			name = r.columnName(f.Name)
		}
		c := &Column{
			Member:     f.Name,
			Name:       name,
			Insertable: !opts.noInsert && !opts.auto,
			Updatable:  !opts.noUpdate && !opts.auto && !opts.key,
			DataType:   opts.dataType,
			Key:        opts.key,
			Auto:       opts.auto,
			Index:      index,
		}
		e.Columns = append(e.Columns, c)
		e.byMember[f.Name] = c
	}
}
