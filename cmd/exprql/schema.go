package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/bawdo/exprql/mapping"
)

// fieldDef declares one member of a session entity.
type fieldDef struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Column   string `yaml:"column,omitempty"`
	Key      bool   `yaml:"pk,omitempty"`
	Auto     bool   `yaml:"auto,omitempty"`
	Nullable bool   `yaml:"nullable,omitempty"`
}

// entityDef declares an entity that only exists at runtime.
type entityDef struct {
	Name   string     `yaml:"name"`
	Table  string     `yaml:"table,omitempty"`
	Fields []fieldDef `yaml:"fields"`
}

// schemaFile is the document read by the load command and EXPRQL_SCHEMA.
//
//	entities:
//	  - name: customer
//	    fields:
//	      - {name: id, type: int, pk: true, auto: true}
//	      - {name: name, type: string}
type schemaFile struct {
	Entities []entityDef `yaml:"entities"`
}

// entity is a registered runtime entity.
type entity struct {
	name   string
	table  string
	typ    reflect.Type
	fields []string // member names in declaration order
}

// member returns the declared member matching name case-insensitively.
// Snake case names match too, so deleted_at finds DeletedAt.
func (e *entity) member(name string) (string, bool) {
	exported := exportName(name)
	for _, f := range e.fields {
		if strings.EqualFold(f, name) || strings.EqualFold(f, exported) {
			return f, true
		}
	}
	return "", false
}

var fieldTypes = map[string]reflect.Type{
	"int":    reflect.TypeFor[int64](),
	"float":  reflect.TypeFor[float64](),
	"string": reflect.TypeFor[string](),
	"bool":   reflect.TypeFor[bool](),
	"time":   reflect.TypeFor[time.Time](),
}

var errNoFields = errors.New("entity needs at least one field")

// exportName turns snake_case or lower-case input into an exported Go
// identifier: customer_id becomes CustomerId.
func exportName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(title.String(p))
	}
	return b.String()
}

// parseFieldSpec reads "name:type[:pk][:auto][:null]".
func parseFieldSpec(spec string) (fieldDef, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || parts[0] == "" {
		return fieldDef{}, fmt.Errorf("invalid field %q: want name:type[:pk|:auto|:null]", spec)
	}
	f := fieldDef{Name: parts[0], Type: strings.ToLower(parts[1])}
	for _, flag := range parts[2:] {
		switch strings.ToLower(flag) {
		case "pk", "key":
			f.Key = true
		case "auto":
			f.Auto = true
		case "null":
			f.Nullable = true
		default:
			return fieldDef{}, fmt.Errorf("invalid field %q: unknown flag %q", spec, flag)
		}
	}
	return f, nil
}

// structType builds the Go type of def. A leading zero-size marker field
// carries the entity name so that two entities with the same members
// still get distinct types.
func structType(def entityDef) (reflect.Type, []string, error) {
	if len(def.Fields) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", def.Name, errNoFields)
	}
	fields := make([]reflect.StructField, 0, len(def.Fields)+1)
	fields = append(fields, reflect.StructField{
		Name: "EntityMarker",
		Type: reflect.TypeFor[struct{}](),
		Tag:  reflect.StructTag(fmt.Sprintf(`db:"-" entity:%q`, def.Name)),
	})
	members := make([]string, 0, len(def.Fields))
	seen := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		name := exportName(f.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("%s: invalid field name %q", def.Name, f.Name)
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("%s: duplicate field %s", def.Name, name)
		}
		seen[name] = true
		t, ok := fieldTypes[strings.ToLower(f.Type)]
		if !ok {
			return nil, nil, fmt.Errorf("%s.%s: unknown type %q", def.Name, name, f.Type)
		}
		if f.Nullable {
			t = reflect.PointerTo(t)
		}
		column := f.Column
		if column == "" {
			column = mapping.Snake(f.Name)
		}
		tag := column
		if f.Key {
			tag += ",pk"
		}
		if f.Auto {
			tag += ",auto"
		}
		fields = append(fields, reflect.StructField{
			Name: name,
			Type: t,
			Tag:  reflect.StructTag(fmt.Sprintf(`db:%q`, tag)),
		})
		members = append(members, name)
	}
	return reflect.StructOf(fields), members, nil
}

// defineEntity builds def and binds it to its table in registry.
func defineEntity(registry *mapping.Registry, def entityDef) (*entity, error) {
	t, members, err := structType(def)
	if err != nil {
		return nil, err
	}
	table := def.Table
	if table == "" {
		table = mapping.DefaultTableName(exportName(def.Name))
	}
	registry.Register(t, table)
	return &entity{name: def.Name, table: table, typ: t, fields: members}, nil
}

// parseEntityCommand reads "<name> [table <t>] <field>:<type>...".
func parseEntityCommand(args string) (entityDef, error) {
	words := strings.Fields(args)
	if len(words) < 2 {
		return entityDef{}, errors.New("usage: entity <name> [table <t>] <field>:<type>[:pk|:auto|:null] ...")
	}
	def := entityDef{Name: words[0]}
	rest := words[1:]
	if strings.EqualFold(rest[0], "table") {
		if len(rest) < 2 {
			return entityDef{}, errors.New("entity: table needs a name")
		}
		def.Table = rest[1]
		rest = rest[2:]
	}
	for _, w := range rest {
		f, err := parseFieldSpec(w)
		if err != nil {
			return entityDef{}, err
		}
		def.Fields = append(def.Fields, f)
	}
	return def, nil
}

// readSchema decodes a schema document.
func readSchema(r io.Reader) (*schemaFile, error) {
	var sf schemaFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		if errors.Is(err, io.EOF) {
			return &sf, nil
		}
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return &sf, nil
}

// loadSchemaFile reads the schema document at path.
func loadSchemaFile(path string) (*schemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return readSchema(bytes.NewReader(data))
}

// describe renders the entity as "name (table): Member column, ...".
func (e *entity) describe(registry *mapping.Registry) string {
	ent, err := registry.Entity(e.typ)
	if err != nil {
		return e.name + ": " + err.Error()
	}
	cols := make([]string, 0, len(ent.Columns))
	for _, c := range ent.Columns {
		flags := ""
		if c.Key {
			flags += " pk"
		}
		if c.Auto {
			flags += " auto"
		}
		cols = append(cols, c.Member+" "+c.Name+flags)
	}
	return fmt.Sprintf("%s (%s): %s", e.name, ent.Table, strings.Join(cols, ", "))
}

// sortedEntityNames returns the keys of m in order.
func sortedEntityNames(m map[string]*entity) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
