package visitors

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/internal/testutil"
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
)

type note struct {
	ID    int64          `db:"id,pk,auto"`
	Title string         `db:"title"`
	Body  sql.NullString `db:"body"`
}

var (
	pointType    = reflect.TypeFor[point]()
	customerType = reflect.TypeFor[customer]()
)

func TestInsertRowsPerDialect(t *testing.T) {
	t.Parallel()
	rows := nodes.Const([]point{{1, 2}, {3, 4}})
	tests := []struct {
		d    dialect.Dialect
		want string
	}{
		{dialect.SQLServer, "(col_a,col_b) VALUES (@p1,@p2),(@p3,@p4)"},
		{dialect.MySQL, "(col_a,col_b) VALUES (?,?),(?,?)"},
		{dialect.PostgreSQL, "(col_a,col_b) VALUES ($1,$2),($3,$4)"},
		{dialect.SQLite, "(col_a,col_b) VALUES (?,?),(?,?)"},
		{dialect.Oracle, "(col_a,col_b) SELECT :1,:2 FROM DUAL UNION ALL SELECT :3,:4 FROM DUAL"},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			t.Parallel()
			ctx := compile(t, tt.d, Insert, rows)
			testutil.AssertSQL(t, ctx.String(), tt.want)
			assert.Equal(t, []any{1, 2, 3, 4}, ctx.Args())
		})
	}
}

func TestInsertEntity(t *testing.T) {
	t.Parallel()
	ctx := compile(t, dialect.SQLServer, Insert, nodes.Const(customer{ID: 7, Name: "a", Age: 3}))
	testutil.AssertSQL(t, ctx.String(), "(name,active,age,balance) VALUES (@p1,@p2,@p3,@p4)")
	assert.Equal(t, []any{"a", false, 3, 0.0}, ctx.Args())
	assert.Equal(t, "decimal", ctx.Params()[3].Type)
}

func TestInsertIncludeNulls(t *testing.T) {
	t.Parallel()
	ctx := compile(t, dialect.SQLServer, Insert, nodes.Const(&customer{Name: "a"}), WithIncludeNulls(true))
	testutil.AssertSQL(t, ctx.String(), "(name,email,active,age,balance) VALUES (@p1,@p2,@p3,@p4,@p5)")
	assert.Nil(t, ctx.Params()[1].Value)
}

func TestInsertSkipsNullValuer(t *testing.T) {
	t.Parallel()
	ctx := compile(t, dialect.SQLServer, Insert, nodes.Const(note{Title: "t"}))
	testutil.AssertSQL(t, ctx.String(), "(title) VALUES (@p1)")

	ctx = compile(t, dialect.SQLServer, Insert, nodes.Const(note{Title: "t", Body: sql.NullString{String: "b", Valid: true}}))
	testutil.AssertSQL(t, ctx.String(), "(title,body) VALUES (@p1,@p2)")
}

func TestInsertColumnUnionFillsNull(t *testing.T) {
	t.Parallel()
	maps := []map[string]any{{"A": 1}, {"col_b": 2}}
	ctx := compile(t, dialect.SQLServer, Insert, nodes.Const(maps), WithDefaultType(pointType))
	testutil.AssertSQL(t, ctx.String(), "(col_a,col_b) VALUES (@p1,NULL),(NULL,@p2)")

	ctx = compile(t, dialect.Oracle, Insert, nodes.Const(maps), WithDefaultType(pointType))
	testutil.AssertSQL(t, ctx.String(), "(col_a,col_b) SELECT :1,NULL FROM DUAL UNION ALL SELECT NULL,:2 FROM DUAL")

	inits := nodes.Array(nodes.Init[point](nodes.Bind("A", 1)), nodes.Init[point](nodes.Bind("B", 2)))
	ctx = compile(t, dialect.SQLServer, Insert, inits)
	testutil.AssertSQL(t, ctx.String(), "(col_a,col_b) VALUES (@p1,NULL),(NULL,@p2)")
}

func TestInsertFromNodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		node nodes.Node
		opts []Option
		want string
		args []any
	}{
		{"typed new", nodes.NewOf[point](nodes.Bind("A", 1), nodes.Bind("B", 2)), nil,
			"(col_a,col_b) VALUES (@p1,@p2)", []any{1, 2}},
		{"anonymous new", nodes.New(nodes.Bind("A", 5)), []Option{WithDefaultType(pointType)},
			"(col_a) VALUES (@p1)", []any{5}},
		{"anonymous struct", nodes.Const(struct{ B int }{7}), []Option{WithDefaultType(pointType)},
			"(col_b) VALUES (@p1)", []any{7}},
		{"folded binding", nodes.NewOf[point](nodes.Bind("A", nodes.Const(1).Add(2))), nil,
			"(col_a) VALUES (@p1)", []any{3}},
		{"pointer", nodes.Const(&point{1, 2}), nil,
			"(col_a,col_b) VALUES (@p1,@p2)", []any{1, 2}},
		{"list init", nodes.List(point{1, 2}, point{3, 4}), nil,
			"(col_a,col_b) VALUES (@p1,@p2),(@p3,@p4)", []any{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := compile(t, dialect.SQLServer, Insert, tt.node, tt.opts...)
			testutil.AssertSQL(t, ctx.String(), tt.want)
			assert.Equal(t, tt.args, ctx.Args())
		})
	}
}

func TestInsertQuotedColumns(t *testing.T) {
	t.Parallel()
	ctx := compile(t, dialect.PostgreSQL, Insert, nodes.Const(point{1, 2}), WithQuotedIdentifiers(true))
	testutil.AssertSQL(t, ctx.String(), `("col_a","col_b") VALUES ($1,$2)`)
}

func TestInsertErrors(t *testing.T) {
	t.Parallel()
	mixed := nodes.Const([]any{point{1, 2}, customer{Name: "x"}})
	assert.ErrorIs(t, compileErr(mixed, Insert), ErrInconsistentRows)
	assert.ErrorIs(t, compileErr(nodes.Const([]point{}), Insert), ErrNoColumns)
	assert.ErrorIs(t, compileErr(nodes.NewOf[point](nodes.Bind("A", nil)), Insert), ErrNoColumns)

	unknown := nodes.Const(map[string]any{"A": 1, "Z": 2})
	err := compileErr(unknown, Insert, WithDefaultType(pointType))
	var ce *mapping.ColumnError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Z", ce.Member)

	assert.ErrorIs(t, compileErr(nodes.Const(map[string]any{"A": 1}), Insert), mapping.ErrNoTable)
	assert.ErrorIs(t, compileErr(nodes.NewOf[point](nodes.Bind("C", 1)), Insert), mapping.ErrInvalidColumn)
	assert.ErrorIs(t, compileErr(nodes.Const(42), Insert), ErrUnsupportedConstruct)
	assert.ErrorIs(t, compileErr(age.Gt(1), Insert), ErrUnsupportedConstruct)
}

func TestUpdateSetList(t *testing.T) {
	t.Parallel()
	opts := []Option{WithDefaultType(customerType), WithSingleTable(true)}
	tests := []struct {
		name string
		node nodes.Node
		want string
		args []any
	}{
		{"expression", nodes.New(nodes.Bind("Name", "x"), nodes.Bind("Age", age.Add(1))),
			"name = @p1, age = age + @p2", []any{"x", 1}},
		{"struct", nodes.Const(customer{ID: 9, Name: "x", Active: true, Age: 3, Balance: 1.5}),
			"name = @p1, active = @p2, age = @p3, balance = @p4", []any{"x", true, 3, 1.5}},
		{"key skipped", nodes.New(nodes.Bind("ID", 5), nodes.Bind("Name", "x")),
			"name = @p1", []any{"x"}},
		{"member init", nodes.Init[customer](nodes.Bind("Active", false)),
			"active = @p1", []any{false}},
		{"map", nodes.Const(map[string]any{"age": 4, "Name": "y"}),
			"name = @p1, age = @p2", []any{"y", 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := compile(t, dialect.SQLServer, Update, tt.node, opts...)
			testutil.AssertSQL(t, ctx.String(), tt.want)
			assert.Equal(t, tt.args, ctx.Args())
		})
	}
}

func TestUpdateExpressionKeepsColumnType(t *testing.T) {
	t.Parallel()
	n := nodes.New(nodes.Bind("Balance", c.Field("Balance").Mul(2)))
	ctx := compile(t, dialect.SQLServer, Update, n, WithDefaultType(customerType), WithSingleTable(true))
	testutil.AssertSQL(t, ctx.String(), "balance = balance * @p1")
	assert.Equal(t, "decimal", ctx.Params()[0].Type)

	ctx = compile(t, dialect.SQLServer, Update, nodes.Const(customer{Balance: 2}))
	assert.Equal(t, "decimal", ctx.Params()[len(ctx.Params())-1].Type)
}

func TestUpdateNulls(t *testing.T) {
	t.Parallel()
	n := nodes.New(nodes.Bind("Email", nil))
	assert.ErrorIs(t, compileErr(n, Update, WithDefaultType(customerType)), ErrNoColumns)

	ctx := compile(t, dialect.SQLServer, Update, n, WithDefaultType(customerType), WithIncludeNulls(true))
	testutil.AssertSQL(t, ctx.String(), "email = @p1")
	assert.Equal(t, []any{nil}, ctx.Args())
}

func TestUpdateErrors(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, compileErr(nodes.Const([]point{{1, 2}, {3, 4}}), Update), ErrInconsistentRows)
	assert.ErrorIs(t, compileErr(nodes.New(nodes.Bind("Name", "x")), Update), mapping.ErrNoTable)
	assert.ErrorIs(t, compileErr(nodes.Array(point{1, 2}), Update), ErrUnsupportedConstruct)
}
