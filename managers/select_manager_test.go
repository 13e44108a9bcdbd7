package managers

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/internal/testutil"
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/visitors"
)

// --- NewSelectManager ---

func TestNewSelectManagerSetsFrom(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(c)
	assert.Same(t, c, m.Core.From)
	assert.Nil(t, m.Core.Projection)
	assert.Empty(t, m.Core.Wheres)
	assert.Empty(t, m.Core.Joins)
	assert.Equal(t, -1, m.Core.Limit)
}

func TestSelectStar(t *testing.T) {
	t.Parallel()
	sql, args, err := NewSelectManager(c).ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers AS c")
	assert.Empty(t, args)
}

func TestSelectProjectionAndWhere(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(c).
		Select(name, age).
		Where(age.Gt(18)).
		Where(act)
	sql, args, err := m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT c.name, c.age FROM customers AS c WHERE c.age > @p1 AND c.active = 1")
	assert.Equal(t, []any{18}, args)
}

func TestSelectReplacesProjection(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(c).Select(name).Select(age)
	sql, _, err := m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT c.age FROM customers AS c")
}

func TestSelectDistinct(t *testing.T) {
	t.Parallel()
	sql, _, err := NewSelectManager(c).Select(name).Distinct().ToSQL(dialect.PostgreSQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT DISTINCT c.name FROM customers AS c")

	sql, _, err = NewSelectManager(c).Select(name).Distinct().Distinct(false).ToSQL(dialect.PostgreSQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT c.name FROM customers AS c")
}

func TestSelectFields(t *testing.T) {
	t.Parallel()
	ctx, err := NewSelectManager(c).Select(name, age).Compile(dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, []string{"c.name", "c.age"}, ctx.Fields())
}

func TestSelectDialects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    dialect.Dialect
		want string
	}{
		{dialect.SQLServer, "SELECT c.name FROM customers AS c WHERE c.age > @p1"},
		{dialect.MySQL, "SELECT c.name FROM customers AS c WHERE c.age > ?"},
		{dialect.PostgreSQL, "SELECT c.name FROM customers AS c WHERE c.age > $1"},
		{dialect.Oracle, "SELECT c.name FROM customers c WHERE c.age > :1"},
		{dialect.SQLite, "SELECT c.name FROM customers AS c WHERE c.age > ?"},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			t.Parallel()
			sql, args, err := NewSelectManager(c).Select(name).Where(age.Gt(30)).ToSQL(tt.d)
			require.NoError(t, err)
			testutil.AssertSQL(t, sql, tt.want)
			assert.Equal(t, []any{30}, args)
		})
	}
}

func TestSelectEmptyWhereDropsKeyword(t *testing.T) {
	t.Parallel()
	sql, _, err := NewSelectManager(c).Where(nodes.Const(true)).ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers AS c")

	sql, _, err = NewSelectManager(c).Where(nodes.Const(false)).ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers AS c WHERE 1 = 0")
}

func TestSelectQuotedIdentifiers(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(c, visitors.WithQuotedIdentifiers(true)).Select(name)
	sql, _, err := m.ToSQL(dialect.PostgreSQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, `SELECT "c"."name" FROM "customers" AS "c"`)

	sql, _, err = m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT [c].[name] FROM [customers] AS [c]")
}

func TestSelectNoFrom(t *testing.T) {
	t.Parallel()
	_, _, err := NewSelectManager(nil).ToSQL(dialect.SQLServer)
	assert.ErrorIs(t, err, mapping.ErrNoTable)
}

// --- Joins ---

func TestJoinOn(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(c).
		Select(name, o.Field("Total")).
		Join(o).On(o.Field("CustomerID").Eq(c.Field("ID")))
	sql, _, err := m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql,
		"SELECT c.name, o.total FROM customers AS c INNER JOIN orders AS o ON o.customer_id = c.id")
}

func TestJoinKinds(t *testing.T) {
	t.Parallel()
	on := o.Field("CustomerID").Eq(c.Field("ID"))
	tests := []struct {
		name string
		m    *SelectManager
		want string
	}{
		{"left", NewSelectManager(c).LeftJoin(o).On(on), "LEFT JOIN"},
		{"right", NewSelectManager(c).RightJoin(o).On(on), "RIGHT JOIN"},
		{"full", NewSelectManager(c).FullJoin(o).On(on), "FULL JOIN"},
		{"inner", NewSelectManager(c).Join(o).On(on), "INNER JOIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, _, err := tt.m.ToSQL(dialect.PostgreSQL)
			require.NoError(t, err)
			testutil.AssertSQL(t, sql,
				"SELECT * FROM customers AS c "+tt.want+" orders AS o ON o.customer_id = c.id")
		})
	}
}

func TestJoinWithoutCondition(t *testing.T) {
	t.Parallel()
	sql, _, err := NewSelectManager(c).Join(o).On(nil).ToSQL(dialect.SQLite)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers AS c INNER JOIN orders AS o ON 1 = 1")
}

func TestSelfJoinAliases(t *testing.T) {
	t.Parallel()
	ref := nodes.Param[customer]("c")
	m := NewSelectManager(c).
		Select(name, ref.Field("Name")).
		Join(ref).On(ref.Field("Age").Eq(age))
	sql, _, err := m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql,
		"SELECT c.name, c2.name FROM customers AS c INNER JOIN customers AS c2 ON c2.age = c.age")
}

func TestJoinAliasesBindBeforeProjection(t *testing.T) {
	t.Parallel()
	ref := nodes.Param[customer]("c")
	// The projection only touches the joined row; FROM still owns "c".
	m := NewSelectManager(c).Select(ref.Field("Name")).Join(ref).On(nil)
	sql, _, err := m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT c2.name FROM customers AS c INNER JOIN customers AS c2 ON 1 = 1")
}

// --- Grouping and ordering ---

func TestGroupByHaving(t *testing.T) {
	t.Parallel()
	cust := o.Field("CustomerID")
	m := NewSelectManager(o).
		Select(cust, nodes.Count()).
		GroupBy(cust).
		Having(nodes.Count().Gt(2))
	sql, args, err := m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql,
		"SELECT o.customer_id, COUNT(*) FROM orders AS o GROUP BY o.customer_id HAVING COUNT(*) > @p1")
	assert.Equal(t, []any{2}, args)
}

func TestGroupByMultiple(t *testing.T) {
	t.Parallel()
	sql, _, err := NewSelectManager(c).Select(name, age).GroupBy(name).GroupBy(age).ToSQL(dialect.MySQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT c.name, c.age FROM customers AS c GROUP BY c.name, c.age")
}

func TestOrderBy(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(c).OrderBy(name).OrderBy(age, nodes.Desc)
	sql, _, err := m.ToSQL(dialect.PostgreSQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers AS c ORDER BY c.name ASC, c.age DESC")
}

func TestOrderByListDirections(t *testing.T) {
	t.Parallel()
	list := nodes.New(nodes.Bind("n", name), nodes.Bind("a", age))
	sql, _, err := NewSelectManager(c).OrderBy(list, nodes.Desc).ToSQL(dialect.PostgreSQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers AS c ORDER BY c.name DESC, c.age ASC")
}

// --- Paging ---

func TestPaging(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    dialect.Dialect
		want string
	}{
		{dialect.SQLServer, "SELECT c.name FROM customers AS c ORDER BY c.name ASC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY"},
		{dialect.Oracle, "SELECT c.name FROM customers c ORDER BY c.name ASC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY"},
		{dialect.PostgreSQL, "SELECT c.name FROM customers AS c ORDER BY c.name ASC LIMIT 10 OFFSET 20"},
		{dialect.MySQL, "SELECT c.name FROM customers AS c ORDER BY c.name ASC LIMIT 10 OFFSET 20"},
		{dialect.SQLite, "SELECT c.name FROM customers AS c ORDER BY c.name ASC LIMIT 10 OFFSET 20"},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			t.Parallel()
			m := NewSelectManager(c).Select(name).OrderBy(name).Limit(10).Offset(20)
			sql, _, err := m.ToSQL(tt.d)
			require.NoError(t, err)
			testutil.AssertSQL(t, sql, tt.want)

			sql, _, err = NewSelectManager(c).Select(name).OrderBy(name).Page(10, 2).ToSQL(tt.d)
			require.NoError(t, err)
			testutil.AssertSQL(t, sql, tt.want)
		})
	}
}

func TestPagingSQLServerWithoutOrder(t *testing.T) {
	t.Parallel()
	sql, _, err := NewSelectManager(c).Limit(5).ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers AS c ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 5 ROWS ONLY")

	// Oracle's OFFSET/FETCH does not need an ordering.
	sql, _, err = NewSelectManager(c).Limit(5).ToSQL(dialect.Oracle)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers c OFFSET 0 ROWS FETCH NEXT 5 ROWS ONLY")
}

func TestOffsetWithoutLimit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    dialect.Dialect
		want string
	}{
		{dialect.PostgreSQL, "SELECT * FROM customers AS c LIMIT ALL OFFSET 5"},
		{dialect.MySQL, "SELECT * FROM customers AS c LIMIT 18446744073709551615 OFFSET 5"},
		{dialect.SQLite, "SELECT * FROM customers AS c LIMIT -1 OFFSET 5"},
		{dialect.SQLServer, "SELECT * FROM customers AS c ORDER BY (SELECT NULL) OFFSET 5 ROWS"},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			t.Parallel()
			sql, _, err := NewSelectManager(c).Offset(5).ToSQL(tt.d)
			require.NoError(t, err)
			testutil.AssertSQL(t, sql, tt.want)
		})
	}
}

func TestLimitRemoved(t *testing.T) {
	t.Parallel()
	sql, _, err := NewSelectManager(c).Limit(3).Limit(-1).ToSQL(dialect.PostgreSQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers AS c")
}

// --- Golden ---

func TestSelectReportGolden(t *testing.T) {
	t.Parallel()
	g := testutil.Golden(t)
	m := NewSelectManager(c).
		Select(nodes.New(
			nodes.Bind("name", name),
			nodes.Bind("spent", nodes.Sum(o.Field("Total"))),
		)).
		LeftJoin(o).On(o.Field("CustomerID").Eq(c.Field("ID"))).
		Where(act).
		Where(age.GtEq(18)).
		GroupBy(name).
		Having(nodes.Sum(o.Field("Total")).Gt(100)).
		OrderBy(name).
		Page(20, 1)
	for _, d := range dialect.All() {
		sql, args, err := m.ToSQL(d)
		require.NoError(t, err)
		g.Assert(t, "select_report_"+d.String(), []byte(sql))
		assert.Equal(t, []any{18, 100}, args)
	}
}

// --- Use / Transformers ---

func TestSelectUseReturnsSelf(t *testing.T) {
	t.Parallel()
	m := NewSelectManager(c)
	ct := &countingTransformer{}
	assert.Same(t, m, m.Use(ct))
	assert.Len(t, m.Transformers(), 1)
}

func TestSelectTransformerApplied(t *testing.T) {
	t.Parallel()
	ct := &countingTransformer{}
	m := NewSelectManager(c).Where(age.Gt(1)).Use(activeOnly{}).Use(ct)

	sql, _, err := m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "SELECT * FROM customers AS c WHERE c.age > @p1 AND c.active = 1")
	assert.Equal(t, 1, ct.selects)

	// The manager's own core is not touched by the transformer.
	assert.Len(t, m.Core.Wheres, 1)
	_, _, err = m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	assert.Equal(t, 2, ct.selects)
	assert.Len(t, m.Core.Wheres, 1)
}

func TestSelectTransformerErrorStopsGeneration(t *testing.T) {
	t.Parallel()
	sql, args, err := NewSelectManager(c).Use(failingTransformer{}).ToSQL(dialect.SQLServer)
	assert.ErrorIs(t, err, errDenied)
	assert.Empty(t, sql)
	assert.Nil(t, args)
}

func TestSelectCompileErrorPropagates(t *testing.T) {
	t.Parallel()
	_, _, err := NewSelectManager(c).Where(c.Field("Missing").Eq(1)).ToSQL(dialect.SQLServer)
	assert.ErrorIs(t, err, mapping.ErrInvalidColumn)
}

// --- Logging ---

func TestSelectLogsCompiledStatement(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := NewSelectManager(c, visitors.WithLogger(logger)).Where(age.Gt(1)).Compile(dialect.PostgreSQL)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `msg="compiled statement"`)
	assert.Contains(t, out, "dialect=postgres")
	assert.Contains(t, out, `sql="SELECT * FROM customers AS c WHERE c.age > $1"`)
	assert.Contains(t, out, "params=1")
}
