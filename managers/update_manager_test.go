package managers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/internal/testutil"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/visitors"
)

func TestUpdateSetWhere(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    dialect.Dialect
		want string
	}{
		{dialect.SQLServer, "UPDATE customers SET name = @p1, age = age + @p2 WHERE id = @p3"},
		{dialect.PostgreSQL, "UPDATE customers SET name = $1, age = age + $2 WHERE id = $3"},
		{dialect.Oracle, "UPDATE customers SET name = :1, age = age + :2 WHERE id = :3"},
		{dialect.MySQL, "UPDATE customers SET name = ?, age = age + ? WHERE id = ?"},
		{dialect.SQLite, "UPDATE customers SET name = ?, age = age + ? WHERE id = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			t.Parallel()
			m := NewUpdateManager(c).
				Set(nodes.New(nodes.Bind("Name", "x"), nodes.Bind("Age", age.Add(1)))).
				Where(c.Field("ID").Eq(5))
			sql, args, err := m.ToSQL(tt.d)
			require.NoError(t, err)
			testutil.AssertSQL(t, sql, tt.want)
			assert.Equal(t, []any{"x", 1, 5}, args)
		})
	}
}

func TestUpdateEntityFiltersOnKey(t *testing.T) {
	t.Parallel()
	sql, args, err := NewUpdateManager(c).Set(customer{ID: 7, Name: "Ann", Age: 30}).ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "UPDATE customers SET name = @p1, age = @p2, active = @p3 WHERE id = @p4")
	assert.Equal(t, []any{"Ann", 30, false, int64(7)}, args)

	sql, _, err = NewUpdateManager(c).Set(&customer{ID: 7, Name: "Ann"}).ToSQL(dialect.PostgreSQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "UPDATE customers SET name = $1, age = $2, active = $3 WHERE id = $4")
}

func TestUpdateExplicitWhereOverridesKey(t *testing.T) {
	t.Parallel()
	m := NewUpdateManager(c).Set(customer{ID: 7, Name: "Ann"}).Where(name.Eq("Bob"))
	sql, args, err := m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "UPDATE customers SET name = @p1, age = @p2, active = @p3 WHERE name = @p4")
	assert.Equal(t, "Bob", args[3])
}

func TestUpdateShapeUpdatesAllRows(t *testing.T) {
	t.Parallel()
	sql, _, err := NewUpdateManager(c).Set(struct{ Active bool }{true}).ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "UPDATE customers SET active = @p1")
}

func TestUpdateIncludeNulls(t *testing.T) {
	t.Parallel()
	m := NewUpdateManager(c).Set(nodes.New(nodes.Bind("Email", nil))).Where(c.Field("ID").Eq(1))
	_, _, err := m.ToSQL(dialect.SQLServer)
	assert.ErrorIs(t, err, visitors.ErrNoColumns)

	sql, args, err := m.IncludeNulls().ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "UPDATE customers SET email = @p1 WHERE id = @p2")
	assert.Equal(t, []any{nil, 1}, args)
}

func TestUpdateQuotedIdentifiers(t *testing.T) {
	t.Parallel()
	m := NewUpdateManager(c, visitors.WithQuotedIdentifiers(true)).
		Set(struct{ Name string }{"x"}).
		Where(c.Field("ID").Eq(2))
	sql, _, err := m.ToSQL(dialect.MySQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "UPDATE `customers` SET `name` = ? WHERE `id` = ?")
}

func TestUpdateErrors(t *testing.T) {
	t.Parallel()
	tg := nodes.Param[tag]("t")
	_, _, err := NewUpdateManager(tg).Set(tag{Name: "x"}).ToSQL(dialect.SQLServer)
	assert.ErrorIs(t, err, ErrNoKey)

	_, _, err = NewUpdateManager(c).ToSQL(dialect.SQLServer)
	assert.ErrorIs(t, err, visitors.ErrNoColumns)
}

func TestUpdateTransformers(t *testing.T) {
	t.Parallel()
	ct := &countingTransformer{}
	m := NewUpdateManager(c).Set(struct{ Age int }{3}).Use(activeOnly{}).Use(ct)
	sql, _, err := m.ToSQL(dialect.SQLServer)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "UPDATE customers SET age = @p1 WHERE active = 1")
	assert.Equal(t, 1, ct.updates)
	assert.Empty(t, m.Statement.Wheres)

	_, _, err = m.Use(failingTransformer{}).ToSQL(dialect.SQLServer)
	assert.ErrorIs(t, err, errDenied)
}
