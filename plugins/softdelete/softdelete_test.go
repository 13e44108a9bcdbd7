package softdelete

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/internal/testutil"
	"github.com/bawdo/exprql/managers"
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/visitors"
)

type user struct {
	ID        int64      `db:"id,pk"`
	Active    bool       `db:"active"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type post struct {
	ID        int64      `db:"id,pk"`
	UserID    int64      `db:"user_id"`
	RemovedAt *time.Time `db:"removed_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type category struct {
	ID int64 `db:"id,pk"`
}

var (
	u = nodes.Param[user]("u")
	p = nodes.Param[post]("p")
	k = nodes.Param[category]("k")
)

func toSQL(t *testing.T, m *managers.SelectManager) string {
	t.Helper()
	sql, _, err := m.ToSQL(dialect.PostgreSQL)
	require.NoError(t, err)
	return sql
}

// --- Default behaviour ---

func TestDefaultFieldDeletedAt(t *testing.T) {
	t.Parallel()
	got := toSQL(t, managers.NewSelectManager(u).Use(New()))
	testutil.AssertSQL(t, got, "SELECT * FROM users AS u WHERE u.deleted_at IS NULL")
}

func TestCustomField(t *testing.T) {
	t.Parallel()
	got := toSQL(t, managers.NewSelectManager(p).Use(New(WithField("RemovedAt"))))
	testutil.AssertSQL(t, got, "SELECT * FROM posts AS p WHERE p.removed_at IS NULL")
}

// --- Preserves existing WHERE conditions ---

func TestPreservesExistingWheres(t *testing.T) {
	t.Parallel()
	m := managers.NewSelectManager(u).Where(u.Field("Active")).Use(New())
	testutil.AssertSQL(t, toSQL(t, m), "SELECT * FROM users AS u WHERE u.active IS TRUE AND u.deleted_at IS NULL")
}

// --- Joins and entities without the field ---

func TestAppliedToJoinedEntities(t *testing.T) {
	t.Parallel()
	m := managers.NewSelectManager(u).
		Join(p).On(p.Field("UserID").Eq(u.Field("ID"))).
		Use(New())
	testutil.AssertSQL(t, toSQL(t, m),
		"SELECT * FROM users AS u INNER JOIN posts AS p ON p.user_id = u.id WHERE u.deleted_at IS NULL AND p.deleted_at IS NULL")
}

func TestSkipsEntitiesWithoutField(t *testing.T) {
	t.Parallel()
	m := managers.NewSelectManager(k).Join(u).On(nil).Use(New())
	testutil.AssertSQL(t, toSQL(t, m),
		"SELECT * FROM categories AS k INNER JOIN users AS u ON 1 = 1 WHERE u.deleted_at IS NULL")
}

// --- Restricting tables ---

func TestWithTables(t *testing.T) {
	t.Parallel()
	m := managers.NewSelectManager(u).Join(p).On(nil).Use(New(WithTables("posts")))
	testutil.AssertSQL(t, toSQL(t, m),
		"SELECT * FROM users AS u INNER JOIN posts AS p ON 1 = 1 WHERE p.deleted_at IS NULL")
}

func TestWithTableField(t *testing.T) {
	t.Parallel()
	sd := New(
		WithTableField("users", "DeletedAt"),
		WithTableField("posts", "RemovedAt"),
	)
	m := managers.NewSelectManager(u).Join(p).On(nil).Use(sd)
	testutil.AssertSQL(t, toSQL(t, m),
		"SELECT * FROM users AS u INNER JOIN posts AS p ON 1 = 1 WHERE u.deleted_at IS NULL AND p.removed_at IS NULL")
}

func TestWithTableFieldRestrictsScope(t *testing.T) {
	t.Parallel()
	m := managers.NewSelectManager(u).Join(p).On(nil).Use(New(WithTableField("posts", "RemovedAt")))
	testutil.AssertSQL(t, toSQL(t, m),
		"SELECT * FROM users AS u INNER JOIN posts AS p ON 1 = 1 WHERE p.removed_at IS NULL")
}

func TestSelfJoinGetsBothConditions(t *testing.T) {
	t.Parallel()
	u2 := nodes.Param[user]("u")
	m := managers.NewSelectManager(u).Join(u2).On(nil).Use(New())
	testutil.AssertSQL(t, toSQL(t, m),
		"SELECT * FROM users AS u INNER JOIN users AS u2 ON 1 = 1 WHERE u.deleted_at IS NULL AND u2.deleted_at IS NULL")
}

// --- Resolver ---

func TestWithResolver(t *testing.T) {
	t.Parallel()
	r := mapping.NewRegistry(mapping.WithTableNamer(func(string) string { return "people" }))
	m := managers.NewSelectManager(u, visitors.WithResolver(r)).Use(New(WithResolver(r), WithTables("people")))
	testutil.AssertSQL(t, toSQL(t, m), "SELECT * FROM people AS u WHERE u.deleted_at IS NULL")
}

// --- Other statements are untouched ---

func TestMutationsUntouched(t *testing.T) {
	t.Parallel()
	sql, _, err := managers.NewDeleteManager(u).Use(New()).ToSQL(dialect.PostgreSQL)
	require.NoError(t, err)
	testutil.AssertSQL(t, sql, "DELETE FROM users")
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()
	sd := New()
	assert.Equal(t, "DeletedAt", sd.Field)
	assert.True(t, sd.appliesTo("anything"))
	assert.Equal(t, "DeletedAt", sd.fieldFor("anything"))
}
