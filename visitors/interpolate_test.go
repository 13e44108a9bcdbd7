package visitors

import (
	"testing"
	"time"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/internal/testutil"
	"github.com/bawdo/exprql/nodes"
)

func params(vals ...any) []Param {
	out := make([]Param, len(vals))
	for i, v := range vals {
		out[i] = Param{Value: v}
	}
	return out
}

func TestInterpolate(t *testing.T) {
	t.Parallel()
	stamp := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		d    dialect.Dialect
		sql  string
		args []any
		want string
	}{
		{"sqlserver", dialect.SQLServer, "c.name = @p1 AND c.age > @p2", []any{"O'Brien", 3},
			"c.name = 'O''Brien' AND c.age > 3"},
		{"postgres", dialect.PostgreSQL, "c.age > $1 AND c.active = $2", []any{18, true},
			"c.age > 18 AND c.active = TRUE"},
		{"mysql backslashes", dialect.MySQL, "c.name = ? AND c.active = ?", []any{`a\b`, false},
			`c.name = 'a\\b' AND c.active = FALSE`},
		{"sqlite bool", dialect.SQLite, "c.active = ?", []any{true}, "c.active = 1"},
		{"oracle", dialect.Oracle, "c.age IN (:1,:2)", []any{1, 2}, "c.age IN (1,2)"},
		{"reordered markers", dialect.PostgreSQL, "$2 < $1", []any{5, 4}, "4 < 5"},
		{"nil", dialect.SQLServer, "c.email = @p1", []any{nil}, "c.email = NULL"},
		{"bytes", dialect.SQLServer, "c.blob = @p1", []any{[]byte{0xab, 0x01}}, "c.blob = X'AB01'"},
		{"time", dialect.PostgreSQL, "c.at > $1", []any{stamp}, "c.at > '2024-03-01 12:30:00'"},
		{"float", dialect.SQLServer, "c.balance > @p1", []any{1.5}, "c.balance > 1.5"},
		{"marker inside literal", dialect.SQLServer, "c.name = '@p1' OR c.name = @p1", []any{"z"},
			"c.name = '@p1' OR c.name = 'z'"},
		{"positional inside literal", dialect.MySQL, "c.name = '?' OR c.name = ?", []any{"z"},
			"c.name = '?' OR c.name = 'z'"},
		{"missing value", dialect.SQLServer, "c.age > @p2", []any{1}, "c.age > @p2"},
		{"multi digit", dialect.SQLServer, "@p10", []any{0, 0, 0, 0, 0, 0, 0, 0, 0, "ten"}, "'ten'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertSQL(t, Interpolate(tt.sql, params(tt.args...), tt.d), tt.want)
		})
	}
}

func TestInterpolateCompiledStatement(t *testing.T) {
	t.Parallel()
	ctx := compile(t, dialect.MySQL, Where, name.Like("it's"))
	testutil.AssertSQL(t, ctx.String(), "c.name LIKE CONCAT('%',?,'%')")
	testutil.AssertSQL(t, Interpolate(ctx.String(), ctx.Params(), dialect.MySQL), "c.name LIKE CONCAT('%','it''s','%')")

	ctx = compile(t, dialect.SQLServer, Where, nodes.And(age.In(1, 2), name.Eq("x")))
	testutil.AssertSQL(t, Interpolate(ctx.String(), ctx.Params(), dialect.SQLServer), "c.age IN (1,2) AND c.name = 'x'")
}
