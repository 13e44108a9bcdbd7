package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Dialect
	}{
		{"sqlserver", SQLServer},
		{"MSSQL", SQLServer},
		{"mysql", MySQL},
		{"postgres", PostgreSQL},
		{"PostgreSQL", PostgreSQL},
		{"pg", PostgreSQL},
		{" oracle ", Oracle},
		{"sqlite3", SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnknown(t *testing.T) {
	t.Parallel()
	_, err := Parse("db2")
	assert.ErrorContains(t, err, `unknown dialect "db2"`)
}

func TestStringRoundTrip(t *testing.T) {
	t.Parallel()
	for _, d := range All() {
		got, err := Parse(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	assert.Equal(t, "dialect(9)", Dialect(9).String())
	assert.False(t, Dialect(9).Valid())
}

func TestProfilePanicsOnUnknown(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { Dialect(-1).Profile() })
}

func TestLikeContains(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    Dialect
		want string
	}{
		{SQLServer, "'%' + @p1 + '%'"},
		{MySQL, "CONCAT('%',@p1,'%')"},
		{PostgreSQL, "CONCAT('%',@p1,'%')"},
		{Oracle, "'%' || @p1 || '%'"},
		{SQLite, "'%' || @p1 || '%'"},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.d.Profile().LikeContains("@p1"))
		})
	}
}

func TestLikePrefixSuffix(t *testing.T) {
	t.Parallel()
	p := SQLite.Profile()
	assert.Equal(t, "? || '%'", p.LikeStartsWith("?"))
	assert.Equal(t, "'%' || ?", p.LikeEndsWith("?"))

	m := MySQL.Profile()
	assert.Equal(t, "CONCAT(?,'%')", m.LikeStartsWith("?"))
	assert.Equal(t, "CONCAT('%',?)", m.LikeEndsWith("?"))
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "@p3", SQLServer.Profile().Placeholder(3))
	assert.Equal(t, "?", MySQL.Profile().Placeholder(3))
	assert.Equal(t, "$3", PostgreSQL.Profile().Placeholder(3))
	assert.Equal(t, ":3", Oracle.Profile().Placeholder(3))
	assert.Equal(t, "?", SQLite.Profile().Placeholder(3))
}

func TestTruthTest(t *testing.T) {
	t.Parallel()
	assert.Equal(t, " = 1", SQLServer.Profile().TruthTest)
	assert.Equal(t, " IS TRUE", MySQL.Profile().TruthTest)
	assert.Equal(t, " IS TRUE", PostgreSQL.Profile().TruthTest)
	assert.Equal(t, " = 1", Oracle.Profile().TruthTest)
	assert.Equal(t, " = 1", SQLite.Profile().TruthTest)
}

func TestTrim(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "LTRIM(RTRIM(x))", SQLServer.Profile().Trim("x"))
	assert.Equal(t, "TRIM(x)", PostgreSQL.Profile().Trim("x"))
}

func TestPage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name          string
		d             Dialect
		limit, offset int
		want          string
	}{
		{"limit only", PostgreSQL, 10, 0, "LIMIT 10"},
		{"limit offset", SQLite, 10, 20, "LIMIT 10 OFFSET 20"},
		{"offset only pg", PostgreSQL, -1, 5, "LIMIT ALL OFFSET 5"},
		{"offset only mysql", MySQL, -1, 5, "LIMIT 18446744073709551615 OFFSET 5"},
		{"offset only sqlite", SQLite, -1, 5, "LIMIT -1 OFFSET 5"},
		{"fetch", SQLServer, 10, 20, "OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY"},
		{"fetch no offset", Oracle, 10, 0, "OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY"},
		{"fetch offset only", Oracle, -1, 3, "OFFSET 3 ROWS"},
		{"nothing", MySQL, -1, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.d.Profile().Page(tt.limit, tt.offset))
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[users]", SQLServer.Profile().QuoteIdent("users"))
	assert.Equal(t, "`users`", MySQL.Profile().QuoteIdent("users"))
	assert.Equal(t, `"users"`, PostgreSQL.Profile().QuoteIdent("users"))
	assert.Equal(t, `"users"`, Oracle.Profile().QuoteIdent("users"))
	assert.Equal(t, `"users"`, SQLite.Profile().QuoteIdent("users"))
}
