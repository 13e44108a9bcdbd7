package visitors

import (
	"testing"

	"github.com/bawdo/exprql/internal/testutil"
)

func TestNegate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"equal", "c.age = @p1", "c.age <> @p1"},
		{"not equal", "c.age <> @p1", "c.age = @p1"},
		{"greater", "c.age > @p1", "c.age <= @p1"},
		{"greater or equal", "c.age >= @p1", "c.age < @p1"},
		{"less", "c.age < @p1", "c.age >= @p1"},
		{"less or equal", "c.age <= @p1", "c.age > @p1"},
		{"is null", "c.email IS NULL", "c.email IS NOT NULL"},
		{"is not null", "c.email IS NOT NULL", "c.email IS NULL"},
		{"is true", "c.active IS TRUE", "c.active IS NOT TRUE"},
		{"like", "c.name LIKE CONCAT('%',?,'%')", "c.name NOT LIKE CONCAT('%',?,'%')"},
		{"not like", "c.name NOT LIKE ?", "c.name LIKE ?"},
		{"in", "c.age IN (?,?)", "c.age NOT IN (?,?)"},
		{"not in", "c.age NOT IN (?,?)", "c.age IN (?,?)"},
		{"de morgan", "(c.age > ? AND c.name = ?)", "(c.age <= ? OR c.name <> ?)"},
		{"mixed", "c.a = 1 OR c.b IS NULL AND c.c < 2", "c.a <> 1 AND c.b IS NOT NULL OR c.c >= 2"},
		{"lower case", "c.a = 1 and c.b like ?", "c.a <> 1 OR c.b NOT LIKE ?"},
		{"quoted literal untouched", "c.a = ' AND ' OR c.b = 1", "c.a <> ' AND ' AND c.b <> 1"},
		{"quoted identifier untouched", `"x = y" = 1`, `"x = y" <> 1`},
		{"bracket identifier untouched", "[a IS b] IS NULL", "[a IS b] IS NOT NULL"},
		{"case value untouched", "CASE WHEN c.active = 1 THEN @p1 ELSE @p2 END = @p3",
			"CASE WHEN c.active = 1 THEN @p1 ELSE @p2 END <> @p3"},
		{"case inside aggregate", "COUNT(CASE WHEN c.age > @p1 THEN 1 END) >= @p2",
			"COUNT(CASE WHEN c.age > @p1 THEN 1 END) < @p2"},
		{"nested case", "CASE WHEN c.a = 1 THEN CASE WHEN c.b = 2 THEN 1 END ELSE 0 END > 0 AND c.c = 3",
			"CASE WHEN c.a = 1 THEN CASE WHEN c.b = 2 THEN 1 END ELSE 0 END <= 0 OR c.c <> 3"},
		{"case in literal is text", "c.a = 'CASE' AND c.b = 1", "c.a <> 'CASE' OR c.b <> 1"},
		{"case prefixed column", "c.case_no = 1 AND c.cased = 2", "c.case_no <> 1 OR c.cased <> 2"},
		{"empty", "", ""},
		{"no operators", "1", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertSQL(t, Negate(tt.in), tt.want)
		})
	}
}

func TestNegateIsInvolutive(t *testing.T) {
	t.Parallel()
	spans := []string{
		"c.age = @p1",
		"(c.age > $1 AND c.name <> $2) OR c.email IS NULL",
		"c.name NOT LIKE '%' || :1 || '%' AND c.age NOT IN (:2,:3)",
		"(c.name IS NULL OR c.name = '')",
		"c.active IS NOT TRUE OR c.age >= ? AND c.age <= ?",
		"c.note = 'it''s = fine' AND c.a < 1",
		"1 = 0",
		"COUNT(CASE WHEN c.active = 1 THEN 1 END) < @p1 OR CASE WHEN c.age > @p2 THEN 'a' ELSE 'b' END = @p3",
	}
	for _, s := range spans {
		testutil.AssertSQL(t, Negate(Negate(s)), s)
	}
}
