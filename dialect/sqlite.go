package dialect

import "github.com/bawdo/exprql/internal/quoting"

// SQLite: double-quoted identifiers, ? parameters, '||' concatenation.
var sqliteProfile = &Profile{
	Dialect:      SQLite,
	Concat:       ConcatPipes,
	Insert:       InsertValues,
	Paging:       PagingLimit,
	TruthTest:    " = 1",
	AliasKeyword: " AS ",
	LengthFunc:   "LENGTH",
	QuoteIdent:   quoting.DoubleQuote,
	Placeholder:  func(_ int) string { return "?" },
}
