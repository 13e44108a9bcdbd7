package dialect

import "github.com/bawdo/exprql/internal/quoting"

// MySQL: backtick identifiers, ? parameters, CONCAT().
var mySQLProfile = &Profile{
	Dialect:          MySQL,
	Concat:           ConcatFunc,
	Insert:           InsertValues,
	Paging:           PagingLimit,
	TruthTest:        " IS TRUE",
	AliasKeyword:     " AS ",
	LengthFunc:       "LENGTH",
	BackslashEscapes: true,
	QuoteIdent:       quoting.Backtick,
	Placeholder:      func(_ int) string { return "?" },
}
