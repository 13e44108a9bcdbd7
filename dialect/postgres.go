package dialect

import (
	"strconv"

	"github.com/bawdo/exprql/internal/quoting"
)

// PostgreSQL: double-quoted identifiers, $N parameters, CONCAT().
var postgresProfile = &Profile{
	Dialect:      PostgreSQL,
	Concat:       ConcatFunc,
	Insert:       InsertValues,
	Paging:       PagingLimit,
	TruthTest:    " IS TRUE",
	AliasKeyword: " AS ",
	LengthFunc:   "LENGTH",
	QuoteIdent:   quoting.DoubleQuote,
	Placeholder:  func(i int) string { return "$" + strconv.Itoa(i) },
}
