package dialect

import (
	"strconv"

	"github.com/bawdo/exprql/internal/quoting"
)

// Oracle: no AS before table aliases, :N parameters, multi-row inserts
// through SELECT ... FROM DUAL.
var oracleProfile = &Profile{
	Dialect:      Oracle,
	Concat:       ConcatPipes,
	Insert:       InsertSelectDual,
	Paging:       PagingFetch,
	TruthTest:    " = 1",
	AliasKeyword: " ",
	LengthFunc:   "LENGTH",
	QuoteIdent:   quoting.DoubleQuote,
	Placeholder:  func(i int) string { return ":" + strconv.Itoa(i) },
}
