package dialect

import (
	"strconv"

	"github.com/bawdo/exprql/internal/quoting"
)

// SQL Server: bracketed identifiers, @pN parameters, '+' concatenation.
var sqlServerProfile = &Profile{
	Dialect:          SQLServer,
	Concat:           ConcatPlus,
	Insert:           InsertValues,
	Paging:           PagingFetch,
	TruthTest:        " = 1",
	AliasKeyword:     " AS ",
	LengthFunc:       "LEN",
	NestedTrim:       true,
	PagingNeedsOrder: true,
	QuoteIdent:       quoting.Bracket,
	Placeholder:      func(i int) string { return "@p" + strconv.Itoa(i) },
}
