package dialect

import (
	"strconv"
	"strings"
)

// ConcatStyle selects how string concatenation is written.
type ConcatStyle int

const (
	// ConcatPlus joins operands with " + " (SQL Server).
	ConcatPlus ConcatStyle = iota
	// ConcatFunc wraps operands in CONCAT(a,b,...) (MySQL, PostgreSQL).
	ConcatFunc
	// ConcatPipes joins operands with " || " (Oracle, SQLite).
	ConcatPipes
)

// InsertStyle selects how multi-row INSERT statements are laid out.
type InsertStyle int

const (
	// InsertValues writes "(cols) VALUES (...),(...)".
	InsertValues InsertStyle = iota
	// InsertSelectDual writes "(cols) SELECT ... FROM DUAL UNION ALL SELECT ... FROM DUAL".
	InsertSelectDual
)

// PagingStyle selects how LIMIT/OFFSET is written.
type PagingStyle int

const (
	// PagingLimit writes "LIMIT n OFFSET m".
	PagingLimit PagingStyle = iota
	// PagingFetch writes "OFFSET m ROWS FETCH NEXT n ROWS ONLY".
	PagingFetch
)

// Profile holds the fixed per-dialect text fragments consulted by the
// compiler. Profiles are immutable and shared.
type Profile struct {
	Dialect Dialect

	Concat ConcatStyle
	Insert InsertStyle
	Paging PagingStyle

	// TruthTest is appended to a boolean column used as a predicate.
	TruthTest string

	// AliasKeyword separates a table from its alias.
	AliasKeyword string

	// LengthFunc is the string length function.
	LengthFunc string

	// NestedTrim wraps both-sided trims as LTRIM(RTRIM(x)) instead of TRIM(x).
	NestedTrim bool

	// PagingNeedsOrder reports whether OFFSET/FETCH requires an ORDER BY.
	PagingNeedsOrder bool

	// BackslashEscapes reports whether string literals treat \ as an escape.
	BackslashEscapes bool

	// QuoteIdent quotes a single identifier.
	QuoteIdent func(string) string

	// Placeholder returns the bind marker for the 1-based parameter index.
	Placeholder func(int) string
}

// ConcatAll joins already rendered operands using the dialect's
// concatenation syntax.
func (p *Profile) ConcatAll(parts ...string) string {
	switch p.Concat {
	case ConcatFunc:
		return "CONCAT(" + strings.Join(parts, ",") + ")"
	case ConcatPipes:
		return strings.Join(parts, " || ")
	default:
		return strings.Join(parts, " + ")
	}
}

// LikeContains renders the pattern operand for a substring match.
func (p *Profile) LikeContains(v string) string {
	return p.ConcatAll("'%'", v, "'%'")
}

// LikeStartsWith renders the pattern operand for a prefix match.
func (p *Profile) LikeStartsWith(v string) string {
	return p.ConcatAll(v, "'%'")
}

// LikeEndsWith renders the pattern operand for a suffix match.
func (p *Profile) LikeEndsWith(v string) string {
	return p.ConcatAll("'%'", v)
}

// Trim wraps x in the dialect's both-sided trim.
func (p *Profile) Trim(x string) string {
	if p.NestedTrim {
		return "LTRIM(RTRIM(" + x + "))"
	}
	return "TRIM(" + x + ")"
}

// Page renders the paging tail for the given limit and offset. A negative
// limit means no limit; a zero offset is omitted where the syntax allows.
func (p *Profile) Page(limit, offset int) string {
	var b strings.Builder
	switch p.Paging {
	case PagingFetch:
		b.WriteString("OFFSET ")
		b.WriteString(strconv.Itoa(max(offset, 0)))
		b.WriteString(" ROWS")
		if limit >= 0 {
			b.WriteString(" FETCH NEXT ")
			b.WriteString(strconv.Itoa(limit))
			b.WriteString(" ROWS ONLY")
		}
	default:
		if limit >= 0 {
			b.WriteString("LIMIT ")
			b.WriteString(strconv.Itoa(limit))
		} else if offset > 0 {
			b.WriteString(noLimit(p.Dialect))
		}
		if offset > 0 {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString("OFFSET ")
			b.WriteString(strconv.Itoa(offset))
		}
	}
	return b.String()
}

// noLimit is the LIMIT clause that permits an OFFSET without bounding rows.
func noLimit(d Dialect) string {
	switch d {
	case MySQL:
		return "LIMIT 18446744073709551615"
	case SQLite:
		return "LIMIT -1"
	default:
		return "LIMIT ALL"
	}
}
