package visitors

import (
	"strings"

	"github.com/bawdo/exprql/internal/quoting"
)

// negations pairs each operator token with its logical complement. Longer
// tokens come first so " IS NOT " is consumed before " IS " can match.
var negations = [][2]string{
	{" IS NOT ", " IS "},
	{" NOT LIKE ", " LIKE "},
	{" NOT IN ", " IN "},
	{" <> ", " = "},
	{" >= ", " < "},
	{" <= ", " > "},
	{" LIKE ", " NOT LIKE "},
	{" AND ", " OR "},
	{" IS ", " IS NOT "},
	{" IN ", " NOT IN "},
	{" OR ", " AND "},
	{" = ", " <> "},
	{" > ", " <= "},
	{" < ", " >= "},
}

// Negate rewrites a rendered predicate into its logical complement by
// swapping operator tokens. Quoted literals, quoted identifiers and
// CASE ... END expressions are values, not conditions, and are copied
// unchanged. Negate(Negate(s)) == s for any s produced by the compiler.
func Negate(span string) string {
	var b strings.Builder
	b.Grow(len(span) + 16)
	for i := 0; i < len(span); {
		if j := quoting.SkipQuoted(span, i); j > i {
			b.WriteString(span[i:j])
			i = j
			continue
		}
		if j := skipCase(span, i); j > i {
			b.WriteString(span[i:j])
			i = j
			continue
		}
		if span[i] == ' ' {
			if tok, repl, ok := matchNegation(span[i:]); ok {
				b.WriteString(repl)
				i += len(tok)
				continue
			}
		}
		b.WriteByte(span[i])
		i++
	}
	return b.String()
}

func matchNegation(s string) (tok, repl string, ok bool) {
	for _, pair := range negations {
		if len(s) >= len(pair[0]) && strings.EqualFold(s[:len(pair[0])], pair[0]) {
			return pair[0], pair[1], true
		}
	}
	return "", "", false
}

// skipCase reports the end of a CASE expression starting at s[i], nested
// CASE expressions included. It returns i when no CASE keyword starts there.
func skipCase(s string, i int) int {
	if !keywordAt(s, i, "CASE") {
		return i
	}
	depth := 1
	for j := i + len("CASE"); j < len(s); {
		if k := quoting.SkipQuoted(s, j); k > j {
			j = k
			continue
		}
		switch {
		case keywordAt(s, j, "CASE"):
			depth++
			j += len("CASE")
		case keywordAt(s, j, "END"):
			depth--
			j += len("END")
			if depth == 0 {
				return j
			}
		default:
			j++
		}
	}
	return len(s)
}

// keywordAt reports whether the word kw starts at s[i] on identifier
// boundaries, so c.case_no or CASED never match.
func keywordAt(s string, i int, kw string) bool {
	if i+len(kw) > len(s) || !strings.EqualFold(s[i:i+len(kw)], kw) {
		return false
	}
	if i > 0 && (identByte(s[i-1]) || s[i-1] == '.') {
		return false
	}
	end := i + len(kw)
	return end == len(s) || !identByte(s[end])
}

func identByte(c byte) bool {
	return c == '_' || c == '@' || c == '$' || c == '#' ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
