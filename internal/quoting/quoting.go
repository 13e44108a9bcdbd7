// Package quoting provides identifier quoting and literal escaping shared by
// the dialect profiles and the compiler.
package quoting

import "strings"

// DoubleQuote quotes an identifier with double quotes (PostgreSQL, Oracle, SQLite).
// Embedded double quotes are doubled.
func DoubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Backtick quotes an identifier with backticks (MySQL).
// Embedded backticks are doubled.
func Backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Bracket quotes an identifier with square brackets (SQL Server).
// A closing bracket inside the name is doubled.
func Bracket(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

// StringLiteral renders s as a single-quoted SQL string literal. When
// backslashes is set (MySQL), backslashes are escaped as well.
//
// SECURITY: only used to display interpolated SQL. Statements sent to a
// database always carry their values as bind parameters.
func StringLiteral(s string, backslashes bool) string {
	if backslashes {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// SkipQuoted reports the end of a quoted segment starting at s[i]. If s[i]
// does not open a quoted string or identifier, it returns i unchanged.
// Doubled closing characters are treated as escapes. An unterminated segment
// runs to the end of s.
func SkipQuoted(s string, i int) int {
	if i >= len(s) {
		return i
	}
	var closer byte
	switch s[i] {
	case '\'':
		closer = '\''
	case '"':
		closer = '"'
	case '`':
		closer = '`'
	case '[':
		closer = ']'
	default:
		return i
	}
	for j := i + 1; j < len(s); j++ {
		if s[j] != closer {
			continue
		}
		if j+1 < len(s) && s[j+1] == closer {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}
