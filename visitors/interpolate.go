package visitors

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/internal/quoting"
)

// Interpolate substitutes literal renderings of params for the placeholders
// in sql. The result is meant for display and logs only; statements sent
// to a database keep their bind parameters.
func Interpolate(sql string, params []Param, d dialect.Dialect) string {
	p := d.Profile()
	var b strings.Builder
	next := 0
	for i := 0; i < len(sql); {
		if j := quoting.SkipQuoted(sql, i); j > i {
			b.WriteString(sql[i:j])
			i = j
			continue
		}
		idx, width := placeholderAt(sql, i, d)
		if width == 0 {
			b.WriteByte(sql[i])
			i++
			continue
		}
		if idx < 0 {
			idx = next
			next++
		}
		if idx < len(params) {
			b.WriteString(literal(params[idx].Value, p))
		} else {
			b.WriteString(sql[i : i+width])
		}
		i += width
	}
	return b.String()
}

// placeholderAt reports the zero-based parameter index and width of a bind
// marker at sql[i]. Positional markers report index -1.
func placeholderAt(sql string, i int, d dialect.Dialect) (int, int) {
	var prefix string
	switch d {
	case dialect.SQLServer:
		prefix = "@p"
	case dialect.PostgreSQL:
		prefix = "$"
	case dialect.Oracle:
		prefix = ":"
	default:
		if sql[i] == '?' {
			return -1, 1
		}
		return 0, 0
	}
	if !strings.HasPrefix(sql[i:], prefix) {
		return 0, 0
	}
	j := i + len(prefix)
	for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
		j++
	}
	if j == i+len(prefix) {
		return 0, 0
	}
	n, err := strconv.Atoi(sql[i+len(prefix) : j])
	if err != nil || n < 1 {
		return 0, 0
	}
	return n - 1, j - i
}

func literal(v any, p *dialect.Profile) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoting.StringLiteral(x, p.BackslashEscapes)
	case bool:
		if p.TruthTest == " IS TRUE" {
			return strings.ToUpper(strconv.FormatBool(x))
		}
		if x {
			return "1"
		}
		return "0"
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(x)) + "'"
	case time.Time:
		return quoting.StringLiteral(x.Format("2006-01-02 15:04:05.999999999"), false)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(x)
	case fmt.Stringer:
		return quoting.StringLiteral(x.String(), p.BackslashEscapes)
	}
	return quoting.StringLiteral(fmt.Sprint(v), p.BackslashEscapes)
}
