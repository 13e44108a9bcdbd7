package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/exprql/nodes"
)

var errEmptyExpression = errors.New("empty expression")

// tokenize splits input into tokens, respecting single-quoted strings and
// recognising the multi-char operators != <> >= <=. Dotted references and
// decimal numbers stay single tokens.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inQuote {
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(input) && input[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
				} else {
					inQuote = false
					flush()
				}
			}
			continue
		}

		switch {
		case ch == '\'':
			flush()
			cur.WriteByte(ch)
			inQuote = true

		case ch == '(' || ch == ')' || ch == ',':
			flush()
			tokens = append(tokens, string(ch))

		case ch == '!' && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, "!=")
			i++
		case ch == '<' && i+1 < len(input) && input[i+1] == '>':
			flush()
			tokens = append(tokens, "<>")
			i++
		case ch == '<' && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, "<=")
			i++
		case ch == '>' && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, ">=")
			i++
		case ch == '=' || ch == '>' || ch == '<':
			flush()
			tokens = append(tokens, string(ch))
		case ch == '+' || ch == '-' || ch == '*' || ch == '/' || ch == '%':
			flush()
			tokens = append(tokens, string(ch))

		case ch == ' ' || ch == '\t':
			flush()

		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// parseValue converts a literal token to a Go value.
func parseValue(token string) (any, error) {
	switch strings.ToLower(token) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if len(token) >= 2 && strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") {
		return strings.ReplaceAll(token[1:len(token)-1], "''", "'"), nil
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("cannot parse value: %s", token)
}

func isLiteral(token string) bool {
	_, err := parseValue(token)
	return err == nil
}

// isIdentifier reports whether token is a name or a dotted reference.
func isIdentifier(token string) bool {
	if token == "" {
		return false
	}
	c := token[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

var comparisonOps = map[string]nodes.BinaryOp{
	"=":  nodes.OpEqual,
	"!=": nodes.OpNotEqual,
	"<>": nodes.OpNotEqual,
	">":  nodes.OpGreaterThan,
	">=": nodes.OpGreaterThanOrEqual,
	"<":  nodes.OpLessThan,
	"<=": nodes.OpLessThanOrEqual,
}

var additiveOps = map[string]nodes.BinaryOp{
	"+": nodes.OpAdd,
	"-": nodes.OpSubtract,
}

var multiplicativeOps = map[string]nodes.BinaryOp{
	"*": nodes.OpMultiply,
	"/": nodes.OpDivide,
	"%": nodes.OpModulo,
}

// functions maps the expression language's function names to node
// builders. arity -1 accepts zero or one argument.
var functions = map[string]struct {
	arity int
	build func(args []nodes.Node) nodes.Node
}{
	"upper": {1, func(a []nodes.Node) nodes.Node { return nodes.Call(a[0], "ToUpper") }},
	"lower": {1, func(a []nodes.Node) nodes.Node { return nodes.Call(a[0], "ToLower") }},
	"trim":  {1, func(a []nodes.Node) nodes.Node { return nodes.Call(a[0], "Trim") }},
	"count": {-1, func(a []nodes.Node) nodes.Node { return nodes.Count(a...) }},
	"sum":   {1, func(a []nodes.Node) nodes.Node { return nodes.Sum(a[0]) }},
	"avg":   {1, func(a []nodes.Node) nodes.Node { return nodes.Avg(a[0]) }},
	"min":   {1, func(a []nodes.Node) nodes.Node { return nodes.Min(a[0]) }},
	"max":   {1, func(a []nodes.Node) nodes.Node { return nodes.Max(a[0]) }},
}

// resolveFunc maps an alias to its row parameter and entity.
type resolveFunc func(alias string) (*nodes.ParameterNode, *entity, error)

// parser is a recursive descent parser over the tokens of one expression.
//
//	or      = and { "or" and }
//	and     = not { "and" not }
//	not     = "not" not | compare
//	compare = sum [ op sum | "is" ["not"] "null" | ["not"] "like" str | ["not"] "in" "(" list ")" ]
//	sum     = product { ("+" | "-") product }
//	product = unary { ("*" | "/" | "%") unary }
//	unary   = "-" unary | primary
//	primary = literal | ref | func "(" [list] ")" | "(" or ")"
type parser struct {
	tokens  []string
	pos     int
	resolve resolveFunc
}

func (p *parser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *parser) peekWord() string { return strings.ToLower(p.peek()) }

func (p *parser) next() string {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *parser) expect(tok string) error {
	if !strings.EqualFold(p.peek(), tok) {
		if p.peek() == "" {
			return fmt.Errorf("expected %q at end of input", tok)
		}
		return fmt.Errorf("expected %q, got %q", tok, p.peek())
	}
	p.pos++
	return nil
}

// parseExpression parses one complete expression.
func parseExpression(input string, resolve resolveFunc) (nodes.Node, error) {
	return parseTokens(tokenize(input), resolve)
}

func parseTokens(tokens []string, resolve resolveFunc) (nodes.Node, error) {
	if len(tokens) == 0 {
		return nil, errEmptyExpression
	}
	p := &parser{tokens: tokens, resolve: resolve}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("unexpected %q", p.peek())
	}
	return n, nil
}

func (p *parser) or() (nodes.Node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peekWord() == "or" {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = nodes.Or(left, right)
	}
	return left, nil
}

func (p *parser) and() (nodes.Node, error) {
	left, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.peekWord() == "and" {
		p.next()
		right, err := p.not()
		if err != nil {
			return nil, err
		}
		left = nodes.And(left, right)
	}
	return left, nil
}

func (p *parser) not() (nodes.Node, error) {
	if p.peekWord() == "not" {
		p.next()
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return nodes.Not(x), nil
	}
	return p.compare()
}

func (p *parser) compare() (nodes.Node, error) {
	left, err := p.sum()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.peek()]; ok {
		p.next()
		right, err := p.sum()
		if err != nil {
			return nil, err
		}
		return nodes.NewBinary(op, left, right), nil
	}

	switch p.peekWord() {
	case "is":
		p.next()
		op := nodes.OpEqual
		if p.peekWord() == "not" {
			p.next()
			op = nodes.OpNotEqual
		}
		if err := p.expect("null"); err != nil {
			return nil, err
		}
		return nodes.NewBinary(op, left, nodes.Null()), nil
	case "not":
		p.next()
		n, err := p.match(left)
		if err != nil {
			return nil, err
		}
		return nodes.Not(n), nil
	case "like", "in":
		return p.match(left)
	}
	return left, nil
}

// match parses the LIKE or IN tail of a comparison.
func (p *parser) match(left nodes.Node) (nodes.Node, error) {
	switch p.peekWord() {
	case "like":
		p.next()
		tok := p.next()
		v, err := parseValue(tok)
		s, isString := v.(string)
		if err != nil || !isString {
			return nil, fmt.Errorf("like needs a quoted pattern, got %q", tok)
		}
		return likeCall(left, s), nil
	case "in":
		p.next()
		if err := p.expect("("); err != nil {
			return nil, err
		}
		items, err := p.list()
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, errors.New("in needs at least one value")
		}
		vals := make([]any, len(items))
		for i, it := range items {
			vals[i] = it
		}
		return nodes.Call(nil, "In", left, nodes.Array(vals...)), nil
	}
	return nil, fmt.Errorf("expected like or in after not, got %q", p.peek())
}

// likeCall picks the LIKE form from the pattern's wildcards: 'abc%' is a
// prefix match, '%abc' a suffix match and anything else a substring match.
func likeCall(left nodes.Node, pattern string) nodes.Node {
	lead := strings.HasPrefix(pattern, "%")
	trail := len(pattern) > 1 && strings.HasSuffix(pattern, "%")
	text := strings.TrimSuffix(strings.TrimPrefix(pattern, "%"), "%")
	switch {
	case trail && !lead:
		return nodes.Call(nil, "LikeRight", left, nodes.Const(text))
	case lead && !trail:
		return nodes.Call(nil, "LikeLeft", left, nodes.Const(text))
	default:
		return nodes.Call(nil, "Like", left, nodes.Const(text))
	}
}

func (p *parser) sum() (nodes.Node, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := additiveOps[p.peek()]
		if !ok {
			return left, nil
		}
		p.next()
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		left = nodes.NewBinary(op, left, right)
	}
}

func (p *parser) product() (nodes.Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := multiplicativeOps[p.peek()]
		if !ok {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = nodes.NewBinary(op, left, right)
	}
}

func (p *parser) unary() (nodes.Node, error) {
	if p.peek() != "-" {
		return p.primary()
	}
	p.next()
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	if c, ok := x.(*nodes.ConstantNode); ok {
		switch v := c.Value.(type) {
		case int64:
			return nodes.Const(-v), nil
		case float64:
			return nodes.Const(-v), nil
		}
	}
	return nodes.Negate(x), nil
}

func (p *parser) primary() (nodes.Node, error) {
	tok := p.peek()
	switch {
	case tok == "":
		return nil, errors.New("unexpected end of expression")
	case tok == "(":
		p.next()
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return n, nil
	case isLiteral(tok):
		p.next()
		v, _ := parseValue(tok)
		return nodes.Const(v), nil
	case isIdentifier(tok):
		p.next()
		if p.peek() == "(" {
			return p.call(tok)
		}
		return p.ref(tok)
	}
	return nil, fmt.Errorf("unexpected %q", tok)
}

// call parses the argument list of a function.
func (p *parser) call(name string) (nodes.Node, error) {
	fn, ok := functions[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown function %s", name)
	}
	p.next()
	var args []nodes.Node
	if p.peek() == "*" && strings.EqualFold(name, "count") {
		p.next()
		if err := p.expect(")"); err != nil {
			return nil, err
		}
	} else {
		var err error
		if args, err = p.list(); err != nil {
			return nil, err
		}
	}
	if fn.arity >= 0 && len(args) != fn.arity {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", strings.ToLower(name), fn.arity, len(args))
	}
	if fn.arity < 0 && len(args) > 1 {
		return nil, fmt.Errorf("%s takes at most one argument", strings.ToLower(name))
	}
	return fn.build(args), nil
}

// list parses comma separated expressions up to and including ")".
func (p *parser) list() ([]nodes.Node, error) {
	var items []nodes.Node
	if p.peek() == ")" {
		p.next()
		return items, nil
	}
	for {
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
		switch p.next() {
		case ",":
			continue
		case ")":
			return items, nil
		default:
			return nil, errors.New("expected , or ) in list")
		}
	}
}

// ref resolves alias or alias.Member[.Member...].
func (p *parser) ref(tok string) (nodes.Node, error) {
	if p.resolve == nil {
		return nil, fmt.Errorf("unknown reference %s", tok)
	}
	parts := strings.Split(tok, ".")
	param, ent, err := p.resolve(parts[0])
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return param, nil
	}
	member, ok := ent.member(parts[1])
	if !ok {
		return nil, fmt.Errorf("%s has no field %s", ent.name, parts[1])
	}
	m := param.Field(member)
	for _, name := range parts[2:] {
		m = m.Field(name)
	}
	return m, nil
}

// splitTopLevel splits tokens on commas outside parentheses.
func splitTopLevel(tokens []string) [][]string {
	var out [][]string
	depth, start := 0, 0
	for i, t := range tokens {
		switch t {
		case "(":
			depth++
		case ")":
			depth--
		case ",":
			if depth == 0 {
				out = append(out, tokens[start:i])
				start = i + 1
			}
		}
	}
	if start < len(tokens) {
		out = append(out, tokens[start:])
	}
	return out
}

// indexWord returns the position of the first top-level token equal to
// word, or -1.
func indexWord(tokens []string, word string) int {
	depth := 0
	for i, t := range tokens {
		switch {
		case t == "(":
			depth++
		case t == ")":
			depth--
		case depth == 0 && strings.EqualFold(t, word):
			return i
		}
	}
	return -1
}
