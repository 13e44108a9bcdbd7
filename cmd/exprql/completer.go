package main

import (
	"sort"
	"strings"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/mapping"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand    completionContext = iota // start of line or partial command
	contextEntityName                          // after from/join/insert/update/delete
	contextColumnRef                           // inside an expression
	contextDialect                             // after dialect
	contextOrderDir                            // after a column ref in order context
	contextOperator                            // after a column ref in condition context
)

var orderDirs = []string{"asc", "desc"}

var operators = []string{
	"!=", "%", "*", "+", "-", "/", "<", "<=", "<>", "=", ">", ">=",
	"and", "in", "is", "like", "not", "or",
}

var functionNames = []string{"avg(", "count(", "lower(", "max(", "min(", "sum(", "trim(", "upper("}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of runes before pos that form the prefix being
// completed; newLine holds the suffix to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	ctx, prefix := c.parseContext(string(line[:pos]))

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextEntityName:
		candidates = filterPrefix(sortedEntityNames(c.sess.entities), prefix)
	case contextColumnRef:
		candidates = c.completeColumnRef(prefix)
	case contextDialect:
		candidates = filterPrefix(dialect.Names(), prefix)
	case contextOrderDir:
		candidates = filterPrefix(orderDirs, prefix)
	case contextOperator:
		candidates = filterPrefix(operators, prefix)
	}

	for _, cand := range candidates {
		suffix := cand[len(prefix):]
		if !strings.HasSuffix(cand, "(") {
			suffix += " "
		}
		newLine = append(newLine, []rune(suffix))
	}
	return newLine, len([]rune(prefix))
}

// parseContext examines the line up to the cursor and determines what kind
// of completion is needed and the prefix being typed.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)
	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") || cmd.completer == nil {
			continue
		}
		if strings.HasPrefix(lower, cmd.prefix) {
			return cmd.completer(line[len(cmd.prefix):])
		}
	}
	return contextCommand, strings.TrimSpace(line)
}

// completeColumnRef completes aliases, then alias.field_name after the dot.
func (c *replCompleter) completeColumnRef(prefix string) []string {
	if alias, _, found := strings.Cut(prefix, "."); found {
		e, ok := c.sess.bound[alias]
		if !ok {
			return nil
		}
		candidates := make([]string, len(e.fields))
		for i, f := range e.fields {
			candidates[i] = alias + "." + mapping.Snake(f)
		}
		return filterPrefix(candidates, prefix)
	}

	aliases := make([]string, 0, len(c.sess.aliases))
	for a := range c.sess.aliases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	candidates := filterPrefix(aliases, prefix)
	return append(candidates, filterPrefix(functionNames, prefix)...)
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}
