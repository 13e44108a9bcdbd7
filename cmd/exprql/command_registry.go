package main

import (
	"sort"
	"strings"

	"github.com/bawdo/exprql/nodes"
)

// commandEntry maps a command prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- display ---
		{prefix: "sql", handler: func(_ string) error { return s.cmdSQL() }},
		{prefix: "inline", handler: func(_ string) error { return s.cmdInline() }},
		{prefix: "all", handler: func(_ string) error { return s.cmdAll() }},
		{prefix: "dot ", handler: s.cmdDot},
		{prefix: "dot", handler: s.cmdDot},
		{prefix: "reset", handler: func(_ string) error { return s.cmdReset() }},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},

		// --- entities ---
		{prefix: "entity ", handler: s.cmdEntity},
		{prefix: "load ", handler: s.cmdLoad},
		{prefix: "entities", handler: func(_ string) error { return s.cmdEntities() }},

		// --- query building ---
		{prefix: "from ", handler: s.cmdFrom, completer: completeEntityArgs},
		{prefix: "select ", handler: s.cmdSelect, completer: completeColumnArgs},
		{prefix: "distinct", handler: func(_ string) error { return s.cmdDistinct() }},
		{prefix: "where ", handler: s.cmdWhere, completer: completeColumnArgs},
		{prefix: "group ", handler: s.cmdGroup, completer: completeColumnArgs},
		{prefix: "having ", handler: s.cmdHaving, completer: completeColumnArgs},
		{prefix: "order ", handler: s.cmdOrder, completer: completeOrderArgs},
		{prefix: "limit ", handler: s.cmdLimit},
		{prefix: "offset ", handler: s.cmdOffset},

		// --- joins ---
		{prefix: "join ", handler: func(a string) error { return s.cmdJoin(a, nodes.InnerJoin) }, completer: completeJoinArgs},
		{prefix: "inner join ", handler: func(a string) error { return s.cmdJoin(a, nodes.InnerJoin) }, completer: completeJoinArgs, hidden: true},
		{prefix: "left join ", handler: func(a string) error { return s.cmdJoin(a, nodes.LeftJoin) }, completer: completeJoinArgs},
		{prefix: "right join ", handler: func(a string) error { return s.cmdJoin(a, nodes.RightJoin) }, completer: completeJoinArgs},
		{prefix: "full join ", handler: func(a string) error { return s.cmdJoin(a, nodes.FullJoin) }, completer: completeJoinArgs},

		// --- DML ---
		{prefix: "insert ", handler: s.cmdInsert, completer: completeEntityArgs},
		{prefix: "values ", handler: s.cmdValues, completer: completeColumnArgs},
		{prefix: "update ", handler: s.cmdUpdate, completer: completeEntityArgs},
		{prefix: "delete ", handler: s.cmdDelete, completer: completeEntityArgs},

		// --- settings ---
		{prefix: "dialect ", handler: s.cmdDialect, completer: completeDialectArgs},
		{prefix: "dialect", handler: s.cmdDialect},
		{prefix: "quoted ", handler: s.cmdQuoted},
		{prefix: "softdelete ", handler: s.cmdSoftDelete},
		{prefix: "softdelete", handler: s.cmdSoftDelete},
		{prefix: "policy ", handler: s.cmdPolicy, completer: completeEntityArgs},
		{prefix: "plugins", handler: func(_ string) error { s.cmdPlugins(); return nil }},

		// --- database connectivity ---
		{prefix: "connect ", handler: s.cmdConnect},
		{prefix: "connect", handler: s.cmdConnect},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdExec() }},
	}

	// Sort by prefix length descending so longest prefixes match first.
	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the REPL loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

// --- Shared completion helpers ---

// completeEntityArgs completes the entity name of from, insert, update,
// delete and policy.
func completeEntityArgs(args string) (completionContext, string) {
	if strings.Contains(args, " ") {
		return completeColumnArgs(args)
	}
	return contextEntityName, args
}

// completeJoinArgs handles join prefixes: entity name, then column refs
// after ON.
func completeJoinArgs(args string) (completionContext, string) {
	if !strings.Contains(args, " ") {
		return contextEntityName, args
	}
	if strings.HasSuffix(args, " ") {
		return contextColumnRef, ""
	}
	return contextColumnRef, lastToken(args)
}

// completeColumnArgs handles completion for expression commands.
func completeColumnArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		prev := strings.Fields(args)
		if len(prev) > 0 && strings.Contains(prev[len(prev)-1], ".") {
			return contextOperator, ""
		}
		return contextColumnRef, ""
	}
	return contextColumnRef, lastToken(args)
}

// completeOrderArgs offers a direction after a column ref.
func completeOrderArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		parts := strings.Fields(args)
		if len(parts) > 0 && strings.Contains(parts[len(parts)-1], ".") {
			return contextOrderDir, ""
		}
		return contextColumnRef, ""
	}
	return contextColumnRef, lastToken(args)
}

func completeDialectArgs(args string) (completionContext, string) {
	return contextDialect, strings.TrimSpace(args)
}

// lastToken returns the trailing word being typed, after any space, comma
// or opening parenthesis.
func lastToken(s string) string {
	i := strings.LastIndexAny(s, " ,(")
	return s[i+1:]
}
