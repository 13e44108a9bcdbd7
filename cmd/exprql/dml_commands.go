package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bawdo/exprql/managers"
	"github.com/bawdo/exprql/nodes"
)

// assignments parses "<field>=<expr> ..." into bindings on e's members.
// Commas between assignments are optional.
func (s *Session) assignments(e *entity, tokens []string) ([]nodes.Binding, error) {
	var out []nodes.Binding
	i := 0
	for i < len(tokens) {
		if tokens[i] == "," {
			i++
			continue
		}
		if i+1 >= len(tokens) || tokens[i+1] != "=" {
			return nil, fmt.Errorf("expected <field>=<value> at %q", tokens[i])
		}
		member, ok := e.member(tokens[i])
		if !ok {
			return nil, fmt.Errorf("%s has no field %s", e.name, tokens[i])
		}
		start := i + 2
		end := start
		for end < len(tokens) && !startsAssignment(tokens, end) {
			end++
		}
		value := tokens[start:end]
		if n := len(value); n > 0 && value[n-1] == "," {
			value = value[:n-1]
		}
		expr, err := parseTokens(value, s.resolve)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", member, err)
		}
		out = append(out, nodes.Bind(member, expr))
		i = end
	}
	if len(out) == 0 {
		return nil, errors.New("no assignments")
	}
	return out, nil
}

// startsAssignment reports whether tokens[i] begins "<name> =". A name
// directly after a comparison operator is an operand instead.
func startsAssignment(tokens []string, i int) bool {
	if i+1 >= len(tokens) || tokens[i+1] != "=" || !isIdentifier(tokens[i]) {
		return false
	}
	if i == 0 {
		return true
	}
	_, afterOp := comparisonOps[tokens[i-1]]
	return !afterOp
}

// cmdInsert reads "<entity> <field>=<value> ...".
func (s *Session) cmdInsert(args string) error {
	tokens := tokenize(args)
	if len(tokens) < 4 {
		return errors.New("usage: insert <entity> <field>=<value> ...")
	}
	e, err := s.lookupEntity(tokens[0])
	if err != nil {
		return err
	}
	s.resetStatement()
	bindings, err := s.assignments(e, tokens[1:])
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	s.insertQuery = managers.NewInsertManager(nodes.ParamOf(e.name, e.typ)).Values(nodes.New(bindings...))
	s.mode = modeInsert
	s.printf("  INSERT INTO %s (%d values)\n", e.table, len(bindings))
	return nil
}

// cmdValues adds another row to the INSERT being built.
func (s *Session) cmdValues(args string) error {
	if s.mode != modeInsert {
		return errors.New("no INSERT defined (use 'insert <entity> ...' first)")
	}
	e := s.entityOfParam(s.insertQuery.Statement.Into)
	bindings, err := s.assignments(e, tokenize(args))
	if err != nil {
		return fmt.Errorf("values: %w", err)
	}
	s.insertQuery.Values(nodes.New(bindings...))
	s.printf("  Row %d added\n", len(s.insertQuery.Statement.Values))
	return nil
}

// cmdUpdate reads "<entity> set <field>=<expr>, ... [where <expr>]". The
// entity name is the alias usable in the expressions.
func (s *Session) cmdUpdate(args string) error {
	tokens := tokenize(args)
	if len(tokens) < 5 || !strings.EqualFold(tokens[1], "set") {
		return errors.New("usage: update <entity> set <field>=<expr>, ... [where <expr>]")
	}
	e, err := s.lookupEntity(tokens[0])
	if err != nil {
		return err
	}
	s.resetStatement()
	p, err := s.bind(e, e.name)
	if err != nil {
		return err
	}
	set := tokens[2:]
	var where []string
	if i := indexWord(set, "where"); i >= 0 {
		set, where = set[:i], set[i+1:]
	}
	bindings, err := s.assignments(e, set)
	if err != nil {
		s.resetStatement()
		return fmt.Errorf("update: %w", err)
	}
	m := managers.NewUpdateManager(p).Set(nodes.New(bindings...))
	if where != nil {
		cond, err := parseTokens(where, s.resolve)
		if err != nil {
			s.resetStatement()
			return fmt.Errorf("where: %w", err)
		}
		m.Where(cond)
	}
	s.updateQuery = m
	s.mode = modeUpdate
	s.printf("  UPDATE %s (%d assignments)\n", e.table, len(bindings))
	return nil
}

// cmdDelete reads "<entity> [where <expr>]".
func (s *Session) cmdDelete(args string) error {
	tokens := tokenize(args)
	if len(tokens) == 0 {
		return errors.New("usage: delete <entity> [where <expr>]")
	}
	e, err := s.lookupEntity(tokens[0])
	if err != nil {
		return err
	}
	s.resetStatement()
	p, err := s.bind(e, e.name)
	if err != nil {
		return err
	}
	m := managers.NewDeleteManager(p)
	rest := tokens[1:]
	if len(rest) > 0 {
		if !strings.EqualFold(rest[0], "where") {
			s.resetStatement()
			return fmt.Errorf("delete: unexpected %q", rest[0])
		}
		cond, err := parseTokens(rest[1:], s.resolve)
		if err != nil {
			s.resetStatement()
			return fmt.Errorf("where: %w", err)
		}
		m.Where(cond)
	}
	s.deleteQuery = m
	s.mode = modeDelete
	s.printf("  DELETE FROM %s\n", e.table)
	return nil
}

// entityOfParam finds the session entity behind a statement parameter.
func (s *Session) entityOfParam(p *nodes.ParameterNode) *entity {
	for _, e := range s.entities {
		if e.typ == p.Type {
			return e
		}
	}
	return nil
}
