package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/plugins/policy"
	"github.com/bawdo/exprql/plugins/softdelete"
)

var errPolicyDenied = errors.New("access denied")

// policyRule is one row filter for a table. deny rejects every statement
// that touches the table.
type policyRule struct {
	param *nodes.ParameterNode
	cond  nodes.Node
	deny  bool
}

// cmdSoftDelete parses the softdelete arguments:
//
//	softdelete                              DeletedAt on every entity
//	softdelete RemovedAt                    custom field
//	softdelete RemovedAt on customers orders
//	softdelete customers.DeletedAt, orders.ArchivedAt
//	softdelete off
func (s *Session) cmdSoftDelete(args string) error {
	rest := strings.TrimSpace(args)
	if strings.EqualFold(rest, "off") {
		if !s.plugins.deregister("softdelete") {
			return errors.New("softdelete is not enabled")
		}
		s.printf("  Soft-delete disabled\n")
		return nil
	}

	var opts []softdelete.Option
	var status string
	switch {
	case strings.Contains(rest, "."):
		var pairs []string
		for _, pair := range strings.Split(rest, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			dot := strings.IndexByte(pair, '.')
			if dot <= 0 || dot == len(pair)-1 {
				return fmt.Errorf("invalid table.field pair: %q", pair)
			}
			opts = append(opts, softdelete.WithTableField(pair[:dot], exportName(pair[dot+1:])))
			pairs = append(pairs, pair)
		}
		sort.Strings(pairs)
		status = strings.Join(pairs, ", ")

	case strings.Contains(strings.ToLower(rest), " on "):
		idx := strings.Index(strings.ToLower(rest), " on ")
		field := exportName(strings.TrimSpace(rest[:idx]))
		tables := strings.Fields(rest[idx+4:])
		if field == "" || len(tables) == 0 {
			return errors.New("usage: softdelete <field> on <table> [table ...]")
		}
		opts = append(opts, softdelete.WithField(field), softdelete.WithTables(tables...))
		status = fmt.Sprintf("field: %s, tables: %s", field, strings.Join(tables, ", "))

	case rest != "":
		field := exportName(strings.Fields(rest)[0])
		opts = append(opts, softdelete.WithField(field))
		status = "field: " + field

	default:
		status = "field: DeletedAt"
	}

	s.plugins.register(pluginEntry{
		name: "softdelete",
		factory: func(s *Session) transformer {
			return softdelete.New(append([]softdelete.Option{softdelete.WithResolver(s.registry)}, opts...)...)
		},
		status: func() string { return status },
		color:  "#CC6666",
	})
	s.printf("  Soft-delete enabled (%s)\n", status)
	return nil
}

// cmdPolicy parses "policy <entity> <expr>", "policy deny <entity>" and
// "policy off". The entity name is the alias usable in the expression.
func (s *Session) cmdPolicy(args string) error {
	words := strings.Fields(args)
	switch {
	case len(words) == 1 && strings.EqualFold(words[0], "off"):
		s.rules = make(map[string][]policyRule)
		s.plugins.deregister("policy")
		s.printf("  Policy rules removed\n")
		return nil
	case len(words) == 2 && strings.EqualFold(words[0], "deny"):
		e, err := s.lookupEntity(words[1])
		if err != nil {
			return err
		}
		s.addRule(e, policyRule{deny: true})
		s.printf("  Policy denies %s\n", e.table)
		return nil
	case len(words) < 2:
		return errors.New("usage: policy <entity> <expr> | policy deny <entity> | policy off")
	}

	e, err := s.lookupEntity(words[0])
	if err != nil {
		return err
	}
	p := nodes.ParamOf(e.name, e.typ)
	resolve := func(alias string) (*nodes.ParameterNode, *entity, error) {
		if alias != e.name {
			return nil, nil, fmt.Errorf("policy expressions may only use %s", e.name)
		}
		return p, e, nil
	}
	cond, err := parseExpression(strings.TrimSpace(args[len(words[0]):]), resolve)
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	s.addRule(e, policyRule{param: p, cond: cond})
	s.printf("  Policy rule added for %s\n", e.table)
	return nil
}

func (s *Session) addRule(e *entity, r policyRule) {
	s.rules[e.table] = append(s.rules[e.table], r)
	s.plugins.register(pluginEntry{
		name: "policy",
		factory: func(s *Session) transformer {
			return policy.New(s.evalPolicy, policy.WithResolver(s.registry))
		},
		status: s.policyStatus,
		color:  "#6A5ACD",
	})
}

// evalPolicy is the PolicyFunc backing the policy plugin.
func (s *Session) evalPolicy(table string) ([]nodes.Node, error) {
	var conds []nodes.Node
	for _, r := range s.rules[table] {
		if r.deny {
			return nil, errPolicyDenied
		}
		conds = append(conds, nodes.Lambda(r.cond, r.param))
	}
	return conds, nil
}

func (s *Session) policyStatus() string {
	tables := make([]string, 0, len(s.rules))
	for t, rules := range s.rules {
		tables = append(tables, fmt.Sprintf("%s (%d)", t, len(rules)))
	}
	sort.Strings(tables)
	return strings.Join(tables, ", ")
}

func (s *Session) cmdPlugins() {
	if len(s.plugins.entries) == 0 {
		s.printf("  (no plugins enabled)\n")
		return
	}
	for _, e := range s.plugins.entries {
		s.printf("  %s: %s\n", e.name, e.status())
	}
}
