package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/visitors"
)

func (s *Session) cmdConnect(args string) error {
	dsn := args
	if dsn == "" {
		dsn = s.lastDSN
	}
	if dsn == "" {
		return errors.New("usage: connect <dsn>")
	}
	if s.conn != nil {
		_ = s.conn.close()
		s.conn = nil
	}
	conn, err := connect(s.ctx, s.dialect, dsn, s.logger)
	if err != nil {
		return err
	}
	s.conn = conn
	s.lastDSN = dsn
	s.printf("  Connected to %s (%d tables)\n", sanitizeDSN(dsn), len(conn.tables))
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errNoDatabase
	}
	err := s.conn.close()
	s.conn = nil
	s.printf("  Disconnected\n")
	return err
}

// cmdExec runs the current statement against the connected database.
func (s *Session) cmdExec() error {
	if s.conn == nil {
		return errNoDatabase
	}
	ctx, err := s.Compile(s.dialect)
	if err != nil {
		return err
	}
	s.logger.Info("executing statement", "sql", ctx.String(), "params", len(ctx.Params()))
	var out string
	if s.mode == modeSelect {
		out, err = s.conn.execQuery(s.ctx, ctx.String(), ctx.Args())
	} else {
		out, err = s.conn.execStatement(s.ctx, ctx.String(), ctx.Args())
	}
	if err != nil {
		return err
	}
	s.printf("%s", out)
	return nil
}

// cmdDot writes the current statement as a Graphviz DOT graph. Conditions
// added by plugins are grouped into one cluster per plugin.
func (s *Session) cmdDot(path string) error {
	if path == "" {
		return errors.New("usage: dot <file>")
	}
	dv, err := s.dot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(dv.ToDot()), 0o644); err != nil {
		return fmt.Errorf("dot: %w", err)
	}
	s.printf("  DOT written to %s (%d nodes)\n", path, dv.NodeCount())
	return nil
}

func (s *Session) dot() (*visitors.DotVisitor, error) {
	dv := visitors.NewDotVisitor()
	add := func(parent, label string, n nodes.Node) error {
		if n == nil {
			return nil
		}
		return dv.Add(parent, label, n)
	}
	addAll := func(parent, label string, ns []nodes.Node) error {
		for _, n := range ns {
			if err := add(parent, label, n); err != nil {
				return err
			}
		}
		return nil
	}

	switch s.mode {
	case modeInsert:
		root := dv.Root("INSERT")
		stmt := s.insertQuery.Statement
		if err := add(root, "INTO", stmt.Into); err != nil {
			return nil, err
		}
		return dv, addAll(root, "VALUES", stmt.Values)

	case modeUpdate:
		root := dv.Root("UPDATE")
		stmt := s.updateQuery.Statement
		if err := add(root, "TABLE", stmt.Table); err != nil {
			return nil, err
		}
		if err := add(root, "SET", stmt.Set); err != nil {
			return nil, err
		}
		if err := addAll(root, "WHERE", stmt.Wheres); err != nil {
			return nil, err
		}
		for _, entry := range s.plugins.entries {
			start := dv.NodeCount()
			out, err := entry.factory(s).TransformUpdate(stmt.Clone())
			if err != nil {
				return nil, err
			}
			if err := addAll(root, "WHERE", out.Wheres[len(stmt.Wheres):]); err != nil {
				return nil, err
			}
			dv.AddPluginCluster(entry.name, entry.color, dv.NodeIDsSince(start))
		}
		return dv, nil

	case modeDelete:
		root := dv.Root("DELETE")
		stmt := s.deleteQuery.Statement
		if err := add(root, "FROM", stmt.From); err != nil {
			return nil, err
		}
		if err := addAll(root, "WHERE", stmt.Wheres); err != nil {
			return nil, err
		}
		for _, entry := range s.plugins.entries {
			start := dv.NodeCount()
			out, err := entry.factory(s).TransformDelete(stmt.Clone())
			if err != nil {
				return nil, err
			}
			if err := addAll(root, "WHERE", out.Wheres[len(stmt.Wheres):]); err != nil {
				return nil, err
			}
			dv.AddPluginCluster(entry.name, entry.color, dv.NodeIDsSince(start))
		}
		return dv, nil
	}

	if s.query == nil {
		return nil, errNoQuery
	}
	core := s.query.Core
	root := dv.Root("SELECT")
	if err := add(root, "FROM", core.From); err != nil {
		return nil, err
	}
	if err := add(root, "PROJECTION", core.Projection); err != nil {
		return nil, err
	}
	for _, j := range core.Joins {
		if err := add(root, j.Kind.String(), j.Param); err != nil {
			return nil, err
		}
		if err := add(root, "ON", j.On); err != nil {
			return nil, err
		}
	}
	if err := addAll(root, "WHERE", core.Wheres); err != nil {
		return nil, err
	}
	if err := addAll(root, "GROUP BY", core.Groups); err != nil {
		return nil, err
	}
	if err := addAll(root, "HAVING", core.Havings); err != nil {
		return nil, err
	}
	for _, o := range core.Orders {
		if err := add(root, "ORDER BY", o.Expr); err != nil {
			return nil, err
		}
	}
	for _, entry := range s.plugins.entries {
		start := dv.NodeCount()
		out, err := entry.factory(s).TransformSelect(core.Clone())
		if err != nil {
			return nil, err
		}
		if err := addAll(root, "WHERE", out.Wheres[len(core.Wheres):]); err != nil {
			return nil, err
		}
		dv.AddPluginCluster(entry.name, entry.color, dv.NodeIDsSince(start))
	}
	return dv, nil
}
