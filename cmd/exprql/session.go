package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ergochat/readline"

	"github.com/bawdo/exprql/dialect"
	"github.com/bawdo/exprql/managers"
	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/visitors"
)

var (
	errNoQuery    = errors.New("no query defined (use 'from <entity> <alias>' first)")
	errNoDatabase = errors.New("not connected (use 'connect <dsn>' first)")
)

// statementMode tracks which kind of statement the session is building.
type statementMode int

const (
	modeSelect statementMode = iota
	modeInsert
	modeUpdate
	modeDelete
)

// compiler is implemented by every statement manager.
type compiler interface {
	Compile(d dialect.Dialect) (*visitors.Context, error)
}

// Session holds the interactive state: the runtime entities, the statement
// being built, the target dialect and any enabled plugins.
type Session struct {
	dialect  dialect.Dialect
	registry *mapping.Registry
	entities map[string]*entity

	// aliases binds the names usable in expressions to row parameters.
	aliases map[string]*nodes.ParameterNode
	bound   map[string]*entity

	mode        statementMode
	query       *managers.SelectManager
	insertQuery *managers.InsertManager
	updateQuery *managers.UpdateManager
	deleteQuery *managers.DeleteManager

	plugins  pluginRegistry
	rules    map[string][]policyRule
	quoted   bool
	commands []commandEntry
	conn     *dbConn
	lastDSN  string
	rl       *readline.Instance
	logger   *slog.Logger
	ctx      context.Context
	out      io.Writer
}

// NewSession creates a session that targets d.
func NewSession(d dialect.Dialect, rl *readline.Instance, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		dialect:  d,
		registry: mapping.NewRegistry(),
		entities: make(map[string]*entity),
		rules:    make(map[string][]policyRule),
		rl:       rl,
		logger:   logger,
		ctx:      context.Background(),
		out:      os.Stdout,
	}
	s.resetStatement()
	s.initCommands()
	return s
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

// options returns the Context options every compiled statement uses.
func (s *Session) options() []visitors.Option {
	return []visitors.Option{
		visitors.WithResolver(s.registry),
		visitors.WithLogger(s.logger),
		visitors.WithQuotedIdentifiers(s.quoted),
	}
}

func (s *Session) resetStatement() {
	s.mode = modeSelect
	s.query = nil
	s.insertQuery = nil
	s.updateQuery = nil
	s.deleteQuery = nil
	s.aliases = make(map[string]*nodes.ParameterNode)
	s.bound = make(map[string]*entity)
}

// resolve maps an alias used in an expression to its row parameter.
func (s *Session) resolve(alias string) (*nodes.ParameterNode, *entity, error) {
	p, ok := s.aliases[alias]
	if !ok {
		return nil, nil, fmt.Errorf("unknown alias %s", alias)
	}
	return p, s.bound[alias], nil
}

func (s *Session) parse(input string) (nodes.Node, error) {
	return parseExpression(strings.TrimSpace(input), s.resolve)
}

func (s *Session) lookupEntity(name string) (*entity, error) {
	e, ok := s.entities[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown entity %s (use 'entity' or 'load' first)", name)
	}
	return e, nil
}

// bind introduces alias for a row of e.
func (s *Session) bind(e *entity, alias string) (*nodes.ParameterNode, error) {
	if _, taken := s.aliases[alias]; taken {
		return nil, fmt.Errorf("alias %s is already in use", alias)
	}
	if !isIdentifier(alias) || strings.Contains(alias, ".") {
		return nil, fmt.Errorf("invalid alias %q", alias)
	}
	p := nodes.ParamOf(alias, e.typ)
	s.aliases[alias] = p
	s.bound[alias] = e
	return p, nil
}

// current returns the manager of the statement being built, with the
// enabled plugins attached.
func (s *Session) current() (compiler, error) {
	opts := s.options()
	switch s.mode {
	case modeInsert:
		m := managers.NewInsertManager(s.insertQuery.Statement.Into, opts...)
		m.Statement = s.insertQuery.Statement
		s.plugins.applyTo(s, func(t transformer) { m.Use(t) })
		return m, nil
	case modeUpdate:
		m := managers.NewUpdateManager(s.updateQuery.Statement.Table, opts...)
		m.Statement = s.updateQuery.Statement
		s.plugins.applyTo(s, func(t transformer) { m.Use(t) })
		return m, nil
	case modeDelete:
		m := managers.NewDeleteManager(s.deleteQuery.Statement.From, opts...)
		m.Statement = s.deleteQuery.Statement
		s.plugins.applyTo(s, func(t transformer) { m.Use(t) })
		return m, nil
	}
	if s.query == nil {
		return nil, errNoQuery
	}
	m := managers.NewSelectManager(s.query.Core.From, opts...)
	m.Core = s.query.Core
	s.plugins.applyTo(s, func(t transformer) { m.Use(t) })
	return m, nil
}

// Compile compiles the current statement for d.
func (s *Session) Compile(d dialect.Dialect) (*visitors.Context, error) {
	m, err := s.current()
	if err != nil {
		return nil, err
	}
	return m.Compile(d)
}

// GenerateSQL produces the SQL text of the current statement.
func (s *Session) GenerateSQL() (string, error) {
	ctx, err := s.Compile(s.dialect)
	if err != nil {
		return "", err
	}
	return ctx.String(), nil
}

// Execute parses and runs a single command.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "--") {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(strings.TrimSpace(line[len(cmd.prefix):]))
			}
		} else if lower == cmd.prefix {
			return cmd.handler("")
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

// --- Configuration ---

func (s *Session) cmdDialect(args string) error {
	if args == "" {
		s.printf("  Dialect: %s\n", s.dialect)
		return nil
	}
	d, err := dialect.Parse(args)
	if err != nil {
		return err
	}
	if s.conn != nil && s.conn.dialect != d {
		return fmt.Errorf("connected to a %s database (disconnect first)", s.conn.dialect)
	}
	s.dialect = d
	s.printf("  Dialect set to %s\n", d)
	return nil
}

func (s *Session) cmdQuoted(args string) error {
	on, err := parseSwitch(args)
	if err != nil {
		return fmt.Errorf("usage: quoted on|off")
	}
	s.quoted = on
	s.printf("  Quoted identifiers %s\n", onOff(on))
	return nil
}

func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// --- Entities ---

func (s *Session) cmdEntity(args string) error {
	def, err := parseEntityCommand(args)
	if err != nil {
		return err
	}
	return s.define(def)
}

func (s *Session) define(def entityDef) error {
	key := strings.ToLower(def.Name)
	if _, exists := s.entities[key]; exists {
		return fmt.Errorf("entity %s is already defined", def.Name)
	}
	e, err := defineEntity(s.registry, def)
	if err != nil {
		return err
	}
	s.entities[key] = e
	s.printf("  Entity %s -> %s (%d fields)\n", e.name, e.table, len(e.fields))
	return nil
}

func (s *Session) cmdLoad(args string) error {
	if args == "" {
		return errors.New("usage: load <schema.yaml>")
	}
	sf, err := loadSchemaFile(args)
	if err != nil {
		return fmt.Errorf("load %s: %w", args, err)
	}
	for _, def := range sf.Entities {
		if err := s.define(def); err != nil {
			return err
		}
	}
	s.logger.Debug("schema loaded", "path", args, "entities", len(sf.Entities))
	return nil
}

func (s *Session) cmdEntities() error {
	if len(s.entities) == 0 {
		s.printf("  (no entities)\n")
		return nil
	}
	for _, name := range sortedEntityNames(s.entities) {
		s.printf("  %s\n", s.entities[name].describe(s.registry))
	}
	return nil
}

// --- SELECT ---

// entityAlias reads "<entity> [alias]". The alias defaults to the entity
// name.
func (s *Session) entityAlias(words []string) (*entity, string, error) {
	if len(words) == 0 || len(words) > 2 {
		return nil, "", errors.New("expected <entity> [alias]")
	}
	e, err := s.lookupEntity(words[0])
	if err != nil {
		return nil, "", err
	}
	alias := e.name
	if len(words) == 2 {
		alias = words[1]
	}
	return e, alias, nil
}

func (s *Session) cmdFrom(args string) error {
	e, alias, err := s.entityAlias(strings.Fields(args))
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	s.resetStatement()
	p, err := s.bind(e, alias)
	if err != nil {
		return err
	}
	s.query = managers.NewSelectManager(p)
	s.printf("  Query FROM %s AS %s\n", e.table, alias)
	return nil
}

func (s *Session) requireSelect() error {
	if s.mode != modeSelect || s.query == nil {
		return errNoQuery
	}
	return nil
}

// projection parses "expr [as name], ...". Plain items are projected as
// a list; a single alias turns the projection into named bindings.
func (s *Session) projection(args string) ([]nodes.Node, error) {
	parts := splitTopLevel(tokenize(args))
	items := make([]nodes.Node, 0, len(parts))
	names := make([]string, 0, len(parts))
	named := false
	for _, part := range parts {
		name := ""
		if i := indexWord(part, "as"); i >= 0 {
			if i != len(part)-2 {
				return nil, errors.New("expected a single name after as")
			}
			name = part[i+1]
			part = part[:i]
			named = true
		}
		n, err := parseTokens(part, s.resolve)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
		names = append(names, name)
	}
	if !named {
		return items, nil
	}
	bindings := make([]nodes.Binding, len(items))
	for i, it := range items {
		name := names[i]
		if name == "" {
			name = s.defaultName(it, i)
		}
		bindings[i] = nodes.Bind(name, it)
	}
	return []nodes.Node{nodes.New(bindings...)}, nil
}

// defaultName names an unaliased item of a named projection after its
// column so that it renders without AS.
func (s *Session) defaultName(n nodes.Node, i int) string {
	if m, ok := n.(*nodes.MemberNode); ok {
		if p, ok := m.Root().(*nodes.ParameterNode); ok {
			if c, err := s.registry.Column(p.Type, m.Name); err == nil {
				return c.Name
			}
		}
	}
	return "expr" + strconv.Itoa(i+1)
}

func (s *Session) cmdSelect(args string) error {
	if err := s.requireSelect(); err != nil {
		return err
	}
	if args == "*" {
		s.query.Select()
		s.printf("  Projection cleared (SELECT *)\n")
		return nil
	}
	items, err := s.projection(args)
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	s.query.Select(items...)
	s.printf("  Projection set (%d columns)\n", len(splitTopLevel(tokenize(args))))
	return nil
}

func (s *Session) cmdDistinct() error {
	if err := s.requireSelect(); err != nil {
		return err
	}
	s.query.Distinct()
	s.printf("  DISTINCT enabled\n")
	return nil
}

func (s *Session) cmdWhere(args string) error {
	cond, err := s.parse(args)
	if err != nil {
		return fmt.Errorf("where: %w", err)
	}
	switch s.mode {
	case modeUpdate:
		s.updateQuery.Where(cond)
	case modeDelete:
		s.deleteQuery.Where(cond)
	case modeInsert:
		return errors.New("where does not apply to INSERT")
	default:
		if s.query == nil {
			return errNoQuery
		}
		s.query.Where(cond)
	}
	s.printf("  WHERE condition added\n")
	return nil
}

// cmdJoin reads "<entity> [alias] on <expr>".
func (s *Session) cmdJoin(args string, kind nodes.JoinKind) error {
	if err := s.requireSelect(); err != nil {
		return err
	}
	tokens := tokenize(args)
	on := indexWord(tokens, "on")
	head := tokens
	if on >= 0 {
		head = tokens[:on]
	}
	e, alias, err := s.entityAlias(head)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	p, err := s.bind(e, alias)
	if err != nil {
		return err
	}
	var cond nodes.Node
	if on >= 0 {
		if cond, err = parseTokens(tokens[on+1:], s.resolve); err != nil {
			delete(s.aliases, alias)
			delete(s.bound, alias)
			return fmt.Errorf("join: %w", err)
		}
	}
	var jc *managers.JoinContext
	switch kind {
	case nodes.LeftJoin:
		jc = s.query.LeftJoin(p)
	case nodes.RightJoin:
		jc = s.query.RightJoin(p)
	case nodes.FullJoin:
		jc = s.query.FullJoin(p)
	default:
		jc = s.query.Join(p)
	}
	if cond != nil {
		jc.On(cond)
	}
	s.printf("  %s %s AS %s\n", kind, e.table, alias)
	return nil
}

func (s *Session) cmdGroup(args string) error {
	if err := s.requireSelect(); err != nil {
		return err
	}
	var groups []nodes.Node
	for _, part := range splitTopLevel(tokenize(args)) {
		n, err := parseTokens(part, s.resolve)
		if err != nil {
			return fmt.Errorf("group: %w", err)
		}
		groups = append(groups, n)
	}
	s.query.GroupBy(groups...)
	s.printf("  GROUP BY set (%d columns)\n", len(groups))
	return nil
}

func (s *Session) cmdHaving(args string) error {
	if err := s.requireSelect(); err != nil {
		return err
	}
	cond, err := s.parse(args)
	if err != nil {
		return fmt.Errorf("having: %w", err)
	}
	s.query.Having(cond)
	s.printf("  HAVING condition added\n")
	return nil
}

// cmdOrder reads "<expr> [asc|desc], ...".
func (s *Session) cmdOrder(args string) error {
	if err := s.requireSelect(); err != nil {
		return err
	}
	parts := splitTopLevel(tokenize(args))
	for _, part := range parts {
		dir := nodes.Asc
		if n := len(part); n > 1 {
			switch strings.ToLower(part[n-1]) {
			case "desc":
				dir = nodes.Desc
				part = part[:n-1]
			case "asc":
				part = part[:n-1]
			}
		}
		expr, err := parseTokens(part, s.resolve)
		if err != nil {
			return fmt.Errorf("order: %w", err)
		}
		s.query.OrderBy(expr, dir)
	}
	s.printf("  ORDER BY set (%d columns)\n", len(parts))
	return nil
}

func parseCount(args, name string) (int, error) {
	n, err := strconv.Atoi(args)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("usage: %s <non-negative integer>", name)
	}
	return n, nil
}

func (s *Session) cmdLimit(args string) error {
	if err := s.requireSelect(); err != nil {
		return err
	}
	n, err := parseCount(args, "limit")
	if err != nil {
		return err
	}
	s.query.Limit(n)
	s.printf("  LIMIT %d\n", n)
	return nil
}

func (s *Session) cmdOffset(args string) error {
	if err := s.requireSelect(); err != nil {
		return err
	}
	n, err := parseCount(args, "offset")
	if err != nil {
		return err
	}
	s.query.Offset(n)
	s.printf("  OFFSET %d\n", n)
	return nil
}

// --- Output ---

func (s *Session) cmdSQL() error {
	ctx, err := s.Compile(s.dialect)
	if err != nil {
		return err
	}
	s.printf("%s\n", ctx.String())
	if args := ctx.Args(); len(args) > 0 {
		s.printf("  params: %v\n", args)
	}
	return nil
}

// cmdInline prints the statement with its parameters written in as
// literals, for reading only.
func (s *Session) cmdInline() error {
	ctx, err := s.Compile(s.dialect)
	if err != nil {
		return err
	}
	s.printf("%s\n", visitors.Interpolate(ctx.String(), ctx.Params(), s.dialect))
	return nil
}

func (s *Session) cmdAll() error {
	for _, d := range dialect.All() {
		ctx, err := s.Compile(d)
		if err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
		s.printf("  %-9s %s\n", d.String()+":", ctx.String())
	}
	return nil
}

func (s *Session) cmdReset() error {
	s.resetStatement()
	s.printf("  Statement cleared\n")
	return nil
}

func (s *Session) cmdHelp() {
	s.printf(`  Entities:
    entity <name> [table <t>] <field>:<type>[:pk|:auto|:null] ...
                                 types: int float string bool time
    load <schema.yaml>           Define entities from a YAML document
    entities                     List defined entities

  Query building:
    from <entity> [alias]        Start a SELECT
    select <expr> [as n], ...    Set the projection (select * clears it)
    distinct                     Enable DISTINCT
    where <expr>                 Add a WHERE condition (AND)
    join <entity> [alias] on <expr>
    left join | right join | full join ...
    group <expr>, ...            Add GROUP BY items
    having <expr>                Add a HAVING condition
    order <expr> [asc|desc], ... Add ORDER BY items
    limit <n> / offset <n>       Page the result

  Statements:
    insert <entity> <field>=<value> ...
    update <entity> set <field>=<expr>, ... [where <expr>]
    delete <entity> [where <expr>]

  Output:
    sql                          Show the SQL and its parameters
    inline                       Show the SQL with parameters written in
    all                          Show the SQL for every dialect
    dot <file>                   Write a Graphviz DOT file of the statement
    reset                        Clear the statement

  Settings:
    dialect [name]               Show or set the dialect (%s)
    quoted on|off                Quote every identifier
    softdelete [field] [on <table> ...]
    softdelete off
    policy <entity> <expr>       Add a row filter for an entity's table
    policy deny <entity>         Reject statements touching the table
    policy off                   Remove all policy rules
    plugins                      List enabled plugins

  Database:
    connect [dsn] / disconnect / exec

  Expressions: alias.Field, 'text', 42, 1.5, true, false, null,
    = != <> > >= < <=, + - * / %%, and or not, ( ), like 'pat%%',
    in (...), is [not] null, upper lower trim count sum avg min max
`, strings.Join(dialect.Names(), ", "))
}
