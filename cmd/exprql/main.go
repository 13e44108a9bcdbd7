// Command exprql builds SQL statements from a small expression language and
// renders them for every supported dialect.
//
// Configuration (env vars):
//
//	EXPRQL_DIALECT=sqlserver|mysql|postgres|oracle|sqlite  (optional, prompted if absent)
//	EXPRQL_SCHEMA=<schema.yaml>                             (optional, loaded at start)
//	DATABASE_URL=<dsn>                                      (optional, auto-connects if set)
//
// Usage:
//
//	exprql repl
//	exprql run script.xql
//	exprql dialects
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"

	"github.com/bawdo/exprql/dialect"
)

const defaultDialect = dialect.PostgreSQL

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds the global flags of every command.
type rootOptions struct {
	Verbose bool
	Dialect string
	Schema  string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "exprql",
		Short:         "Compile expression trees to SQL",
		Long:          "exprql builds SELECT, INSERT, UPDATE and DELETE statements interactively and renders them for SQL Server, MySQL, PostgreSQL, Oracle and SQLite.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log compiled statements")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", os.Getenv("EXPRQL_DIALECT"), "target dialect")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", os.Getenv("EXPRQL_SCHEMA"), "YAML schema to load at start")

	cmd.AddCommand(newReplCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newDialectsCommand())
	return cmd
}

func newReplCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Build statements interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(opts, cmd.OutOrStdout())
		},
	}
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Run a file of commands",
		Long: `Run executes every line of a script with the same command language as
the REPL. Blank lines and lines starting with # or -- are skipped. The
first failing line stops the run.

Example:
  exprql run --dialect sqlserver report.xql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.dialect()
			if err != nil {
				return err
			}
			sess, err := opts.session(d, nil, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.close()
			if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
				if err := sess.Execute("connect " + dsn); err != nil {
					return fmt.Errorf("DATABASE_URL: %w", err)
				}
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			return runScript(sess, f, args[0])
		},
	}
}

func newDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported dialects",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, d := range dialect.All() {
				driver := driverName[d]
				if driver == "" {
					driver = "-"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-10s driver: %s\n", d, driver)
			}
		},
	}
}

// dialect resolves the --dialect flag or EXPRQL_DIALECT.
func (o *rootOptions) dialect() (dialect.Dialect, error) {
	if o.Dialect == "" {
		return defaultDialect, nil
	}
	return dialect.Parse(o.Dialect)
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// session creates a session and loads the configured schema.
func (o *rootOptions) session(d dialect.Dialect, rl *readline.Instance, out, logOut io.Writer) (*Session, error) {
	sess := NewSession(d, rl, o.logger(logOut))
	sess.out = out
	if o.Schema != "" {
		if err := sess.cmdLoad(o.Schema); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *Session) close() {
	if s.conn != nil {
		_ = s.conn.close()
		s.conn = nil
	}
}

// runScript executes the commands read from r. name labels errors.
func runScript(sess *Session, r io.Reader, name string) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		if err := sess.Execute(sc.Text()); err != nil {
			return fmt.Errorf("%s:%d: %w", name, n, err)
		}
	}
	return sc.Err()
}

func runRepl(opts *rootOptions, out io.Writer) error {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "[Config] ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer func() { _ = rl.Close() }()

	d, err := loadDialect(rl, opts)
	if err != nil {
		return err
	}
	sess, err := opts.session(d, rl, out, os.Stderr)
	if err != nil {
		return err
	}
	defer sess.close()

	_ = rl.SetConfig(&readline.Config{
		Prompt:          "exprql> ",
		HistoryFile:     historyPath(),
		HistoryLimit:    500,
		AutoComplete:    &replCompleter{sess: sess},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		sess.printf("[Config] Connecting via DATABASE_URL...\n")
		if err := sess.Execute("connect " + dsn); err != nil {
			fmt.Fprintf(os.Stderr, "  Warning: DATABASE_URL connect failed: %v\n", err)
		}
	} else if _, ok := driverName[d]; ok {
		loadConnection(rl, sess)
	}

	sess.printf("\nexprql - type 'help' for commands, 'exit' to quit\n\n")

	rl.SetPrompt("exprql> ")
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			break
		}
		if err := sess.Execute(line); err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		}
	}
	sess.printf("\n")
	return nil
}

// loadDialect uses the flag or env value, prompting when neither is set.
func loadDialect(rl *readline.Instance, opts *rootOptions) (dialect.Dialect, error) {
	if opts.Dialect != "" {
		d, err := dialect.Parse(opts.Dialect)
		if err != nil {
			return 0, err
		}
		fmt.Printf("[Config] Dialect: %s\n", d)
		return d, nil
	}

	choice := prompt(rl, "Select dialect ("+strings.Join(dialect.Names(), ", ")+")", defaultDialect.String())
	d, err := dialect.Parse(choice)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: unknown dialect %q, defaulting to %s\n", choice, defaultDialect)
		return defaultDialect, nil
	}
	fmt.Printf("[Config] Dialect: %s\n", d)
	return d, nil
}

func loadConnection(rl *readline.Instance, sess *Session) {
	answer := strings.ToLower(prompt(rl, "Connect to a database? (y/N)", ""))
	if answer != "y" && answer != "yes" {
		fmt.Println("[Config] Skipped, use 'connect <dsn>' later to connect")
		return
	}

	var dsn string
	switch sess.dialect {
	case dialect.SQLite:
		dsn = prompt(rl, "Database path", ":memory:")
	case dialect.MySQL:
		dsn = buildMySQLDSN(rl)
	default:
		dsn = buildPostgresDSN(rl)
	}
	if dsn == "" {
		fmt.Println("[Config] No connection configured, use 'connect <dsn>' later")
		return
	}

	fmt.Printf("[Config] DSN: %s\n", sanitizeDSN(dsn))
	if err := sess.Execute("connect " + dsn); err != nil {
		fmt.Fprintf(os.Stderr, "  Warning: connect failed: %v\n", err)
		fmt.Println("[Config] Use 'connect <dsn>' later to retry")
	}
}

// prompt prints a label with an optional default and returns the user's
// input, or the default when they press enter.
func prompt(rl *readline.Instance, label, defaultVal string) string {
	if rl == nil {
		return defaultVal
	}
	if defaultVal != "" {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s [%s]: ", label, defaultVal))
	} else {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s: ", label))
	}
	defer rl.SetPrompt("exprql> ")
	line, err := rl.ReadLine()
	if err != nil {
		return defaultVal
	}
	if val := strings.TrimSpace(line); val != "" {
		return val
	}
	return defaultVal
}

func buildPostgresDSN(rl *readline.Instance) string {
	fmt.Println("[Config] PostgreSQL connection setup:")
	defaultUser := "postgres"
	if u, err := user.Current(); err == nil && u.Username != "" {
		defaultUser = u.Username
	}
	dbUser := prompt(rl, "User", defaultUser)
	dbPass := prompt(rl, "Password", "")
	host := prompt(rl, "Host", "localhost")
	port := prompt(rl, "Port", "5432")
	dbName := prompt(rl, "Database", dbUser)
	sslMode := prompt(rl, "SSL mode (disable/require/verify-full)", "disable")
	return postgresDSN(dbUser, dbPass, host, port, dbName, sslMode)
}

func buildMySQLDSN(rl *readline.Instance) string {
	fmt.Println("[Config] MySQL connection setup:")
	dbUser := prompt(rl, "User", "root")
	dbPass := prompt(rl, "Password", "")
	host := prompt(rl, "Host", "localhost")
	port := prompt(rl, "Port", "3306")
	dbName := prompt(rl, "Database", "")
	if dbName == "" {
		return ""
	}
	return mysqlDSN(dbUser, dbPass, host, port, dbName)
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".exprql_history")
}
