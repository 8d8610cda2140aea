// Package main is the entry point for the loxide interpreter and server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lemonberrylabs/loxide/pkg/config"
	"github.com/lemonberrylabs/loxide/pkg/diag"
	"github.com/lemonberrylabs/loxide/pkg/logger"
	"github.com/lemonberrylabs/loxide/pkg/parser"
	"github.com/lemonberrylabs/loxide/pkg/repl"
	"github.com/lemonberrylabs/loxide/pkg/runtime"
	"github.com/lemonberrylabs/loxide/pkg/scanner"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes for script runs.
const (
	exitUsage   = 64
	exitSyntax  = 65
	exitRuntime = 70
)

// exitError carries a process exit code. Its diagnostics have already been
// printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "error:", err)
	return exitUsage
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "loxide [script]",
		Short:         "Scan, parse and evaluate Lox expressions",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, stderr)
			if err != nil {
				return err
			}
			defer log.Sync()

			if v, _ := cmd.Flags().GetBool("tokens"); v {
				cfg.ShowTokens = true
			}
			if v, _ := cmd.Flags().GetBool("ast"); v {
				cfg.ShowAST = true
			}
			if len(args) == 0 {
				return runREPL(cmd.Context(), cfg, log, stdout, stderr)
			}
			return runFile(cmd.Context(), cfg, log, args[0], stdout, stderr)
		},
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("loxide version {{.Version}}\n")
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().String("config", "", "YAML config file (env LOXIDE_CONFIG)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (env LOXIDE_LOG_LEVEL)")
	root.PersistentFlags().Bool("no-color", false, "Disable coloured diagnostics (env NO_COLOR)")
	root.Flags().Bool("tokens", false, "Print the token stream of each input")
	root.Flags().Bool("ast", false, "Print the parsed tree of each expression")

	root.AddCommand(newServeCmd(stderr))
	return root
}

// setup loads the configuration, applies the global flags and builds the
// logger.
func setup(cmd *cobra.Command, stderr io.Writer) (*config.Config, *zap.Logger, error) {
	path := envOrDefault(config.EnvPrefix+"CONFIG", "")
	if v, _ := cmd.Flags().GetString("config"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetBool("no-color"); v || color.NoColor {
		cfg.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewWithWriter(cfg.Log, stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newSession(cfg *config.Config, log *zap.Logger, stdout, stderr io.Writer) *repl.Session {
	engine := runtime.NewEngine(runtime.WithMaxDepth(cfg.MaxDepth), runtime.WithLogger(log))
	return repl.New(engine, stdout, diag.New(stderr, cfg.Color),
		repl.WithPrompt(cfg.Prompt),
		repl.WithTokens(cfg.ShowTokens),
		repl.WithAST(cfg.ShowAST))
}

func runREPL(ctx context.Context, cfg *config.Config, log *zap.Logger, stdout, stderr io.Writer) error {
	term, err := repl.NewTerminal(cfg.HistoryFile)
	if err != nil {
		return err
	}
	runErr := newSession(cfg, log, stdout, stderr).Run(ctx, term)
	if err := term.Close(); err != nil {
		log.Warn("closing terminal", zap.Error(err))
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// runFile evaluates the script at path. Lexical and syntax errors exit
// with 65, evaluation errors with 70.
func runFile(ctx context.Context, cfg *config.Config, log *zap.Logger, path string, stdout, stderr io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	log.Debug("running script", zap.String("path", path), zap.Int("bytes", len(data)))

	err = newSession(cfg, log, stdout, stderr).Eval(ctx, string(data))
	if err == nil {
		return nil
	}
	var serr scanner.ErrorList
	var perr *parser.Error
	if errors.As(err, &serr) || errors.As(err, &perr) {
		return &exitError{code: exitSyntax, err: err}
	}
	return &exitError{code: exitRuntime, err: err}
}
