// Package repl implements the interactive read-eval-print loop and the
// shared output used when running script files.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/lemonberrylabs/loxide/pkg/ast"
	"github.com/lemonberrylabs/loxide/pkg/diag"
	"github.com/lemonberrylabs/loxide/pkg/runtime"
)

// LineReader reads one line of input after printing prompt. It returns
// io.EOF when input ends.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// historyAppender is implemented by readers that keep a history.
type historyAppender interface {
	AppendHistory(item string)
}

const help = `:tokens  toggle printing the token stream
:ast     toggle printing the parsed tree
:help    show this message
:quit    leave the session
`

// Option configures a Session.
type Option func(*Session)

// WithPrompt sets the input prompt.
func WithPrompt(p string) Option {
	return func(s *Session) { s.prompt = p }
}

// WithTokens enables printing the token stream of each input.
func WithTokens(on bool) Option {
	return func(s *Session) { s.showTokens = on }
}

// WithAST enables printing the tree of each unit.
func WithAST(on bool) Option {
	return func(s *Session) { s.showAST = on }
}

// Session evaluates input and prints values to out and diagnostics to the
// diag printer.
type Session struct {
	engine *runtime.Engine
	out    io.Writer
	diag   *diag.Printer

	prompt     string
	showTokens bool
	showAST    bool
}

// New creates a session.
func New(engine *runtime.Engine, out io.Writer, d *diag.Printer, opts ...Option) *Session {
	s := &Session{engine: engine, out: out, diag: d, prompt: "> "}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads lines from in until EOF or :quit. Errors in the input are
// reported and the loop continues.
func (s *Session) Run(ctx context.Context, in LineReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := in.Prompt(s.prompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		src := strings.TrimSpace(line)
		if src == "" {
			continue
		}
		if h, ok := in.(historyAppender); ok {
			h.AppendHistory(line)
		}

		if strings.HasPrefix(src, ":") {
			if s.command(src) {
				return nil
			}
			continue
		}
		// Errors were already reported.
		_ = s.Eval(ctx, line)
	}
}

// command handles a meta command and reports whether the session ends.
func (s *Session) command(cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return true
	case ":tokens":
		s.showTokens = !s.showTokens
		fmt.Fprintf(s.out, "tokens %s\n", onOff(s.showTokens))
	case ":ast":
		s.showAST = !s.showAST
		fmt.Fprintf(s.out, "ast %s\n", onOff(s.showAST))
	case ":help":
		fmt.Fprint(s.out, help)
	default:
		fmt.Fprintf(s.out, "unknown command %s. Type :help for a list.\n", cmd)
	}
	return false
}

// Eval runs source, printing the value of every unit that evaluates and a
// diagnostic for every error. It returns the combined error of the run.
func (s *Session) Eval(ctx context.Context, source string) error {
	res, err := s.engine.Run(ctx, source)
	if res == nil {
		s.diag.Report(err)
		return err
	}

	if s.showTokens && len(res.Tokens) > 0 {
		parts := make([]string, len(res.Tokens))
		for i, tok := range res.Tokens {
			parts[i] = tok.String()
		}
		fmt.Fprintln(s.out, strings.Join(parts, " "))
	}
	if res.ScanErr != nil {
		s.diag.Report(res.ScanErr)
		return err
	}

	for _, u := range res.Units {
		if s.showAST && u.Tree != nil {
			fmt.Fprintln(s.out, ast.Print(u.Tree))
		}
		if u.Err != nil {
			s.diag.Report(u.Err)
			continue
		}
		fmt.Fprintln(s.out, u.Value.String())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.diag.Report(ctx.Err())
	}
	return err
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
