// Package runtime runs source text through the scan, parse and evaluate
// pipeline and collects per-unit results for the CLI, the REPL and the
// servers.
package runtime

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lemonberrylabs/loxide/pkg/ast"
	"github.com/lemonberrylabs/loxide/pkg/eval"
	"github.com/lemonberrylabs/loxide/pkg/parser"
	"github.com/lemonberrylabs/loxide/pkg/scanner"
	"github.com/lemonberrylabs/loxide/pkg/token"
	"github.com/lemonberrylabs/loxide/pkg/types"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageScan     Stage = "scan"
	StageParse    Stage = "parse"
	StageEvaluate Stage = "evaluate"
)

// UnitResult is the outcome of one top-level expression. Exactly one of
// Value and Err is meaningful: Err holds a *parser.Error or a
// *types.RuntimeError.
type UnitResult struct {
	Index int
	Tree  ast.Node // nil when the unit did not parse
	Value types.Value
	Err   error
}

// Stage returns the stage a unit stopped at.
func (u UnitResult) Stage() Stage {
	if u.Tree == nil {
		return StageParse
	}
	return StageEvaluate
}

// Result is the outcome of one pipeline run.
type Result struct {
	Tokens  []token.Token
	ScanErr error // scanner.ErrorList; when set no units exist
	Units   []UnitResult

	ScanTime  time.Duration
	ParseTime time.Duration
	EvalTime  time.Duration
}

// Err combines every error of the run, in source order.
func (r *Result) Err() error {
	errs := []error{r.ScanErr}
	for _, u := range r.Units {
		errs = append(errs, u.Err)
	}
	return multierr.Combine(errs...)
}

// Values returns the values of the units that evaluated successfully.
func (r *Result) Values() []types.Value {
	var out []types.Value
	for _, u := range r.Units {
		if u.Err == nil {
			out = append(out, u.Value)
		}
	}
	return out
}

// Last returns the last successfully evaluated value, if any.
func (r *Result) Last() (types.Value, bool) {
	vals := r.Values()
	if len(vals) == 0 {
		return types.Value{}, false
	}
	return vals[len(vals)-1], true
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the parser nesting limit.
func WithMaxDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine runs the pipeline. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	maxDepth int
	log      *zap.Logger
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{maxDepth: parser.DefaultMaxDepth, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scan tokenizes source.
func (e *Engine) Scan(source string) ([]token.Token, error) {
	start := time.Now()
	toks, err := scanner.Scan(source)
	e.log.Debug("scanned",
		zap.Int("tokens", len(toks)),
		zap.Int("errors", errorCount(err)),
		zap.Duration("took", time.Since(start)))
	return toks, err
}

// Parse scans and parses source. A scan failure is returned as the error
// with a nil program; otherwise the error is the program's syntax errors.
func (e *Engine) Parse(source string) (*parser.Program, []token.Token, error) {
	toks, err := e.Scan(source)
	if err != nil {
		return nil, nil, err
	}
	prog := parser.New(toks, parser.WithMaxDepth(e.maxDepth)).Parse()
	return prog, toks, prog.Err()
}

// Run scans, parses and evaluates every unit of source. Units are
// independent: a unit that fails to parse or evaluate does not stop the
// ones after it. The returned error combines all failures and is also
// available as Result.Err. Cancelling ctx stops before the next unit.
func (e *Engine) Run(ctx context.Context, source string) (*Result, error) {
	res := &Result{}

	start := time.Now()
	toks, err := scanner.Scan(source)
	res.ScanTime = time.Since(start)
	if err != nil {
		res.ScanErr = err
		e.log.Debug("scan failed", zap.Int("errors", errorCount(err)), zap.Duration("took", res.ScanTime))
		return res, err
	}
	res.Tokens = toks

	start = time.Now()
	prog := parser.New(toks, parser.WithMaxDepth(e.maxDepth)).Parse()
	res.ParseTime = time.Since(start)

	start = time.Now()
	for i, u := range prog.Units {
		if err := ctx.Err(); err != nil {
			return res, multierr.Append(res.Err(), err)
		}
		if u.Err != nil {
			res.Units = append(res.Units, UnitResult{Index: i, Err: u.Err})
			continue
		}
		v, err := eval.Evaluate(u.Expr)
		res.Units = append(res.Units, UnitResult{Index: i, Tree: u.Expr, Value: v, Err: err})
	}
	res.EvalTime = time.Since(start)

	err = res.Err()
	e.log.Debug("run finished",
		zap.Int("tokens", len(toks)),
		zap.Int("units", len(res.Units)),
		zap.Int("errors", errorCount(err)),
		zap.Duration("scan", res.ScanTime),
		zap.Duration("parse", res.ParseTime),
		zap.Duration("evaluate", res.EvalTime))
	return res, err
}

// errorCount counts leaf errors, expanding multierr combinations and error
// lists.
func errorCount(err error) int {
	n := 0
	for _, e := range multierr.Errors(err) {
		if list, ok := e.(interface{ Unwrap() []error }); ok {
			n += len(list.Unwrap())
			continue
		}
		n++
	}
	return n
}
