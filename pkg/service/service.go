// Package service implements the operations shared by the HTTP and gRPC
// servers: scanning, parsing and evaluating submitted source, and managing
// the evaluation history.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lemonberrylabs/loxide/pkg/ast"
	"github.com/lemonberrylabs/loxide/pkg/eval"
	"github.com/lemonberrylabs/loxide/pkg/runtime"
	"github.com/lemonberrylabs/loxide/pkg/store"
	"github.com/lemonberrylabs/loxide/pkg/token"
	"github.com/lemonberrylabs/loxide/pkg/types"
)

var (
	// ErrInvalidArgument marks malformed requests.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSourceTooLarge marks source longer than the configured limit.
	ErrSourceTooLarge = errors.New("source too large")
)

// ScriptExt is the file extension LoadDir picks up.
const ScriptExt = ".lox"

// Service wires the pipeline engine to the evaluation store.
type Service struct {
	engine         *runtime.Engine
	store          *store.Store
	log            *zap.Logger
	maxSourceBytes int
}

// New creates a service. maxSourceBytes <= 0 disables the size check.
func New(engine *runtime.Engine, s *store.Store, log *zap.Logger, maxSourceBytes int) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{engine: engine, store: s, log: log, maxSourceBytes: maxSourceBytes}
}

// TokenRecord is the serialisable form of a token. Line and Column are
// 1-based.
type TokenRecord struct {
	Type   string      `json:"type"`
	Lexeme string      `json:"lexeme,omitempty"`
	Value  interface{} `json:"value,omitempty"`
	Line   int         `json:"line"`
	Column int         `json:"column"`
}

// NewTokenRecord converts a token.
func NewTokenRecord(tok token.Token) TokenRecord {
	rec := TokenRecord{
		Type:   tok.Type.String(),
		Lexeme: tok.Lexeme,
		Line:   tok.Pos.Line + 1,
		Column: tok.Pos.Column + 1,
	}
	switch tok.Type {
	case token.Number:
		rec.Value = tok.Num
	case token.String, token.Identifier:
		rec.Value = tok.Str
	}
	return rec
}

// ParsedUnit is one top-level unit of a parsed program. Partial holds the
// printed partial tree of a failed unit, when one exists.
type ParsedUnit struct {
	Tree    string             `json:"tree,omitempty"`
	Source  string             `json:"source,omitempty"`
	Partial string             `json:"partial,omitempty"`
	Error   *store.ErrorRecord `json:"error,omitempty"`
}

func (s *Service) checkSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidArgument)
	}
	if s.maxSourceBytes > 0 && len(source) > s.maxSourceBytes {
		return fmt.Errorf("%w: %d bytes exceeds the limit of %d", ErrSourceTooLarge, len(source), s.maxSourceBytes)
	}
	return nil
}

// Scan tokenizes source. Lexical errors are returned as a
// scanner.ErrorList.
func (s *Service) Scan(source string) ([]TokenRecord, error) {
	if err := s.checkSource(source); err != nil {
		return nil, err
	}
	toks, err := s.engine.Scan(source)
	if err != nil {
		return nil, err
	}
	out := make([]TokenRecord, len(toks))
	for i, tok := range toks {
		out[i] = NewTokenRecord(tok)
	}
	return out, nil
}

// Parse scans and parses source. Lexical errors are returned as an error;
// syntax errors are reported per unit.
func (s *Service) Parse(source string) ([]ParsedUnit, error) {
	if err := s.checkSource(source); err != nil {
		return nil, err
	}
	prog, _, err := s.engine.Parse(source)
	if prog == nil {
		return nil, err
	}
	units := make([]ParsedUnit, 0, len(prog.Units))
	for _, u := range prog.Units {
		if u.Err != nil {
			rec := store.NewErrorRecord(u.Err)
			pu := ParsedUnit{Error: &rec}
			if u.Err.Partial != nil {
				pu.Partial = ast.Print(u.Err.Partial)
			}
			units = append(units, pu)
			continue
		}
		units = append(units, ParsedUnit{Tree: ast.Print(u.Expr), Source: ast.Source(u.Expr)})
	}
	return units, nil
}

// Evaluate runs source, stores the evaluation and returns it. When expect
// names a value kind, every unit whose value has another kind is recorded
// as a type error.
func (s *Service) Evaluate(ctx context.Context, source, expect string) (*store.Evaluation, error) {
	if err := s.checkSource(source); err != nil {
		return nil, err
	}
	var want types.ValueType
	if expect != "" {
		k, err := types.ParseValueType(expect)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		want = k
	}

	res, err := s.engine.Run(ctx, source)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, ctx.Err()
	}
	if expect != "" {
		for i, u := range res.Units {
			if u.Err == nil {
				res.Units[i].Err = eval.Expect(u.Value, want)
			}
		}
	}

	ev := s.store.Add(store.NewEvaluation(source, res))
	s.log.Info("evaluation stored",
		zap.String("id", ev.ID),
		zap.String("state", string(ev.State)),
		zap.Int("units", len(ev.Units)),
		zap.Int("errors", len(ev.Errors)))
	return ev, nil
}

// Get returns a stored evaluation.
func (s *Service) Get(id string) (*store.Evaluation, error) {
	return s.store.Get(id)
}

// List returns stored evaluations, newest first.
func (s *Service) List(limit int) []*store.Evaluation {
	return s.store.List(limit)
}

// Delete removes a stored evaluation.
func (s *Service) Delete(id string) error {
	return s.store.Delete(id)
}

// LoadDir evaluates every script file in dir, in name order, and stores
// the results. Unreadable files are skipped with a warning. It returns the
// number of scripts stored.
func (s *Service) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading scripts directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ScriptExt {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			s.log.Warn("could not read script", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		ev, err := s.Evaluate(ctx, string(data), "")
		if err != nil {
			s.log.Warn("could not evaluate script", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		loaded++
		s.log.Info("loaded script", zap.String("file", entry.Name()), zap.String("id", ev.ID))
	}
	s.log.Info("scripts loaded", zap.Int("count", loaded), zap.String("dir", dir))
	return loaded, nil
}
