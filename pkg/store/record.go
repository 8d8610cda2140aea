package store

import (
	"errors"

	"github.com/lemonberrylabs/loxide/pkg/ast"
	"github.com/lemonberrylabs/loxide/pkg/diag"
	"github.com/lemonberrylabs/loxide/pkg/parser"
	"github.com/lemonberrylabs/loxide/pkg/runtime"
	"github.com/lemonberrylabs/loxide/pkg/scanner"
	"github.com/lemonberrylabs/loxide/pkg/types"
)

// Unit is the stored outcome of one top-level expression.
type Unit struct {
	Tree  string       `json:"tree,omitempty"` // canonical printed form
	Kind  string       `json:"kind,omitempty"` // value kind
	Value *types.Value `json:"value,omitempty"`
	Error *ErrorRecord `json:"error,omitempty"`
}

// ErrorRecord is a serialisable error. Line and Column are 1-based and
// zero when unknown.
type ErrorRecord struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Source  string `json:"sourceLine,omitempty"`
}

// NewEvaluation converts a pipeline result into a storable evaluation.
func NewEvaluation(source string, res *runtime.Result) *Evaluation {
	ev := &Evaluation{
		Source:   source,
		Tokens:   len(res.Tokens),
		Units:    []Unit{},
		Duration: res.ScanTime + res.ParseTime + res.EvalTime,
	}

	for _, e := range diag.Flatten(res.ScanErr) {
		ev.Errors = append(ev.Errors, NewErrorRecord(e))
	}

	ok := 0
	for _, u := range res.Units {
		var unit Unit
		if u.Tree != nil {
			unit.Tree = ast.Print(u.Tree)
		}
		if u.Err != nil {
			rec := NewErrorRecord(u.Err)
			unit.Error = &rec
			ev.Errors = append(ev.Errors, rec)
		} else {
			v := u.Value
			unit.Kind = v.Type().String()
			unit.Value = &v
			ok++
		}
		ev.Units = append(ev.Units, unit)
	}

	switch {
	case len(ev.Errors) == 0:
		ev.State = EvaluationSucceeded
	case ok > 0:
		ev.State = EvaluationPartial
	default:
		ev.State = EvaluationFailed
	}
	return ev
}

// NewErrorRecord describes a scan, parse or runtime error.
func NewErrorRecord(err error) ErrorRecord {
	rec := ErrorRecord{Message: err.Error(), Stage: "unknown", Kind: "Error"}

	var serr *scanner.Error
	var perr *parser.Error
	var rerr *types.RuntimeError
	switch {
	case errors.As(err, &serr):
		rec.Stage, rec.Kind = string(runtime.StageScan), serr.Kind.String()
	case errors.As(err, &perr):
		rec.Stage, rec.Kind = string(runtime.StageParse), perr.Kind.String()
	case errors.As(err, &rerr):
		rec.Stage = string(runtime.StageEvaluate)
		if len(rerr.Tags) > 0 {
			rec.Kind = rerr.Tags[len(rerr.Tags)-1]
		}
	}

	var pe diag.Positioned
	if errors.As(err, &pe) {
		rec.Line, rec.Column = pe.Position()
		rec.Source = pe.SourceLine()
	}
	return rec
}
