package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonberrylabs/loxide/pkg/diag"
	"github.com/lemonberrylabs/loxide/pkg/runtime"
)

type fakeReader struct {
	lines   []string
	prompts []string
	history []string
	err     error
}

func (f *fakeReader) Prompt(p string) (string, error) {
	f.prompts = append(f.prompts, p)
	if len(f.lines) == 0 {
		if f.err != nil {
			return "", f.err
		}
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeReader) AppendHistory(item string) {
	f.history = append(f.history, item)
}

func newSession(opts ...Option) (*Session, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(runtime.NewEngine(), &out, diag.New(&errOut, false), opts...), &out, &errOut
}

func TestRunPrintsValues(t *testing.T) {
	s, out, errOut := newSession()
	in := &fakeReader{lines: []string{"1 + 2 * 3", "", `"a" + "b"`, "1 < 2; 3"}}

	require.NoError(t, s.Run(context.Background(), in))
	assert.Equal(t, "7\nab\ntrue\n3\n\n", out.String())
	assert.Empty(t, errOut.String())
	assert.Equal(t, []string{"1 + 2 * 3", `"a" + "b"`, "1 < 2; 3"}, in.history)
	assert.Len(t, in.prompts, 5)
	assert.Equal(t, "> ", in.prompts[0])
}

func TestRunKeepsGoingAfterErrors(t *testing.T) {
	s, out, errOut := newSession(WithPrompt("lox> "))
	in := &fakeReader{lines: []string{"true + 1", "(1 + 2", "1 @", "!true"}}

	require.NoError(t, s.Run(context.Background(), in))
	assert.Equal(t, "false\n\n", out.String())
	assert.Contains(t, errOut.String(), "unsupported operand types for '+': bool and number")
	assert.Contains(t, errOut.String(), " 1 | (1 + 2\n")
	assert.Contains(t, errOut.String(), "unexpected character '@'")
	assert.Equal(t, "lox> ", in.prompts[0])
}

func TestMetaCommands(t *testing.T) {
	s, out, _ := newSession()
	in := &fakeReader{lines: []string{":tokens", "1", ":tokens", ":ast", "-2", ":help", ":bogus", ":quit", "3"}}

	require.NoError(t, s.Run(context.Background(), in))
	want := "tokens on\n" +
		"NUMBER(1) END\n1\n" +
		"tokens off\n" +
		"ast on\n" +
		"(- 2)\n-2\n" +
		help +
		"unknown command :bogus. Type :help for a list.\n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, []string{"3"}, in.lines, ":quit stops reading")
}

func TestOptions(t *testing.T) {
	s, out, _ := newSession(WithTokens(true), WithAST(true))
	require.NoError(t, s.Eval(context.Background(), "(1)"))
	assert.Equal(t, "LEFT_PAREN NUMBER(1) RIGHT_PAREN END\n(1)\n1\n", out.String())
}

func TestEvalReturnsErrors(t *testing.T) {
	s, out, errOut := newSession()
	err := s.Eval(context.Background(), "1; -true; 2")
	require.Error(t, err)
	assert.Equal(t, "1\n2\n", out.String())
	assert.Contains(t, errOut.String(), "error: ")
}

func TestPromptAbortContinues(t *testing.T) {
	s, _, _ := newSession()
	in := &abortOnce{fakeReader: fakeReader{lines: []string{":quit"}}}
	require.NoError(t, s.Run(context.Background(), in))
	assert.True(t, in.aborted)
}

func TestReadErrorStops(t *testing.T) {
	s, _, _ := newSession()
	boom := errors.New("boom")
	err := s.Run(context.Background(), &fakeReader{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestCancelledContext(t *testing.T) {
	s, _, _ := newSession()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Run(ctx, &fakeReader{lines: []string{"1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

type abortOnce struct {
	fakeReader
	aborted bool
}

func (a *abortOnce) Prompt(p string) (string, error) {
	if !a.aborted {
		a.aborted = true
		return "", liner.ErrPromptAborted
	}
	return a.fakeReader.Prompt(p)
}
