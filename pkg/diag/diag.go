// Package diag renders scan, parse and evaluation errors for terminals:
// the message, the offending source line and a caret under the column.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rivo/uniseg"
	"go.uber.org/multierr"
)

// Positioned is implemented by errors that know where in the source they
// occurred. Line and column are 1-based; zero means unknown.
type Positioned interface {
	error
	Position() (line, col int)
	SourceLine() string
}

// Printer writes diagnostics to an output stream.
type Printer struct {
	w      io.Writer
	label  *color.Color
	gutter *color.Color
	caret  *color.Color
}

// New creates a Printer. Colour escapes are written only when useColor is
// set, independent of whether w is a terminal.
func New(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w:      w,
		label:  color.New(color.FgRed, color.Bold),
		gutter: color.New(color.FgCyan),
		caret:  color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.label, p.gutter, p.caret} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Report writes one block per error contained in err. Lists and combined
// errors are expanded.
func (p *Printer) Report(err error) {
	for _, e := range Flatten(err) {
		fmt.Fprint(p.w, p.Format(e))
	}
}

// Format renders a single error.
func (p *Printer) Format(err error) string {
	var sb strings.Builder
	sb.WriteString(p.label.Sprint("error"))
	sb.WriteString(": ")
	sb.WriteString(err.Error())
	sb.WriteByte('\n')

	var pe Positioned
	if !errors.As(err, &pe) {
		return sb.String()
	}
	line, col := pe.Position()
	src := pe.SourceLine()
	if line == 0 || src == "" {
		return sb.String()
	}

	num := fmt.Sprintf("%d", line)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(&sb, " %s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), src)
	fmt.Fprintf(&sb, " %s %s %s%s\n", pad, p.gutter.Sprint("|"), indent(src, col-1), p.caret.Sprint("^"))
	return sb.String()
}

// Flatten expands lists of errors (anything with Unwrap() []error,
// including multierr combinations) into their leaves, in order.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if errs := multierr.Errors(err); len(errs) > 1 {
		var out []error
		for _, e := range errs {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	multi, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range multi.Unwrap() {
		out = append(out, Flatten(e)...)
	}
	return out
}

// indent returns whitespace as wide as the first n grapheme clusters of
// line. Tabs are kept so the caret lines up under them.
func indent(line string, n int) string {
	var sb strings.Builder
	gr := uniseg.NewGraphemes(line)
	for i := 0; i < n; i++ {
		if !gr.Next() {
			sb.WriteByte(' ')
			continue
		}
		if g := gr.Str(); g == "\t" {
			sb.WriteByte('\t')
		} else {
			sb.WriteString(strings.Repeat(" ", uniseg.StringWidth(g)))
		}
	}
	return sb.String()
}
