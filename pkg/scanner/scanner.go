// Package scanner turns source text into the token sequence consumed by the
// parser. Scanning works line by line and, within a line, over extended
// grapheme clusters so that identifiers and strings containing combining
// characters are kept intact.
package scanner

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/lemonberrylabs/loxide/pkg/token"
)

// Scanner tokenizes one source unit.
type Scanner struct {
	lines []string

	line      int      // index of the current line, -1 before the first
	text      string   // text of the current line
	graphemes []string // grapheme clusters of the current line
	cur       int      // index of the next grapheme to read

	tokens []token.Token
	errors ErrorList
}

// New creates a scanner for the given source.
func New(source string) *Scanner {
	return &Scanner{lines: splitLines(source), line: -1}
}

// Scan tokenizes source. It returns the tokens, always terminated by a single
// End token, or an ErrorList holding every lexical error in the source.
func Scan(source string) ([]token.Token, error) {
	return New(source).Scan()
}

// Scan consumes the whole source. Lexical errors never stop scanning; when any
// were recorded the token list is discarded and the errors are returned.
func (s *Scanner) Scan() ([]token.Token, error) {
	for s.nextLine() {
		for s.cur < len(s.graphemes) {
			s.scanToken()
		}
	}

	end := token.New(token.End)
	if s.line >= 0 {
		end = end.At(token.Pos{Line: s.line, Column: len(s.graphemes)}, s.text)
	}
	s.tokens = append(s.tokens, end)

	if len(s.errors) > 0 {
		return nil, s.errors
	}
	return s.tokens, nil
}

// nextLine moves to the next source line. At the last line it returns false
// and leaves the scanner on that line.
func (s *Scanner) nextLine() bool {
	if s.line+1 >= len(s.lines) {
		return false
	}
	s.line++
	s.text = s.lines[s.line]
	s.graphemes = splitGraphemes(s.text)
	s.cur = 0
	return true
}

func (s *Scanner) scanToken() {
	start := s.cur
	g := s.advance()
	switch g {
	case "(":
		s.emit(token.New(token.LeftParen), start)
	case ")":
		s.emit(token.New(token.RightParen), start)
	case "{":
		s.emit(token.New(token.LeftBrace), start)
	case "}":
		s.emit(token.New(token.RightBrace), start)
	case ",":
		s.emit(token.New(token.Comma), start)
	case ".":
		s.emit(token.New(token.Dot), start)
	case "-":
		s.emit(token.New(token.Minus), start)
	case "+":
		s.emit(token.New(token.Plus), start)
	case ";":
		s.emit(token.New(token.Semicolon), start)
	case "*":
		s.emit(token.New(token.Star), start)
	case "!":
		s.emit(token.New(s.either("=", token.BangEqual, token.Bang)), start)
	case "=":
		s.emit(token.New(s.either("=", token.EqualEqual, token.Equal)), start)
	case "<":
		s.emit(token.New(s.either("=", token.LessEqual, token.Less)), start)
	case ">":
		s.emit(token.New(s.either("=", token.GreaterEqual, token.Greater)), start)
	case "/":
		if s.match("/") {
			// Comment runs to the end of the line.
			s.cur = len(s.graphemes)
		} else {
			s.emit(token.New(token.Slash), start)
		}
	case `"`:
		s.string(start)
	case " ", "\t", "\r":
	default:
		r := firstRune(g)
		switch {
		case unicode.IsDigit(r):
			s.number(start)
		case unicode.IsLetter(r):
			s.identifier(start)
		default:
			s.error(UnexpectedChar, g, start)
		}
	}
}

// string reads a string literal whose opening quote is at start. The literal
// may continue on following lines; line breaks are not part of its value.
func (s *Scanner) string(start int) {
	pos := token.Pos{Line: s.line, Column: start}
	line := s.text

	var sb strings.Builder
	for {
		if s.cur >= len(s.graphemes) {
			if !s.nextLine() {
				s.errors = append(s.errors, &Error{
					Kind: UnterminatedString,
					Text: `"` + sb.String(),
					Line: s.text,
					Pos:  token.Pos{Line: s.line, Column: len(s.graphemes)},
				})
				return
			}
			continue
		}
		g := s.advance()
		if g == `"` {
			break
		}
		sb.WriteString(g)
	}

	s.tokens = append(s.tokens, token.NewString(sb.String()).At(pos, line))
}

// number reads the longest digit run, plus a fractional part when a '.' is
// followed by at least one digit.
func (s *Scanner) number(start int) {
	for s.isDigit(s.cur) {
		s.cur++
	}
	if s.peek(s.cur) == "." && s.isDigit(s.cur+1) {
		s.cur++
		for s.isDigit(s.cur) {
			s.cur++
		}
	}

	lexeme := s.lexeme(start)
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		s.error(NumberLiteralParse, lexeme, start)
		return
	}
	s.emit(token.NewNumber(lexeme, v), start)
}

func (s *Scanner) identifier(start int) {
	for s.cur < len(s.graphemes) {
		r := firstRune(s.graphemes[s.cur])
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			break
		}
		s.cur++
	}

	word := s.lexeme(start)
	if t, ok := token.Keywords[word]; ok {
		s.emit(token.New(t), start)
		return
	}
	s.emit(token.NewIdentifier(word), start)
}

func (s *Scanner) advance() string {
	g := s.graphemes[s.cur]
	s.cur++
	return g
}

// match consumes the next grapheme if it equals want.
func (s *Scanner) match(want string) bool {
	if s.peek(s.cur) != want {
		return false
	}
	s.cur++
	return true
}

// either returns two when the next grapheme is next (consuming it), and one
// otherwise.
func (s *Scanner) either(next string, two, one token.Type) token.Type {
	if s.match(next) {
		return two
	}
	return one
}

func (s *Scanner) peek(i int) string {
	if i >= len(s.graphemes) {
		return ""
	}
	return s.graphemes[i]
}

func (s *Scanner) isDigit(i int) bool {
	g := s.peek(i)
	return g != "" && unicode.IsDigit(firstRune(g))
}

func (s *Scanner) lexeme(start int) string {
	return strings.Join(s.graphemes[start:s.cur], "")
}

func (s *Scanner) emit(tok token.Token, start int) {
	if tok.Type != token.String && tok.Type != token.Number && tok.Type != token.Identifier {
		tok.Lexeme = s.lexeme(start)
	}
	s.tokens = append(s.tokens, tok.At(token.Pos{Line: s.line, Column: start}, s.text))
}

func (s *Scanner) error(kind ErrorKind, text string, start int) {
	s.errors = append(s.errors, &Error{
		Kind: kind,
		Text: text,
		Line: s.text,
		Pos:  token.Pos{Line: s.line, Column: start},
	})
}

// splitLines splits source into lines the way a line reader would: no
// trailing empty line after a final newline and no carriage returns.
func splitLines(source string) []string {
	if source == "" {
		return nil
	}
	lines := strings.Split(source, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func splitGraphemes(s string) []string {
	out := make([]string, 0, len(s))
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}

func firstRune(g string) rune {
	r, _ := utf8.DecodeRuneInString(g)
	return r
}
