package owl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokEquals
	tokIRI
	tokName
	tokLiteral
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "EOF"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokEquals:
		return "="
	case tokIRI:
		return "IRI"
	case tokName:
		return "name"
	case tokLiteral:
		return "literal"
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// SyntaxError reports malformed functional-syntax input.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

type lexer struct {
	r    *bufio.Reader
	line int
	col  int
	peek *token
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReader(r), line: 1}
}

func (l *lexer) read() (rune, error) {
	c, _, err := l.r.ReadRune()
	if err != nil {
		return 0, err
	}
	if c == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return c, nil
}

func (l *lexer) unread(c rune) {
	_ = l.r.UnreadRune()
	if c == '\n' {
		l.line--
	} else {
		l.col--
	}
}

func (l *lexer) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Line: l.line, Col: l.col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) Peek() (token, error) {
	if l.peek == nil {
		t, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.peek = &t
	}
	return *l.peek, nil
}

func (l *lexer) Next() (token, error) {
	if l.peek != nil {
		t := *l.peek
		l.peek = nil
		return t, nil
	}
	return l.scan()
}

func (l *lexer) scan() (token, error) {
	for {
		c, err := l.read()
		if err == io.EOF {
			return token{kind: tokEOF, line: l.line, col: l.col}, nil
		}
		if err != nil {
			return token{}, err
		}
		if unicode.IsSpace(c) {
			continue
		}
		if c == '#' {
			if err := l.skipLine(); err != nil {
				return token{}, err
			}
			continue
		}
		line, col := l.line, l.col
		switch c {
		case '(':
			return token{kind: tokLParen, text: "(", line: line, col: col}, nil
		case ')':
			return token{kind: tokRParen, text: ")", line: line, col: col}, nil
		case '=':
			return token{kind: tokEquals, text: "=", line: line, col: col}, nil
		case '<':
			text, err := l.until('>')
			if err != nil {
				return token{}, err
			}
			return token{kind: tokIRI, text: text, line: line, col: col}, nil
		case '"':
			text, err := l.literal()
			if err != nil {
				return token{}, err
			}
			return token{kind: tokLiteral, text: text, line: line, col: col}, nil
		}
		l.unread(c)
		text, err := l.name()
		if err != nil {
			return token{}, err
		}
		if text == "" {
			return token{}, l.errorf("unexpected character %q", c)
		}
		return token{kind: tokName, text: text, line: line, col: col}, nil
	}
}

func (l *lexer) skipLine() error {
	for {
		c, err := l.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if c == '\n' {
			return nil
		}
	}
}

func (l *lexer) until(end rune) (string, error) {
	var b strings.Builder
	for {
		c, err := l.read()
		if err == io.EOF {
			return "", l.errorf("unterminated IRI")
		}
		if err != nil {
			return "", err
		}
		if c == end {
			return b.String(), nil
		}
		b.WriteRune(c)
	}
}

// literal scans a quoted string including an optional @lang or ^^datatype
// suffix and returns it in its lexical form.
func (l *lexer) literal() (string, error) {
	var b strings.Builder
	b.WriteRune('"')
	escaped := false
	for {
		c, err := l.read()
		if err == io.EOF {
			return "", l.errorf("unterminated literal")
		}
		if err != nil {
			return "", err
		}
		b.WriteRune(c)
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			break
		}
	}

	c, err := l.read()
	if err == io.EOF {
		return b.String(), nil
	}
	if err != nil {
		return "", err
	}
	switch c {
	case '@':
		b.WriteRune('@')
		lang, err := l.name()
		if err != nil {
			return "", err
		}
		b.WriteString(lang)
	case '^':
		next, err := l.read()
		if err != nil || next != '^' {
			return "", l.errorf("malformed datatype suffix")
		}
		b.WriteString("^^")
		dt, err := l.read()
		if err != nil {
			return "", l.errorf("malformed datatype suffix")
		}
		if dt == '<' {
			iri, err := l.until('>')
			if err != nil {
				return "", err
			}
			b.WriteString("<" + iri + ">")
		} else {
			l.unread(dt)
			name, err := l.name()
			if err != nil {
				return "", err
			}
			b.WriteString(name)
		}
	default:
		l.unread(c)
	}
	return b.String(), nil
}

func (l *lexer) name() (string, error) {
	var b strings.Builder
	for {
		c, err := l.read()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		if unicode.IsSpace(c) || strings.ContainsRune("()<>\"=^@#", c) {
			l.unread(c)
			return b.String(), nil
		}
		b.WriteRune(c)
	}
}
