package toml

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var punctuation = map[byte]tokenKind{
	'\n': tokNewline, '=': tokEqual, '.': tokDot, ',': tokComma,
	'[': tokLBracket, ']': tokRBracket, '{': tokLBrace, '}': tokRBrace,
}

// lexer splits TOML input into tokens. Value-ness of bare words and
// numbers is decided by the parser from context
type lexer struct {
	input []byte
	pos   int
	line  int
	col   int
}

func newLexer(input []byte) *lexer {
	return &lexer{input: input, line: 1, col: 1}
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off >= len(l.input) {
		return 0
	}
	return l.input[l.pos+off]
}

func (l *lexer) advance() {
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *lexer) emit(kind tokenKind, text string, line, col int) token {
	return token{kind: kind, text: text, line: line, col: col}
}

func (l *lexer) errorf(line, col int, msg string) token {
	return token{kind: tokError, text: msg, line: line, col: col}
}

// next returns the next token. Comments are dropped here
func (l *lexer) next() token {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == ' ' || c == '\t' || c == '\r' {
			l.advance()
			continue
		}
		if c == '#' {
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance()
			}
			continue
		}
		break
	}

	line, col := l.line, l.col
	if l.pos >= len(l.input) {
		return l.emit(tokEOF, "", line, col)
	}

	c := l.input[l.pos]
	if kind, ok := punctuation[c]; ok {
		l.advance()
		return l.emit(kind, string(c), line, col)
	}

	switch {
	case c == '"':
		return l.basicString(line, col)
	case c == '\'':
		return l.literalString(line, col)
	case isBareChar(c) || c == '+':
		return l.word(line, col)
	}

	l.advance()
	return l.errorf(line, col, "unexpected character "+strconv.QuoteRune(rune(c)))
}

// word reads a bare key or number. A '.' continues the word only when it
// sits between digits, so "1.5" is one token and "a.b" is three
func (l *lexer) word(line, col int) token {
	start := l.pos
	numeric := isDigit(l.input[l.pos]) || l.input[l.pos] == '+' || l.input[l.pos] == '-'
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if isBareChar(c) || c == '+' {
			l.advance()
			continue
		}
		if c == '.' && numeric && isDigit(l.peekByte(1)) && isDigit(l.input[l.pos-1]) {
			l.advance()
			continue
		}
		break
	}
	text := string(l.input[start:l.pos])
	if looksNumeric(text) {
		return l.emit(tokNumber, text, line, col)
	}
	return l.emit(tokBare, text, line, col)
}

func (l *lexer) basicString(line, col int) token {
	l.advance() // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case '"':
			l.advance()
			return l.emit(tokString, sb.String(), line, col)
		case '\n':
			return l.errorf(line, col, "newline in string")
		case '\\':
			l.advance()
			if l.pos >= len(l.input) {
				return l.errorf(line, col, "unterminated string")
			}
			r, ok := l.escape()
			if !ok {
				return l.errorf(l.line, l.col, "invalid escape")
			}
			sb.WriteRune(r)
		default:
			r, w := utf8.DecodeRune(l.input[l.pos:])
			sb.WriteRune(r)
			for range w {
				l.advance()
			}
		}
	}
	return l.errorf(line, col, "unterminated string")
}

// escape decodes the escape body at l.pos (the backslash is consumed)
func (l *lexer) escape() (rune, bool) {
	c := l.input[l.pos]
	l.advance()
	switch c {
	case 'b':
		return '\b', true
	case 't':
		return '\t', true
	case 'n':
		return '\n', true
	case 'f':
		return '\f', true
	case 'r':
		return '\r', true
	case '"':
		return '"', true
	case '\\':
		return '\\', true
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		if l.pos+n > len(l.input) {
			return 0, false
		}
		v, err := strconv.ParseUint(string(l.input[l.pos:l.pos+n]), 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return 0, false
		}
		for range n {
			l.advance()
		}
		return rune(v), true
	}
	return 0, false
}

func (l *lexer) literalString(line, col int) token {
	l.advance()
	start := l.pos
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\'':
			text := string(l.input[start:l.pos])
			l.advance()
			return l.emit(tokString, text, line, col)
		case '\n':
			return l.errorf(line, col, "newline in string")
		}
		l.advance()
	}
	return l.errorf(line, col, "unterminated string")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isBareChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || isDigit(c) || c == '_' || c == '-'
}

// looksNumeric reports whether a word should be treated as a number literal
func looksNumeric(s string) bool {
	t := strings.TrimLeft(s, "+-")
	if t == "" || !isDigit(t[0]) {
		return false
	}
	if len(t) > 2 && t[0] == '0' && strings.ContainsRune("xob", rune(t[1])) {
		return true
	}
	for i := 0; i < len(t); i++ {
		c := t[i]
		if !(isDigit(c) || c == '_' || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-') {
			return false
		}
	}
	return true
}
