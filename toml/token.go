package toml

import "fmt"

// tokenKind classifies lexical tokens
type tokenKind uint8

const (
	tokError tokenKind = iota
	tokEOF
	tokNewline
	tokBare    // bare key, or true/false/inf/nan when used as a value
	tokString  // basic or literal string, already unescaped
	tokNumber  // integer or float literal, underscores intact
	tokEqual   // =
	tokDot     // .
	tokComma   // ,
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "newline"
	case tokError:
		return t.text
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	}
	return fmt.Sprintf("%q", t.text)
}

// ParseError reports a syntax or structure error with its position
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("toml: line %d col %d: %s", e.Line, e.Col, e.Msg)
}
