package toml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// parser builds a tree of map[string]any from tokens. Values are string,
// int64, float64, bool, []any or map[string]any
type parser struct {
	lex  *lexer
	cur  token
	root map[string]any
	// table opened by the latest [header]
	table map[string]any
	// tables declared by a header, to reject redeclaration
	declared map[string]bool
}

func parse(input []byte) (map[string]any, error) {
	p := &parser{
		lex:      newLexer(input),
		root:     make(map[string]any),
		declared: make(map[string]bool),
	}
	p.table = p.root
	p.next()

	for p.cur.kind != tokEOF {
		if err := p.statement(); err != nil {
			return nil, err
		}
	}
	return p.root, nil
}

func (p *parser) next() {
	p.cur = p.lex.next()
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.cur.line, Col: p.cur.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) statement() error {
	switch p.cur.kind {
	case tokNewline:
		p.next()
		return nil
	case tokLBracket:
		if err := p.header(); err != nil {
			return err
		}
	case tokBare, tokString, tokNumber:
		if err := p.keyValue(p.table); err != nil {
			return err
		}
	case tokError:
		return p.errorf("%s", p.cur.text)
	default:
		return p.errorf("unexpected %s", p.cur)
	}
	return p.endOfLine()
}

func (p *parser) endOfLine() error {
	switch p.cur.kind {
	case tokNewline:
		p.next()
		return nil
	case tokEOF:
		return nil
	}
	return p.errorf("expected end of line, got %s", p.cur)
}

// header parses [a.b] and makes it the current table
func (p *parser) header() error {
	p.next() // [
	if p.cur.kind == tokLBracket {
		return p.errorf("arrays of tables are not supported")
	}
	keys, err := p.key()
	if err != nil {
		return err
	}
	if p.cur.kind != tokRBracket {
		return p.errorf("expected ] after table name, got %s", p.cur)
	}
	p.next()

	path := strings.Join(keys, ".")
	if p.declared[path] {
		return p.errorf("table [%s] declared twice", path)
	}
	p.declared[path] = true

	t, err := p.descend(p.root, keys)
	if err != nil {
		return err
	}
	p.table = t
	return nil
}

// descend walks keys from m, creating tables as needed
func (p *parser) descend(m map[string]any, keys []string) (map[string]any, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			child := make(map[string]any)
			m[k] = child
			m = child
			continue
		}
		child, ok := v.(map[string]any)
		if !ok {
			return nil, p.errorf("key %q is already a value", k)
		}
		m = child
	}
	return m, nil
}

func (p *parser) keyValue(table map[string]any) error {
	keys, err := p.key()
	if err != nil {
		return err
	}
	if p.cur.kind != tokEqual {
		return p.errorf("expected = after key, got %s", p.cur)
	}
	p.next()

	val, err := p.value()
	if err != nil {
		return err
	}

	parent, err := p.descend(table, keys[:len(keys)-1])
	if err != nil {
		return err
	}
	last := keys[len(keys)-1]
	if _, exists := parent[last]; exists {
		return p.errorf("duplicate key %q", last)
	}
	parent[last] = val
	return nil
}

// key parses a possibly dotted key
func (p *parser) key() ([]string, error) {
	var keys []string
	for {
		switch p.cur.kind {
		case tokBare, tokString:
			keys = append(keys, p.cur.text)
		case tokNumber:
			// Bare keys may be all digits; dotted digits were lexed as one number
			keys = append(keys, strings.Split(p.cur.text, ".")...)
		default:
			return nil, p.errorf("expected key, got %s", p.cur)
		}
		p.next()
		if p.cur.kind != tokDot {
			return keys, nil
		}
		p.next()
	}
}

func (p *parser) value() (any, error) {
	tok := p.cur
	switch tok.kind {
	case tokString:
		p.next()
		return tok.text, nil
	case tokNumber:
		p.next()
		return p.number(tok)
	case tokBare:
		p.next()
		switch tok.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "inf", "+inf":
			return math.Inf(1), nil
		case "-inf":
			return math.Inf(-1), nil
		case "nan", "+nan", "-nan":
			return math.NaN(), nil
		}
		return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("invalid value %q", tok.text)}
	case tokLBracket:
		return p.array()
	case tokLBrace:
		return p.inlineTable()
	case tokError:
		return nil, p.errorf("%s", tok.text)
	}
	return nil, p.errorf("expected value, got %s", tok)
}

func (p *parser) number(tok token) (any, error) {
	text := tok.text
	if strings.Contains(text, "__") || strings.HasPrefix(text, "_") || strings.HasSuffix(text, "_") {
		return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("misplaced underscore in %q", text)}
	}
	clean := strings.ReplaceAll(text, "_", "")

	unsigned := strings.TrimLeft(clean, "+-")
	if len(unsigned) > 2 && unsigned[0] == '0' && strings.ContainsRune("xob", rune(unsigned[1])) {
		if unsigned != clean {
			return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: "sign not allowed on prefixed integer"}
		}
		// ParseInt with base 0 accepts 0x, 0o and 0b
		if n, err := strconv.ParseInt(clean, 0, 64); err == nil {
			return n, nil
		}
		return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("invalid integer %q", text)}
	}

	if strings.ContainsAny(clean, ".eE") {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("invalid float %q", text)}
		}
		return f, nil
	}
	if len(unsigned) > 1 && unsigned[0] == '0' {
		return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("leading zero in %q", text)}
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf("invalid integer %q", text)}
	}
	return n, nil
}

// array parses [v, v, ...]; newlines and a trailing comma are allowed
func (p *parser) array() ([]any, error) {
	p.next() // [
	arr := make([]any, 0)
	for {
		p.skipNewlines()
		if p.cur.kind == tokRBracket {
			p.next()
			return arr, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
		p.skipNewlines()
		switch p.cur.kind {
		case tokComma:
			p.next()
		case tokRBracket:
		default:
			return nil, p.errorf("expected , or ] in array, got %s", p.cur)
		}
	}
}

// inlineTable parses { k = v, ... } on one line
func (p *parser) inlineTable() (map[string]any, error) {
	p.next() // {
	m := make(map[string]any)
	if p.cur.kind == tokRBrace {
		p.next()
		return m, nil
	}
	for {
		if err := p.keyValue(m); err != nil {
			return nil, err
		}
		switch p.cur.kind {
		case tokComma:
			p.next()
		case tokRBrace:
			p.next()
			return m, nil
		default:
			return nil, p.errorf("expected , or } in inline table, got %s", p.cur)
		}
	}
}

func (p *parser) skipNewlines() {
	for p.cur.kind == tokNewline {
		p.next()
	}
}
