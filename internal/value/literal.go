package value

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// parseLiteral understands the language-literal convention test-case
// authors use: numbers, quoted strings, booleans, none, lists, dicts and
// tuples, including a bare top-level tuple such as `2,3`.
func parseLiteral(input string) (Value, error) {
	p := &literalParser{src: input}
	p.skipSpace()
	first, err := p.parseExpr()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.eof() {
		return first, nil
	}
	// bare tuple: `expr, expr, ...` with optional trailing comma
	items := []Value{first}
	for !p.eof() {
		if err := p.expect(','); err != nil {
			return Value{}, err
		}
		p.skipSpace()
		if p.eof() {
			break
		}
		item, err := p.parseExpr()
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
		p.skipSpace()
	}
	return Seq(items...), nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) eof() bool { return p.pos >= len(p.src) }

func (p *literalParser) peek() byte { return p.src[p.pos] }

func (p *literalParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *literalParser) expect(c byte) error {
	if p.eof() || p.src[p.pos] != c {
		return fmt.Errorf("expected %q at offset %d", string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *literalParser) parseExpr() (Value, error) {
	p.skipSpace()
	if p.eof() {
		return Value{}, fmt.Errorf("unexpected end of input at offset %d", p.pos)
	}
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '[':
		return p.parseList()
	case c == '(':
		return p.parseTuple()
	case c == '{':
		return p.parseBraced()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseIdent()
	}
}

func (p *literalParser) parseString() (Value, error) {
	quote := p.peek()
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case quote:
			return Text(b.String()), nil
		case '\\':
			if p.eof() {
				return Value{}, fmt.Errorf("dangling escape at offset %d", p.pos)
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(esc)
			case '0':
				b.WriteByte(0)
			default:
				// unknown escapes pass through verbatim, like the source convention
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
		}
	}
	return Value{}, fmt.Errorf("unterminated string at offset %d", p.pos)
}

func (p *literalParser) parseNumber() (Value, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	for !p.eof() {
		c := p.peek()
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && p.pos > start {
			prev := p.src[p.pos-1]
			if prev == 'e' || prev == 'E' {
				p.pos++
				continue
			}
		}
		break
	}
	text := p.src[start:p.pos]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, fmt.Errorf("bad number %q at offset %d", text, start)
	}
	return Number(f), nil
}

func (p *literalParser) parseIdent() (Value, error) {
	start := p.pos
	for !p.eof() {
		c := rune(p.src[p.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
			p.pos++
			continue
		}
		break
	}
	switch p.src[start:p.pos] {
	case "True":
		return Bool(true), nil
	case "False":
		return Bool(false), nil
	case "None":
		return Null(), nil
	}
	return Value{}, fmt.Errorf("unknown token at offset %d", start)
}

func (p *literalParser) parseList() (Value, error) {
	p.pos++ // consume '['
	items, _, err := p.parseElements(']')
	if err != nil {
		return Value{}, err
	}
	return Seq(items...), nil
}

// parseTuple handles `(a, b)` as a sequence and `(a)` as a plain
// parenthesized value; `(a,)` stays a one-element sequence.
func (p *literalParser) parseTuple() (Value, error) {
	p.pos++ // consume '('
	items, trailingComma, err := p.parseElements(')')
	if err != nil {
		return Value{}, err
	}
	if len(items) == 1 && !trailingComma {
		return items[0], nil
	}
	return Seq(items...), nil
}

// parseBraced handles both dict and set literals. Sets collapse into
// sequences since the variant has no separate set shape.
func (p *literalParser) parseBraced() (Value, error) {
	p.pos++ // consume '{'
	p.skipSpace()
	if !p.eof() && p.peek() == '}' {
		p.pos++
		return Mapping(nil), nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if !p.eof() && p.peek() == ':' {
		return p.parseDictRest(first)
	}
	// set literal
	items := []Value{first}
	for {
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("unterminated set at offset %d", p.pos)
		}
		if p.peek() == '}' {
			p.pos++
			return Seq(items...), nil
		}
		if err := p.expect(','); err != nil {
			return Value{}, err
		}
		p.skipSpace()
		if !p.eof() && p.peek() == '}' {
			p.pos++
			return Seq(items...), nil
		}
		item, err := p.parseExpr()
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
}

func (p *literalParser) parseDictRest(firstKey Value) (Value, error) {
	entries := []Entry{}
	key := firstKey
	for {
		if err := p.expect(':'); err != nil {
			return Value{}, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, Entry{Key: mappingKey(key), Val: val})
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("unterminated dict at offset %d", p.pos)
		}
		if p.peek() == '}' {
			p.pos++
			return Mapping(entries), nil
		}
		if err := p.expect(','); err != nil {
			return Value{}, err
		}
		p.skipSpace()
		if !p.eof() && p.peek() == '}' {
			p.pos++
			return Mapping(entries), nil
		}
		key, err = p.parseExpr()
		if err != nil {
			return Value{}, err
		}
		p.skipSpace()
	}
}

// mappingKey flattens a parsed key into its string form. Non-text keys
// keep their canonical rendering so `{1: "a"}` stays addressable.
func mappingKey(v Value) string {
	if s, ok := v.Str(); ok {
		return s
	}
	return v.Canonical()
}

func (p *literalParser) parseElements(close byte) (items []Value, trailingComma bool, err error) {
	for {
		p.skipSpace()
		if p.eof() {
			return nil, false, fmt.Errorf("unterminated literal at offset %d", p.pos)
		}
		if p.peek() == close {
			p.pos++
			return items, trailingComma, nil
		}
		if len(items) > 0 {
			if err := p.expect(','); err != nil {
				return nil, false, err
			}
			p.skipSpace()
			if !p.eof() && p.peek() == close {
				p.pos++
				return items, true, nil
			}
		}
		item, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		items = append(items, item)
		trailingComma = false
	}
}
