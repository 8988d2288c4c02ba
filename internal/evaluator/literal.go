package evaluator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ground-truth labels are stored as Python literals, e.g. {'wait_time', 'cost'}
// or ["a", "b"]. The parser below accepts the literal subset those columns use:
// strings (single, double or triple quoted, with u/r/b prefixes and implicit
// concatenation), numbers, True/False/None, lists, tuples, sets, dicts and the
// empty set() call.

type litKind int

const (
	litString litKind = iota
	litBytes
	litNumber
	litConst
	litList
	litTuple
	litSet
	litDict
)

type litValue struct {
	kind  litKind
	str   string
	items []litValue
}

func (v litValue) isCollection() bool {
	return v.kind == litList || v.kind == litTuple || v.kind == litSet
}

var errSyntax = errors.New("invalid literal")

type litParser struct {
	src string
	pos int
}

// parseLiteral parses src as a single Python literal expression.
func parseLiteral(src string) (litValue, error) {
	p := &litParser{src: src}
	v, err := p.value()
	if err != nil {
		return litValue{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return litValue{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return v, nil
}

func (p *litParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", errSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *litParser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *litParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *litParser) value() (litValue, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return litValue{}, p.errorf("unexpected end of input")
	}

	c := p.peek()
	switch {
	case c == '{':
		return p.braced()
	case c == '[':
		p.pos++
		items, _, err := p.sequence(']')
		if err != nil {
			return litValue{}, err
		}
		return litValue{kind: litList, items: items}, nil
	case c == '(':
		p.pos++
		items, trailingComma, err := p.sequence(')')
		if err != nil {
			return litValue{}, err
		}
		// ('a') is a parenthesized string, ('a',) and () are tuples.
		if len(items) == 1 && !trailingComma {
			return items[0], nil
		}
		return litValue{kind: litTuple, items: items}, nil
	case c == '\'' || c == '"':
		return p.strings()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(c):
		return p.identifier()
	}
	return litValue{}, p.errorf("unexpected character %q", c)
}

// sequence parses comma-separated values up to close. It reports whether the
// last item was followed by a comma.
func (p *litParser) sequence(close byte) ([]litValue, bool, error) {
	var items []litValue
	trailingComma := false
	for {
		p.skipSpace()
		if p.peek() == close {
			p.pos++
			return items, trailingComma, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, false, err
		}
		items = append(items, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			trailingComma = true
		case close:
			p.pos++
			return items, false, nil
		default:
			return nil, false, p.errorf("expected ',' or %q", close)
		}
	}
}

// braced parses a set or dict. {} is an empty dict.
func (p *litParser) braced() (litValue, error) {
	p.pos++ // '{'
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return litValue{kind: litDict}, nil
	}

	first, err := p.value()
	if err != nil {
		return litValue{}, err
	}
	p.skipSpace()

	if p.peek() == ':' {
		p.pos++
		if _, err := p.value(); err != nil {
			return litValue{}, err
		}
		if err := p.dictRest(); err != nil {
			return litValue{}, err
		}
		return litValue{kind: litDict}, nil
	}

	items := []litValue{first}
	switch p.peek() {
	case '}':
		p.pos++
		return litValue{kind: litSet, items: items}, nil
	case ',':
		p.pos++
	default:
		return litValue{}, p.errorf("expected ',' or '}'")
	}
	rest, _, err := p.sequence('}')
	if err != nil {
		return litValue{}, err
	}
	return litValue{kind: litSet, items: append(items, rest...)}, nil
}

func (p *litParser) dictRest() error {
	for {
		p.skipSpace()
		switch p.peek() {
		case '}':
			p.pos++
			return nil
		case ',':
			p.pos++
		default:
			return p.errorf("expected ',' or '}' in dict")
		}
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return nil
		}
		if _, err := p.value(); err != nil {
			return err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return p.errorf("expected ':' in dict")
		}
		p.pos++
		if _, err := p.value(); err != nil {
			return err
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *litParser) identifier() (litValue, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	ident := p.src[start:p.pos]

	// String prefixes: u'..', r"..", b'..', rb'..'.
	if c := p.peek(); (c == '\'' || c == '"') && len(ident) <= 2 {
		if _, ok := stringPrefix(ident); ok {
			p.pos = start
			return p.strings()
		}
	}

	switch ident {
	case "True", "False", "None":
		return litValue{kind: litConst, str: ident}, nil
	case "set":
		p.skipSpace()
		if p.peek() != '(' {
			return litValue{}, p.errorf("expected '(' after set")
		}
		p.pos++
		p.skipSpace()
		if p.peek() != ')' {
			return litValue{}, p.errorf("only the empty set() call is a literal")
		}
		p.pos++
		return litValue{kind: litSet}, nil
	}
	return litValue{}, p.errorf("name %q is not a literal", ident)
}

type prefixFlags struct {
	raw   bool
	bytes bool
}

func stringPrefix(ident string) (prefixFlags, bool) {
	var f prefixFlags
	for _, c := range strings.ToLower(ident) {
		switch c {
		case 'r':
			if f.raw {
				return f, false
			}
			f.raw = true
		case 'b':
			if f.bytes {
				return f, false
			}
			f.bytes = true
		case 'u':
			if len(ident) != 1 {
				return f, false
			}
		default:
			return f, false
		}
	}
	return f, true
}

// strings parses one or more adjacent string literals and joins them.
func (p *litParser) strings() (litValue, error) {
	var sb strings.Builder
	kind := litString
	first := true
	for {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.src) && isIdentStart(p.src[p.pos]) {
			p.pos++
		}
		flags, ok := stringPrefix(p.src[start:p.pos])
		c := p.peek()
		if !ok || (c != '\'' && c != '"') {
			p.pos = start
			if first {
				return litValue{}, p.errorf("expected string")
			}
			return litValue{kind: kind, str: sb.String()}, nil
		}

		k := litString
		if flags.bytes {
			k = litBytes
		}
		if !first && k != kind {
			return litValue{}, p.errorf("cannot mix bytes and str literals")
		}
		kind = k
		first = false

		s, err := p.quoted(flags.raw)
		if err != nil {
			return litValue{}, err
		}
		sb.WriteString(s)
	}
}

func (p *litParser) quoted(raw bool) (string, error) {
	q := p.src[p.pos]
	delim := string(q)
	if strings.HasPrefix(p.src[p.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	p.pos += len(delim)
	triple := len(delim) == 3

	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		if strings.HasPrefix(p.src[p.pos:], delim) {
			p.pos += len(delim)
			return sb.String(), nil
		}
		c := p.src[p.pos]
		if c == '\n' && !triple {
			return "", p.errorf("newline in string")
		}
		if c != '\\' {
			sb.WriteByte(c)
			p.pos++
			continue
		}
		if p.pos+1 >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		if raw {
			// Raw strings keep the backslash but it still protects the quote.
			sb.WriteByte('\\')
			sb.WriteByte(p.src[p.pos+1])
			p.pos += 2
			continue
		}
		if err := p.escape(&sb); err != nil {
			return "", err
		}
	}
}

func (p *litParser) escape(sb *strings.Builder) error {
	p.pos++ // backslash
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '\n':
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case 'x':
		return p.hexEscape(sb, 2)
	case 'u':
		return p.hexEscape(sb, 4)
	case 'U':
		return p.hexEscape(sb, 8)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		start := p.pos - 1
		for p.pos < len(p.src) && p.pos-start < 3 && p.src[p.pos] >= '0' && p.src[p.pos] <= '7' {
			p.pos++
		}
		n, _ := strconv.ParseUint(p.src[start:p.pos], 8, 32)
		sb.WriteRune(rune(n))
	default:
		// Unknown escapes are kept verbatim.
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}
	return nil
}

func (p *litParser) hexEscape(sb *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("truncated escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return p.errorf("bad escape %q", p.src[p.pos:p.pos+digits])
	}
	p.pos += digits
	sb.WriteRune(rune(n))
	return nil
}

func (p *litParser) number() (litValue, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
		p.skipSpace()
	}
	digitsStart := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '_' || c == 'e' || c == 'E' || c == 'x' || c == 'X' ||
			(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == 'j' || c == 'J' {
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}
	if p.pos == digitsStart {
		return litValue{}, p.errorf("bad number")
	}
	text := strings.ReplaceAll(p.src[digitsStart:p.pos], "_", "")
	text = strings.TrimRight(text, "jJ")
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		if _, err := strconv.ParseInt(text, 0, 64); err != nil {
			return litValue{}, p.errorf("bad number %q", p.src[start:p.pos])
		}
	}
	return litValue{kind: litNumber, str: p.src[start:p.pos]}, nil
}
