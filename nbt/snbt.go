package nbt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oriumgames/anviligo/anvilerr"
)

// ParseSNBT parses the textual NBT grammar (spec.md §6.6) into a Value.
// The grammar mirrors JSON with three differences: numeric literals carry a
// type suffix (b/s/l/f/d, Int unsuffixed), unquoted bareword keys/strings
// are allowed, and arrays use the `[B; ...]`/`[I; ...]`/`[L; ...]` forms.
// Grounded on original_source/fastsnbt's recursive-descent grammar.
func ParseSNBT(s string) (Value, error) {
	p := &snbtParser{s: s}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, p.errorf("trailing input after value")
	}
	return v, nil
}

const sop = "nbt.ParseSNBT"

type snbtParser struct {
	s   string
	pos int
}

func (p *snbtParser) errorf(format string, args ...any) error {
	return anvilerr.Newf(anvilerr.InvalidTag, sop, "at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *snbtParser) peek() (byte, bool) {
	if p.pos >= len(p.s) {
		return 0, false
	}
	return p.s[p.pos], true
}

func (p *snbtParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func isBareChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-' || c == '.' || c == '+':
		return true
	default:
		return false
	}
}

func (p *snbtParser) parseValue() (Value, error) {
	c, ok := p.peek()
	if !ok {
		return nil, p.errorf("unexpected end of input")
	}
	switch {
	case c == '{':
		return p.parseCompound()
	case c == '[':
		return p.parseListOrArray()
	case c == '"' || c == '\'':
		s, err := p.parseQuotedString(c)
		if err != nil {
			return nil, err
		}
		return String(s), nil
	default:
		return p.parseBareToken()
	}
}

func (p *snbtParser) parseCompound() (Value, error) {
	p.pos++ // consume '{'
	out := Compound{}
	p.skipSpace()
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.pos++
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[key] = val
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, p.errorf("unterminated compound")
		}
		if c == ',' {
			p.pos++
			continue
		}
		if c == '}' {
			p.pos++
			return out, nil
		}
		return nil, p.errorf("expected ',' or '}' in compound")
	}
}

func (p *snbtParser) parseKey() (string, error) {
	c, ok := p.peek()
	if !ok {
		return "", p.errorf("expected key")
	}
	if c == '"' || c == '\'' {
		return p.parseQuotedString(c)
	}
	start := p.pos
	for p.pos < len(p.s) && isBareChar(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected key")
	}
	return p.s[start:p.pos], nil
}

func (p *snbtParser) parseQuotedString(quote byte) (string, error) {
	p.pos++ // consume opening quote
	var b strings.Builder
	for {
		if p.pos >= len(p.s) {
			return "", p.errorf("unterminated string")
		}
		c := p.s[p.pos]
		if c == quote {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.s) {
				return "", p.errorf("unterminated escape")
			}
			esc := p.s[p.pos]
			switch esc {
			case '\\', '"', '\'':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				return "", p.errorf("unknown escape \\%c", esc)
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
}

// parseListOrArray handles both `[B; 1,2,3]`/`[I; ...]`/`[L; ...]` typed
// arrays and plain `[v, v, ...]` lists.
func (p *snbtParser) parseListOrArray() (Value, error) {
	p.pos++ // consume '['
	p.skipSpace()

	if rest := p.s[p.pos:]; len(rest) >= 2 && rest[1] == ';' {
		switch rest[0] {
		case 'B', 'I', 'L':
			return p.parseTypedArray(rest[0])
		}
	}

	if c, ok := p.peek(); ok && c == ']' {
		p.pos++
		return List{Elem: TagEnd}, nil
	}
	var items []Value
	for {
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, p.errorf("unterminated list")
		}
		if c == ',' {
			p.pos++
			continue
		}
		if c == ']' {
			p.pos++
			elem := TagEnd
			if len(items) > 0 {
				elem = items[0].Tag()
			}
			return List{Elem: elem, Items: items}, nil
		}
		return nil, p.errorf("expected ',' or ']' in list")
	}
}

func (p *snbtParser) parseTypedArray(kind byte) (Value, error) {
	p.pos += 2 // consume "B;" / "I;" / "L;"
	p.skipSpace()

	var bytes ByteArray
	var ints IntArray
	var longs LongArray

	if c, ok := p.peek(); ok && c == ']' {
		p.pos++
		switch kind {
		case 'B':
			return ByteArray{}, nil
		case 'I':
			return IntArray{}, nil
		default:
			return LongArray{}, nil
		}
	}

	for {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.s) && (isBareChar(p.s[p.pos])) {
			p.pos++
		}
		if p.pos == start {
			return nil, p.errorf("expected numeric element in typed array")
		}
		tok := p.s[start:p.pos]
		switch kind {
		case 'B':
			n, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimSuffix(tok, "b"), "B"), 10, 8)
			if err != nil {
				return nil, p.errorf("invalid byte %q: %v", tok, err)
			}
			bytes = append(bytes, byte(n))
		case 'I':
			n, err := strconv.ParseInt(tok, 10, 32)
			if err != nil {
				return nil, p.errorf("invalid int %q: %v", tok, err)
			}
			ints = append(ints, int32(n))
		default:
			n, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimSuffix(tok, "l"), "L"), 10, 64)
			if err != nil {
				return nil, p.errorf("invalid long %q: %v", tok, err)
			}
			longs = append(longs, n)
		}
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, p.errorf("unterminated array")
		}
		if c == ',' {
			p.pos++
			continue
		}
		if c == ']' {
			p.pos++
			switch kind {
			case 'B':
				return bytes, nil
			case 'I':
				return ints, nil
			default:
				return longs, nil
			}
		}
		return nil, p.errorf("expected ',' or ']' in array")
	}
}

// parseBareToken parses a number (with optional b/s/l/f/d suffix) or an
// unquoted bareword string.
func (p *snbtParser) parseBareToken() (Value, error) {
	start := p.pos
	for p.pos < len(p.s) && isBareChar(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, p.errorf("unexpected character %q", string(p.s[p.pos]))
	}
	tok := p.s[start:p.pos]
	return tokenToValue(tok)
}

func tokenToValue(tok string) (Value, error) {
	if tok == "" {
		return nil, anvilerr.Newf(anvilerr.InvalidTag, sop, "empty token")
	}
	last := tok[len(tok)-1]
	body := tok
	switch last {
	case 'b', 'B':
		body = tok[:len(tok)-1]
		n, err := strconv.ParseInt(body, 10, 8)
		if err == nil {
			return Byte(n), nil
		}
	case 's', 'S':
		body = tok[:len(tok)-1]
		n, err := strconv.ParseInt(body, 10, 16)
		if err == nil {
			return Short(n), nil
		}
	case 'l', 'L':
		body = tok[:len(tok)-1]
		n, err := strconv.ParseInt(body, 10, 64)
		if err == nil {
			return Long(n), nil
		}
	case 'f', 'F':
		body = tok[:len(tok)-1]
		f, err := strconv.ParseFloat(body, 32)
		if err == nil {
			return Float(f), nil
		}
	case 'd', 'D':
		body = tok[:len(tok)-1]
		f, err := strconv.ParseFloat(body, 64)
		if err == nil {
			return Double(f), nil
		}
	}
	if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		return Int(n), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Double(f), nil
	}
	// Not numeric: treat as a bareword string (e.g. `true`, a block id).
	return String(tok), nil
}

// WriteSNBT renders v in the textual grammar.
func WriteSNBT(v Value) string {
	var b strings.Builder
	writeSNBT(&b, v)
	return b.String()
}

func writeSNBT(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case Byte:
		fmt.Fprintf(b, "%db", t)
	case Short:
		fmt.Fprintf(b, "%ds", t)
	case Int:
		fmt.Fprintf(b, "%d", t)
	case Long:
		fmt.Fprintf(b, "%dl", t)
	case Float:
		fmt.Fprintf(b, "%gf", float32(t))
	case Double:
		fmt.Fprintf(b, "%gd", float64(t))
	case String:
		writeSNBTString(b, string(t))
	case ByteArray:
		b.WriteString("[B;")
		for i, x := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%db", int8(x))
		}
		b.WriteByte(']')
	case IntArray:
		b.WriteString("[I;")
		for i, x := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%d", x)
		}
		b.WriteByte(']')
	case LongArray:
		b.WriteString("[L;")
		for i, x := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%dl", x)
		}
		b.WriteByte(']')
	case List:
		b.WriteByte('[')
		for i, item := range t.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			writeSNBT(b, item)
		}
		b.WriteByte(']')
	case Compound:
		b.WriteByte('{')
		first := true
		for _, k := range sortedKeys(t) {
			if !first {
				b.WriteByte(',')
			}
			first = false
			writeSNBTKey(b, k)
			b.WriteByte(':')
			writeSNBT(b, t[k])
		}
		b.WriteByte('}')
	}
}

func sortedKeys(c Compound) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	// Deterministic output for tests/authoring; the wire format does not
	// require any particular order.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func isBareString(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isBareChar(s[i]) {
			return false
		}
	}
	return true
}

func writeSNBTKey(b *strings.Builder, s string) {
	if isBareString(s) {
		b.WriteString(s)
		return
	}
	writeSNBTString(b, s)
}

func writeSNBTString(b *strings.Builder, s string) {
	if isBareString(s) {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}
