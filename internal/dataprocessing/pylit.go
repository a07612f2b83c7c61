package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// The list columns of the Letterboxd exports hold Python literals written by
// pandas. parseLiteral accepts the literal subset of Python expressions:
// strings, bytes, numbers (complex included), True/False/None, lists,
// tuples, dicts and sets.

type pyValue interface {
	repr() string
	str() string
}

type (
	pyStr     string
	pyBytes   string
	pyInt     struct{ v *big.Int }
	pyFloat   float64
	pyComplex struct{ re, im float64 }
	pyBool    bool
	pyNone    struct{}
	pyList    []pyValue
	pyTuple   []pyValue
	pySet     []pyValue
	pyDict    []pyPair
)

type pyPair struct{ key, value pyValue }

func (s pyStr) str() string { return string(s) }

func pickQuote(s string) rune {
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		return '"'
	}
	return '\''
}

func (s pyStr) repr() string {
	quote := pickQuote(string(s))

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range string(s) {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == quote:
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}

func (b pyBytes) str() string { return b.repr() }

func (b pyBytes) repr() string {
	quote := byte(pickQuote(string(b)))

	var sb strings.Builder
	sb.WriteString("b")
	sb.WriteByte(quote)
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '\\' || c == quote:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

// complexPart formats one component of a complex number, which drops the
// ".0" a float repr carries
func complexPart(f float64) string {
	return strings.TrimSuffix(FormatPyFloat(f), ".0")
}

func (c pyComplex) str() string { return c.repr() }

func (c pyComplex) repr() string {
	if c.re == 0 && !math.Signbit(c.re) {
		return complexPart(c.im) + "j"
	}
	sign := "+"
	if math.Signbit(c.im) && !math.IsNaN(c.im) {
		sign = "-"
	}
	return "(" + complexPart(c.re) + sign + complexPart(math.Abs(c.im)) + "j)"
}

func (i pyInt) repr() string   { return i.v.String() }
func (i pyInt) str() string    { return i.repr() }
func (f pyFloat) repr() string { return FormatPyFloat(float64(f)) }
func (f pyFloat) str() string  { return f.repr() }
func (b pyBool) str() string   { return b.repr() }
func (n pyNone) repr() string  { return "None" }
func (n pyNone) str() string   { return "None" }
func (l pyList) str() string   { return l.repr() }
func (t pyTuple) str() string  { return t.repr() }
func (s pySet) str() string    { return s.repr() }
func (d pyDict) str() string   { return d.repr() }

func (b pyBool) repr() string {
	if b {
		return "True"
	}
	return "False"
}

func joinRepr(items []pyValue) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.repr()
	}
	return strings.Join(parts, ", ")
}

func (l pyList) repr() string { return "[" + joinRepr(l) + "]" }
func (s pySet) repr() string  { return "{" + joinRepr(s) + "}" }

func (t pyTuple) repr() string {
	if len(t) == 1 {
		return "(" + t[0].repr() + ",)"
	}
	return "(" + joinRepr(t) + ")"
}

func (d pyDict) repr() string {
	parts := make([]string, len(d))
	for i, p := range d {
		parts[i] = p.key.repr() + ": " + p.value.repr()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

var errNotLiteral = errors.New("not a python literal")

type litParser struct {
	s   string
	pos int
}

func parseLiteral(text string) (pyValue, error) {
	p := &litParser{s: text}
	v, err := p.exprList(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("%w: trailing input at offset %d", errNotLiteral, p.pos)
	}
	return v, nil
}

func (p *litParser) peek() rune {
	if p.pos >= len(p.s) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(p.s[p.pos:])
	return r
}

func (p *litParser) skipSpace() {
	for p.pos < len(p.s) {
		r, size := utf8.DecodeRuneInString(p.s[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *litParser) consume(r rune) bool {
	p.skipSpace()
	if p.peek() == r {
		p.pos += utf8.RuneLen(r)
		return true
	}
	return false
}

// exprList parses a bare comma-separated sequence, which is a tuple when it
// has a comma. closer ends the sequence early (0 at top level).
func (p *litParser) exprList(closer rune) (pyValue, error) {
	first, err := p.expr()
	if err != nil {
		return nil, err
	}
	if !p.consume(',') {
		return first, nil
	}

	items := pyTuple{first}
	for {
		p.skipSpace()
		if p.pos == len(p.s) || p.peek() == closer {
			return items, nil
		}
		item, err := p.expr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.consume(',') {
			return items, nil
		}
	}
}

// sequence parses items up to closer, allowing a trailing comma
func (p *litParser) sequence(closer rune) ([]pyValue, error) {
	items := []pyValue{}
	for {
		if p.consume(closer) {
			return items, nil
		}
		item, err := p.expr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.consume(',') {
			continue
		}
		if p.consume(closer) {
			return items, nil
		}
		return nil, fmt.Errorf("%w: expected %q at offset %d", errNotLiteral, closer, p.pos)
	}
}

// expr parses one literal. A real number followed by + or - and an
// imaginary number forms a complex, as in 1+2j.
func (p *litParser) expr() (pyValue, error) {
	v, err := p.atom()
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case pyInt, pyFloat:
	default:
		return v, nil
	}

	p.skipSpace()
	op := p.peek()
	if op != '+' && op != '-' {
		return v, nil
	}
	p.pos++
	right, err := p.numericOperand()
	if err != nil {
		return nil, err
	}
	imag, ok := right.(pyComplex)
	if !ok {
		return nil, fmt.Errorf("%w: only complex numbers may be added to a real", errNotLiteral)
	}

	re, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	if op == '+' {
		return pyComplex{re: re + imag.re, im: 0 + imag.im}, nil
	}
	return pyComplex{re: re - imag.re, im: 0 - imag.im}, nil
}

func toFloat(v pyValue) (float64, error) {
	switch n := v.(type) {
	case pyFloat:
		return float64(n), nil
	case pyInt:
		f, _ := new(big.Float).SetInt(n.v).Float64()
		if math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: integer too large to convert to float", errNotLiteral)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: not a number", errNotLiteral)
}

func (p *litParser) atom() (pyValue, error) {
	p.skipSpace()
	r := p.peek()

	switch {
	case r == '[':
		p.pos++
		items, err := p.sequence(']')
		return pyList(items), err
	case r == '(':
		p.pos++
		return p.parenthesized()
	case r == '{':
		p.pos++
		return p.braced()
	case r == '\'' || r == '"':
		return p.concatStrings()
	case r == '+' || r == '-':
		p.pos++
		return p.signed(r == '-')
	case r >= '0' && r <= '9', r == '.':
		return p.number()
	case r == '_' || unicode.IsLetter(r):
		return p.name()
	}
	return nil, fmt.Errorf("%w: unexpected %q at offset %d", errNotLiteral, r, p.pos)
}

func (p *litParser) parenthesized() (pyValue, error) {
	if p.consume(')') {
		return pyTuple{}, nil
	}
	v, err := p.exprList(')')
	if err != nil {
		return nil, err
	}
	if !p.consume(')') {
		return nil, fmt.Errorf("%w: unclosed parenthesis", errNotLiteral)
	}
	return v, nil
}

func (p *litParser) braced() (pyValue, error) {
	if p.consume('}') {
		return pyDict{}, nil
	}
	first, err := p.expr()
	if err != nil {
		return nil, err
	}

	if !p.consume(':') {
		set := pySet{first}
		if p.consume(',') {
			rest, err := p.sequence('}')
			if err != nil {
				return nil, err
			}
			return append(set, rest...), nil
		}
		if !p.consume('}') {
			return nil, fmt.Errorf("%w: unclosed set", errNotLiteral)
		}
		return set, nil
	}

	dict := pyDict{}
	key := first
	for {
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		dict = append(dict, pyPair{key: key, value: value})
		if p.consume('}') {
			return dict, nil
		}
		if !p.consume(',') {
			return nil, fmt.Errorf("%w: unclosed dict", errNotLiteral)
		}
		if p.consume('}') {
			return dict, nil
		}
		if key, err = p.expr(); err != nil {
			return nil, err
		}
		if !p.consume(':') {
			return nil, fmt.Errorf("%w: expected ':' in dict", errNotLiteral)
		}
	}
}

// signed applies a unary sign, which only binds to a plain number
func (p *litParser) signed(negative bool) (pyValue, error) {
	v, err := p.numericOperand()
	if err != nil {
		return nil, err
	}
	if !negative {
		return v, nil
	}
	switch n := v.(type) {
	case pyInt:
		return pyInt{v: new(big.Int).Neg(n.v)}, nil
	case pyFloat:
		return -n, nil
	case pyComplex:
		return pyComplex{re: -n.re, im: -n.im}, nil
	}
	return nil, fmt.Errorf("%w: unary sign on non-number", errNotLiteral)
}

// numericOperand parses an unsigned number, possibly parenthesized
func (p *litParser) numericOperand() (pyValue, error) {
	p.skipSpace()
	switch r := p.peek(); {
	case r == '(':
		p.pos++
		v, err := p.numericOperand()
		if err != nil {
			return nil, err
		}
		if !p.consume(')') {
			return nil, fmt.Errorf("%w: unclosed parenthesis", errNotLiteral)
		}
		return v, nil
	case r >= '0' && r <= '9', r == '.':
		return p.number()
	default:
		return nil, fmt.Errorf("%w: unary sign on non-number", errNotLiteral)
	}
}

func (p *litParser) number() (pyValue, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		isExpSign := (c == '+' || c == '-') && p.pos > start &&
			(p.s[p.pos-1] == 'e' || p.s[p.pos-1] == 'E') && !isPrefixed(p.s[start:p.pos])
		if !(isAlnum(c) || c == '.' || c == '_' || isExpSign) {
			break
		}
		p.pos++
	}
	text := p.s[start:p.pos]

	if isPrefixed(text) {
		v, ok := new(big.Int).SetString(text, 0)
		if !ok {
			return nil, fmt.Errorf("%w: bad integer %q", errNotLiteral, text)
		}
		return pyInt{v: v}, nil
	}

	imaginary := strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J")
	if imaginary {
		text = text[:len(text)-1]
	}
	if !validUnderscores(text) {
		return nil, fmt.Errorf("%w: misplaced underscore in %q", errNotLiteral, text)
	}
	digits := strings.ReplaceAll(text, "_", "")

	if imaginary || strings.ContainsAny(digits, ".eE") {
		// Out of range values round to inf or zero
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("%w: bad float %q", errNotLiteral, text)
		}
		if imaginary {
			return pyComplex{im: f}, nil
		}
		return pyFloat(f), nil
	}

	if len(digits) > 1 && digits[0] == '0' && strings.Trim(digits, "0") != "" {
		return nil, fmt.Errorf("%w: leading zeros in %q", errNotLiteral, text)
	}
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: bad integer %q", errNotLiteral, text)
	}
	return pyInt{v: v}, nil
}

// validUnderscores reports whether every underscore sits between two digits
func validUnderscores(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] != '_' {
			continue
		}
		if i == 0 || i == len(text)-1 || !isDigit(text[i-1]) || !isDigit(text[i+1]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isPrefixed(text string) bool {
	if len(text) < 2 || text[0] != '0' {
		return false
	}
	switch text[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return true
	}
	return false
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func (p *litParser) name() (pyValue, error) {
	start := p.pos
	for p.pos < len(p.s) {
		r, size := utf8.DecodeRuneInString(p.s[p.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos += size
	}
	word := p.s[start:p.pos]

	switch word {
	case "True":
		return pyBool(true), nil
	case "False":
		return pyBool(false), nil
	case "None":
		return pyNone{}, nil
	}

	if q := p.peek(); (q == '\'' || q == '"') && isStringPrefix(word) {
		p.pos = start
		return p.concatStrings()
	}
	return nil, fmt.Errorf("%w: name %q", errNotLiteral, word)
}

// isStringPrefix reports whether word may prefix a string or bytes literal
func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "r", "u", "b", "br", "rb":
		return true
	}
	return false
}

// concatStrings parses one or more adjacent string literals and concatenates
// them. Bytes and text literals cannot be mixed.
func (p *litParser) concatStrings() (pyValue, error) {
	var b strings.Builder
	parsed, isBytes := false, false
	for {
		p.skipSpace()
		save := p.pos
		for p.pos < len(p.s) && p.pos-save < 2 && isAlnum(p.s[p.pos]) && !isDigit(p.s[p.pos]) {
			p.pos++
		}
		prefix := p.s[save:p.pos]
		if q := p.peek(); (q != '\'' && q != '"') || (prefix != "" && !isStringPrefix(prefix)) {
			p.pos = save
			if !parsed {
				return nil, fmt.Errorf("%w: expected string at offset %d", errNotLiteral, p.pos)
			}
			if isBytes {
				return pyBytes(b.String()), nil
			}
			return pyStr(b.String()), nil
		}

		segmentBytes := strings.ContainsAny(prefix, "bB")
		if parsed && segmentBytes != isBytes {
			return nil, fmt.Errorf("%w: cannot mix bytes and text literals", errNotLiteral)
		}
		isBytes = segmentBytes
		s, err := p.stringLiteral(strings.ContainsAny(prefix, "rR"), isBytes)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
		parsed = true
	}
}

func (p *litParser) stringLiteral(raw, isBytes bool) (string, error) {
	quote := p.s[p.pos]
	delim := string(quote)
	if strings.HasPrefix(p.s[p.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	p.pos += len(delim)

	var b strings.Builder
	for {
		if p.pos >= len(p.s) {
			return "", fmt.Errorf("%w: unterminated string", errNotLiteral)
		}
		if strings.HasPrefix(p.s[p.pos:], delim) {
			p.pos += len(delim)
			return b.String(), nil
		}

		c := p.s[p.pos]
		if c == '\n' && len(delim) == 1 {
			return "", fmt.Errorf("%w: newline in string", errNotLiteral)
		}
		if c != '\\' {
			if isBytes && c >= 0x80 {
				return "", fmt.Errorf("%w: bytes can only contain ASCII characters", errNotLiteral)
			}
			r, size := utf8.DecodeRuneInString(p.s[p.pos:])
			b.WriteRune(r)
			p.pos += size
			continue
		}

		if p.pos+1 >= len(p.s) {
			return "", fmt.Errorf("%w: unterminated string", errNotLiteral)
		}
		next := p.s[p.pos+1]
		if isBytes && next >= 0x80 {
			return "", fmt.Errorf("%w: bytes can only contain ASCII characters", errNotLiteral)
		}
		if raw {
			b.WriteByte('\\')
			b.WriteByte(next)
			p.pos += 2
			continue
		}
		if err := p.escape(&b, next, isBytes); err != nil {
			return "", err
		}
	}
}

var (
	simpleEscapes = map[byte]string{
		'\\': `\`, '\'': `'`, '"': `"`, 'n': "\n", 't': "\t", 'r': "\r",
		'a': "\a", 'b': "\b", 'f': "\f", 'v': "\v", '\n': "",
	}
	hexEscapes = map[byte]int{'x': 2, 'u': 4, 'U': 8}
)

// escape decodes one backslash escape. Bytes literals have no \u or \U
// escapes and write raw byte values.
func (p *litParser) escape(b *strings.Builder, next byte, isBytes bool) error {
	if s, ok := simpleEscapes[next]; ok {
		b.WriteString(s)
		p.pos += 2
		return nil
	}

	if n, ok := hexEscapes[next]; ok && (!isBytes || next == 'x') {
		start := p.pos + 2
		if start+n > len(p.s) {
			return fmt.Errorf("%w: truncated escape", errNotLiteral)
		}
		code, err := strconv.ParseUint(p.s[start:start+n], 16, 32)
		if err != nil || code > unicode.MaxRune {
			return fmt.Errorf("%w: bad escape", errNotLiteral)
		}
		writeCode(b, code, isBytes)
		p.pos = start + n
		return nil
	}

	if next >= '0' && next <= '7' {
		end := p.pos + 1
		for end < len(p.s) && end < p.pos+4 && p.s[end] >= '0' && p.s[end] <= '7' {
			end++
		}
		code, _ := strconv.ParseUint(p.s[p.pos+1:end], 8, 32)
		writeCode(b, code, isBytes)
		p.pos = end
		return nil
	}

	// Unknown escapes keep the backslash
	b.WriteByte('\\')
	p.pos++
	return nil
}

func writeCode(b *strings.Builder, code uint64, isBytes bool) {
	if isBytes {
		b.WriteByte(byte(code))
		return
	}
	b.WriteRune(rune(code))
}
