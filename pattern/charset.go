package pattern

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// A Charset is a bitmap that uses one bit per code point up to its
// size.  Sets start as small as the largest code point they contain
// requires:
//
// Name        | Range         | bits      | bytes
// ------------+---------------+-----------+-------
// ASCII       | U+0000–007F   |       128 | 16
// Latin1      | U+0000–00FF   |       256 | 32
// BMP         | U+0000–FFFF   |    65_536 | 8192b (8k)
// Unicode     | U+0000–10FFFF | 1_114_112 | 139264 (136 Kb)
//
// A negated set answers Has with the complement of its bits.
type Charset struct {
	size    charsetSize
	bits    []byte
	negated bool
}

type charsetSize int

const (
	sizeASCII   charsetSize = 16
	sizeLatin1  charsetSize = 32
	sizeBMP     charsetSize = 8_192
	sizeUnicode charsetSize = 139_264
)

var charsetSizeName = map[charsetSize]string{
	sizeASCII:   "ascii",
	sizeLatin1:  "latin1",
	sizeBMP:     "bmp",
	sizeUnicode: "unicode",
}

func sizeForRune(r rune) charsetSize {
	pos := int(r) >> 3
	switch {
	case pos < int(sizeASCII):
		return sizeASCII
	case pos < int(sizeLatin1):
		return sizeLatin1
	case pos < int(sizeBMP):
		return sizeBMP
	default:
		return sizeUnicode
	}
}

// NewCharset returns an empty ASCII sized set.  It grows as runes are
// added.
func NewCharset() *Charset {
	return &Charset{size: sizeASCII, bits: make([]byte, sizeASCII)}
}

// Add includes `r` in the set.
func (cs *Charset) Add(r rune) {
	if r < 0 || r > utf8.MaxRune {
		panic(fmt.Sprintf("code point `U+%X` is out of the unicode range", r))
	}
	cs.grow(sizeForRune(r))
	i := int(r)
	cs.bits[i>>3] |= 1 << (i & 7)
}

// AddRange includes every rune from `lo` to `hi`, both ends included.
func (cs *Charset) AddRange(lo, hi rune) {
	if lo > hi {
		panic(fmt.Sprintf("range `%c-%c` is out of order", lo, hi))
	}
	for r := lo; r <= hi; r++ {
		cs.Add(r)
	}
}

// Negate flips the set so it matches every rune it did not.
func (cs *Charset) Negate() *Charset {
	cs.negated = !cs.negated
	return cs
}

// Has reports whether `r` belongs to the set.
func (cs *Charset) Has(r rune) bool {
	return cs.contains(r) != cs.negated
}

func (cs *Charset) contains(r rune) bool {
	i := int(r)
	if i < 0 {
		return false
	}
	// `i>>3` and `i&7` stand for `i/8` and `i%8`.
	x := i >> 3
	if x >= len(cs.bits) {
		return false
	}
	return cs.bits[x]&(1<<(i&7)) != 0
}

// Equal reports whether both sets hold the same runes.
func (cs *Charset) Equal(o *Charset) bool {
	return cs.size == o.size && cs.negated == o.negated && bytes.Equal(cs.bits, o.bits)
}

// Size names the bitmap size of the set: ascii, latin1, bmp or
// unicode.
func (cs *Charset) Size() string { return charsetSizeName[cs.size] }

func (cs *Charset) grow(size charsetSize) {
	if size <= cs.size {
		return
	}
	bits := make([]byte, size)
	copy(bits, cs.bits)
	cs.bits = bits
	cs.size = size
}

func (cs *Charset) String() string {
	var (
		s  strings.Builder
		rg bool
		st rune
		pr rune
	)
	s.WriteString("[")
	if cs.negated {
		s.WriteString("^")
	}
	end := rune(int(cs.size) << 3)
	for r := rune(0); r < end; r++ {
		if cs.contains(r) {
			if !rg {
				rg = true
				st = r
			}
			pr = r
		} else if rg {
			rg = false
			writeRange(&s, st, pr)
		}
	}
	if rg {
		writeRange(&s, st, pr)
	}
	s.WriteString("]")
	return s.String()
}

func writeRange(s *strings.Builder, start, end rune) {
	switch {
	case start == end:
		s.WriteString(escapeClassRune(start))
	case end == start+1:
		s.WriteString(escapeClassRune(start))
		s.WriteString(escapeClassRune(end))
	default:
		s.WriteString(escapeClassRune(start))
		s.WriteString("-")
		s.WriteString(escapeClassRune(end))
	}
}

func escapeClassRune(r rune) string {
	switch r {
	case '\\', ']', '-', '^':
		return `\` + string(r)
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	}
	if r < ' ' || r == 0x7f {
		return fmt.Sprintf(`\x%02x`, r)
	}
	return string(r)
}

// ParseClass compiles the body of a character class, without the
// surrounding brackets, into a Charset.  A leading `^` negates the
// class, `a-z` adds a range and backslash escapes the next rune.  The
// usual `\n`, `\r`, `\t`, `\\`, `\xHH` and `\uHHHH` escapes are
// understood.
func ParseClass(expr string) (*Charset, error) {
	runes := []rune(expr)
	cs := NewCharset()
	i := 0
	if len(runes) > 0 && runes[0] == '^' {
		cs.Negate()
		i++
	}
	next := func() (rune, error) {
		if i >= len(runes) {
			return 0, fmt.Errorf("unexpected end of class")
		}
		r := runes[i]
		i++
		if r != '\\' {
			return r, nil
		}
		return parseEscape(runes, &i)
	}
	for i < len(runes) {
		lo, err := next()
		if err != nil {
			return nil, &SyntaxError{Expr: expr, Err: err}
		}
		if i+1 < len(runes) && runes[i] == '-' {
			i++
			hi, err := next()
			if err != nil {
				return nil, &SyntaxError{Expr: expr, Err: err}
			}
			if lo > hi {
				return nil, &SyntaxError{Expr: expr, Err: fmt.Errorf("range `%c-%c` is out of order", lo, hi)}
			}
			cs.AddRange(lo, hi)
			continue
		}
		cs.Add(lo)
	}
	return cs, nil
}

func parseEscape(runes []rune, i *int) (rune, error) {
	if *i >= len(runes) {
		return 0, fmt.Errorf("dangling escape")
	}
	r := runes[*i]
	*i++
	switch r {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'x':
		return parseHex(runes, i, 2)
	case 'u':
		return parseHex(runes, i, 4)
	default:
		return r, nil
	}
}

func parseHex(runes []rune, i *int, n int) (rune, error) {
	if *i+n > len(runes) {
		return 0, fmt.Errorf("short hex escape")
	}
	v, err := strconv.ParseUint(string(runes[*i:*i+n]), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex escape: %w", err)
	}
	*i += n
	return rune(v), nil
}
