// Package pattern compiles the small text-pattern and character-class
// expressions used by atomic matchers into plain predicate functions.
// The engine treats the results as opaque: a Pattern is handed the
// whole input and an index and answers with how many runes it
// accepts there.
package pattern

import (
	"fmt"
	"io"
	"regexp"
	"unicode/utf8"
)

// Pattern reports how many runes of `input` starting at `index` it
// accepts, or false when it does not match there.
type Pattern func(input []rune, index int) (int, bool)

// SyntaxError is returned for expressions that can't be compiled.
type SyntaxError struct {
	Expr string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed pattern `%s`: %s", e.Expr, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Compile turns a regular expression into a Pattern anchored at the
// index it is called with.  It never searches forward.  Zero width
// assertions like `\b` or `(?m)^` see the rune right before the
// index, while `\A` and a plain `^` only hold at the start of the
// input.
func Compile(expr string) (Pattern, error) {
	anchored, err := regexp.Compile(`\A(?:` + expr + `)`)
	if err != nil {
		return nil, &SyntaxError{Expr: expr, Err: err}
	}
	// consumes the rune before the index so it provides the context
	behind := regexp.MustCompile(`\A(?s:.)(?:` + expr + `)`)
	return func(input []rune, index int) (int, bool) {
		if index < 0 || index > len(input) {
			return 0, false
		}
		re, from := anchored, index
		if index > 0 {
			re, from = behind, index-1
		}
		rest := input[from:]
		loc := re.FindReaderIndex(&runeReader{runes: rest})
		if loc == nil {
			return 0, false
		}
		return countRunes(rest, loc[1]) - (index - from), true
	}, nil
}

// MustCompile is like Compile but panics on malformed expressions.
func MustCompile(expr string) Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Literal accepts exactly `s`.
func Literal(s string) Pattern {
	want := []rune(s)
	return func(input []rune, index int) (int, bool) {
		if index < 0 || index+len(want) > len(input) {
			return 0, false
		}
		for i, r := range want {
			if input[index+i] != r {
				return 0, false
			}
		}
		return len(want), true
	}
}

// Class accepts one rune that belongs to `cs`.
func Class(cs *Charset) Pattern {
	return func(input []rune, index int) (int, bool) {
		if index < 0 || index >= len(input) || !cs.Has(input[index]) {
			return 0, false
		}
		return 1, true
	}
}

// Nullable reports whether `p` accepts the empty input.
func Nullable(p Pattern) bool {
	_, ok := p(nil, 0)
	return ok
}

// runeReader feeds a rune slice to the regexp engine.  The engine
// counts positions in bytes of the UTF-8 encoding of what it reads,
// so sizes must agree with countRunes.
type runeReader struct {
	runes []rune
	pos   int
}

func (r *runeReader) ReadRune() (rune, int, error) {
	if r.pos >= len(r.runes) {
		return 0, 0, io.EOF
	}
	c := r.runes[r.pos]
	r.pos++
	return c, runeSize(c), nil
}

// countRunes converts a byte length reported by the regexp engine
// back into a number of runes of `runes`.
func countRunes(runes []rune, byteLen int) int {
	n, size := 0, 0
	for n < len(runes) && size < byteLen {
		size += runeSize(runes[n])
		n++
	}
	return n
}

func runeSize(r rune) int {
	if n := utf8.RuneLen(r); n > 0 {
		return n
	}
	return utf8.RuneLen(utf8.RuneError)
}
