package combi

import (
	"fmt"
	"strconv"

	"github.com/clarete/combi/pattern"
)

// Scanner is the view of the engine handed to atomic matchers.  It
// moves the cursor and records explicit captures for the matcher
// that is currently running.
type Scanner struct {
	e     *Engine
	depth int
}

func (s *Scanner) Offset() int        { return s.e.tape.Offset() }
func (s *Scanner) Peek() (rune, bool) { return s.e.tape.Peek() }
func (s *Scanner) Remaining() int     { return s.e.tape.Remaining() }

// Rest returns the input from the cursor to its end.  The slice must
// not be modified.
func (s *Scanner) Rest() []rune { return s.e.tape.Rest() }

// Consume advances the cursor `n` runes without recording anything.
// Moving past the end of the input fails.
func (s *Scanner) Consume(n int) bool { return s.e.tape.Advance(n) }

// Yield consumes `n` runes and records them as an unattributed
// capture nested under the running matcher.
func (s *Scanner) Yield(n int) bool {
	if n < 0 {
		return false
	}
	begin := s.e.tape.Offset()
	if !s.e.tape.Advance(n) {
		return false
	}
	s.e.emit(Record{Depth: s.depth + 1, Begin: begin, End: begin + n, Persistent: true})
	return true
}

// Probe reports whether `m` would match at the cursor, and how long
// the match would be, without moving the cursor or recording
// anything.
func (s *Scanner) Probe(m *Matcher) (int, bool) { return s.e.probe(m) }

// Capture runs `m` at the cursor as a nested matcher.
func (s *Scanner) Capture(m *Matcher) bool { return s.e.capture(m) }

func newAtomic(desc string, nullable bool, fn func(*Scanner) bool) *Matcher {
	return &Matcher{kind: KindAtomic, desc: desc, nullable: nullable, atom: fn}
}

// Char matches the rune `r`.
func Char(r rune) *Matcher {
	return newAtomic(strconv.QuoteRune(r), false, func(s *Scanner) bool {
		if c, ok := s.Peek(); ok && c == r {
			return s.Consume(1)
		}
		return false
	})
}

// Text matches the string `text` literally.
func Text(text string) *Matcher {
	want := []rune(text)
	return newAtomic(strconv.Quote(text), len(want) == 0, func(s *Scanner) bool {
		if !s.e.tape.HasPrefix(want) {
			return false
		}
		return s.Consume(len(want))
	})
}

// CharRange matches one rune between `lo` and `hi`, both included.
func CharRange(lo, hi rune) *Matcher {
	if lo > hi {
		panic(&MalformedPatternError{
			Expr: fmt.Sprintf("%c-%c", lo, hi),
			Err:  fmt.Errorf("range is out of order"),
		})
	}
	return newAtomic(fmt.Sprintf("[%c-%c]", lo, hi), false, func(s *Scanner) bool {
		if c, ok := s.Peek(); ok && c >= lo && c <= hi {
			return s.Consume(1)
		}
		return false
	})
}

// Class matches one rune of a character class written without its
// brackets, like `a-z_` or `^"`.
func Class(expr string) *Matcher {
	cs, err := pattern.ParseClass(expr)
	if err != nil {
		panic(&MalformedPatternError{Expr: expr, Err: err})
	}
	return newAtomic("["+expr+"]", false, func(s *Scanner) bool {
		if c, ok := s.Peek(); ok && cs.Has(c) {
			return s.Consume(1)
		}
		return false
	})
}

// Pattern matches the regular expression `expr` anchored at the
// cursor.
func Pattern(expr string) *Matcher {
	p, err := pattern.Compile(expr)
	if err != nil {
		panic(&MalformedPatternError{Expr: expr, Err: err})
	}
	return PatternFunc("/"+expr+"/", p)
}

// PatternFunc matches whatever the pattern `p` accepts at the cursor.
// `desc` names it in traces and failures.
func PatternFunc(desc string, p pattern.Pattern) *Matcher {
	return newAtomic(desc, pattern.Nullable(p), func(s *Scanner) bool {
		n, ok := p(s.e.tape.Runes(), s.Offset())
		if !ok {
			return false
		}
		return s.Consume(n)
	})
}

// Script runs `fn` as an atomic matcher.  It is up to `fn` to move
// the cursor through the Scanner and to report whether it matched.
// Scripts are assumed to never match the empty string.
func Script(desc string, fn func(s *Scanner) bool) *Matcher {
	return newAtomic(desc, false, fn)
}

// Any matches a single rune.
func Any() *Matcher {
	return newAtomic(".", false, func(s *Scanner) bool { return s.Consume(1) })
}

// EOF matches only at the end of the input.
func EOF() *Matcher {
	return newAtomic("EOF", true, func(s *Scanner) bool { return s.Remaining() == 0 })
}

// Not succeeds, without consuming input, where `m` does not match.
func Not(m *Matcher) *Matcher {
	n := newAtomic("!"+m.String(), true, func(s *Scanner) bool {
		_, ok := s.Probe(m)
		return !ok
	})
	n.probe = m
	return n
}

// And succeeds, without consuming input, where `m` matches.
func And(m *Matcher) *Matcher {
	n := newAtomic("&"+m.String(), true, func(s *Scanner) bool {
		_, ok := s.Probe(m)
		return ok
	})
	n.probe = m
	return n
}
