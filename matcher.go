package combi

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a Matcher.  The set is closed: the
// engine dispatches on it with a switch.
type Kind int

const (
	KindAtomic Kind = iota
	KindSequence
	KindChoice
	KindRepetition
	KindOption
	KindProximity
	KindRule
)

func (k Kind) String() string {
	switch k {
	case KindAtomic:
		return "atomic"
	case KindSequence:
		return "sequence"
	case KindChoice:
		return "choice"
	case KindRepetition:
		return "repetition"
	case KindOption:
		return "option"
	case KindProximity:
		return "proximity"
	case KindRule:
		return "rule"
	default:
		return "unknown"
	}
}

// Matcher is a node of a grammar.  The pointer is the matcher's
// identity: caches, recursion detection and transform bindings all
// key on it, never on the shape of the matcher graph.
//
// Matchers are configured while the grammar is being built and must
// not be modified once they have been used for matching.  Graphs may
// then be shared by engines running on different goroutines.
type Matcher struct {
	kind Kind
	name string
	desc string

	// subs holds the elements of sequences, the candidates of
	// choices and proximities, and the single body of repetitions,
	// options and rules.
	subs []*Matcher
	sep  *Matcher
	min  int

	// atom is the matching procedure of atomic matchers, and probe
	// is the sub-matcher a lookahead tests without consuming.
	atom     func(s *Scanner) bool
	probe    *Matcher
	nullable bool

	transient bool
	noCache   bool

	an analysis
}

// Kind returns the variant of the matcher.
func (m *Matcher) Kind() Kind { return m.kind }

// Name returns the name given with Named or Grammar.Rule, or an
// empty string for anonymous matchers.
func (m *Matcher) Name() string { return m.name }

// Subs returns the sub-matchers of a compound matcher.
func (m *Matcher) Subs() []*Matcher { return m.subs }

// Separator returns the matcher attempted between the elements of a
// sequence or repetition, or nil.
func (m *Matcher) Separator() *Matcher { return m.sep }

// IsTransient reports whether the records of this matcher are elided
// from syntax trees.
func (m *Matcher) IsTransient() bool { return m.transient }

// IsCacheable reports whether results of this matcher can be stored
// in the packrat cache.  It is only final after the matcher was
// analyzed, which happens on its first use.
func (m *Matcher) IsCacheable() bool {
	analyze(m)
	return m.an.cacheable
}

// IsLeftRecursive reports whether the matcher can re-enter itself
// without consuming input.
func (m *Matcher) IsLeftRecursive() bool {
	analyze(m)
	return m.an.leftRecursive
}

// Named wraps the matcher into a rule named `name`.  The wrapper has
// its own identity, so the same body can be bound or cached under
// different names.
func (m *Matcher) Named(name string) *Matcher {
	return &Matcher{kind: KindRule, name: name, subs: []*Matcher{m}}
}

// Separated sets the separator matcher of a sequence or repetition.
func (m *Matcher) Separated(sep *Matcher) *Matcher {
	if m.kind != KindSequence && m.kind != KindRepetition {
		panic(fmt.Sprintf("separator can't be set on a %s matcher", m.kind))
	}
	m.sep = sep
	return m
}

// Transient marks the matcher so BuildTree skips its records and
// attaches its children to its parent instead.
func (m *Matcher) Transient() *Matcher {
	m.transient = true
	return m
}

// NoCache excludes the matcher, and every combinator containing it,
// from the packrat cache.
func (m *Matcher) NoCache() *Matcher {
	m.noCache = true
	return m
}

// Define sets the body of a rule created with Rule or Grammar.Rule.
// Rules can be referenced before they are defined, which is how
// recursive grammars are written.
func (m *Matcher) Define(body *Matcher) *Matcher {
	if m.kind != KindRule {
		panic(fmt.Sprintf("can't define a %s matcher", m.kind))
	}
	if m.subs[0] != nil {
		panic(fmt.Sprintf("rule already defined: %s", m))
	}
	m.subs[0] = body
	return m
}

// Rule creates a named forward declaration to be completed with
// Define.
func Rule(name string) *Matcher {
	return &Matcher{kind: KindRule, name: name, subs: []*Matcher{nil}}
}

// Seq matches all of `ms` one after the other.
func Seq(ms ...*Matcher) *Matcher {
	return &Matcher{kind: KindSequence, subs: ms}
}

// Choice returns the first of `ms` that matches, trying them in
// order.
func Choice(ms ...*Matcher) *Matcher {
	return &Matcher{kind: KindChoice, subs: ms}
}

// Repeat matches `m` as many times as possible and fails if it could
// not match at least `atLeast` times.
func Repeat(m *Matcher, atLeast int) *Matcher {
	if atLeast < 0 {
		panic("repetition minimum can't be negative")
	}
	return &Matcher{kind: KindRepetition, subs: []*Matcher{m}, min: atLeast}
}

func ZeroOrMore(m *Matcher) *Matcher { return Repeat(m, 0) }
func OneOrMore(m *Matcher) *Matcher  { return Repeat(m, 1) }

// Optional matches `m` or nothing.  When `m` fails the record of the
// option carries the choice -1.
func Optional(m *Matcher) *Matcher {
	return &Matcher{kind: KindOption, subs: []*Matcher{m}}
}

// Nearest re-invokes whichever of `ms` is currently active closest
// to the top of the matcher stack.  It fails when none of them is
// active.
func Nearest(ms ...*Matcher) *Matcher {
	return &Matcher{kind: KindProximity, subs: ms}
}

// base follows rules down to the matcher that does the work.
func (m *Matcher) base() *Matcher {
	for m.kind == KindRule && m.subs[0] != nil {
		m = m.subs[0]
	}
	return m
}

func (m *Matcher) String() string {
	if m.name != "" {
		return m.name
	}
	switch m.kind {
	case KindAtomic:
		return m.desc
	case KindSequence:
		return "(" + joinMatchers(m.subs, " ") + ")"
	case KindChoice:
		return "(" + joinMatchers(m.subs, " / ") + ")"
	case KindRepetition:
		switch m.min {
		case 0:
			return m.subs[0].String() + "*"
		case 1:
			return m.subs[0].String() + "+"
		default:
			return fmt.Sprintf("%s{%d,}", m.subs[0], m.min)
		}
	case KindOption:
		return m.subs[0].String() + "?"
	case KindProximity:
		return "nearest(" + joinMatchers(m.subs, ", ") + ")"
	case KindRule:
		// anonymous rules are only printed by reference, which
		// keeps cyclic graphs printable.
		return "rule"
	default:
		return "?"
	}
}

func joinMatchers(ms []*Matcher, sep string) string {
	var s strings.Builder
	for i, m := range ms {
		if i > 0 {
			s.WriteString(sep)
		}
		if m == nil {
			s.WriteString("<nil>")
			continue
		}
		if m.kind == KindRule && m.name == "" {
			s.WriteString("rule")
			continue
		}
		s.WriteString(m.String())
	}
	return s.String()
}
