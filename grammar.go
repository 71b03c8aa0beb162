package combi

import (
	"fmt"
	"sort"
)

// Grammar keeps the named rules of a language and the separator its
// combinators share.  Rules are declared with Rule, possibly before
// their body exists, and completed with Define.
type Grammar struct {
	name  string
	sep   *Matcher
	rules map[string]*Matcher
	order []string
}

type GrammarOption func(g *Grammar)

// WithSeparator makes every sequence and repetition built through the
// grammar attempt `sep` between its elements.
func WithSeparator(sep *Matcher) GrammarOption {
	return func(g *Grammar) {
		g.sep = sep
	}
}

func NewGrammar(name string, opts ...GrammarOption) *Grammar {
	g := &Grammar{name: name, rules: map[string]*Matcher{}}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Grammar) Name() string        { return g.name }
func (g *Grammar) Separator() *Matcher { return g.sep }

// Rule returns the rule called `name`, declaring it if needed.
func (g *Grammar) Rule(name string) *Matcher {
	if r, ok := g.rules[name]; ok {
		return r
	}
	r := Rule(name)
	g.rules[name] = r
	g.order = append(g.order, name)
	return r
}

// Define sets the body of the rule `name` and returns the rule.
func (g *Grammar) Define(name string, body *Matcher) *Matcher {
	return g.Rule(name).Define(body)
}

// Lookup returns the rule `name` if it was declared.
func (g *Grammar) Lookup(name string) (*Matcher, bool) {
	r, ok := g.rules[name]
	return r, ok
}

// MustLookup is like Lookup but panics for unknown rules.
func (g *Grammar) MustLookup(name string) *Matcher {
	r, ok := g.rules[name]
	if !ok {
		panic(fmt.Sprintf("grammar `%s` has no rule `%s`", g.name, name))
	}
	return r
}

// Rules returns the names of the rules in declaration order.
func (g *Grammar) Rules() []string {
	return append([]string(nil), g.order...)
}

// Seq is like the package level Seq with the grammar's separator.
func (g *Grammar) Seq(ms ...*Matcher) *Matcher {
	return g.separate(Seq(ms...))
}

func (g *Grammar) ZeroOrMore(m *Matcher) *Matcher { return g.separate(ZeroOrMore(m)) }
func (g *Grammar) OneOrMore(m *Matcher) *Matcher  { return g.separate(OneOrMore(m)) }

func (g *Grammar) Repeat(m *Matcher, atLeast int) *Matcher {
	return g.separate(Repeat(m, atLeast))
}

func (g *Grammar) separate(m *Matcher) *Matcher {
	if g.sep != nil {
		m.sep = g.sep
	}
	return m
}

// Check analyzes every rule, reporting the first undefined rule or
// unguarded left recursion as an error instead of a panic.
func (g *Grammar) Check() (err error) {
	names := g.Rules()
	sort.Strings(names)
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case *UndefinedRuleError:
				err = v
			case *UnrecoverableRecursionError:
				err = v
			default:
				panic(r)
			}
		}
	}()
	for _, name := range names {
		analyze(g.rules[name])
	}
	return nil
}
