// Package csv reads comma separated values.  Fields may be quoted with
// `"`, in which case they can hold the delimiter, line breaks and
// quotes written twice.  Empty lines are skipped.
package csv

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clarete/combi"
)

type Grammar struct {
	*combi.Grammar

	File   *combi.Matcher
	Row    *combi.Matcher
	Field  *combi.Matcher
	Quoted *combi.Matcher
	Bare   *combi.Matcher
}

// New creates the grammar for fields delimited by `comma`.
func New(comma rune) *Grammar {
	if comma == '"' || comma == '\r' || comma == '\n' {
		panic(fmt.Sprintf("invalid delimiter %q", comma))
	}
	newline := combi.Pattern(`\r?\n`).Named("newline").Transient()
	delim := combi.Char(comma).Transient()
	g := &Grammar{Grammar: combi.NewGrammar("csv")}

	g.Quoted = g.Define("quoted", combi.Seq(
		combi.Char('"'),
		combi.ZeroOrMore(combi.Choice(combi.Text(`""`), combi.Pattern(`[^"]+`))),
		combi.Char('"'),
	))
	g.Bare = g.Define("bare", combi.Pattern(fmt.Sprintf(`[^%s"\r\n]*`, regexp.QuoteMeta(string(comma)))))
	g.Field = g.Define("field", combi.Choice(g.Quoted, g.Bare))
	g.Row = g.Define("row", combi.Seq(g.Field, combi.ZeroOrMore(combi.Seq(delim, g.Field))))
	g.File = g.Define("file", combi.OneOrMore(g.Row).Separated(newline))
	return g
}

func (g *Grammar) Bindings() *combi.Bindings {
	b := combi.NewBindings()
	combi.Bind(b, g.Row, func(s *combi.Scope[[][]string], acc [][]string) [][]string {
		acc = s.Descend(append(acc, nil))
		if last := acc[len(acc)-1]; len(last) == 1 && last[0] == "" {
			acc = acc[:len(acc)-1]
		}
		return acc
	})
	combi.Bind(b, g.Field, func(s *combi.Scope[[][]string], acc [][]string) [][]string {
		value := s.Capture()
		if s.Choice() == 0 {
			value = strings.ReplaceAll(value[1:len(value)-1], `""`, `"`)
		}
		acc[len(acc)-1] = append(acc[len(acc)-1], value)
		return acc
	})
	return b
}

// Read returns the records of `input` with `e`.
func (g *Grammar) Read(e *combi.Engine, input string) ([][]string, error) {
	return combi.ParseWith(e, g.File, input, g.Bindings(), [][]string(nil), true)
}

var std = New(',')

// Read returns the comma separated records of `input`.
func Read(input string) ([][]string, error) {
	return std.Read(combi.NewEngine(), input)
}

func Default() *Grammar { return std }
