// Package inline parses emphasis markers of lightweight markup, where
// `*` delimits emphasis and `_` delimits strong text, and renders them
// as HTML.
//
// Parentheses inside a marked span continue whatever span is nearest
// to them, so `*a (b _c_) d*` is a single emphasis holding a strong
// word, and `(` outside of any span is plain text.
package inline

import (
	"html"

	"github.com/clarete/combi"
)

type Grammar struct {
	*combi.Grammar

	Document   *combi.Matcher
	Emph       *combi.Matcher
	EmphBody   *combi.Matcher
	Strong     *combi.Matcher
	StrongBody *combi.Matcher
	Group      *combi.Matcher
	Words      *combi.Matcher
	Punct      *combi.Matcher
}

func New() *Grammar {
	g := &Grammar{Grammar: combi.NewGrammar("inline")}

	g.Emph = g.Rule("emph")
	g.EmphBody = g.Rule("emph_body")
	g.Strong = g.Rule("strong")
	g.StrongBody = g.Rule("strong_body")
	g.Group = g.Rule("group")

	g.Words = g.Define("words", combi.Pattern(`[^*_()]+`))
	g.Punct = g.Define("punct", combi.Class(`*_()`))

	g.Emph.Define(combi.Seq(combi.Char('*'), g.EmphBody, combi.Char('*')))
	g.EmphBody.Define(combi.OneOrMore(combi.Choice(g.Strong, g.Group, g.Words)))
	g.Strong.Define(combi.Seq(combi.Char('_'), g.StrongBody, combi.Char('_')))
	g.StrongBody.Define(combi.OneOrMore(combi.Choice(g.Emph, g.Group, g.Words)))
	g.Group.Define(combi.Seq(combi.Char('('), combi.Nearest(g.EmphBody, g.StrongBody), combi.Char(')')))
	g.Document = g.Define("document", combi.ZeroOrMore(combi.Choice(g.Emph, g.Strong, g.Words, g.Punct)))
	return g
}

// Bindings render trees of the grammar as HTML.
func (g *Grammar) Bindings() *combi.Bindings {
	b := combi.NewBindings()
	text := func(s *combi.Scope[string], acc string) string {
		return acc + html.EscapeString(s.Capture())
	}
	combi.Bind(b, g.Words, text)
	combi.Bind(b, g.Punct, text)
	combi.Bind(b, g.Emph, func(s *combi.Scope[string], acc string) string {
		return acc + "<em>" + s.Visit(1, "") + "</em>"
	})
	combi.Bind(b, g.Strong, func(s *combi.Scope[string], acc string) string {
		return acc + "<strong>" + s.Visit(1, "") + "</strong>"
	})
	combi.Bind(b, g.Group, func(s *combi.Scope[string], acc string) string {
		return acc + "(" + s.Visit(1, "") + ")"
	})
	return b
}

// Render converts the whole of `input` with `e`.
func (g *Grammar) Render(e *combi.Engine, input string) (string, error) {
	return combi.ParseWith(e, g.Document, input, g.Bindings(), "", true)
}

var std = New()

func Render(input string) (string, error) {
	return std.Render(combi.NewEngine(), input)
}

func Default() *Grammar { return std }
