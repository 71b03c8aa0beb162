// Package arith is a calculator grammar for the four basic operations
// over decimal numbers.  Operators of the same precedence associate to
// the left, which the grammar expresses with left recursive rules.
package arith

import (
	"strconv"

	"github.com/clarete/combi"
)

// Grammar holds the rules of the calculator.  `Expr`, `Term` and
// `Factor` only pick between alternatives and are transient, so trees
// are made of the remaining rules.
type Grammar struct {
	*combi.Grammar

	Program  *combi.Matcher
	Expr     *combi.Matcher
	Sum      *combi.Matcher
	Term     *combi.Matcher
	Product  *combi.Matcher
	Factor   *combi.Matcher
	Group    *combi.Matcher
	Negation *combi.Matcher
	Number   *combi.Matcher
	AddOp    *combi.Matcher
	MulOp    *combi.Matcher
}

func New() *Grammar {
	ws := combi.Pattern(`[ \t\r\n]*`).Transient()
	g := &Grammar{Grammar: combi.NewGrammar("arith", combi.WithSeparator(ws))}

	g.Expr = g.Rule("expr").Transient()
	g.Term = g.Rule("term").Transient()
	g.Factor = g.Rule("factor").Transient()

	g.Number = g.Define("number", combi.Pattern(`[0-9]+(?:\.[0-9]+)?`))
	g.AddOp = g.Define("addop", combi.Class("+-"))
	g.MulOp = g.Define("mulop", combi.Class("*/"))
	g.Sum = g.Define("sum", g.Seq(g.Expr, g.AddOp, g.Term))
	g.Product = g.Define("product", g.Seq(g.Term, g.MulOp, g.Factor))
	g.Group = g.Define("group", g.Seq(combi.Char('('), g.Expr, combi.Char(')')))
	g.Negation = g.Define("negation", g.Seq(combi.Char('-'), g.Factor))

	g.Expr.Define(combi.Choice(g.Sum, g.Term))
	g.Term.Define(combi.Choice(g.Product, g.Factor))
	g.Factor.Define(combi.Choice(g.Group, g.Negation, g.Number))
	g.Program = g.Define("program", combi.Seq(ws, g.Expr, ws))
	return g
}

// Bindings evaluates trees of the grammar into a float64.
func (g *Grammar) Bindings() *combi.Bindings {
	b := combi.NewBindings()
	combi.Bind(b, g.Number, func(s *combi.Scope[float64], _ float64) float64 {
		// the pattern only matches valid numbers
		n, _ := strconv.ParseFloat(s.Capture(), 64)
		return n
	})
	binary := func(s *combi.Scope[float64], _ float64) float64 {
		left := s.Visit(0, 0)
		op := s.Tree().Capture(s.Child(1))
		right := s.Visit(2, 0)
		switch op {
		case "+":
			return left + right
		case "-":
			return left - right
		case "*":
			return left * right
		default:
			return left / right
		}
	}
	combi.Bind(b, g.Sum, binary)
	combi.Bind(b, g.Product, binary)
	combi.Bind(b, g.Group, func(s *combi.Scope[float64], _ float64) float64 {
		return s.Visit(1, 0)
	})
	combi.Bind(b, g.Negation, func(s *combi.Scope[float64], _ float64) float64 {
		return -s.Visit(1, 0)
	})
	return b
}

// Eval parses and evaluates `input` with `e`, which must leave
// transient matchers out of trees.  The whole input must be an
// expression.
func (g *Grammar) Eval(e *combi.Engine, input string) (float64, error) {
	return combi.ParseWith(e, g.Program, input, g.Bindings(), 0.0, true)
}

var std = New()

// Eval evaluates `input` with the default engine settings.
func Eval(input string) (float64, error) {
	return std.Eval(combi.NewEngine(), input)
}

// Default returns the grammar Eval uses.
func Default() *Grammar { return std }
