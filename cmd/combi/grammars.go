package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/clarete/combi"
	"github.com/clarete/combi/grammars/arith"
	"github.com/clarete/combi/grammars/csv"
	"github.com/clarete/combi/grammars/inline"
)

type grammar struct {
	description string
	start       *combi.Matcher
	eval        func(e *combi.Engine, input string) (string, error)
}

var grammars = map[string]grammar{
	"arith": {
		description: "arithmetic expressions, evaluated to a number",
		start:       arith.Default().Program,
		eval: func(e *combi.Engine, input string) (string, error) {
			v, err := arith.Default().Eval(e, input)
			return strconv.FormatFloat(v, 'g', -1, 64), err
		},
	},
	"inline": {
		description: "*emphasis* and _strong_ markers, rendered as HTML",
		start:       inline.Default().Document,
		eval: func(e *combi.Engine, input string) (string, error) {
			return inline.Default().Render(e, input)
		},
	},
	"csv": {
		description: "comma separated values, shown as a table",
		start:       csv.Default().File,
		eval: func(e *combi.Engine, input string) (string, error) {
			rows, err := csv.Default().Read(e, input)
			if err != nil {
				return "", err
			}
			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleLight)
			for _, row := range rows {
				r := make(table.Row, len(row))
				for i, field := range row {
					r[i] = field
				}
				tbl.AppendRow(r)
			}
			return tbl.Render(), nil
		},
	},
}

func grammarNames() []string {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func grammarHelp() string {
	var s strings.Builder
	for _, name := range grammarNames() {
		fmt.Fprintf(&s, "  %-8s %s\n", name, grammars[name].description)
	}
	return s.String()
}

func lookupGrammar(name string) (grammar, error) {
	g, ok := grammars[name]
	if !ok {
		return grammar{}, errors.Errorf("unknown grammar `%s`, expected one of %s", name, strings.Join(grammarNames(), ", "))
	}
	return g, nil
}
