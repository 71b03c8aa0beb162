package combi

import "strings"

// formatToken classifies the pieces of a printed tree so a theme can
// style them.
type formatToken int

const (
	tokenNone formatToken = iota
	tokenName
	tokenLiteral
	tokenRange
)

type formatFunc func(text string, token formatToken) string

// treePrinter writes box-drawn trees.  Callers push a prefix before
// visiting a child and pop it afterwards.
type treePrinter struct {
	prefixes []string
	output   strings.Builder
	format   formatFunc
}

func newTreePrinter(format formatFunc) *treePrinter {
	return &treePrinter{format: format}
}

func (tp *treePrinter) indent(s string) { tp.prefixes = append(tp.prefixes, s) }
func (tp *treePrinter) unindent()       { tp.prefixes = tp.prefixes[:len(tp.prefixes)-1] }
func (tp *treePrinter) write(s string)  { tp.output.WriteString(s) }

func (tp *treePrinter) writeToken(s string, token formatToken) {
	tp.write(tp.format(s, token))
}

// pwrite writes `s` after the accumulated prefixes.
func (tp *treePrinter) pwrite(s string) {
	for _, p := range tp.prefixes {
		tp.write(p)
	}
	tp.write(s)
}

func (tp *treePrinter) String() string { return tp.output.String() }

var literalSanitizer = strings.NewReplacer(
	`"`, `\"`,
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalSanitizer.Replace(s)
}
