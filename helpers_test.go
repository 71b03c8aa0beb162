package combi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// shape is the part of a tree that tests compare.
type shape struct {
	Label string
	Text  string
	Kids  []shape
}

func shapeOf(t *Tree, id NodeID) shape {
	s := shape{Label: labelOf(t, id), Text: t.Capture(id)}
	for _, child := range t.Children(id) {
		s.Kids = append(s.Kids, shapeOf(t, child))
	}
	return s
}

func labelOf(t *Tree, id NodeID) string {
	m := t.Matcher(id)
	switch {
	case m == nil:
		return "yield"
	case m.Name() != "":
		return m.Name()
	default:
		return m.Kind().String()
	}
}

func leaf(label, text string) shape { return shape{Label: label, Text: text} }

func branch(label, text string, kids ...shape) shape {
	return shape{Label: label, Text: text, Kids: kids}
}

func assertShape(t *testing.T, expected shape, tree *Tree) {
	t.Helper()
	if diff := cmp.Diff(expected, shapeOf(tree, tree.Root())); diff != "" {
		t.Errorf("tree shape mismatch (-want +got):\n%s", diff)
	}
}

// recovered runs `fn` and returns what it panicked with.
func recovered(fn func()) (v any) {
	defer func() { v = recover() }()
	fn()
	return nil
}

// arithmetic builds `expr = expr '+' digit / digit`.
func arithmetic() (expr, plus, digit *Matcher) {
	digit = CharRange('0', '9').Named("digit")
	plus = Char('+').Named("plus")
	expr = Rule("expr")
	expr.Define(Choice(Seq(expr, plus, digit), digit))
	return expr, plus, digit
}
