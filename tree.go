package combi

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/exp/slices"
)

// NodeID is the handle of a node within its Tree.
type NodeID int32

type node struct {
	rec Record

	// children of the node are `Tree.children[childStart:childEnd]`.
	childStart int32
	childEnd   int32
}

// Tree is a syntax tree rebuilt from the records of a match.  Nodes
// live in a single arena and refer to each other by NodeID.
type Tree struct {
	input    []rune
	nodes    []node
	children []NodeID
	root     NodeID
}

// BuildTree rebuilds the tree encoded by `records`, which must be
// ordered the way Engine.Match returns them.  The last record becomes
// the root.  Records of transient matchers are left out and their
// children attached to the closest kept ancestor, except for the root
// which is always kept.
//
// It panics with an *EmptyTreeError when `records` is empty.
func BuildTree(input string, records []Record) *Tree {
	return buildTree([]rune(input), records, true)
}

// BuildFullTree is like BuildTree but keeps the records of transient
// matchers.
func BuildFullTree(input string, records []Record) *Tree {
	return buildTree([]rune(input), records, false)
}

func buildTree(input []rune, records []Record, elide bool) *Tree {
	if len(records) == 0 {
		panic(&EmptyTreeError{})
	}
	b := treeBuilder{
		t:       &Tree{input: input, nodes: make([]node, 0, len(records))},
		records: records,
		next:    len(records) - 1,
		elide:   elide,
	}
	rec := records[b.next]
	b.next--
	b.t.root = b.t.add(rec, b.collect(rec.Depth))
	return b.t
}

type treeBuilder struct {
	t       *Tree
	records []Record
	next    int
	elide   bool
}

// collect pulls every record from the tail of the list that is deeper
// than `depth` and returns the nodes built from them in input order.
func (b *treeBuilder) collect(depth int) []NodeID {
	var out []NodeID
	for b.next >= 0 && b.records[b.next].Depth > depth {
		rec := b.records[b.next]
		b.next--
		kids := b.collect(rec.Depth)
		if rec.Persistent || !b.elide {
			out = append(out, b.t.add(rec, kids))
			continue
		}
		// `out` is being built backwards.
		for i := len(kids) - 1; i >= 0; i-- {
			out = append(out, kids[i])
		}
	}
	slices.Reverse(out)
	return out
}

func (t *Tree) add(rec Record, kids []NodeID) NodeID {
	id := NodeID(len(t.nodes))
	start := int32(len(t.children))
	t.children = append(t.children, kids...)
	t.nodes = append(t.nodes, node{rec: rec, childStart: start, childEnd: int32(len(t.children))})
	return id
}

func (t *Tree) Root() NodeID               { return t.root }
func (t *Tree) Len() int                   { return len(t.nodes) }
func (t *Tree) Record(id NodeID) Record    { return t.nodes[id].rec }
func (t *Tree) Matcher(id NodeID) *Matcher { return t.nodes[id].rec.Matcher }
func (t *Tree) Name(id NodeID) string      { return t.nodes[id].rec.Name() }
func (t *Tree) Range(id NodeID) Range      { return t.nodes[id].rec.Range() }
func (t *Tree) Choice(id NodeID) int       { return t.nodes[id].rec.Choice }
func (t *Tree) Capture(id NodeID) string   { return t.nodes[id].rec.Range().Of(t.input) }
func (t *Tree) IsLeaf(id NodeID) bool      { return t.nodes[id].childStart == t.nodes[id].childEnd }

// Children returns the children of `id` in input order.  The slice
// must not be modified.
func (t *Tree) Children(id NodeID) []NodeID {
	n := &t.nodes[id]
	return t.children[n.childStart:n.childEnd]
}

func (t *Tree) Child(id NodeID, i int) NodeID { return t.Children(id)[i] }

// Visit calls `fn` on `id` and its descendants in depth-first order.
// Returning false from `fn` skips the children of that node.
func (t *Tree) Visit(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, child := range t.Children(id) {
		t.Visit(child, fn)
	}
}

// Leaves returns the nodes under `id` without children, in input
// order.
func (t *Tree) Leaves(id NodeID) []NodeID {
	var out []NodeID
	t.Visit(id, func(n NodeID) bool {
		if t.IsLeaf(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Find returns the first node under `id`, in depth-first order,
// produced by a matcher named `name`.
func (t *Tree) Find(id NodeID, name string) (NodeID, bool) {
	var (
		found NodeID
		ok    bool
	)
	t.Visit(id, func(n NodeID) bool {
		if ok {
			return false
		}
		if t.Name(n) == name {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

func (t *Tree) String() string { return t.Pretty(t.root) }

// Pretty renders the subtree under `id` with box drawing characters.
func (t *Tree) Pretty(id NodeID) string {
	p := newTreePrinter(func(text string, _ formatToken) string { return text })
	t.print(p, id)
	return p.String()
}

var treeTheme = map[formatToken]*color.Color{
	tokenName:    color.New(color.FgYellow, color.Bold),
	tokenLiteral: color.New(color.FgHiBlack),
	tokenRange:   color.New(color.FgRed),
}

// Highlight is like Pretty with terminal colors.  Colors are emitted
// even when the output isn't a terminal.
func (t *Tree) Highlight(id NodeID) string {
	p := newTreePrinter(func(text string, token formatToken) string {
		c, ok := treeTheme[token]
		if !ok {
			return text
		}
		c.EnableColor()
		return c.Sprint(text)
	})
	t.print(p, id)
	return p.String()
}

func (t *Tree) print(p *treePrinter, id NodeID) {
	rec := t.nodes[id].rec
	children := t.Children(id)
	switch {
	case rec.Matcher == nil || (len(children) == 0 && rec.Matcher.name == ""):
		p.writeToken(`"`+escapeLiteral(t.Capture(id))+`"`, tokenLiteral)
	case rec.Matcher.name != "":
		p.writeToken(rec.Matcher.name, tokenName)
	default:
		p.writeToken(fmt.Sprintf("%s<%d>", rec.Matcher.kind, len(children)), tokenName)
	}
	p.writeToken(" ("+t.formatPosition(rec.Begin, rec.End)+")", tokenRange)
	for i, child := range children {
		p.write("\n")
		if i == len(children)-1 {
			p.pwrite("└── ")
			p.indent("    ")
		} else {
			p.pwrite("├── ")
			p.indent("│   ")
		}
		t.print(p, child)
		p.unindent()
	}
}

// formatPosition prints single line ranges as columns and multi line
// ones as `line:col..line:col`.
func (t *Tree) formatPosition(start, end int) string {
	startLine, startCol := t.lineCol(start)
	endLine, endCol := t.lineCol(end)
	if startLine == endLine && startLine == 1 {
		if startCol == endCol {
			return fmt.Sprintf("%d", startCol)
		}
		return fmt.Sprintf("%d..%d", startCol, endCol)
	}
	return fmt.Sprintf("%d:%d..%d:%d", startLine, startCol, endLine, endCol)
}

// lineCol converts a rune offset to line and column numbers, both
// starting at 1.
func (t *Tree) lineCol(pos int) (line, column int) {
	line, column = 1, 1
	for _, r := range t.input[:pos] {
		if r == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// Text concatenates the captures of the leaves under `id`.
func (t *Tree) Text(id NodeID) string {
	var s strings.Builder
	for _, leaf := range t.Leaves(id) {
		s.WriteString(t.Capture(leaf))
	}
	return s.String()
}
