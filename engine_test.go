package combi

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineScenarios(t *testing.T) {
	t.Run("digits of a number", func(t *testing.T) {
		digit := CharRange('0', '9').Named("digit")
		number := OneOrMore(digit).Named("number")

		records, err := Match(number, "42x")
		require.NoError(t, err)
		root := records[len(records)-1]
		assert.Equal(t, 2, root.Len())

		tree := BuildTree("42x", records)
		assertShape(t, branch("number", "42",
			leaf("digit", "4"),
			leaf("digit", "2"),
		), tree)
	})

	t.Run("left recursion grows to the left", func(t *testing.T) {
		expr, _, _ := arithmetic()

		tree, err := Treeify(expr, "1+2+3")
		require.NoError(t, err)
		assertShape(t, branch("expr", "1+2+3",
			branch("sequence", "1+2+3",
				branch("expr", "1+2",
					branch("sequence", "1+2",
						branch("expr", "1", leaf("digit", "1")),
						leaf("plus", "+"),
						leaf("digit", "2"),
					),
				),
				leaf("plus", "+"),
				leaf("digit", "3"),
			),
		), tree)
	})

	t.Run("unguarded recursion is fatal before matching", func(t *testing.T) {
		loop := Rule("loop")
		loop.Define(loop)

		e := NewEngine()
		v := recovered(func() { _, _ = e.Match(loop, "anything") })
		err, ok := v.(*UnrecoverableRecursionError)
		require.True(t, ok, "expected an *UnrecoverableRecursionError, got %#v", v)
		assert.Equal(t, "loop", err.Matcher)
		assert.Equal(t, []string{"loop", "loop"}, err.Cycle)
		assert.Nil(t, e.tape, "input must not be looked at")
	})

	t.Run("separator between sequence elements", func(t *testing.T) {
		seq := Seq(Text("x"), Text("y")).Separated(Pattern(` +`))

		records, err := Match(seq, "x   y")
		require.NoError(t, err)
		assert.Equal(t, 5, records[len(records)-1].End)
	})

	t.Run("transform accumulates a number", func(t *testing.T) {
		number := OneOrMore(CharRange('0', '9')).Named("number")
		b := NewBindings()
		Bind(b, number, func(s *Scope[int], acc int) int {
			n, err := strconv.Atoi(s.Capture())
			require.NoError(t, err)
			return acc + n
		})

		out, err := Parse(number, "7", b, 0, true)
		require.NoError(t, err)
		assert.Equal(t, 7, out)
	})

	t.Run("visiting a child twice is fatal", func(t *testing.T) {
		digit := CharRange('0', '9').Named("digit")
		pair := Seq(digit, digit).Named("pair")
		b := NewBindings()
		Bind(b, pair, func(s *Scope[int], acc int) int {
			acc = s.Visit(0, acc)
			return s.Visit(0, acc)
		})

		v := recovered(func() { _, _ = Parse(pair, "12", b, 0, false) })
		err, ok := v.(*MalformedTransformError)
		require.True(t, ok, "expected a *MalformedTransformError, got %#v", v)
		assert.Equal(t, "pair", err.Matcher)
		assert.Equal(t, 0, err.Child)
	})
}

func TestEngineLeftRecursion(t *testing.T) {
	t.Run("mutual recursion through a choice", func(t *testing.T) {
		a, b := Rule("A"), Rule("B")
		a.Define(Choice(b, Text("x")))
		b.Define(Seq(a, Text("y")))

		tree, err := Treeify(a, "xyyz")
		require.NoError(t, err)
		assertShape(t, branch("A", "xyy",
			branch("B", "xyy",
				branch("A", "xy",
					branch("B", "xy",
						branch("A", "x", leaf("atomic", "x")),
						leaf("atomic", "y"),
					),
				),
				leaf("atomic", "y"),
			),
		), tree)
		assert.Equal(t, 0, tree.Choice(tree.Root()))
	})

	t.Run("seed that never grows", func(t *testing.T) {
		expr, _, _ := arithmetic()

		records, err := Match(expr, "7")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 1, records[1].Choice)
		assert.Equal(t, 1, records[1].End)
	})

	t.Run("stops at the longest seed", func(t *testing.T) {
		expr, _, _ := arithmetic()

		records, err := Match(expr, "1+2+")
		require.NoError(t, err)
		assert.Equal(t, 3, records[len(records)-1].End)
	})

	t.Run("left recursion under separators", func(t *testing.T) {
		g := NewGrammar("sum", WithSeparator(Pattern(` *`).Transient()))
		digit := g.Define("digit", CharRange('0', '9'))
		expr := g.Rule("expr")
		expr.Define(Choice(g.Seq(expr, Char('-'), digit), digit))

		tree, err := Treeify(expr, "9 - 4 -1")
		require.NoError(t, err)
		assert.Equal(t, "9 - 4 -1", tree.Capture(tree.Root()))
		inner, ok := tree.Find(tree.Child(tree.Root(), 0), "expr")
		require.True(t, ok)
		assert.Equal(t, "9 - 4", tree.Capture(inner))
	})

	t.Run("recursion inside a nested rule", func(t *testing.T) {
		digit := CharRange('0', '9').Named("digit")
		list := Rule("list")
		list.Define(Choice(Seq(list, Char(','), digit), digit))
		paren := Seq(Char('('), list, Char(')')).Named("paren")

		records, err := Match(OneOrMore(paren), "(1,2)(3)")
		require.NoError(t, err)
		assert.Equal(t, 8, records[len(records)-1].End)
	})
}

func TestEngineCombinators(t *testing.T) {
	t.Run("choice records the alternative", func(t *testing.T) {
		m := Choice(Text("a"), Text("b"), Text("c"))
		records, err := Match(m, "c")
		require.NoError(t, err)
		assert.Equal(t, 2, records[len(records)-1].Choice)
	})

	t.Run("option that matched nothing", func(t *testing.T) {
		m := Optional(Text("a"))
		records, err := Match(m, "b")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, -1, records[0].Choice)
		assert.Equal(t, 0, records[0].Len())
	})

	t.Run("repetition rolls the trailing separator back", func(t *testing.T) {
		m := OneOrMore(Class("a-z")).Separated(Char(','))
		records, err := Match(m, "a,b,c,")
		require.NoError(t, err)
		assert.Equal(t, 5, records[len(records)-1].End)
	})

	t.Run("repetition below its minimum fails", func(t *testing.T) {
		_, err := Match(Repeat(Char('a'), 2), "ab")
		require.Error(t, err)

		records, err := Match(Repeat(Char('a'), 2), "aab")
		require.NoError(t, err)
		assert.Equal(t, 2, records[len(records)-1].End)
	})

	t.Run("empty iterations end the loop", func(t *testing.T) {
		m := Repeat(Optional(Char('a')), 3)
		records, err := Match(m, "b")
		require.NoError(t, err)
		assert.Equal(t, 0, records[len(records)-1].End)

		records, err = Match(ZeroOrMore(Optional(Char('a'))), "aab")
		require.NoError(t, err)
		assert.Equal(t, 2, records[len(records)-1].End)
	})

	t.Run("sequence fails as a whole", func(t *testing.T) {
		m := Choice(Seq(Text("a"), Text("b")), Text("ac"))
		records, err := Match(m, "ac")
		require.NoError(t, err)
		assert.Equal(t, 1, records[len(records)-1].Choice)
		require.Len(t, records, 2, "records of the failed sequence are dropped")
	})

	t.Run("lookaheads", func(t *testing.T) {
		keyword := Text("if")
		ident := Seq(Not(Seq(keyword, Not(Class("a-z")))), Pattern(`[a-z]+`)).Named("ident")

		_, err := Match(ident, "if")
		assert.Error(t, err)

		records, err := Match(ident, "iffy")
		require.NoError(t, err)
		assert.Equal(t, 4, records[len(records)-1].End)

		ab := Text("ab")
		records, err = Match(Seq(And(ab), Any()), "ab")
		require.NoError(t, err)
		assert.Equal(t, 1, records[len(records)-1].End)
		for _, r := range records {
			assert.NotSame(t, ab, r.Matcher, "probes leave no records")
		}
	})

	t.Run("end of input", func(t *testing.T) {
		m := Seq(Text("ab"), EOF())
		_, err := Match(m, "abc")
		assert.Error(t, err)
		_, err = Match(m, "ab")
		assert.NoError(t, err)
	})

	t.Run("nearest active candidate", func(t *testing.T) {
		x, y := Rule("X"), Rule("Y")
		x.Define(Seq(Char('x'), Optional(y)))
		y.Define(Seq(Char('y'), Optional(Seq(Char('.'), Nearest(x, y)))))

		records, err := Match(x, "xy.y")
		require.NoError(t, err)
		assert.Equal(t, 4, records[len(records)-1].End)

		records, err = Match(x, "xy.x")
		require.NoError(t, err)
		assert.Equal(t, 2, records[len(records)-1].End, "the nearest candidate is Y, which can't match `x`")
	})

	t.Run("nearest without active candidates", func(t *testing.T) {
		x := Char('x').Named("X")
		_, err := Match(Seq(Char('<'), Nearest(x)), "<x")
		assert.Error(t, err)
	})
}

func TestEngineScripts(t *testing.T) {
	t.Run("yields are nested under the script", func(t *testing.T) {
		script := Script("pairs", func(s *Scanner) bool {
			return s.Yield(2) && s.Yield(1)
		})
		records, err := Match(script, "abc")
		require.NoError(t, err)
		assert.Equal(t, []Record{
			{Depth: 2, Begin: 0, End: 2, Persistent: true},
			{Depth: 2, Begin: 2, End: 3, Persistent: true},
			{Matcher: script, Depth: 1, Begin: 0, End: 3, Persistent: true},
		}, records)

		tree := BuildTree("abc", records)
		assertShape(t, branch("atomic", "abc", leaf("yield", "ab"), leaf("yield", "c")), tree)
	})

	t.Run("invalid yields fail", func(t *testing.T) {
		_, err := Match(Script("neg", func(s *Scanner) bool { return s.Yield(-1) }), "abc")
		assert.Error(t, err)
		_, err = Match(Script("far", func(s *Scanner) bool { return s.Yield(4) }), "abc")
		assert.Error(t, err)
		_, err = Match(Script("far", func(s *Scanner) bool { return s.Consume(4) }), "abc")
		assert.Error(t, err)
	})

	t.Run("failed captures leave the cursor alone", func(t *testing.T) {
		inner := Seq(Text("ab"), Text("x"))
		script := Script("check", func(s *Scanner) bool {
			before := s.Offset()
			ok := s.Capture(inner)
			return !ok && s.Offset() == before && s.Remaining() == 3
		})
		_, err := Match(script, "abc")
		assert.NoError(t, err)
	})

	t.Run("probes report the length", func(t *testing.T) {
		var got int
		script := Script("peek", func(s *Scanner) bool {
			n, ok := s.Probe(Pattern(`[a-z]+`))
			got = n
			return ok && s.Offset() == 0
		})
		_, err := Match(script, "abc1")
		require.NoError(t, err)
		assert.Equal(t, 3, got)
	})
}

func TestEngineErrors(t *testing.T) {
	t.Run("farthest failure", func(t *testing.T) {
		m := Seq(Text("ab"), Text("cd")).Named("abcd")
		_, err := Match(m, "abce")

		var perr *ParsingError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 2, perr.Offset)
		assert.Equal(t, []string{`"cd"`}, perr.Expected)
		require.Len(t, perr.Trace, 2)
		assert.Equal(t, "abcd", perr.Trace[0].Matcher)
		assert.Equal(t, `no match @ 2, expected "cd"`, perr.Error())
	})

	t.Run("named atomic matchers are reported by name", func(t *testing.T) {
		digit := CharRange('0', '9').Named("digit")
		letter := Class("a-z").Named("letter")
		_, err := Match(Seq(Char('('), Choice(digit, letter)), "(!")

		var perr *ParsingError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 1, perr.Offset)
		assert.Equal(t, []string{"digit", "letter"}, perr.Expected)
	})

	t.Run("trace limit", func(t *testing.T) {
		a := Seq(Seq(Seq(Text("a"), Text("b"))))
		e := NewEngine(WithTraceLimit(2))
		_, err := e.Match(a, "ax")

		var perr *ParsingError
		require.ErrorAs(t, err, &perr)
		assert.Len(t, perr.Trace, 2)
		assert.Equal(t, 4, perr.Trace[1].Depth)
	})

	t.Run("input not consumed", func(t *testing.T) {
		number := OneOrMore(CharRange('0', '9')).Named("number")
		_, err := Parse(number, "42x", nil, 0, true)
		require.ErrorIs(t, err, ErrInputNotConsumed)

		var perr *ParsingError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 2, perr.Offset)

		_, err = NewEngine().MatchFull(number, "42")
		assert.NoError(t, err)

		_, err = NewEngine().TreeifyFull(number, "4 2")
		assert.ErrorIs(t, err, ErrInputNotConsumed)
		tree, err := NewEngine().TreeifyFull(number, "42")
		require.NoError(t, err)
		assert.Equal(t, "42", tree.Text(tree.Root()))
	})

	t.Run("undefined rules", func(t *testing.T) {
		missing := Rule("missing")
		v := recovered(func() { _, _ = Match(Seq(Text("a"), missing), "a") })
		err, ok := v.(*UndefinedRuleError)
		require.True(t, ok, "expected an *UndefinedRuleError, got %#v", v)
		assert.Equal(t, "missing", err.Rule)
	})

	t.Run("malformed patterns", func(t *testing.T) {
		for _, build := range []func(){
			func() { Pattern(`a(`) },
			func() { Class(`z-a`) },
			func() { CharRange('z', 'a') },
		} {
			v := recovered(build)
			_, ok := v.(*MalformedPatternError)
			assert.True(t, ok, "expected a *MalformedPatternError, got %#v", v)
		}
	})
}

func TestEngineCache(t *testing.T) {
	t.Run("backtracking reuses results", func(t *testing.T) {
		word := OneOrMore(Class("a-z")).Named("word")
		m := Choice(Seq(word, Text("!")), Seq(word, Text("?")))

		e := NewEngine()
		_, err := e.Match(m, "abc?")
		require.NoError(t, err)
		assert.Equal(t, 1, e.Stats().CacheHits)
		assert.Positive(t, e.Stats().CacheStores)
	})

	t.Run("disabled cache", func(t *testing.T) {
		word := OneOrMore(Class("a-z")).Named("word")
		m := Choice(Seq(word, Text("!")), Seq(word, Text("?")))

		e := NewEngine(WithCache(false))
		_, err := e.Match(m, "abc?")
		require.NoError(t, err)
		assert.Zero(t, e.Stats().CacheHits)
		assert.Zero(t, e.Stats().CacheStores)
	})

	t.Run("same records with and without cache", func(t *testing.T) {
		expr, _, _ := arithmetic()
		word := OneOrMore(Class("a-z")).Named("word")
		for _, test := range []struct {
			name  string
			m     *Matcher
			input string
		}{
			{"backtracking", Choice(Seq(word, Text("!")), Seq(word, Text("?"))), "abc?"},
			{"left recursion", expr, "1+2+3+4"},
			{"left recursion under repetition", OneOrMore(Seq(expr, Char(';'))), "1+2;3;4+5+6;"},
		} {
			t.Run(test.name, func(t *testing.T) {
				cached, err := NewEngine().Match(test.m, test.input)
				require.NoError(t, err)
				uncached, err := NewEngine(WithCache(false)).Match(test.m, test.input)
				require.NoError(t, err)
				assert.Equal(t, uncached, cached)
			})
		}
	})

	t.Run("proximity is never cached", func(t *testing.T) {
		x := Char('x').Named("X")
		near := Nearest(x)
		wrapper := Seq(near)
		assert.False(t, near.IsCacheable())
		assert.False(t, wrapper.IsCacheable())
		assert.True(t, x.IsCacheable())
		assert.False(t, Text("a").NoCache().IsCacheable())
	})
}

func TestEngineReuse(t *testing.T) {
	expr, _, _ := arithmetic()
	e := NewEngine()

	first, err := e.Match(expr, "1+2")
	require.NoError(t, err)
	_, err = e.Match(expr, "3+")
	require.NoError(t, err)
	again, err := e.Match(expr, "1+2")
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, 3, e.Stats().MaxDepth)
	assert.Equal(t, len(again), e.Stats().Records)
	assert.Positive(t, e.Stats().Growths)
	assert.Positive(t, e.Stats().Deferrals)
}

func TestEngineDebug(t *testing.T) {
	var buf bytes.Buffer
	log := hclog.New(&hclog.LoggerOptions{
		Name:   "combi",
		Level:  hclog.Trace,
		Output: &buf,
	})
	expr, _, _ := arithmetic()

	_, err := NewEngine(WithLogger(log), WithDebug(true)).Match(expr, "1+2")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "enter")
	assert.Contains(t, buf.String(), "grow")
	assert.Contains(t, buf.String(), "matcher=expr")
}
