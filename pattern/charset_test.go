package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharset(t *testing.T) {
	t.Run("grows to fit its runes", func(t *testing.T) {
		cs := NewCharset()
		cs.Add('a')
		assert.Equal(t, "ascii", cs.Size())

		cs.Add('ç')
		assert.Equal(t, "latin1", cs.Size())
		assert.True(t, cs.Has('a'), "growing keeps earlier runes")

		cs.Add('λ')
		assert.Equal(t, "bmp", cs.Size())

		cs.Add('😀')
		assert.Equal(t, "unicode", cs.Size())
		assert.True(t, cs.Has('😀'))
		assert.False(t, cs.Has('b'))
	})

	t.Run("runes beyond the bitmap are not members", func(t *testing.T) {
		cs := NewCharset()
		cs.AddRange('0', '9')
		assert.False(t, cs.Has('λ'))
		assert.False(t, cs.Has(-1))
	})

	t.Run("negation", func(t *testing.T) {
		cs := NewCharset()
		cs.Add('x')
		cs.Negate()
		assert.False(t, cs.Has('x'))
		assert.True(t, cs.Has('y'))
		assert.True(t, cs.Has('λ'))
	})

	t.Run("string", func(t *testing.T) {
		cs := NewCharset()
		cs.AddRange('a', 'f')
		cs.Add('x')
		cs.Add('y')
		cs.Add('-')
		assert.Equal(t, `[\-a-fxy]`, cs.String())
	})

	t.Run("equal", func(t *testing.T) {
		a, err := ParseClass("a-c")
		require.NoError(t, err)
		b, err := ParseClass("abc")
		require.NoError(t, err)
		assert.True(t, a.Equal(b))

		b.Negate()
		assert.False(t, a.Equal(b))
	})
}

func TestParseClass(t *testing.T) {
	for _, test := range []struct {
		name    string
		expr    string
		members string
		others  string
	}{
		{name: "single runes", expr: "abc", members: "abc", others: "d-"},
		{name: "range", expr: "0-9", members: "0459", others: "a-"},
		{name: "negated", expr: "^*_", members: "ab ", others: "*_"},
		{name: "trailing dash is literal", expr: "a-", members: "a-", others: "b"},
		{name: "escaped dash", expr: `a\-z`, members: "a-z", others: "b"},
		{name: "escapes", expr: `\n\t\x41ç`, members: "\n\tAç", others: "n"},
		{name: "escaped bracket", expr: `\]\\`, members: `]\`, others: "["},
	} {
		t.Run(test.name, func(t *testing.T) {
			cs, err := ParseClass(test.expr)
			require.NoError(t, err)
			for _, r := range test.members {
				assert.True(t, cs.Has(r), "expected %q in %s", r, cs)
			}
			for _, r := range test.others {
				assert.False(t, cs.Has(r), "unexpected %q in %s", r, cs)
			}
		})
	}

	t.Run("errors", func(t *testing.T) {
		for _, expr := range []string{`z-a`, `a\`, `\x4`, `\uzzzz`} {
			_, err := ParseClass(expr)
			var se *SyntaxError
			assert.ErrorAs(t, err, &se, "expr %q", expr)
		}
	})
}
