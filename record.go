package combi

import "fmt"

// Record is emitted every time a matcher succeeds.  Records are
// appended in the order matches complete, so within one parent the
// innermost matches come first and the parent's own record comes
// last.  That ordering together with `Depth` is all BuildTree needs
// to rebuild the tree.
type Record struct {
	// Matcher is nil for substrings explicitly yielded by a script
	// and not attributed to any rule.
	Matcher *Matcher

	// Depth is the nesting level of the matcher invocation that
	// produced this record.  The start matcher has depth 1.
	Depth int

	Begin int
	End   int

	// Choice is the index of the alternative that satisfied a
	// Choice, Option or Proximity.  Options that matched nothing
	// record -1.
	Choice int

	// Persistent is false for records of transient matchers.
	// They stay in the flat list but trees elide them.
	Persistent bool
}

func (r Record) Len() int     { return r.End - r.Begin }
func (r Record) Range() Range { return Range{Start: r.Begin, End: r.End} }

// Name returns the name of the matcher that produced the record, or
// an empty string for anonymous matchers and explicit yields.
func (r Record) Name() string {
	if r.Matcher == nil {
		return ""
	}
	return r.Matcher.Name()
}

func (r Record) String() string {
	label := "yield"
	if r.Matcher != nil {
		label = r.Matcher.String()
	}
	return fmt.Sprintf("%s[%d] @ %s", label, r.Depth, r.Range())
}

// shifted returns a copy of the record moved `delta` levels deeper.
func (r Record) shifted(delta int) Record {
	r.Depth += delta
	return r
}
