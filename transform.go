package combi

// Bindings maps matchers to the transforms applied to their nodes
// when a tree is walked.
type Bindings struct {
	fns map[*Matcher]binding
}

func NewBindings() *Bindings {
	return &Bindings{fns: map[*Matcher]binding{}}
}

// Bind registers `fn` as the transform of the nodes produced by `m`.
// The walk only calls `fn` with the accumulator in scope if it is an
// `A`.  Otherwise `fn` runs from the zero value of `A`, and when `m`
// is anonymous its result is handed to the nearest enclosing scope,
// where Scope.Hoisted returns it.  Results of named matchers are
// dropped in that case.
func Bind[A any](b *Bindings, m *Matcher, fn func(s *Scope[A], acc A) A) {
	b.fns[m] = &typedBinding[A]{fn: fn}
}

// Len returns how many matchers have a transform.
func (b *Bindings) Len() int { return len(b.fns) }

type binding interface {
	call(w *walker, id NodeID, acc any) any
}

type typedBinding[A any] struct {
	fn func(*Scope[A], A) A
}

func (tb *typedBinding[A]) call(w *walker, id NodeID, acc any) any {
	s := &Scope[A]{w: w, id: id, visited: make([]bool, len(w.t.Children(id)))}
	if a, ok := acc.(A); ok {
		return tb.fn(s, a)
	}
	var zero A
	result := tb.fn(s, zero)
	if w.t.Name(id) == "" {
		w.hoist(result)
	}
	return acc
}

// hoister is implemented by every Scope regardless of its type.
type hoister interface {
	hoist(v any)
}

type walker struct {
	t      *Tree
	b      *Bindings
	scopes []hoister
}

// Walk applies the transforms in `b` to the tree under its root,
// threading `initial` through every node.  Nodes without a transform
// walk their children with the same accumulator.
func Walk[R any](t *Tree, b *Bindings, initial R) R {
	w := &walker{t: t, b: b}
	out := w.walk(t.Root(), initial)
	if r, ok := out.(R); ok {
		return r
	}
	return initial
}

func (w *walker) walk(id NodeID, acc any) any {
	if m := w.t.Matcher(id); m != nil && w.b != nil {
		if fn, ok := w.b.fns[m]; ok {
			return fn.call(w, id, acc)
		}
	}
	for _, child := range w.t.Children(id) {
		acc = w.walk(child, acc)
	}
	return acc
}

func (w *walker) hoist(v any) {
	if len(w.scopes) == 0 {
		return
	}
	w.scopes[len(w.scopes)-1].hoist(v)
}

// Scope is what a transform sees of the node it was called for.
// Children are only walked when the transform asks for it, through
// Visit or Descend, and each of them at most once.
type Scope[A any] struct {
	w       *walker
	id      NodeID
	visited []bool
	hoisted []any
}

func (s *Scope[A]) Tree() *Tree        { return s.w.t }
func (s *Scope[A]) Node() NodeID       { return s.id }
func (s *Scope[A]) Capture() string    { return s.w.t.Capture(s.id) }
func (s *Scope[A]) Choice() int        { return s.w.t.Choice(s.id) }
func (s *Scope[A]) Range() Range       { return s.w.t.Range(s.id) }
func (s *Scope[A]) Len() int           { return len(s.visited) }
func (s *Scope[A]) Child(i int) NodeID { return s.w.t.Child(s.id, i) }

// Hoisted returns the results of anonymous transforms run under this
// scope with an accumulator of another type.
func (s *Scope[A]) Hoisted() []any { return s.hoisted }

func (s *Scope[A]) hoist(v any) { s.hoisted = append(s.hoisted, v) }

// Visit walks the child `i` with `acc` and returns the accumulator it
// produced.  Visiting a child twice panics with a
// *MalformedTransformError.
func (s *Scope[A]) Visit(i int, acc A) A {
	if s.visited[i] {
		panic(&MalformedTransformError{Matcher: s.w.t.Matcher(s.id).String(), Child: i})
	}
	s.visited[i] = true
	s.w.scopes = append(s.w.scopes, s)
	out := s.w.walk(s.Child(i), acc)
	s.w.scopes = s.w.scopes[:len(s.w.scopes)-1]
	if a, ok := out.(A); ok {
		return a
	}
	return acc
}

// Descend visits, in order, every child not visited yet.
func (s *Scope[A]) Descend(acc A) A {
	for i, done := range s.visited {
		if !done {
			acc = s.Visit(i, acc)
		}
	}
	return acc
}
