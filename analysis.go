package combi

import (
	"sync"
	"sync/atomic"
)

// analysis holds what is known about a matcher before any input is
// seen.  It is computed once for the whole graph reachable from the
// first matcher used, and never changes after `done` is set.
type analysis struct {
	done atomic.Bool

	// leftEdges are the sub-matchers that may run at the same
	// offset the matcher starts at.
	leftEdges []*Matcher

	// leftReach is the transitive closure of leftEdges.
	leftReach map[*Matcher]struct{}

	nullable      bool
	cacheable     bool
	leftRecursive bool
}

// analysisMu serializes analysis runs.  Readers check `done` first,
// so matchers that were already analyzed never take the lock.
var analysisMu sync.Mutex

func analyze(m *Matcher) {
	if m.an.done.Load() {
		return
	}
	analysisMu.Lock()
	defer analysisMu.Unlock()
	if m.an.done.Load() {
		return
	}
	var a analyzer
	a.collect(m)
	a.computeNullable()
	a.computeCacheable()
	a.computeLeftEdges()
	a.computeLeftReach()
	a.checkGuards()
	for _, n := range a.nodes {
		n.an.done.Store(true)
	}
}

// reaches reports whether `target` can run at the offset `m` starts
// at, either because it is `m` or because it is left-reachable from
// it.
func reaches(m, target *Matcher) bool {
	if m == target {
		return true
	}
	_, ok := m.an.leftReach[target]
	return ok
}

// isGuard reports whether a matcher can abandon a branch that
// re-enters a matcher at the same offset and still succeed or try
// something else.
func isGuard(m *Matcher) bool {
	switch m.kind {
	case KindChoice, KindOption, KindProximity:
		return true
	case KindRepetition:
		return m.min == 0
	default:
		return false
	}
}

type analyzer struct {
	nodes []*Matcher
	seen  map[*Matcher]struct{}
}

// children returns every matcher `m` may call, in any position.
func children(m *Matcher) []*Matcher {
	out := make([]*Matcher, 0, len(m.subs)+2)
	out = append(out, m.subs...)
	if m.sep != nil {
		out = append(out, m.sep)
	}
	if m.probe != nil {
		out = append(out, m.probe)
	}
	return out
}

// collect gathers the matchers reachable from `root` that were not
// analyzed yet.  Analyzed matchers only ever reach analyzed matchers,
// so the walk stops at them.
func (a *analyzer) collect(root *Matcher) {
	a.seen = map[*Matcher]struct{}{}
	stack := []*Matcher{root}
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := a.seen[m]; ok || m.an.done.Load() {
			continue
		}
		a.seen[m] = struct{}{}
		if m.kind == KindRule && m.subs[0] == nil {
			panic(&UndefinedRuleError{Rule: m.String()})
		}
		a.nodes = append(a.nodes, m)
		for _, c := range children(m) {
			stack = append(stack, c)
		}
	}
}

func (a *analyzer) computeNullable() {
	for _, m := range a.nodes {
		m.an.nullable = m.kind == KindAtomic && m.nullable
	}
	for changed := true; changed; {
		changed = false
		for _, m := range a.nodes {
			if m.an.nullable {
				continue
			}
			if nullable(m) {
				m.an.nullable = true
				changed = true
			}
		}
	}
}

func nullable(m *Matcher) bool {
	switch m.kind {
	case KindAtomic:
		return m.nullable
	case KindSequence:
		for _, s := range m.subs {
			if !s.an.nullable {
				return false
			}
		}
		return true
	case KindChoice, KindProximity:
		for _, s := range m.subs {
			if s.an.nullable {
				return true
			}
		}
		return false
	case KindRepetition:
		return m.min == 0 || m.subs[0].an.nullable
	case KindOption:
		return true
	case KindRule:
		return m.subs[0].an.nullable
	}
	return false
}

// computeCacheable starts from everything being cacheable and removes
// matchers until it settles, so cycles of cacheable matchers stay
// cacheable.
func (a *analyzer) computeCacheable() {
	for _, m := range a.nodes {
		m.an.cacheable = !m.noCache && m.kind != KindProximity
	}
	for changed := true; changed; {
		changed = false
		for _, m := range a.nodes {
			if !m.an.cacheable {
				continue
			}
			for _, c := range children(m) {
				if !c.an.cacheable {
					m.an.cacheable = false
					changed = true
					break
				}
			}
		}
	}
}

func (a *analyzer) computeLeftEdges() {
	for _, m := range a.nodes {
		m.an.leftEdges = leftEdges(m)
	}
}

func leftEdges(m *Matcher) []*Matcher {
	switch m.kind {
	case KindAtomic:
		if m.probe != nil {
			return []*Matcher{m.probe}
		}
		return nil
	case KindSequence:
		var out []*Matcher
		for i, s := range m.subs {
			if i > 0 && m.sep != nil {
				out = append(out, m.sep)
			}
			out = append(out, s)
			if !s.an.nullable {
				break
			}
		}
		return out
	case KindChoice, KindProximity:
		return m.subs
	default:
		return m.subs[:1]
	}
}

func (a *analyzer) computeLeftReach() {
	for _, m := range a.nodes {
		reach := map[*Matcher]struct{}{}
		stack := append([]*Matcher(nil), m.an.leftEdges...)
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, ok := reach[n]; ok {
				continue
			}
			reach[n] = struct{}{}
			if n.an.done.Load() {
				for r := range n.an.leftReach {
					reach[r] = struct{}{}
				}
				continue
			}
			stack = append(stack, n.an.leftEdges...)
		}
		m.an.leftReach = reach
		_, m.an.leftRecursive = reach[m]
	}
}

// checkGuards panics if a matcher can reach itself through left edges
// without passing through a guard.  Such a cycle never consumes input
// and has no way out.
func (a *analyzer) checkGuards() {
	for _, m := range a.nodes {
		if !m.an.leftRecursive || isGuard(m) {
			continue
		}
		if cycle := unguardedCycle(m); cycle != nil {
			names := make([]string, len(cycle))
			for i, c := range cycle {
				names[i] = c.String()
			}
			panic(&UnrecoverableRecursionError{Matcher: m.String(), Cycle: names})
		}
	}
}

// unguardedCycle looks for a path from `m` back to itself made only of
// non-guard matchers and returns it, or nil.
func unguardedCycle(m *Matcher) []*Matcher {
	parent := map[*Matcher]*Matcher{}
	queue := []*Matcher{m}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range n.an.leftEdges {
			if c == m {
				path := []*Matcher{m}
				for p := n; p != m; p = parent[p] {
					path = append(path, p)
				}
				path = append(path, m)
				for i, j := 1, len(path)-2; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if _, ok := parent[c]; ok || isGuard(c) {
				continue
			}
			parent[c] = n
			queue = append(queue, c)
		}
	}
	return nil
}
