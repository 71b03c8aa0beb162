package combi

// run executes the logic of `m` within the frame `f`.  Rules run the
// logic of their body in their own frame, so they don't add a level
// to the records.
func (e *Engine) run(m *Matcher, f *frame) bool {
	switch m.kind {
	case KindAtomic:
		return m.atom(&Scanner{e: e, depth: f.depth})
	case KindSequence:
		return e.runSequence(m)
	case KindChoice:
		return e.runChoice(m, f)
	case KindRepetition:
		return e.runRepetition(m)
	case KindOption:
		return e.runOption(m, f)
	case KindProximity:
		return e.runProximity(m, f)
	case KindRule:
		return e.run(m.subs[0], f)
	default:
		panic("unknown matcher kind: " + m.kind.String())
	}
}

// runSequence matches every element in order.  The separator is
// attempted between elements and is allowed to fail.
func (e *Engine) runSequence(m *Matcher) bool {
	for i, sub := range m.subs {
		if i > 0 && m.sep != nil {
			e.capture(m.sep)
		}
		if !e.capture(sub) {
			return false
		}
	}
	return true
}

// runChoice tries the candidates in order and keeps the first one
// that matches.  While a seed is waiting to be replayed at the
// cursor, only candidates that can get to it are tried.
func (e *Engine) runChoice(m *Matcher, f *frame) bool {
	for i, c := range m.subs {
		f.choice = i
		if a := e.pendingAnchor(); a != nil && !reaches(c, a.m) {
			e.addDep(dep{m: a.m, depth: a.depth, epoch: a.epoch})
			continue
		}
		if e.capture(c) {
			return true
		}
	}
	return false
}

// runRepetition matches the body as many times as it can.  An
// iteration that fails or makes no progress is undone along with the
// separator before it, except that one empty iteration is kept when
// the minimum wasn't reached yet, since every further iteration would
// be empty too.
func (e *Engine) runRepetition(m *Matcher) bool {
	sub := m.subs[0]
	count := 0
	for {
		start, mark, pending := e.checkpoint()
		if count > 0 && m.sep != nil {
			e.capture(m.sep)
		}
		if !e.capture(sub) {
			e.rollback(start, mark, pending)
			break
		}
		if e.tape.Offset() == start {
			if count < m.min {
				count = m.min
			} else {
				e.rollback(start, mark, pending)
			}
			break
		}
		count++
	}
	return count >= m.min
}

func (e *Engine) runOption(m *Matcher, f *frame) bool {
	f.choice = 0
	if !e.capture(m.subs[0]) {
		f.choice = -1
	}
	return true
}

// runProximity invokes whichever candidate is active closest to the
// top of the stack.
func (e *Engine) runProximity(m *Matcher, f *frame) bool {
	if a := e.anchor; a != nil && a.pending {
		e.addDep(dep{m: a.m, depth: a.depth, epoch: a.epoch})
		return false
	}
	for i := len(e.stack) - 2; i >= 0; i-- {
		for j, c := range m.subs {
			if e.stack[i].m == c {
				f.choice = j
				return e.capture(c)
			}
		}
	}
	return false
}

// pendingAnchor returns the anchor if its seed is waiting to be
// replayed at the cursor.
func (e *Engine) pendingAnchor() *anchor {
	a := e.anchor
	if a == nil || !a.pending || a.begin != e.tape.Offset() {
		return nil
	}
	return a
}

func (e *Engine) checkpoint() (offset, mark int, pending bool) {
	offset, mark = e.tape.Offset(), len(e.records)
	if e.anchor != nil {
		pending = e.anchor.pending
	}
	return offset, mark, pending
}
