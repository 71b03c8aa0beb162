package combi

import (
	"github.com/hashicorp/go-hclog"
	"golang.org/x/exp/slices"
)

const defaultTraceLimit = 16

// Engine matches grammars against inputs.  It keeps the cursor, the
// records, the stack of active matchers and the packrat cache of one
// match at a time, so an engine can be reused for many matches but
// must never run two of them at once.  Matcher graphs carry no match
// state and can be shared among engines freely.
type Engine struct {
	log        hclog.Logger
	debug      bool
	caching    bool
	elide      bool
	full       bool
	traceLimit int

	tape    *Tape
	records []Record
	stack   []*frame
	active  map[activeKey]int
	cache   *cache
	epoch   int
	anchor  *anchor
	discard int
	fail    failure
	stats   Stats
}

// frame is an active matcher invocation.
type frame struct {
	m      *Matcher
	begin  int
	depth  int
	epoch  int
	choice int

	// mark is the length of the record list when the frame was
	// pushed.  Records from there on belong to the frame.
	mark int

	// pending is whether the anchor seed was waiting to be replayed
	// when the frame was pushed.
	pending bool

	deps []dep

	// deferred is set when the matcher re-entered itself at `begin`
	// and that re-entry was failed.  A successful result then seeds
	// the growing loop.
	deferred bool
}

type activeKey struct {
	m   *Matcher
	pos int
}

// anchor is the left recursive matcher being grown.  While pending,
// the next invocation of `m` at `begin` replays the seed instead of
// running.
type anchor struct {
	m       *Matcher
	begin   int
	depth   int
	epoch   int
	seed    []Record
	end     int
	pending bool
}

type failure struct {
	offset   int
	expected []string
	trace    []TraceEntry
}

type Option func(e *Engine)

// WithLogger sets the logger debug traces are written to.
func WithLogger(log hclog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithDebug logs every matcher invocation at trace level.
func WithDebug(on bool) Option {
	return func(e *Engine) {
		e.debug = on
	}
}

// WithCache turns the packrat cache on or off.  It is on by default.
// Turning it off never changes results, only how long they take.
func WithCache(on bool) Option {
	return func(e *Engine) {
		e.caching = on
	}
}

// WithTransientElision sets whether trees built by Engine.Treeify
// leave out the nodes of transient matchers.  It is on by default.
func WithTransientElision(on bool) Option {
	return func(e *Engine) {
		e.elide = on
	}
}

// WithRequireFull makes every match that leaves input behind fail
// with an error wrapping ErrInputNotConsumed.  It is off by default.
func WithRequireFull(on bool) Option {
	return func(e *Engine) {
		e.full = on
	}
}

// WithTraceLimit caps how many active matchers a ParsingError lists.
func WithTraceLimit(n int) Option {
	return func(e *Engine) {
		e.traceLimit = n
	}
}

// NewEngine creates an engine with the packrat cache enabled.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:        hclog.NewNullLogger(),
		caching:    true,
		elide:      true,
		traceLimit: defaultTraceLimit,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Stats returns the counters of the last match.
func (e *Engine) Stats() Stats { return e.stats }

// Match runs `m` at the beginning of `input`.  On success it returns
// the records of every sub-match, the last one being the record of
// `m` itself.  The match may cover only a prefix of the input unless
// the engine was created WithRequireFull.
//
// Grammars with left recursion that can't terminate make Match panic
// with an *UnrecoverableRecursionError before the input is looked at.
func (e *Engine) Match(m *Matcher, input string) ([]Record, error) {
	analyze(m)
	e.reset([]rune(input))
	if e.debug {
		e.log.Debug("match", "matcher", m.String(), "input_len", e.tape.Len())
	}
	ok := e.capture(m)
	e.stats.Records = len(e.records)
	if !ok {
		return nil, e.parsingError()
	}
	if e.full {
		if err := e.checkConsumed(e.records); err != nil {
			return nil, err
		}
	}
	return e.records, nil
}

func (e *Engine) reset(input []rune) {
	e.tape = newTapeFromRunes(input)
	e.records = nil
	e.stack = e.stack[:0]
	e.active = map[activeKey]int{}
	e.cache = newCache(len(input) + 1)
	e.epoch = 0
	e.anchor = nil
	e.discard = 0
	e.fail = failure{offset: -1}
	e.stats = Stats{}
}

// capture is how every matcher is invoked, the start matcher
// included.  It returns whether `m` matched at the cursor.  On
// failure the cursor and the record list are left as they were.
func (e *Engine) capture(m *Matcher) bool {
	analyze(m)
	e.stats.Captures++
	begin := e.tape.Offset()

	if a := e.anchor; a != nil && a.pending && a.m == m && a.begin == begin {
		e.replaySeed(a)
		return true
	}
	if i, ok := e.active[activeKey{m, begin}]; ok {
		f := e.stack[i]
		e.stats.Deferrals++
		e.addDep(dep{m: m, depth: f.depth, epoch: f.epoch})
		return false
	}

	f := e.push(m, begin)
	if e.debug {
		e.log.Trace("enter", "matcher", m.String(), "offset", begin, "depth", f.depth)
	}
	ok, hit := e.lookup(f)
	if !hit {
		ok = e.run(m, f)
		if ok {
			e.emit(Record{Matcher: m, Depth: f.depth, Begin: begin, End: e.tape.Offset(), Choice: f.choice, Persistent: !m.transient})
			if f.deferred {
				e.grow(f)
			}
		} else if m.base().kind == KindAtomic {
			e.noteFailure(m, begin)
		}
		e.store(f, ok)
	}
	if !ok {
		e.rollback(begin, f.mark, f.pending)
	}
	if e.debug {
		e.log.Trace("exit", "matcher", m.String(), "offset", begin, "end", e.tape.Offset(), "depth", f.depth, "ok", ok, "cached", hit)
	}
	e.pop(f)
	return ok
}

// probe runs `m` without recording anything and puts the cursor back
// where it was.
func (e *Engine) probe(m *Matcher) (int, bool) {
	begin := e.tape.Offset()
	e.discard++
	ok := e.capture(m)
	e.discard--
	n := e.tape.Offset() - begin
	e.tape.Seek(begin)
	return n, ok
}

func (e *Engine) emit(r Record) {
	if e.discard > 0 {
		return
	}
	e.records = append(e.records, r)
}

func (e *Engine) rollback(offset, mark int, pending bool) {
	e.tape.Seek(offset)
	if mark < len(e.records) {
		e.records = e.records[:mark]
	}
	if e.anchor != nil {
		e.anchor.pending = pending
	}
}

func (e *Engine) nextEpoch() int {
	e.epoch++
	return e.epoch
}

func (e *Engine) top() *frame {
	if len(e.stack) == 0 {
		return nil
	}
	return e.stack[len(e.stack)-1]
}

func (e *Engine) push(m *Matcher, begin int) *frame {
	f := &frame{
		m:     m,
		begin: begin,
		depth: len(e.stack) + 1,
		epoch: e.nextEpoch(),
		mark:  len(e.records),
	}
	if e.anchor != nil {
		f.pending = e.anchor.pending
	}
	e.stack = append(e.stack, f)
	e.active[activeKey{m, begin}] = len(e.stack) - 1
	e.stats.MaxDepth = max(e.stats.MaxDepth, f.depth)
	return f
}

// pop removes the top frame and hands its dependencies on older
// frames to its parent.  A dependency on the parent itself means the
// parent re-entered itself through this frame.
func (e *Engine) pop(f *frame) {
	e.stack = e.stack[:len(e.stack)-1]
	delete(e.active, activeKey{f.m, f.begin})
	for _, d := range f.deps {
		if d.depth < f.depth {
			e.addDep(d)
		}
	}
}

// addDep records that the result of the top frame depends on the
// frame `d` being active.
func (e *Engine) addDep(d dep) {
	f := e.top()
	if f == nil {
		return
	}
	if d.depth == f.depth && d.epoch == f.epoch {
		f.deferred = true
		return
	}
	for _, x := range f.deps {
		if x == d {
			return
		}
	}
	f.deps = append(f.deps, d)
}

func (e *Engine) live(d dep) bool {
	if d.depth < 1 || d.depth > len(e.stack) {
		return false
	}
	f := e.stack[d.depth-1]
	return f.m == d.m && f.epoch == d.epoch
}

// lookup replays a cached result for the top frame if there is one
// valid in the current context.
func (e *Engine) lookup(f *frame) (ok, hit bool) {
	if !e.caching || !f.m.an.cacheable {
		return false, false
	}
	entry := e.cache.lookup(f.m, f.begin, e.live)
	if entry == nil {
		e.stats.CacheMisses++
		return false, false
	}
	e.stats.CacheHits++
	for _, d := range entry.deps {
		e.addDep(d)
	}
	if !entry.ok {
		return false, true
	}
	if e.discard == 0 {
		for _, r := range entry.records {
			e.records = append(e.records, r.shifted(f.depth))
		}
	}
	e.tape.Seek(entry.end)
	return true, true
}

func (e *Engine) store(f *frame, ok bool) {
	if !e.caching || !f.m.an.cacheable {
		return
	}
	// successes seen while discarding have no records to replay.
	if ok && e.discard > 0 {
		return
	}
	entry := &cacheEntry{m: f.m, end: e.tape.Offset(), ok: ok}
	for _, d := range f.deps {
		if d.depth < f.depth {
			entry.deps = append(entry.deps, d)
		}
	}
	if ok {
		entry.records = make([]Record, 0, len(e.records)-f.mark)
		for _, r := range e.records[f.mark:] {
			entry.records = append(entry.records, r.shifted(-f.depth))
		}
	}
	e.cache.store(f.begin, entry)
	e.stats.CacheStores++
}

// replaySeed stands in for an invocation of the anchor matcher at the
// anchor offset by re-emitting the current seed one level below the
// caller.
func (e *Engine) replaySeed(a *anchor) {
	shift := len(e.stack) + 1 - a.depth
	if e.discard == 0 {
		for _, r := range a.seed {
			e.records = append(e.records, r.shifted(shift))
		}
	}
	e.tape.Seek(a.end)
	a.pending = false
	e.addDep(dep{m: a.m, depth: a.depth, epoch: a.epoch})
}

// grow extends the match of a left recursive frame.  The current
// result becomes the seed, and the matcher runs again from the same
// offset with its own re-entry standing for the seed.  It stops as
// soon as an attempt does not get further than the seed did, and
// leaves the longest seed in place.
func (e *Engine) grow(f *frame) {
	prev := e.anchor
	seed := slices.Clone(e.records[f.mark:])
	e.records = e.records[:f.mark]
	end := e.tape.Offset()
	choice := f.choice

	for {
		e.stats.Growths++
		f.epoch = e.nextEpoch()
		f.choice = 0
		e.anchor = &anchor{
			m:       f.m,
			begin:   f.begin,
			depth:   f.depth,
			epoch:   f.epoch,
			seed:    seed,
			end:     end,
			pending: true,
		}
		e.tape.Seek(f.begin)
		if !e.run(f.m, f) || e.tape.Offset() <= end {
			e.records = e.records[:f.mark]
			break
		}
		e.emit(Record{Matcher: f.m, Depth: f.depth, Begin: f.begin, End: e.tape.Offset(), Choice: f.choice, Persistent: !f.m.transient})
		if e.debug {
			e.log.Trace("grow", "matcher", f.m.String(), "offset", f.begin, "end", e.tape.Offset())
		}
		seed = slices.Clone(e.records[f.mark:])
		e.records = e.records[:f.mark]
		end = e.tape.Offset()
		choice = f.choice
	}

	e.anchor = prev
	e.records = append(e.records, seed...)
	e.tape.Seek(end)
	f.choice = choice
	f.epoch = e.nextEpoch()
}

// noteFailure keeps track of the farthest offset an atomic matcher
// failed at, which is what ParsingError reports.
func (e *Engine) noteFailure(m *Matcher, offset int) {
	e.stats.Failures++
	if e.discard > 0 || offset < e.fail.offset {
		return
	}
	if offset > e.fail.offset {
		e.fail.offset = offset
		e.fail.expected = e.fail.expected[:0]
		e.fail.trace = e.snapshot()
	}
	name := m.String()
	if !slices.Contains(e.fail.expected, name) {
		e.fail.expected = append(e.fail.expected, name)
	}
}

func (e *Engine) snapshot() []TraceEntry {
	frames := e.stack
	if e.traceLimit > 0 && len(frames) > e.traceLimit {
		frames = frames[len(frames)-e.traceLimit:]
	}
	trace := make([]TraceEntry, 0, len(frames))
	for _, f := range frames {
		trace = append(trace, TraceEntry{Matcher: f.m.String(), Begin: f.begin, Depth: f.depth})
	}
	return trace
}

func (e *Engine) parsingError() *ParsingError {
	if e.fail.offset < 0 {
		return &ParsingError{}
	}
	return &ParsingError{
		Offset:   e.fail.offset,
		Expected: slices.Clone(e.fail.expected),
		Trace:    slices.Clone(e.fail.trace),
	}
}
