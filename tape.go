package combi

// Tape is the engine's cursor over the input.  The runes it was
// created with are never modified; only the offset moves, and it can
// never move outside of `[0, Len()]`.
type Tape struct {
	input  []rune
	offset int
}

func NewTape(input string) *Tape {
	return &Tape{input: []rune(input)}
}

func newTapeFromRunes(input []rune) *Tape {
	return &Tape{input: input}
}

func (t *Tape) Offset() int    { return t.offset }
func (t *Tape) Len() int       { return len(t.input) }
func (t *Tape) Remaining() int { return len(t.input) - t.offset }
func (t *Tape) AtEnd() bool    { return t.offset >= len(t.input) }
func (t *Tape) Runes() []rune  { return t.input }
func (t *Tape) Rest() []rune   { return t.input[t.offset:] }
func (t *Tape) Reset()         { t.offset = 0 }
func (t *Tape) String() string { return string(t.input[t.offset:]) }
func (t *Tape) Peek() (rune, bool) {
	if t.offset >= len(t.input) {
		return 0, false
	}
	return t.input[t.offset], true
}

// Advance moves the offset `n` runes forward.  It returns false and
// leaves the offset untouched when `n` is negative or would move the
// cursor past the end of the input.
func (t *Tape) Advance(n int) bool {
	if n < 0 || t.offset+n > len(t.input) {
		return false
	}
	t.offset += n
	return true
}

// Seek places the cursor at an absolute offset.  Used for rolling
// back, so it accepts any offset within the input.
func (t *Tape) Seek(offset int) bool {
	if offset < 0 || offset > len(t.input) {
		return false
	}
	t.offset = offset
	return true
}

// HasPrefix reports whether the input under the cursor starts with
// `prefix`.
func (t *Tape) HasPrefix(prefix []rune) bool {
	if len(prefix) > t.Remaining() {
		return false
	}
	for i, r := range prefix {
		if t.input[t.offset+i] != r {
			return false
		}
	}
	return true
}

// Slice returns the text between two absolute offsets.  Out of range
// offsets are clamped.
func (t *Tape) Slice(begin, end int) string {
	begin = max(0, min(begin, len(t.input)))
	end = max(begin, min(end, len(t.input)))
	return string(t.input[begin:end])
}

// Sub returns a new tape over `[begin, end)` of the original input
// with its own offset set to zero.
func (t *Tape) Sub(begin, end int) *Tape {
	begin = max(0, min(begin, len(t.input)))
	end = max(begin, min(end, len(t.input)))
	return &Tape{input: t.input[begin:end]}
}
