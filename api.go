package combi

// Match runs `m` against `input` with a new engine and returns the
// records of the match.  See Engine.Match.
func Match(m *Matcher, input string) ([]Record, error) {
	return NewEngine().Match(m, input)
}

// Treeify matches `m` against `input` with a new engine and returns
// the syntax tree of the match.
func Treeify(m *Matcher, input string) (*Tree, error) {
	return NewEngine().Treeify(m, input)
}

// Parse matches `m` against `input`, builds the tree of the match and
// walks it with `bindings` starting from `initial`.  When
// `requireFull` is set, a match that does not cover the whole input
// fails with an error wrapping ErrInputNotConsumed.
func Parse[R any](m *Matcher, input string, bindings *Bindings, initial R, requireFull bool) (R, error) {
	return ParseWith(NewEngine(), m, input, bindings, initial, requireFull)
}

// ParseWith is like Parse but runs on the engine `e`.
func ParseWith[R any](e *Engine, m *Matcher, input string, bindings *Bindings, initial R, requireFull bool) (R, error) {
	records, err := e.Match(m, input)
	if err != nil {
		return initial, err
	}
	if requireFull {
		if err := e.checkConsumed(records); err != nil {
			return initial, err
		}
	}
	return Walk(e.tree(records), bindings, initial), nil
}

// Treeify matches `m` against `input` and returns the syntax tree of
// the match.
func (e *Engine) Treeify(m *Matcher, input string) (*Tree, error) {
	records, err := e.Match(m, input)
	if err != nil {
		return nil, err
	}
	return e.tree(records), nil
}

// MatchFull is like Match but fails with an error wrapping
// ErrInputNotConsumed when the match does not cover the whole input.
func (e *Engine) MatchFull(m *Matcher, input string) ([]Record, error) {
	records, err := e.Match(m, input)
	if err != nil {
		return nil, err
	}
	if err := e.checkConsumed(records); err != nil {
		return nil, err
	}
	return records, nil
}

// TreeifyFull is like Treeify but requires the match to cover the
// whole input.
func (e *Engine) TreeifyFull(m *Matcher, input string) (*Tree, error) {
	records, err := e.MatchFull(m, input)
	if err != nil {
		return nil, err
	}
	return e.tree(records), nil
}

func (e *Engine) tree(records []Record) *Tree {
	return buildTree(e.tape.Runes(), records, e.elide)
}

// checkConsumed reports input left over after the root record.  The
// error points at the farthest failure past it when there is one,
// since that is where the match could not go on.
func (e *Engine) checkConsumed(records []Record) error {
	end := records[len(records)-1].End
	if end == e.tape.Len() {
		return nil
	}
	perr := e.parsingError()
	if perr.Offset < end {
		perr = &ParsingError{Offset: end}
	}
	perr.Cause = ErrInputNotConsumed
	return perr
}
