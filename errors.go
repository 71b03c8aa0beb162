package combi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInputNotConsumed is wrapped by Parse when a full match was
// required and the start matcher accepted only a prefix of the input.
var ErrInputNotConsumed = errors.New("input not fully consumed")

// ParsingError is returned when the start matcher does not match.  It
// points at the farthest offset any atomic matcher failed at, which is
// usually closest to what the input got wrong.
type ParsingError struct {
	// Offset is the rune offset of the farthest failure.
	Offset int

	// Expected holds the names of the atomic matchers that failed at
	// Offset, in the order they were attempted.
	Expected []string

	// Trace holds the active matchers when the farthest failure
	// happened, from the outermost to the innermost.
	Trace []TraceEntry

	// Cause is set when the failure wraps another error, like
	// ErrInputNotConsumed.
	Cause error
}

// TraceEntry is one active matcher of a failure trace.
type TraceEntry struct {
	Matcher string
	Begin   int
	Depth   int
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("%s @ %d", e.Matcher, e.Begin)
}

func (e *ParsingError) Error() string {
	var s strings.Builder
	if e.Cause != nil {
		s.WriteString(e.Cause.Error())
	} else {
		s.WriteString("no match")
	}
	fmt.Fprintf(&s, " @ %d", e.Offset)
	if len(e.Expected) > 0 {
		s.WriteString(", expected ")
		s.WriteString(strings.Join(e.Expected, " or "))
	}
	return s.String()
}

func (e *ParsingError) Unwrap() error { return e.Cause }

// UnrecoverableRecursionError is raised, as a panic, when a matcher
// can re-enter itself without consuming input and without any choice
// on the way that could abandon the recursive branch.
type UnrecoverableRecursionError struct {
	Matcher string
	Cycle   []string
}

func (e *UnrecoverableRecursionError) Error() string {
	return fmt.Sprintf("unguarded left recursion in `%s`: %s", e.Matcher, strings.Join(e.Cycle, " -> "))
}

// UndefinedRuleError is raised, as a panic, when a rule declared with
// Rule is used without ever being defined.
type UndefinedRuleError struct {
	Rule string
}

func (e *UndefinedRuleError) Error() string {
	return fmt.Sprintf("rule `%s` was declared but never defined", e.Rule)
}

// MalformedTransformError is raised, as a panic, when a transform
// visits the same child twice.
type MalformedTransformError struct {
	Matcher string
	Child   int
}

func (e *MalformedTransformError) Error() string {
	return fmt.Sprintf("transform of `%s` visited child %d twice", e.Matcher, e.Child)
}

// EmptyTreeError is raised, as a panic, when a tree is requested from
// a record list with nothing left to attach.
type EmptyTreeError struct{}

func (e *EmptyTreeError) Error() string { return "no records to build a tree from" }

// MalformedPatternError is raised, as a panic, when a pattern or
// class expression handed to an atomic matcher can't be compiled.
type MalformedPatternError struct {
	Expr string
	Err  error
}

func (e *MalformedPatternError) Error() string {
	return fmt.Sprintf("malformed pattern `%s`: %s", e.Expr, e.Err)
}

func (e *MalformedPatternError) Unwrap() error { return e.Err }
