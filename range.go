package combi

import "strconv"

// Range is the half-open span `[Start, End)` of rune offsets covered
// by a match.
type Range struct {
	Start int
	End   int
}

func NewRange(start, end int) Range { return Range{Start: start, End: end} }

func (r Range) Len() int    { return r.End - r.Start }
func (r Range) Empty() bool { return r.Start == r.End }

// Of returns the text the range covers in `input`.
func (r Range) Of(input []rune) string { return string(input[r.Start:r.End]) }

// String prints the offsets, or a single one for empty ranges.
func (r Range) String() string {
	if r.Empty() {
		return strconv.Itoa(r.Start)
	}
	return strconv.Itoa(r.Start) + ".." + strconv.Itoa(r.End)
}
