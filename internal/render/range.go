package render

import "fmt"

// Range selects lines by 1-indexed inclusive bounds. Start below 1 means the
// first line and End 0 means the last line.
type Range struct {
	Start int
	End   int
}

// All selects every line.
var All = Range{}

// Clamp resolves r against a file of total lines. The result may be empty
// (Start > End), which is not an error.
func (r Range) Clamp(total int) Range {
	start := max(r.Start, 1)
	end := r.End
	if end <= 0 || end > total {
		end = total
	}
	return Range{Start: start, End: end}
}

// Contains reports whether line n is selected, before clamping.
func (r Range) Contains(n int) bool {
	if n < max(r.Start, 1) {
		return false
	}
	return r.End <= 0 || n <= r.End
}

// Empty reports whether r selects nothing in a file of total lines.
func (r Range) Empty(total int) bool {
	c := r.Clamp(total)
	return c.Start > c.End
}

func (r Range) String() string {
	end := "EOF"
	if r.End > 0 {
		end = fmt.Sprint(r.End)
	}
	return fmt.Sprintf("%d:%s", max(r.Start, 1), end)
}
