package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/zjrosen/cath/internal/highlight"
)

// ExpandTabs replaces tabs with spaces up to the next multiple of width,
// measuring columns in terminal cells. The column carries across spans.
func ExpandTabs(spans []highlight.StyledSpan, width int) []highlight.StyledSpan {
	if width <= 0 {
		return spans
	}

	out := make([]highlight.StyledSpan, len(spans))
	col := 0
	for i, span := range spans {
		out[i].Style = span.Style
		if !strings.ContainsRune(span.Text, '\t') {
			col += runewidth.StringWidth(span.Text)
			out[i].Text = span.Text
			continue
		}

		var b strings.Builder
		s, state := span.Text, -1
		for len(s) > 0 {
			var cluster string
			cluster, s, _, state = uniseg.StepString(s, state)
			if cluster == "\t" {
				n := width - col%width
				b.WriteString(strings.Repeat(" ", n))
				col += n
				continue
			}
			b.WriteString(cluster)
			col += runewidth.StringWidth(cluster)
		}
		out[i].Text = b.String()
	}
	return out
}
