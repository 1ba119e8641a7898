package highlight

import (
	"iter"
	"strings"

	"github.com/zjrosen/cath/internal/grammar"
	"github.com/zjrosen/cath/internal/log"
	"github.com/zjrosen/cath/internal/parse"
)

// Session highlights the lines of one file in order. Lines must be fed
// sequentially since the parse state carries from one line to the next.
type Session struct {
	state *parse.State
	h     *Highlighter
	err   error
}

// NewSession starts highlighting a file written in g.
func NewSession(g *grammar.Grammar, h *Highlighter) *Session {
	return &Session{state: parse.NewState(g), h: h}
}

// HighlightLine tokenizes and styles the next line. line should include its
// terminator.
func (s *Session) HighlightLine(line string) ([]StyledSpan, error) {
	tokens, err := s.state.ParseLine(line)
	if err != nil {
		return nil, err
	}
	return s.h.HighlightLine(tokens, line)
}

// Lines highlights content lazily, yielding 1-indexed line numbers. It stops
// at the first error, which Err then reports.
func (s *Session) Lines(content string) iter.Seq2[int, []StyledSpan] {
	return func(yield func(int, []StyledSpan) bool) {
		n := 0
		for line := range SplitLines(content) {
			n++
			spans, err := s.HighlightLine(line)
			if err != nil {
				log.ErrorErr(log.CatHighlight, "highlighting line", err, "line", n)
				s.err = err
				return
			}
			if !yield(n, spans) {
				return
			}
		}
	}
}

// Err returns the error that stopped Lines, if any.
func (s *Session) Err() error {
	return s.err
}

// Depth returns the parse stack depth after the last line.
func (s *Session) Depth() int {
	return s.state.Depth()
}

// SplitLines yields the lines of content with their "\n" or "\r\n"
// terminators. A final line without a terminator is yielded as is.
func SplitLines(content string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for len(content) > 0 {
			i := strings.IndexByte(content, '\n')
			if i < 0 {
				yield(content)
				return
			}
			if !yield(content[:i+1]) {
				return
			}
			content = content[i+1:]
		}
	}
}
