// Package parse implements the line-oriented tokenizer that runs a grammar's
// contexts as a stack machine and produces scoped tokens.
package parse

import (
	"fmt"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/cath/internal/grammar"
)

// Token is a byte range of a line with its scope path, outermost first.
type Token struct {
	Start  int
	End    int
	Scopes []grammar.Scope
}

// ResolutionError reports a context id that does not exist in the grammar's
// arena, which means the state and the grammar came from different sets.
type ResolutionError struct {
	Context grammar.ContextID
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("parse: context %d is not defined in the grammar set", e.Context)
}

type frame struct {
	ctx *grammar.Context
	// captures holds the group texts of the match that pushed this frame,
	// indexed by group number; nil for the root frame.
	captures []string
	resolved map[*grammar.Pattern]*regexp2.Regexp
}

// State is the context stack carried from one line to the next. It belongs
// to one file and is not safe for concurrent use.
type State struct {
	grammar *grammar.Grammar
	stack   []*frame
}

// NewState returns a state positioned at the grammar's main context.
func NewState(g *grammar.Grammar) *State {
	return &State{grammar: g}
}

// Grammar returns the grammar the state runs.
func (s *State) Grammar() *grammar.Grammar {
	return s.grammar
}

// Depth returns the number of contexts pushed above the main context.
func (s *State) Depth() int {
	if len(s.stack) == 0 {
		return 0
	}
	return len(s.stack) - 1
}

// ContextNames returns the qualified names of the stacked contexts,
// outermost first. Used in debug logs.
func (s *State) ContextNames() []string {
	names := make([]string, len(s.stack))
	for i, f := range s.stack {
		names[i] = f.ctx.Name
	}
	return names
}

func (s *State) init() error {
	if len(s.stack) > 0 {
		return nil
	}
	if s.grammar == nil {
		return &ResolutionError{Context: -1}
	}
	main := s.grammar.MainContext()
	ctx, ok := s.grammar.Context(main)
	if !ok {
		return &ResolutionError{Context: main}
	}
	s.stack = append(s.stack, &frame{ctx: ctx})
	return nil
}

func (s *State) top() *frame {
	return s.stack[len(s.stack)-1]
}

func (s *State) push(ctx *grammar.Context, captures []string) {
	s.stack = append(s.stack, &frame{ctx: ctx, captures: captures})
}

// pop removes the top frame; the root frame is never removed.
func (s *State) pop() bool {
	if len(s.stack) <= 1 {
		return false
	}
	s.stack[len(s.stack)-1] = nil
	s.stack = s.stack[:len(s.stack)-1]
	return true
}

// contentPath is the scope path of text inside the top n frames.
func (s *State) contentPath(n int) []grammar.Scope {
	path := []grammar.Scope{s.grammar.RootScope()}
	for _, f := range s.stack[:n] {
		path = append(path, f.ctx.MetaScope...)
		path = append(path, f.ctx.MetaContentScope...)
	}
	return path
}

// ParseLine tokenizes one line, including its terminator, and advances the
// state. It only fails with a ResolutionError; unmatched text is emitted
// with the current context's scope path.
func (s *State) ParseLine(line string) ([]Token, error) {
	if err := s.init(); err != nil {
		return nil, err
	}
	p := newLineParser(s, line)
	return p.run()
}
