// Package grammar loads rule-based language grammars and indexes them by
// name, file extension, file name and first-line heuristics.
//
// All contexts of every grammar in a Set live in a single arena addressed
// by ContextID, so grammars may include and push each other's contexts
// (including themselves) without owning pointers to one another.
package grammar

import (
	"github.com/zjrosen/cath/internal/assets"
)

// ContextID addresses a Context inside the arena of the Set that loaded it.
type ContextID int

// Scope is an interned scope name such as "string.quoted.double.go".
type Scope int

// Context is a named, ordered list of rules with includes already flattened.
type Context struct {
	ID   ContextID
	Name string // qualified as "<grammar scope>#<context>"

	// MetaScope applies to the whole context including the delimiters that
	// push and pop it. MetaContentScope applies only between them.
	MetaScope        []Scope
	MetaContentScope []Scope

	Rules []Rule
}

// CaptureScope assigns scopes to one capture group of a rule's pattern.
type CaptureScope struct {
	Group  int
	Scopes []Scope
}

// Rule is one of MatchRule, PushRule or PopRule.
type Rule interface {
	Pattern() *Pattern
	Scopes() []Scope
	Captures() []CaptureScope
	isRule()
}

type ruleBase struct {
	pattern  *Pattern
	scopes   []Scope
	captures []CaptureScope
}

func (r ruleBase) Pattern() *Pattern        { return r.pattern }
func (r ruleBase) Scopes() []Scope          { return r.scopes }
func (r ruleBase) Captures() []CaptureScope { return r.captures }
func (ruleBase) isRule()                    {}

// MatchRule scopes the matched text and stays in the current context.
type MatchRule struct{ ruleBase }

// PushRule scopes the matched text as an opening delimiter and enters Target.
type PushRule struct {
	ruleBase
	Target ContextID
}

// PopRule scopes the matched text as a closing delimiter and leaves the
// current context.
type PopRule struct{ ruleBase }

// Grammar is a loaded language definition. Grammars are immutable and safe
// to share between goroutines.
type Grammar struct {
	Name           string
	ScopeName      string
	FileExtensions []string
	FileNames      []string
	Hidden         bool
	Origin         assets.Origin
	Path           string

	scope     Scope
	main      ContextID
	firstLine *Pattern
	set       *Set
}

// RootScope returns the interned grammar scope, e.g. source.go.
func (g *Grammar) RootScope() Scope { return g.scope }

// MainContext returns the entry context of the grammar.
func (g *Grammar) MainContext() ContextID { return g.main }

// Set returns the registry the grammar belongs to, or nil for a grammar that
// was not produced by Load.
func (g *Grammar) Set() *Set { return g.set }

// Context resolves id against the grammar's arena.
func (g *Grammar) Context(id ContextID) (*Context, bool) {
	if g == nil || g.set == nil {
		return nil, false
	}
	return g.set.Context(id)
}

// IsPlainText reports whether g is the built-in plain text grammar.
func (g *Grammar) IsPlainText() bool {
	return g != nil && g.ScopeName == PlainTextScope
}
