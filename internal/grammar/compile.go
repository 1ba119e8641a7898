package grammar

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlainTextScope is the scope of the built-in plain text grammar.
const PlainTextScope = "text.plain"

type scopeTable struct {
	names []string
	ids   map[string]Scope
}

func newScopeTable() *scopeTable {
	return &scopeTable{ids: make(map[string]Scope)}
}

func (t *scopeTable) intern(name string) Scope {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := Scope(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = id
	return id
}

// internAll interns every whitespace separated scope in s.
func (t *scopeTable) internAll(s string) []Scope {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	scopes := make([]Scope, len(fields))
	for i, f := range fields {
		scopes[i] = t.intern(f)
	}
	return scopes
}

// item is a compiled context entry before include flattening.
type item struct {
	rule    Rule
	include ContextID
}

type flattenState int

const (
	unvisited flattenState = iota
	visiting
	flattened
)

// linker compiles a batch of definitions into one context arena.
type linker struct {
	scopes   *scopeTable
	contexts []*Context
	items    map[ContextID][]item
	owner    map[ContextID]*definition
	ids      map[*definition]map[string]ContextID
	byScope  map[string]*definition
	state    map[ContextID]flattenState
}

func newLinker() *linker {
	l := &linker{
		scopes:  newScopeTable(),
		items:   make(map[ContextID][]item),
		owner:   make(map[ContextID]*definition),
		ids:     make(map[*definition]map[string]ContextID),
		byScope: make(map[string]*definition),
		state:   make(map[ContextID]flattenState),
	}
	// The plain text grammar always occupies context 0 and has no rules.
	l.scopes.intern(PlainTextScope)
	plain := l.newContext(PlainTextScope + "#main")
	l.state[plain] = flattened
	return l
}

func (l *linker) newContext(name string) ContextID {
	id := ContextID(len(l.contexts))
	l.contexts = append(l.contexts, &Context{ID: id, Name: name})
	return id
}

// link compiles defs and returns the definitions that failed. A non-empty
// result means the arena is unusable and the caller should link again
// without the failed definitions.
func (l *linker) link(defs []*definition) map[*definition]error {
	failures := make(map[*definition]error)

	for _, def := range defs {
		l.byScope[def.Scope] = def
		l.scopes.intern(def.Scope)
		ids := make(map[string]ContextID, len(def.Contexts))
		for _, name := range def.contextNames() {
			id := l.newContext(def.Scope + "#" + name)
			ids[name] = id
			l.owner[id] = def
		}
		l.ids[def] = ids
	}

	for _, def := range defs {
		for _, name := range def.contextNames() {
			if err := l.compileContext(def, name, l.ids[def][name], def.Contexts[name]); err != nil {
				failures[def] = fmt.Errorf("context %s: %w", name, err)
				break
			}
		}
	}

	for id := range l.contexts {
		def := l.owner[ContextID(id)]
		if def == nil {
			continue
		}
		if _, failed := failures[def]; failed {
			continue
		}
		if _, err := l.flatten(ContextID(id)); err != nil {
			failures[def] = err
		}
	}

	return failures
}

func (l *linker) compileContext(def *definition, name string, id ContextID, cd contextDef) error {
	ctx := l.contexts[id]
	ctx.MetaScope = l.scopes.internAll(cd.MetaScope)
	ctx.MetaContentScope = l.scopes.internAll(cd.MetaContentScope)

	items := make([]item, 0, len(cd.Rules))
	for i, r := range cd.Rules {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		if r.Include != "" {
			target, err := l.resolveRef(def, r.Include)
			if err != nil {
				return fmt.Errorf("rule %d: include: %w", i, err)
			}
			items = append(items, item{include: target})
			continue
		}
		rule, err := l.compileRule(def, fmt.Sprintf("%s.%d", name, i), r)
		if err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		items = append(items, item{rule: rule})
	}
	l.items[id] = items
	return nil
}

func (l *linker) compileRule(def *definition, name string, r ruleDef) (Rule, error) {
	expr, err := expandVariables(r.Match, def.Variables)
	if err != nil {
		return nil, err
	}
	pattern, err := CompilePattern(expr)
	if err != nil {
		return nil, err
	}

	base := ruleBase{
		pattern:  pattern,
		scopes:   l.scopes.internAll(r.Scope),
		captures: l.compileCaptures(r.Captures),
	}

	switch {
	case r.Pop:
		return PopRule{base}, nil
	case r.hasPush():
		target, err := l.pushTarget(def, name, r.Push)
		if err != nil {
			return nil, fmt.Errorf("push: %w", err)
		}
		return PushRule{ruleBase: base, Target: target}, nil
	default:
		return MatchRule{base}, nil
	}
}

func (l *linker) compileCaptures(captures map[int]string) []CaptureScope {
	if len(captures) == 0 {
		return nil
	}
	out := make([]CaptureScope, 0, len(captures))
	for group, scope := range captures {
		scopes := l.scopes.internAll(scope)
		if len(scopes) == 0 {
			continue
		}
		out = append(out, CaptureScope{Group: group, Scopes: scopes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// pushTarget resolves a named target or compiles an inline anonymous context.
func (l *linker) pushTarget(def *definition, name string, node yaml.Node) (ContextID, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return l.resolveRef(def, node.Value)
	case yaml.SequenceNode, yaml.MappingNode:
		var cd contextDef
		if err := node.Decode(&cd); err != nil {
			return 0, err
		}
		id := l.newContext(def.Scope + "#" + name)
		l.owner[id] = def
		if err := l.compileContext(def, name, id, cd); err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: push must name a context or list rules", ErrInvalidRule)
	}
}

// resolveRef resolves "name", "scope:<grammar scope>" or
// "scope:<grammar scope>#name".
func (l *linker) resolveRef(def *definition, ref string) (ContextID, error) {
	target, name := def, ref
	if rest, ok := strings.CutPrefix(ref, "scope:"); ok {
		scope, ctxName, found := strings.Cut(rest, "#")
		if !found {
			ctxName = "main"
		}
		other, ok := l.byScope[scope]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownGrammar, scope)
		}
		target, name = other, ctxName
	}

	id, ok := l.ids[target][name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownContext, ref)
	}
	return id, nil
}

// flatten expands includes in declaration order.
func (l *linker) flatten(id ContextID) ([]Rule, error) {
	ctx := l.contexts[id]
	switch l.state[id] {
	case flattened:
		return ctx.Rules, nil
	case visiting:
		return nil, fmt.Errorf("%w: %s", ErrIncludeCycle, ctx.Name)
	}

	l.state[id] = visiting
	var rules []Rule
	for _, it := range l.items[id] {
		if it.rule != nil {
			rules = append(rules, it.rule)
			continue
		}
		included, err := l.flatten(it.include)
		if err != nil {
			l.state[id] = unvisited
			return nil, err
		}
		rules = append(rules, included...)
	}

	ctx.Rules = rules
	l.state[id] = flattened
	return rules, nil
}
