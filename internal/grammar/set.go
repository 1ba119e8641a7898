package grammar

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zjrosen/cath/internal/assets"
	"github.com/zjrosen/cath/internal/log"
)

// Set is an immutable registry of grammars sharing one context arena.
// It is safe for concurrent use once returned by Load.
type Set struct {
	contexts []*Context
	scopes   *scopeTable
	grammars []*Grammar // load order, plain text first
	plain    *Grammar

	byName     map[string]*Grammar
	byExt      map[string]*Grammar
	byExtFold  map[string]*Grammar
	byFile     map[string]*Grammar
	byFileFold map[string]*Grammar

	warnings []error
}

// UserDir returns the directory user grammars are loaded from.
func UserDir() string {
	return assets.UserGrammarDir()
}

// Load reads every grammar definition from sources and links them into a
// single Set. Definitions that fail to parse or link are skipped, logged and
// reported by Warnings; a definition with the same name as an earlier one
// replaces it. Load fails with ErrNoGrammars only when nothing loads.
func Load(sources ...assets.Source) (*Set, error) {
	var (
		defs     []*definition
		warnings []error
	)

	for _, src := range sources {
		if src.Kind != assets.KindYAML {
			log.Debug(log.CatGrammar, "skipping non-YAML source", "source", src.Label)
			continue
		}
		files, err := assets.ReadDefinitions(src)
		if err != nil {
			log.Warn(log.CatGrammar, "reading grammar source", "source", src.Label, "error", err.Error())
			warnings = append(warnings, err)
			continue
		}
		for _, file := range files {
			def, err := parseDefinition(file, src.Origin)
			if err != nil {
				log.Warn(log.CatGrammar, "skipping grammar", "file", file.Path, "error", err.Error())
				warnings = append(warnings, err)
				continue
			}
			defs = replaceByName(defs, def)
		}
	}

	if len(defs) == 0 {
		return nil, errors.Join(append([]error{ErrNoGrammars}, warnings...)...)
	}

	// Link until a round succeeds. Each failed round drops the failing
	// definitions, so grammars that depend on them fail in the next round.
	var l *linker
	for {
		l = newLinker()
		failures := l.link(defs)
		if len(failures) == 0 {
			break
		}
		kept := defs[:0:0]
		for _, def := range defs {
			err, failed := failures[def]
			if !failed {
				kept = append(kept, def)
				continue
			}
			loadErr := &LoadError{File: def.path, Grammar: def.Name, Err: err}
			log.Warn(log.CatGrammar, "skipping grammar", "grammar", def.Name, "error", err.Error())
			warnings = append(warnings, loadErr)
		}
		defs = kept
		if len(defs) == 0 {
			return nil, errors.Join(append([]error{ErrNoGrammars}, warnings...)...)
		}
	}

	s := newSet(l, defs, warnings)
	log.Info(log.CatGrammar, "grammars loaded",
		"grammars", len(defs), "contexts", len(s.contexts), "scopes", len(s.scopes.names), "warnings", len(warnings))
	return s, nil
}

func replaceByName(defs []*definition, def *definition) []*definition {
	for i, existing := range defs {
		if strings.EqualFold(existing.Name, def.Name) {
			log.Debug(log.CatGrammar, "grammar overridden", "name", def.Name, "file", def.path, "origin", def.origin)
			defs = append(defs[:i:i], defs[i+1:]...)
			break
		}
	}
	return append(defs, def)
}

func newSet(l *linker, defs []*definition, warnings []error) *Set {
	s := &Set{
		contexts:   l.contexts,
		scopes:     l.scopes,
		byName:     make(map[string]*Grammar),
		byExt:      make(map[string]*Grammar),
		byExtFold:  make(map[string]*Grammar),
		byFile:     make(map[string]*Grammar),
		byFileFold: make(map[string]*Grammar),
		warnings:   warnings,
	}

	s.plain = &Grammar{
		Name:           "Plain Text",
		ScopeName:      PlainTextScope,
		FileExtensions: []string{"txt"},
		Origin:         assets.OriginBuiltIn,
		scope:          l.scopes.intern(PlainTextScope),
		main:           0,
		set:            s,
	}
	s.add(s.plain)

	for _, def := range defs {
		s.add(&Grammar{
			Name:           def.Name,
			ScopeName:      def.Scope,
			FileExtensions: def.FileExtensions,
			FileNames:      def.FileNames,
			Hidden:         def.Hidden,
			Origin:         def.origin,
			Path:           def.path,
			scope:          l.scopes.intern(def.Scope),
			main:           l.ids[def]["main"],
			firstLine:      def.firstLine,
			set:            s,
		})
	}
	return s
}

// add indexes g; later grammars win on conflicting keys.
func (s *Set) add(g *Grammar) {
	s.grammars = append(s.grammars, g)
	s.byName[strings.ToLower(g.Name)] = g
	s.byName[strings.ToLower(g.ScopeName)] = g
	for _, ext := range g.FileExtensions {
		ext = strings.TrimPrefix(ext, ".")
		s.byExt[ext] = g
		s.byExtFold[strings.ToLower(ext)] = g
	}
	for _, name := range g.FileNames {
		s.byFile[name] = g
		s.byFileFold[strings.ToLower(name)] = g
	}
}

// Context resolves a context id.
func (s *Set) Context(id ContextID) (*Context, bool) {
	if id < 0 || int(id) >= len(s.contexts) {
		return nil, false
	}
	return s.contexts[id], true
}

// ScopeName returns the name of an interned scope.
func (s *Set) ScopeName(id Scope) (string, bool) {
	if id < 0 || int(id) >= len(s.scopes.names) {
		return "", false
	}
	return s.scopes.names[id], true
}

// LookupScope returns the interned id of a scope name.
func (s *Set) LookupScope(name string) (Scope, bool) {
	id, ok := s.scopes.ids[name]
	return id, ok
}

// Warnings returns the errors of definitions skipped during Load.
func (s *Set) Warnings() []error {
	return s.warnings
}

// PlainText returns the fallback grammar. It has no rules, so every line is
// one token scoped text.plain.
func (s *Set) PlainText() *Grammar {
	return s.plain
}

// Grammars returns the visible grammars sorted by name.
func (s *Set) Grammars() []*Grammar {
	out := make([]*Grammar, 0, len(s.grammars))
	for _, g := range s.grammars {
		if !g.Hidden {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// FindByName looks a grammar up by name or scope, ignoring case.
func (s *Set) FindByName(name string) *Grammar {
	return s.byName[strings.ToLower(strings.TrimSpace(name))]
}

// FindByExtension looks a grammar up by file extension, with or without the
// leading dot. An exact match is preferred over a case-insensitive one.
func (s *Set) FindByExtension(ext string) *Grammar {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return nil
	}
	if g, ok := s.byExt[ext]; ok {
		return g
	}
	return s.byExtFold[strings.ToLower(ext)]
}

// FindByFileName looks a grammar up by exact base name, e.g. Makefile.
func (s *Set) FindByFileName(name string) *Grammar {
	if name == "" {
		return nil
	}
	if g, ok := s.byFile[name]; ok {
		return g
	}
	return s.byFileFold[strings.ToLower(name)]
}

// FindByFirstLine matches line against each grammar's first_line_match,
// preferring grammars loaded later.
func (s *Set) FindByFirstLine(line string) *Grammar {
	if line == "" {
		return nil
	}
	for i := len(s.grammars) - 1; i >= 0; i-- {
		g := s.grammars[i]
		if g.firstLine == nil {
			continue
		}
		ok, err := g.firstLine.Regexp().MatchString(line)
		if err != nil {
			log.Debug(log.CatGrammar, "first line match failed", "grammar", g.Name, "error", err.Error())
			continue
		}
		if ok {
			return g
		}
	}
	return nil
}

// FindForFile tries the base name, then the extension, then firstLine.
func (s *Set) FindForFile(path, firstLine string) *Grammar {
	base := filepath.Base(path)
	if path != "" && base != "." && base != string(filepath.Separator) {
		if g := s.FindByFileName(base); g != nil {
			return g
		}
		if g := s.FindByExtension(filepath.Ext(base)); g != nil {
			return g
		}
	}
	return s.FindByFirstLine(firstLine)
}

// String summarizes the set for logs.
func (s *Set) String() string {
	return fmt.Sprintf("grammar.Set{grammars: %d, contexts: %d}", len(s.grammars), len(s.contexts))
}
