// Package presentation formats registry listings for the CLI.
package presentation

import (
	"strings"

	"github.com/zjrosen/cath/internal/grammar"
	"github.com/zjrosen/cath/internal/theme"
)

// GrammarDTO describes a grammar in `cath grammars` output.
type GrammarDTO struct {
	Name       string   `json:"name"`
	Scope      string   `json:"scope"`
	Extensions []string `json:"extensions"`
	FileNames  []string `json:"file_names,omitempty"`
	Source     string   `json:"source"`
	Path       string   `json:"path,omitempty"`
}

// ThemeDTO describes a theme in `cath themes` output.
type ThemeDTO struct {
	Name       string `json:"name"`
	Author     string `json:"author,omitempty"`
	Dark       bool   `json:"dark"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Source     string `json:"source"`
	Selected   bool   `json:"selected"`
}

// FromGrammar converts a grammar to its DTO.
func FromGrammar(g *grammar.Grammar) GrammarDTO {
	exts := make([]string, len(g.FileExtensions))
	for i, ext := range g.FileExtensions {
		exts[i] = "." + strings.TrimPrefix(ext, ".")
	}
	return GrammarDTO{
		Name:       g.Name,
		Scope:      g.ScopeName,
		Extensions: exts,
		FileNames:  g.FileNames,
		Source:     g.Origin.String(),
		Path:       g.Path,
	}
}

// FromGrammarSet lists the visible grammars of set, sorted by name.
func FromGrammarSet(set *grammar.Set) []GrammarDTO {
	gs := set.Grammars()
	out := make([]GrammarDTO, len(gs))
	for i, g := range gs {
		out[i] = FromGrammar(g)
	}
	return out
}

// FromTheme converts a theme to its DTO. selected marks the theme the
// current configuration resolves to.
func FromTheme(t *theme.Theme, selected bool) ThemeDTO {
	source := t.Origin.String()
	if strings.HasPrefix(t.Name, theme.ChromaPrefix) {
		source = "chroma"
	}
	return ThemeDTO{
		Name:       t.Name,
		Author:     t.Author,
		Dark:       t.Dark(),
		Background: t.Settings.Background.String(),
		Foreground: t.Settings.Foreground.String(),
		Source:     source,
		Selected:   selected,
	}
}

// FromThemeSet lists the themes of set in name order, marking current.
func FromThemeSet(set *theme.Set, current string) []ThemeDTO {
	selected := set.FindByName(current)
	ts := set.Themes()
	out := make([]ThemeDTO, len(ts))
	for i, t := range ts {
		out[i] = FromTheme(t, t == selected)
	}
	return out
}
