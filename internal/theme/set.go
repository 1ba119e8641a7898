package theme

import (
	"errors"
	"sort"
	"strings"

	"github.com/zjrosen/cath/internal/assets"
	"github.com/zjrosen/cath/internal/log"
)

// Set is an immutable registry of themes.
type Set struct {
	themes   []*Theme // sorted by name
	byName   map[string]*Theme
	byFold   map[string]*Theme
	warnings []error
}

// UserDir returns the directory user themes are loaded from.
func UserDir() string {
	return assets.UserThemeDir()
}

// Load reads every theme from sources. Broken definitions are skipped, logged
// and reported by Warnings; a theme named like an earlier one replaces it.
// Load fails with ErrNoThemes only when nothing loads.
func Load(sources ...assets.Source) (*Set, error) {
	var (
		loaded   []*Theme
		warnings []error
	)

	for _, src := range sources {
		if src.Kind == assets.KindChroma {
			for _, t := range chromaThemes() {
				loaded = replaceByName(loaded, t)
			}
			continue
		}

		files, err := assets.ReadDefinitions(src)
		if err != nil {
			log.Warn(log.CatTheme, "reading theme source", "source", src.Label, "error", err.Error())
			warnings = append(warnings, err)
			continue
		}
		for _, file := range files {
			t, err := parseDefinition(file, src.Origin)
			if err != nil {
				log.Warn(log.CatTheme, "skipping theme", "file", file.Path, "error", err.Error())
				warnings = append(warnings, err)
				continue
			}
			loaded = replaceByName(loaded, t)
		}
	}

	if len(loaded) == 0 {
		return nil, errors.Join(append([]error{ErrNoThemes}, warnings...)...)
	}

	s := &Set{
		themes:   loaded,
		byName:   make(map[string]*Theme, len(loaded)),
		byFold:   make(map[string]*Theme, len(loaded)),
		warnings: warnings,
	}
	sort.SliceStable(s.themes, func(i, j int) bool {
		return strings.ToLower(s.themes[i].Name) < strings.ToLower(s.themes[j].Name)
	})
	for _, t := range s.themes {
		s.byName[t.Name] = t
		s.byFold[strings.ToLower(t.Name)] = t
	}

	log.Info(log.CatTheme, "themes loaded", "themes", len(loaded), "warnings", len(warnings))
	return s, nil
}

func replaceByName(themes []*Theme, t *Theme) []*Theme {
	for i, existing := range themes {
		if strings.EqualFold(existing.Name, t.Name) {
			log.Debug(log.CatTheme, "theme overridden", "name", t.Name, "file", t.Path, "origin", t.Origin)
			themes = append(themes[:i:i], themes[i+1:]...)
			break
		}
	}
	return append(themes, t)
}

// FindByName returns the named theme, matching case-insensitively when there
// is no exact match, or nil.
func (s *Set) FindByName(name string) *Theme {
	if t, ok := s.byName[name]; ok {
		return t
	}
	return s.byFold[strings.ToLower(name)]
}

// Names returns the theme names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, len(s.themes))
	for i, t := range s.themes {
		names[i] = t.Name
	}
	return names
}

// Themes returns the themes sorted by name.
func (s *Set) Themes() []*Theme {
	return append([]*Theme(nil), s.themes...)
}

// Warnings returns the errors of definitions that were skipped.
func (s *Set) Warnings() []error {
	return s.warnings
}
