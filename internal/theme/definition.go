package theme

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/cath/internal/assets"
)

// definition is the YAML form of a theme file.
type definition struct {
	Name     string      `yaml:"name"`
	Author   string      `yaml:"author"`
	Settings settingsDef `yaml:"settings"`
	Rules    []ruleDef   `yaml:"rules"`
}

type settingsDef struct {
	Foreground       string `yaml:"foreground"`
	Background       string `yaml:"background"`
	GutterForeground string `yaml:"gutter_foreground"`
	GutterBackground string `yaml:"gutter_background"`
}

type ruleDef struct {
	Name       string  `yaml:"name"`
	Scope      string  `yaml:"scope"`
	Foreground string  `yaml:"foreground"`
	Background string  `yaml:"background"`
	FontStyle  *string `yaml:"font_style"`
}

// parseDefinition decodes and validates one theme file.
func parseDefinition(file assets.File, origin assets.Origin) (*Theme, error) {
	var def definition
	if err := yaml.Unmarshal(file.Data, &def); err != nil {
		return nil, &LoadError{File: file.Path, Err: fmt.Errorf("parse yaml: %w", err)}
	}
	if def.Name == "" {
		return nil, &LoadError{File: file.Path, Err: ErrMissingName}
	}

	t, err := def.build()
	if err != nil {
		return nil, &LoadError{File: file.Path, Theme: def.Name, Err: err}
	}
	t.Origin = origin
	t.Path = file.Path
	return t, nil
}

func (d *definition) build() (*Theme, error) {
	t := &Theme{Name: d.Name, Author: d.Author}

	settings := []struct {
		field string
		value string
		dst   *Color
		def   Color
	}{
		{"foreground", d.Settings.Foreground, &t.Settings.Foreground, white},
		{"background", d.Settings.Background, &t.Settings.Background, black},
		{"gutter_foreground", d.Settings.GutterForeground, &t.Settings.GutterForeground, Color{}},
		{"gutter_background", d.Settings.GutterBackground, &t.Settings.GutterBackground, Color{}},
	}
	for _, s := range settings {
		if s.value == "" {
			*s.dst = s.def
			continue
		}
		c, err := ParseColor(s.value)
		if err != nil {
			return nil, fmt.Errorf("settings.%s: %w", s.field, err)
		}
		*s.dst = c
	}
	// Unset gutter colors follow the text colors.
	if d.Settings.GutterForeground == "" {
		t.Settings.GutterForeground = t.Settings.Foreground
	}
	if d.Settings.GutterBackground == "" {
		t.Settings.GutterBackground = t.Settings.Background
	}

	for i, rd := range d.Rules {
		r, err := rd.build()
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		t.Rules = append(t.Rules, r)
	}
	return t, nil
}

func (rd ruleDef) build() (Rule, error) {
	sel, err := ParseSelector(rd.Scope)
	if err != nil {
		return Rule{}, err
	}
	r := Rule{Name: rd.Name, Selector: sel}

	if rd.Foreground != "" {
		c, err := ParseColor(rd.Foreground)
		if err != nil {
			return Rule{}, fmt.Errorf("foreground: %w", err)
		}
		r.Style.Foreground = &c
	}
	if rd.Background != "" {
		c, err := ParseColor(rd.Background)
		if err != nil {
			return Rule{}, fmt.Errorf("background: %w", err)
		}
		r.Style.Background = &c
	}
	if rd.FontStyle != nil {
		fs, err := ParseFontStyle(*rd.FontStyle)
		if err != nil {
			return Rule{}, err
		}
		r.Style.Font = &fs
	}
	if r.Style.empty() {
		return Rule{}, fmt.Errorf("%w: %q", ErrEmptyRule, rd.Scope)
	}
	return r, nil
}
