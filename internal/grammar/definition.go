package grammar

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/cath/internal/assets"
)

// definition is the YAML form of a grammar file.
type definition struct {
	Name           string                `yaml:"name"`
	Scope          string                `yaml:"scope"`
	FileExtensions []string              `yaml:"file_extensions"`
	FileNames      []string              `yaml:"file_names"`
	FirstLineMatch string                `yaml:"first_line_match"`
	Hidden         bool                  `yaml:"hidden"`
	Variables      map[string]string     `yaml:"variables"`
	Contexts       map[string]contextDef `yaml:"contexts"`

	path      string
	origin    assets.Origin
	firstLine *Pattern
}

// contextDef accepts either a list of rules, where entries holding only
// meta_scope / meta_content_scope set the context's meta scopes, or a
// mapping with meta_scope, meta_content_scope and patterns keys.
type contextDef struct {
	MetaScope        string
	MetaContentScope string
	Rules            []ruleDef
}

type ruleDef struct {
	Match            string         `yaml:"match"`
	Scope            string         `yaml:"scope"`
	Captures         map[int]string `yaml:"captures"`
	Push             yaml.Node      `yaml:"push"`
	Pop              bool           `yaml:"pop"`
	Include          string         `yaml:"include"`
	MetaScope        string         `yaml:"meta_scope"`
	MetaContentScope string         `yaml:"meta_content_scope"`
}

func (r ruleDef) isMeta() bool {
	return r.Match == "" && r.Include == "" && (r.MetaScope != "" || r.MetaContentScope != "")
}

func (r ruleDef) hasPush() bool {
	return r.Push.Kind != 0
}

func (c *contextDef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var entries []ruleDef
		if err := node.Decode(&entries); err != nil {
			return err
		}
		for _, e := range entries {
			if e.isMeta() {
				if e.MetaScope != "" {
					c.MetaScope = e.MetaScope
				}
				if e.MetaContentScope != "" {
					c.MetaContentScope = e.MetaContentScope
				}
				continue
			}
			c.Rules = append(c.Rules, e)
		}
		return nil
	case yaml.MappingNode:
		var m struct {
			MetaScope        string    `yaml:"meta_scope"`
			MetaContentScope string    `yaml:"meta_content_scope"`
			Patterns         []ruleDef `yaml:"patterns"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		c.MetaScope = m.MetaScope
		c.MetaContentScope = m.MetaContentScope
		c.Rules = m.Patterns
		return nil
	default:
		return fmt.Errorf("line %d: context must be a list of rules or a mapping", node.Line)
	}
}

// parseDefinition decodes and validates one grammar file.
func parseDefinition(file assets.File, origin assets.Origin) (*definition, error) {
	var def definition
	if err := yaml.Unmarshal(file.Data, &def); err != nil {
		return nil, &LoadError{File: file.Path, Err: fmt.Errorf("parse: %w", err)}
	}
	def.path = file.Path
	def.origin = origin

	if def.Name == "" {
		return nil, &LoadError{File: file.Path, Err: fmt.Errorf("%w: name is required", ErrInvalidRule)}
	}
	if def.Scope == "" {
		return nil, &LoadError{File: file.Path, Grammar: def.Name, Err: fmt.Errorf("%w: scope is required", ErrInvalidRule)}
	}
	if _, ok := def.Contexts["main"]; !ok {
		return nil, &LoadError{File: file.Path, Grammar: def.Name, Err: ErrMissingMain}
	}
	if def.FirstLineMatch != "" {
		p, err := CompilePattern(def.FirstLineMatch)
		if err != nil {
			return nil, &LoadError{File: file.Path, Grammar: def.Name, Err: fmt.Errorf("first_line_match: %w", err)}
		}
		def.firstLine = p
	}
	for name, ctx := range def.Contexts {
		for i, r := range ctx.Rules {
			if err := validateRule(r); err != nil {
				return nil, &LoadError{File: file.Path, Grammar: def.Name, Err: fmt.Errorf("context %s rule %d: %w", name, i, err)}
			}
		}
	}
	return &def, nil
}

func validateRule(r ruleDef) error {
	switch {
	case r.Include != "" && r.Match != "":
		return fmt.Errorf("%w: include and match are exclusive", ErrInvalidRule)
	case r.Include != "":
		if r.Pop || r.hasPush() {
			return fmt.Errorf("%w: include cannot push or pop", ErrInvalidRule)
		}
		return nil
	case r.Match == "":
		return fmt.Errorf("%w: match or include is required", ErrInvalidRule)
	case r.Pop && r.hasPush():
		return fmt.Errorf("%w: push and pop are exclusive", ErrInvalidRule)
	}
	for group := range r.Captures {
		if group < 0 {
			return fmt.Errorf("%w: negative capture group %d", ErrInvalidRule, group)
		}
	}
	return nil
}

// contextNames returns the context names with main first and the rest sorted
// so that arena layout is stable between runs.
func (d *definition) contextNames() []string {
	names := make([]string, 0, len(d.Contexts))
	for name := range d.Contexts {
		if name != "main" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{"main"}, names...)
}
