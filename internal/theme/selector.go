package theme

import (
	"fmt"
	"math"
	"strings"
)

// Selector matches scope paths, e.g. "string, comment - comment.block" or
// "source.go meta.function entity.name".
type Selector struct {
	source       string
	alternatives []alternative
}

type alternative struct {
	path     []atom
	excludes [][]atom
}

// atom is a dotted scope prefix such as "string.quoted".
type atom struct {
	prefix string
	parts  int
}

func (a atom) matches(scope string) bool {
	return scope == a.prefix || strings.HasPrefix(scope, a.prefix+".")
}

// ParseSelector parses comma separated alternatives. Each alternative is a
// space separated descendant path optionally followed by "- path" exclusions.
func ParseSelector(s string) (Selector, error) {
	sel := Selector{source: strings.TrimSpace(s)}
	if sel.source == "" {
		return Selector{}, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}

	for _, raw := range strings.Split(sel.source, ",") {
		alt, err := parseAlternative(raw)
		if err != nil {
			return Selector{}, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, sel.source, err)
		}
		sel.alternatives = append(sel.alternatives, alt)
	}
	return sel, nil
}

func parseAlternative(raw string) (alternative, error) {
	var (
		alt     alternative
		current []atom
		inExcl  bool
	)
	flush := func() error {
		if len(current) == 0 {
			return fmt.Errorf("empty path in %q", strings.TrimSpace(raw))
		}
		if inExcl {
			alt.excludes = append(alt.excludes, current)
		} else {
			alt.path = current
		}
		current = nil
		return nil
	}

	for _, field := range strings.Fields(raw) {
		if field == "-" {
			if err := flush(); err != nil {
				return alternative{}, err
			}
			inExcl = true
			continue
		}
		current = append(current, atom{prefix: field, parts: strings.Count(field, ".") + 1})
	}
	if err := flush(); err != nil {
		return alternative{}, err
	}
	return alt, nil
}

func (s Selector) String() string { return s.source }

// Score rates how well the selector matches path (outermost scope first).
// Each matched atom contributes its number of dotted parts weighted by
// 16^index of the path element it matched, so matches deeper in the path
// dominate and longer prefixes break ties. ok is false when nothing matches.
func (s Selector) Score(path []string) (score float64, ok bool) {
	for _, alt := range s.alternatives {
		altScore, matched := matchPath(alt.path, path)
		if !matched || alt.excluded(path) {
			continue
		}
		if !ok || altScore > score {
			score, ok = altScore, true
		}
	}
	return score, ok
}

func (a alternative) excluded(path []string) bool {
	for _, ex := range a.excludes {
		if _, matched := matchPath(ex, path); matched {
			return true
		}
	}
	return false
}

// matchPath matches atoms against path right to left, each atom taking the
// innermost remaining scope it matches.
func matchPath(atoms []atom, path []string) (float64, bool) {
	score := 0.0
	j := len(path) - 1
	for i := len(atoms) - 1; i >= 0; i-- {
		found := false
		for ; j >= 0; j-- {
			if atoms[i].matches(path[j]) {
				score += float64(atoms[i].parts) * math.Pow(16, float64(j))
				j--
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return score, true
}
