package grammar

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds a single regular expression evaluation. A search that
// exceeds it is treated as no match.
const MatchTimeout = 250 * time.Millisecond

// Pattern is a compiled rule pattern.
//
// Inside a context entered by a push whose pattern had capture groups, \1
// through \9 refer to those captures and Resolve compiles the pattern per
// frame with the captured text substituted. Elsewhere \N keeps its usual
// meaning; a pattern whose \N names a group it does not define matches as if
// the reference were empty.
type Pattern struct {
	source   string
	re       *regexp2.Regexp
	backrefs bool
	anchored bool
}

// CompilePattern compiles expr for use in a rule.
func CompilePattern(expr string) (*Pattern, error) {
	p := &Pattern{
		source:   expr,
		backrefs: hasBackrefs(expr),
		anchored: strings.Contains(expr, `\G`),
	}

	re, err := compileRegexp(expr)
	if err != nil && p.backrefs {
		re, err = compileRegexp(substituteBackrefs(expr, nil))
	}
	if err != nil {
		return nil, err
	}
	p.re = re
	return p, nil
}

// Source returns the pattern text after variable substitution.
func (p *Pattern) Source() string { return p.source }

// Regexp returns the expression used outside pushed contexts.
func (p *Pattern) Regexp() *regexp2.Regexp { return p.re }

// HasBackrefs reports whether the pattern refers to pushed captures.
func (p *Pattern) HasBackrefs() bool { return p.backrefs }

// Anchored reports whether the pattern uses \G, which makes its result
// depend on the search position.
func (p *Pattern) Anchored() bool { return p.anchored }

// Resolve compiles the pattern with \N replaced by the escaped text of
// captures[N]. Groups outside captures are replaced by empty strings. With
// no capture groups beyond the whole match it returns Regexp.
func (p *Pattern) Resolve(captures []string) (*regexp2.Regexp, error) {
	if !p.backrefs || len(captures) < 2 {
		return p.re, nil
	}
	return compileRegexp(substituteBackrefs(p.source, captures))
}

func compileRegexp(expr string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	re.MatchTimeout = MatchTimeout
	return re, nil
}

// hasBackrefs reports whether expr contains an unescaped \1..\9.
func hasBackrefs(expr string) bool {
	for i := 0; i < len(expr)-1; i++ {
		if expr[i] != '\\' {
			continue
		}
		if c := expr[i+1]; c >= '1' && c <= '9' {
			return true
		}
		i++ // skip the escaped character
	}
	return false
}

func substituteBackrefs(expr string, captures []string) string {
	if !hasBackrefs(expr) {
		return expr
	}

	var b strings.Builder
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c != '\\' || i+1 == len(expr) {
			b.WriteByte(c)
			continue
		}
		next := expr[i+1]
		if next >= '1' && next <= '9' {
			n := int(next - '0')
			text := ""
			if n < len(captures) {
				text = captures[n]
			}
			b.WriteString("(?:")
			b.WriteString(regexp2.Escape(text))
			b.WriteString(")")
		} else {
			b.WriteByte(c)
			b.WriteByte(next)
		}
		i++
	}
	return b.String()
}

// expandVariables replaces {{name}} references with the variable values.
// Variables may refer to each other; depth bounds runaway recursion.
func expandVariables(expr string, vars map[string]string) (string, error) {
	return expandVariablesDepth(expr, vars, 0)
}

const maxVariableDepth = 16

func expandVariablesDepth(expr string, vars map[string]string, depth int) (string, error) {
	if !strings.Contains(expr, "{{") {
		return expr, nil
	}
	if depth > maxVariableDepth {
		return "", fmt.Errorf("%w: variables nested too deeply in %q", ErrUnknownVar, expr)
	}

	var b strings.Builder
	rest := expr
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[open:], "}}")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		name := rest[open+2 : open+end]
		value, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownVar, name)
		}
		expanded, err := expandVariablesDepth(value, vars, depth+1)
		if err != nil {
			return "", err
		}
		b.WriteString(rest[:open])
		b.WriteString(expanded)
		rest = rest[open+end+2:]
	}
	return b.String(), nil
}
