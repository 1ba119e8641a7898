package parse

import (
	"slices"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/cath/internal/grammar"
	"github.com/zjrosen/cath/internal/log"
)

const (
	// maxStalls bounds consecutive push/pop actions that consume nothing at
	// one position. After that one character is consumed unconditionally.
	maxStalls = 25
	// maxDepth bounds the context stack; deeper pushes scope their text but
	// do not enter the target context.
	maxDepth = 512
)

// match is a search result in rune indices. groups[i] is {-1, -1} when group
// i did not participate.
type match struct {
	start, end int
	groups     [][2]int
}

type cacheKey struct {
	re        *regexp2.Regexp
	skipEmpty bool
}

type cachedMatch struct {
	from int
	m    *match
}

type lineParser struct {
	state   *State
	line    string
	runes   []rune
	offsets []int // byte offset of each rune, plus len(line)
	tokens  []Token
	cache   map[cacheKey]cachedMatch
}

func newLineParser(s *State, line string) *lineParser {
	runes := make([]rune, 0, len(line))
	offsets := make([]int, 0, len(line)+1)
	// Invalid UTF-8 decodes as one RuneError per byte, so every byte stays
	// covered by exactly one rune.
	for i, r := range line {
		runes = append(runes, r)
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(line))

	return &lineParser{
		state:   s,
		line:    line,
		runes:   runes,
		offsets: offsets,
		cache:   make(map[cacheKey]cachedMatch),
	}
}

func (p *lineParser) run() ([]Token, error) {
	s := p.state
	pos, stalls := 0, 0
	n := len(p.runes)

	for pos < n {
		top := s.top()
		m, rule := p.search(top, pos)
		if m == nil {
			p.emit(pos, n, s.contentPath(len(s.stack)))
			break
		}
		if m.start > pos {
			p.emit(pos, m.start, s.contentPath(len(s.stack)))
			pos = m.start
			stalls = 0
		}

		switch r := rule.(type) {
		case grammar.MatchRule:
			p.emitMatch(s.contentPath(len(s.stack)), r, m)
			pos, stalls = m.end, 0

		case grammar.PushRule:
			target, ok := s.grammar.Context(r.Target)
			if !ok {
				return nil, &ResolutionError{Context: r.Target}
			}
			if m.end == m.start {
				if stalls++; stalls > maxStalls {
					pos, stalls = p.forceAdvance(pos), 0
					continue
				}
			} else {
				stalls = 0
			}
			path := append(s.contentPath(len(s.stack)), target.MetaScope...)
			p.emitMatch(path, r, m)
			if len(s.stack) < maxDepth {
				s.push(target, p.captureTexts(m))
			} else {
				log.Warn(log.CatParse, "context stack limit reached", "context", target.Name)
			}
			pos = m.end

		case grammar.PopRule:
			if m.end == m.start {
				if stalls++; stalls > maxStalls {
					pos, stalls = p.forceAdvance(pos), 0
					continue
				}
			} else {
				stalls = 0
			}
			if len(s.stack) == 1 {
				// Pop on the main context: scope the text, keep the frame.
				p.emitMatch(s.contentPath(1), r, m)
				pos = m.end
				continue
			}
			below := len(s.stack) - 1
			path := append(s.contentPath(below), top.ctx.MetaScope...)
			p.emitMatch(path, r, m)
			s.pop()
			pos = m.end
		}
	}

	return p.tokens, nil
}

// forceAdvance emits one character with the current content path.
func (p *lineParser) forceAdvance(pos int) int {
	s := p.state
	log.Debug(log.CatParse, "forcing progress after empty actions", "context", s.top().ctx.Name, "pos", pos)
	p.emit(pos, pos+1, s.contentPath(len(s.stack)))
	return pos + 1
}

// search returns the earliest match among the rules of the top context.
// Rules listed earlier win ties.
func (p *lineParser) search(f *frame, pos int) (*match, grammar.Rule) {
	var (
		best     *match
		bestRule grammar.Rule
	)
	for _, rule := range f.ctx.Rules {
		re := p.regexpFor(f, rule.Pattern())
		if re == nil {
			continue
		}
		_, isMatch := rule.(grammar.MatchRule)
		m := p.find(re, rule.Pattern().Anchored(), pos, isMatch)
		if m == nil {
			continue
		}
		if best == nil || m.start < best.start {
			best, bestRule = m, rule
			if best.start == pos {
				break
			}
		}
	}
	return best, bestRule
}

// regexpFor returns the pattern compiled against the frame's captures.
func (p *lineParser) regexpFor(f *frame, pattern *grammar.Pattern) *regexp2.Regexp {
	if !pattern.HasBackrefs() || len(f.captures) < 2 {
		return pattern.Regexp()
	}
	if re, ok := f.resolved[pattern]; ok {
		return re
	}
	re, err := pattern.Resolve(f.captures)
	if err != nil {
		log.Warn(log.CatParse, "back reference pattern failed to compile", "pattern", pattern.Source(), "error", err.Error())
		re = nil
	}
	if f.resolved == nil {
		f.resolved = make(map[*grammar.Pattern]*regexp2.Regexp)
	}
	f.resolved[pattern] = re
	return re
}

// find searches re from pos. A result found from an earlier position is
// reused while it still starts at or after pos, except for \G patterns whose
// result depends on where the search starts.
func (p *lineParser) find(re *regexp2.Regexp, anchored bool, pos int, skipEmpty bool) *match {
	key := cacheKey{re: re, skipEmpty: skipEmpty}
	if !anchored {
		if c, ok := p.cache[key]; ok && c.from <= pos && (c.m == nil || c.m.start >= pos) {
			return c.m
		}
	}

	m := p.exec(re, pos, skipEmpty)
	if !anchored {
		p.cache[key] = cachedMatch{from: pos, m: m}
	}
	return m
}

func (p *lineParser) exec(re *regexp2.Regexp, pos int, skipEmpty bool) *match {
	rm, err := re.FindRunesMatchStartingAt(p.runes, pos)
	for err == nil && rm != nil && skipEmpty && rm.Length == 0 {
		rm, err = re.FindNextMatch(rm)
	}
	if err != nil {
		// A timeout counts as no match.
		log.Debug(log.CatParse, "pattern evaluation failed", "pattern", re.String(), "error", err.Error())
		return nil
	}
	if rm == nil {
		return nil
	}

	m := &match{start: rm.Index, end: rm.Index + rm.Length}
	count := rm.GroupCount()
	m.groups = make([][2]int, count)
	for i := range count {
		g := rm.GroupByNumber(i)
		if g == nil || len(g.Captures) == 0 {
			m.groups[i] = [2]int{-1, -1}
			continue
		}
		m.groups[i] = [2]int{g.Index, g.Index + g.Length}
	}
	return m
}

func (p *lineParser) captureTexts(m *match) []string {
	texts := make([]string, len(m.groups))
	for i, g := range m.groups {
		if g[0] >= 0 {
			texts[i] = string(p.runes[g[0]:g[1]])
		}
	}
	return texts
}

// emitMatch scopes the matched text with base plus the rule scopes and
// splits it at capture boundaries. Captures are applied in group order, so
// lower numbered groups are outermost.
func (p *lineParser) emitMatch(base []grammar.Scope, rule grammar.Rule, m *match) {
	full := slices.Concat(base, rule.Scopes())
	captures := rule.Captures()
	if len(captures) == 0 || m.end == m.start {
		p.emit(m.start, m.end, full)
		return
	}

	type span struct {
		start, end int
		scopes     []grammar.Scope
	}
	var spans []span
	points := []int{m.start, m.end}
	for _, c := range captures {
		if c.Group >= len(m.groups) {
			continue
		}
		g := m.groups[c.Group]
		start, end := max(g[0], m.start), min(g[1], m.end)
		if g[0] < 0 || end <= start {
			continue
		}
		spans = append(spans, span{start: start, end: end, scopes: c.Scopes})
		points = append(points, start, end)
	}
	if len(spans) == 0 {
		p.emit(m.start, m.end, full)
		return
	}

	slices.Sort(points)
	points = slices.Compact(points)
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		path := slices.Clone(full)
		for _, sp := range spans {
			if sp.start <= a && b <= sp.end {
				path = append(path, sp.scopes...)
			}
		}
		p.emit(a, b, path)
	}
}

// emit appends the rune range [from, to) as a token, merging it into the
// previous token when the two are adjacent and share a scope path.
func (p *lineParser) emit(from, to int, scopes []grammar.Scope) {
	if to <= from {
		return
	}
	start, end := p.offsets[from], p.offsets[to]
	if n := len(p.tokens); n > 0 {
		last := &p.tokens[n-1]
		if last.End == start && slices.Equal(last.Scopes, scopes) {
			last.End = end
			return
		}
	}
	p.tokens = append(p.tokens, Token{Start: start, End: end, Scopes: slices.Clone(scopes)})
}
