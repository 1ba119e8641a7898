// Package highlight turns scoped tokens into styled spans using a theme.
package highlight

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/cath/internal/cachemanager"
	"github.com/zjrosen/cath/internal/grammar"
	"github.com/zjrosen/cath/internal/log"
	"github.com/zjrosen/cath/internal/parse"
	"github.com/zjrosen/cath/internal/theme"
)

// ScopeNamer resolves interned scope ids. *grammar.Set implements it.
type ScopeNamer interface {
	ScopeName(id grammar.Scope) (string, bool)
}

// StyledSpan is a run of text sharing one style.
type StyledSpan struct {
	Style theme.Style
	Text  string
}

// ResolutionError reports a token scope the namer does not know.
type ResolutionError struct {
	Scope grammar.Scope
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("highlight: scope %d is not defined in the grammar set", e.Scope)
}

// scopeKey is the cache key of a scope path: its ids joined by commas.
type scopeKey string

func keyFor(scopes []grammar.Scope) scopeKey {
	buf := make([]byte, 0, len(scopes)*4)
	for i, id := range scopes {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, int64(id), 10)
	}
	return scopeKey(buf)
}

type options struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	skipCache       bool
}

// Option configures a Highlighter.
type Option func(*options)

// WithCacheTTL sets how long a resolved style stays cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithCleanupInterval sets how often expired styles are evicted.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) { o.cleanupInterval = d }
}

// WithoutCache resolves every scope path against the theme.
func WithoutCache() Option {
	return func(o *options) { o.skipCache = true }
}

// Highlighter resolves token scopes to theme styles. It is safe for
// concurrent use.
type Highlighter struct {
	theme  *theme.Theme
	namer  ScopeNamer
	ttl    time.Duration
	styles *cachemanager.ReadThroughCache[scopeKey, theme.Style, []grammar.Scope]
}

// New returns a Highlighter for t whose tokens carry scopes interned by namer.
func New(t *theme.Theme, namer ScopeNamer, opts ...Option) *Highlighter {
	o := options{
		ttl:             cachemanager.NoExpiration,
		cleanupInterval: cachemanager.DefaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Highlighter{theme: t, namer: namer, ttl: o.ttl}
	cache := cachemanager.NewInMemoryCacheManager[scopeKey, theme.Style]("styles:"+t.Name, o.ttl, o.cleanupInterval)
	h.styles = cachemanager.NewReadThroughCache[scopeKey, theme.Style, []grammar.Scope](cache, h.resolve, o.skipCache)
	return h
}

// Theme returns the theme styles are resolved against.
func (h *Highlighter) Theme() *theme.Theme {
	return h.theme
}

// CacheStats reports the style cache counters.
func (h *Highlighter) CacheStats() cachemanager.Stats {
	return h.styles.Cache().Stats()
}

func (h *Highlighter) resolve(_ context.Context, scopes []grammar.Scope) (theme.Style, error) {
	names := make([]string, len(scopes))
	for i, id := range scopes {
		name, ok := h.namer.ScopeName(id)
		if !ok {
			return theme.Style{}, &ResolutionError{Scope: id}
		}
		names[i] = name
	}
	style := h.theme.StyleFor(names)
	log.Debug(log.CatHighlight, "resolved style", "scopes", strings.Join(names, " "),
		"fg", style.Foreground, "bg", style.Background, "font", style.Font)
	return style, nil
}

// StyleFor returns the style of a scope path.
func (h *Highlighter) StyleFor(scopes []grammar.Scope) (theme.Style, error) {
	return h.styles.Get(context.Background(), keyFor(scopes), scopes, h.ttl)
}

type spanRange struct {
	style      theme.Style
	start, end int
}

// HighlightLine styles one tokenized line. Bytes not covered by a token get
// the theme's default style, and adjacent spans never share a style, so the
// span texts concatenate to line.
func (h *Highlighter) HighlightLine(tokens []parse.Token, line string) ([]StyledSpan, error) {
	var (
		ranges []spanRange
		pos    int
	)
	add := func(style theme.Style, start, end int) {
		if n := len(ranges); n > 0 && ranges[n-1].style == style {
			ranges[n-1].end = end
			return
		}
		ranges = append(ranges, spanRange{style: style, start: start, end: end})
	}
	def := h.theme.DefaultStyle()

	for _, tok := range tokens {
		start, end := max(tok.Start, pos), min(tok.End, len(line))
		if end <= start {
			continue
		}
		if start > pos {
			add(def, pos, start)
		}
		style, err := h.StyleFor(tok.Scopes)
		if err != nil {
			return nil, err
		}
		add(style, start, end)
		pos = end
	}
	if pos < len(line) {
		add(def, pos, len(line))
	}

	spans := make([]StyledSpan, len(ranges))
	for i, r := range ranges {
		spans[i] = StyledSpan{Style: r.style, Text: line[r.start:r.end]}
	}
	return spans, nil
}
