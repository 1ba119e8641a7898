package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/cath/internal/assets"
	"github.com/zjrosen/cath/internal/config"
	"github.com/zjrosen/cath/internal/grammar"
	"github.com/zjrosen/cath/internal/highlight"
	"github.com/zjrosen/cath/internal/log"
	"github.com/zjrosen/cath/internal/render"
	"github.com/zjrosen/cath/internal/theme"
	"github.com/zjrosen/cath/internal/tracing"
)

// ErrUnknownTheme is returned when the configured theme does not exist.
var ErrUnknownTheme = errors.New("unknown theme")

const shutdownTimeout = 5 * time.Second

// env is the configuration a command runs with.
type env struct {
	cfg        config.Config
	configPath string
}

// setup initializes logging, loads and validates the configuration and
// starts tracing. The returned cleanup flushes traces and closes the log.
func (o *rootOptions) setup(cmd *cobra.Command) (*env, func(), error) {
	closeLog, err := initLogging(o.debug)
	if err != nil {
		return nil, nil, err
	}

	cfg, used, err := config.Load(o.configFile)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	o.applyFlags(cmd, &cfg)
	if err := config.Validate(cfg); err != nil {
		closeLog()
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := tracing.NewProvider(tracingConfig(cfg.Tracing))
	if err != nil {
		closeLog()
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatTrace, "tracing shutdown failed", err)
		}
		closeLog()
	}
	return &env{cfg: cfg, configPath: used}, cleanup, nil
}

func tracingConfig(tc config.TracingConfig) tracing.Config {
	cfg := tracing.DefaultConfig()
	cfg.Enabled = tc.Enabled
	if tc.Exporter != "" {
		cfg.Exporter = tc.Exporter
	}
	cfg.FilePath = expandHome(tc.FilePath)
	if cfg.FilePath == "" {
		cfg.FilePath = config.DefaultTracesFilePath()
	}
	if tc.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = tc.OTLPEndpoint
	}
	if tc.SampleRate > 0 {
		cfg.SampleRate = tc.SampleRate
	}
	return cfg
}

// expandHome replaces a leading "~/" with the home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// userSources returns a source for each existing directory, skipping
// duplicates. Later sources override earlier ones.
func userSources(dirs ...string) []assets.Source {
	var out []assets.Source
	seen := make(map[string]bool)
	for _, dir := range dirs {
		dir = expandHome(dir)
		if dir == "" || seen[filepath.Clean(dir)] {
			continue
		}
		seen[filepath.Clean(dir)] = true
		if src, ok := assets.UserSource(dir); ok {
			out = append(out, src)
		}
	}
	return out
}

func (e *env) loadGrammars(ctx context.Context) (*grammar.Set, error) {
	_, span := tracing.Start(ctx, tracing.SpanLoadGrammars)

	sources := append([]assets.Source{assets.BuiltinGrammars()},
		userSources(assets.UserGrammarDir(), e.cfg.GrammarDir)...)
	set, err := grammar.Load(sources...)
	if err == nil {
		span.SetAttributes(
			attribute.Int(tracing.AttrCount, len(set.Grammars())),
			attribute.Int(tracing.AttrWarnings, len(set.Warnings())),
		)
	}
	tracing.End(span, err)
	if err != nil {
		return nil, fmt.Errorf("loading grammars: %w", err)
	}
	return set, nil
}

func (e *env) loadThemes(ctx context.Context) (*theme.Set, error) {
	_, span := tracing.Start(ctx, tracing.SpanLoadThemes)

	sources := []assets.Source{assets.BuiltinThemes()}
	if e.cfg.ChromaThemes {
		sources = append(sources, assets.ChromaSource())
	}
	sources = append(sources, userSources(assets.UserThemeDir(), e.cfg.ThemeDir)...)
	set, err := theme.Load(sources...)
	if err == nil {
		span.SetAttributes(
			attribute.Int(tracing.AttrCount, len(set.Names())),
			attribute.Int(tracing.AttrWarnings, len(set.Warnings())),
		)
	}
	tracing.End(span, err)
	if err != nil {
		return nil, fmt.Errorf("loading themes: %w", err)
	}
	return set, nil
}

// selectTheme looks name up. A missing theme is an error listing the
// available names, never a silent fallback.
func selectTheme(set *theme.Set, name string) (*theme.Theme, error) {
	if t := set.FindByName(name); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownTheme, name, strings.Join(set.Names(), ", "))
}

// selectGrammar picks the grammar for path. An explicit language wins, then
// the configured extension overrides, then the set's own file matching.
// Anything unknown falls back to plain text.
func selectGrammar(set *grammar.Set, languages map[string]string, language, path, firstLine string) *grammar.Grammar {
	if language != "" {
		if g := set.FindByName(language); g != nil {
			return g
		}
		if g := set.FindByExtension(language); g != nil {
			return g
		}
		log.Debug(log.CatGrammar, "unknown language, using plain text", "language", language)
		return set.PlainText()
	}

	if path != "" && len(languages) > 0 {
		base := filepath.Base(path)
		// viper lowercases map keys.
		for _, key := range []string{strings.ToLower(base), strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))} {
			name, ok := languages[key]
			if !ok || key == "" {
				continue
			}
			if g := set.FindByName(name); g != nil {
				return g
			}
			log.Debug(log.CatGrammar, "language override names no grammar", "key", key, "grammar", name)
		}
	}

	if g := set.FindForFile(path, firstLine); g != nil {
		return g
	}
	log.Debug(log.CatGrammar, "no grammar matched, using plain text", "path", path)
	return set.PlainText()
}

// colorProfile picks the escape code flavor for w.
func colorProfile(mode string, w io.Writer) termenv.Profile {
	switch mode {
	case "never":
		return termenv.Ascii
	case "always":
		if p := termenv.NewOutput(w, termenv.WithTTY(true)).EnvColorProfile(); p != termenv.Ascii {
			return p
		}
		return termenv.TrueColor
	default:
		return termenv.NewOutput(w).EnvColorProfile()
	}
}

// newRenderer returns the renderer for the configured format. plain reports
// that no styling will be written, so tokenizing can be skipped.
func newRenderer(cfg config.Config, t *theme.Theme, w io.Writer) (r render.Renderer, plain bool, err error) {
	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return nil, false, err
	}
	switch format {
	case render.FormatHTML:
		return render.NewHTML(t), false, nil
	case render.FormatPlain:
		return render.Plain{}, true, nil
	default:
		profile := colorProfile(cfg.Color, w)
		if profile == termenv.Ascii {
			return render.Plain{}, true, nil
		}
		return render.NewTerminal(t, render.TerminalOptions{Profile: profile, Background: cfg.Background}), false, nil
	}
}

// newPrinter loads the registries and builds a printer for one input.
func (e *env) newPrinter(ctx context.Context, w io.Writer, path, language, firstLine string, r render.Range) (*render.Printer, error) {
	themes, err := e.loadThemes(ctx)
	if err != nil {
		return nil, err
	}
	t, err := selectTheme(themes, e.cfg.Theme)
	if err != nil {
		return nil, err
	}

	renderer, plain, err := newRenderer(e.cfg, t, w)
	if err != nil {
		return nil, err
	}

	opts := render.Options{
		Range:       r,
		LineNumbers: e.cfg.LineNumbers,
		Plain:       plain,
		TabWidth:    e.cfg.TabWidth,
	}
	if plain {
		return render.NewPrinter(renderer, nil, nil, opts), nil
	}

	grammars, err := e.loadGrammars(ctx)
	if err != nil {
		return nil, err
	}
	g := selectGrammar(grammars, e.cfg.Languages, language, path, firstLine)
	log.Debug(log.CatRender, "printer ready", "path", path, "grammar", g.Name, "theme", t.Name, "format", e.cfg.Format)

	h := highlight.New(t, grammars, highlighterOptions(e.cfg.Cache)...)
	return render.NewPrinter(renderer, h, g, opts), nil
}

// readInput reads path, or in when path is empty.
func readInput(in io.Reader, path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- reading the named file is the point
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// firstLine returns content up to the first line break.
func firstLine(content string) string {
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		return strings.TrimSuffix(content[:i], "\r")
	}
	return content
}
