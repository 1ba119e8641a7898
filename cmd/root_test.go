package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cath/internal/assets"
	"github.com/zjrosen/cath/internal/config"
	"github.com/zjrosen/cath/internal/grammar"
	"github.com/zjrosen/cath/internal/presentation"
	"github.com/zjrosen/cath/internal/render"
)

const goSource = "package main\n\n// say hi\nfunc main() {\n\tprintln(\"<hi>\")\n}\n"

// isolate points HOME at an empty directory and writes a config file with
// the given body, so user definitions and configs never leak into tests.
func isolate(t *testing.T, configBody string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CATH_DEBUG", "")
	t.Setenv("CATH_THEME", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configBody), 0o600))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCat_StdinPlain(t *testing.T) {
	cfg := isolate(t, "")

	for _, args := range [][]string{{"-p"}, {"-p", "-"}, {"--format", "plain"}, {"--color", "never"}} {
		out, err := run(t, "hello\nworld", append([]string{"-c", cfg}, args...)...)
		require.NoError(t, err, "args %v", args)
		require.Equal(t, "hello\nworld", out, "args %v", args)
	}
}

func TestCat_LineNumbersAndRange(t *testing.T) {
	cfg := isolate(t, "")
	path := writeFile(t, "notes.txt", "one\ntwo\nthree\nfour\n")

	out, err := run(t, "", "-c", cfg, "-p", "-l", "-s", "2", "-e", "3", path)
	require.NoError(t, err)
	require.Equal(t, "   2 two\n   3 three\n", out)

	out, err = run(t, "", "-c", cfg, "-p", "-s", "3", path)
	require.NoError(t, err)
	require.Equal(t, "three\nfour\n", out)

	out, err = run(t, "", "-c", cfg, "-p", "-s", "4", "-e", "2", path)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestCat_ColorAlwaysIsLossless(t *testing.T) {
	cfg := isolate(t, "")
	path := writeFile(t, "main.go", goSource)

	out, err := run(t, "", "-c", cfg, "--color", "always", path)
	require.NoError(t, err)
	require.Contains(t, out, "\x1b[")
	require.Equal(t, goSource, ansi.Strip(out))
}

func TestCat_HTML(t *testing.T) {
	cfg := isolate(t, "theme: solarized-dark\n")
	path := writeFile(t, "main.go", goSource)

	out, err := run(t, "", "-c", cfg, "--format", "html", path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "<pre style="), out)
	require.True(t, strings.HasSuffix(out, "</pre>\n"), out)
	require.Contains(t, out, "&lt;hi&gt;")
	require.Contains(t, out, "<span style=")
}

func TestCat_UnknownTheme(t *testing.T) {
	cfg := isolate(t, "")

	_, err := run(t, "x", "-c", cfg, "-t", "no-such-theme")
	require.ErrorIs(t, err, ErrUnknownTheme)
	require.Contains(t, err.Error(), `"no-such-theme"`)
	require.Contains(t, err.Error(), "base16-ocean.dark")
}

func TestCat_UnknownLanguageFallsBack(t *testing.T) {
	cfg := isolate(t, "")

	out, err := run(t, "some <text>\n", "-c", cfg, "--color", "always", "-L", "cobol")
	require.NoError(t, err)
	require.Equal(t, "some <text>\n", ansi.Strip(out))
}

func TestCat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		args   []string
		want   string
	}{
		{"bad format flag", "", []string{"--format", "pdf"}, "format"},
		{"bad config value", "color: sometimes\n", nil, "color"},
		{"missing file", "", []string{filepath.Join("does", "not", "exist.go")}, "reading"},
		{"watch needs a file", "", []string{"-w"}, "--watch"},
		{"too many args", "", []string{"a", "b"}, "accepts at most 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := isolate(t, tt.config)
			_, err := run(t, "", append([]string{"-c", cfg}, tt.args...)...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCat_MissingExplicitConfig(t *testing.T) {
	isolate(t, "")
	_, err := run(t, "", "-c", filepath.Join(t.TempDir(), "missing.yaml"), "-p")
	require.Error(t, err)
}

func TestCat_WritesTraces(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	cfg := isolate(t, "tracing:\n  enabled: true\n  exporter: file\n  file_path: "+tracePath+"\n")
	path := writeFile(t, "main.go", goSource)

	_, err := run(t, "", "-c", cfg, "--color", "always", path)
	require.NoError(t, err)

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	for _, name := range []string{"registry.load_grammars", "registry.load_themes", "render.print"} {
		require.Contains(t, string(data), `"name":"`+name+`"`)
	}
}

func TestSelectGrammar(t *testing.T) {
	set, err := grammar.Load(assets.BuiltinGrammars())
	require.NoError(t, err)

	languages := map[string]string{"h": "C", "tmpl": "Go", "build": "Makefile", "txt": "nope"}
	tests := []struct {
		name      string
		language  string
		path      string
		firstLine string
		want      string
	}{
		{"extension", "", "src/main.rs", "", "Rust"},
		{"file name", "", "Makefile", "", "Makefile"},
		{"first line", "", "", "#!/usr/bin/env bash", "Shell"},
		{"language by name", "python", "main.go", "", "Python"},
		{"language by extension", "yml", "", "", "YAML"},
		{"unknown language", "cobol", "main.go", "", "Plain Text"},
		{"override by extension", "", "page.tmpl", "", "Go"},
		{"override by base name", "", "BUILD", "", "Makefile"},
		{"override to unknown grammar", "", "notes.txt", "", "Plain Text"},
		{"unknown extension", "", "data.xyz", "", "Plain Text"},
		{"stdin without hints", "", "", "hello", "Plain Text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := selectGrammar(set, languages, tt.language, tt.path, tt.firstLine)
			require.Equal(t, tt.want, g.Name)
		})
	}
}

func TestFirstLine(t *testing.T) {
	require.Equal(t, "#!/bin/sh", firstLine("#!/bin/sh\r\necho hi\n"))
	require.Equal(t, "single", firstLine("single"))
	require.Equal(t, "", firstLine(""))
}

func TestTracingConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tc := tracingConfig(config.TracingConfig{Enabled: true})
	require.True(t, tc.Enabled)
	require.Equal(t, "file", tc.Exporter)
	require.Equal(t, config.DefaultTracesFilePath(), tc.FilePath)
	require.Equal(t, 1.0, tc.SampleRate)

	tc = tracingConfig(config.TracingConfig{FilePath: "~/traces.jsonl", SampleRate: 0.5})
	require.Equal(t, filepath.Join(os.Getenv("HOME"), "traces.jsonl"), tc.FilePath)
	require.Equal(t, 0.5, tc.SampleRate)
}

func TestGrammarsCommand_JSON(t *testing.T) {
	cfg := isolate(t, "")

	out, err := run(t, "", "-c", cfg, "grammars", "--json")
	require.NoError(t, err)

	var dtos []presentation.GrammarDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dtos))
	require.NotEmpty(t, dtos)
	require.Equal(t, "C", dtos[0].Name)
}

func TestGrammarsCommand_UserGrammarOverrides(t *testing.T) {
	cfg := isolate(t, "")
	dir := filepath.Join(os.Getenv("HOME"), ".config", "cath", "grammars")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.yaml"), []byte(
		"name: Go\nscope: source.go\nfile_extensions: [go, gotmpl]\ncontexts:\n  main: []\n"), 0o600))

	out, err := run(t, "", "-c", cfg, "grammars", "--json")
	require.NoError(t, err)

	var dtos []presentation.GrammarDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dtos))
	for _, d := range dtos {
		if d.Name == "Go" {
			require.Equal(t, "user", d.Source)
			require.Equal(t, []string{".go", ".gotmpl"}, d.Extensions)
			return
		}
	}
	t.Fatal("Go grammar not listed")
}

func TestThemesCommand(t *testing.T) {
	cfg := isolate(t, "theme: solarized-dark\nchroma_themes: false\n")

	out, err := run(t, "", "-c", cfg, "themes")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(ansi.Strip(out)), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[3], "* solarized-dark"), lines[3])

	cfg = isolate(t, "")
	out, err = run(t, "", "-c", cfg, "themes", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"name": "chroma:monokai"`)
}

func TestConfigCommands(t *testing.T) {
	isolate(t, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := run(t, "", "-c", path, "config", "init")
	require.NoError(t, err)
	require.Contains(t, out, path)

	_, err = run(t, "", "-c", path, "config", "init")
	require.Error(t, err, "init refuses to overwrite")

	_, err = run(t, "", "-c", path, "config", "set", "theme", "solarized-dark")
	require.NoError(t, err)
	_, err = run(t, "", "-c", path, "config", "set", "format", "pdf")
	require.Error(t, err)

	cfg, used, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, path, used)
	require.Equal(t, "solarized-dark", cfg.Theme)

	out, err = run(t, "", "-c", path, "config", "path")
	require.NoError(t, err)
	require.Equal(t, path+"\n", out)
}

// syncBuffer lets the test read output while watchFile writes it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchFile_ReprintsOnChange(t *testing.T) {
	path := writeFile(t, "notes.txt", "first\n")
	printer := render.NewPrinter(render.Plain{}, nil, nil, render.Options{Plain: true})

	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- watchFile(ctx, &out, path, printer) }()

	// Keep writing until the watcher, which starts asynchronously, reports.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("second\n"), 0o600)
		return strings.Contains(out.String(), "second\n")
	}, 5*time.Second, 200*time.Millisecond)
	require.True(t, strings.HasPrefix(out.String(), clearScreen))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchFile did not stop")
	}
}
