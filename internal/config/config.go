// Package config provides configuration types, defaults and loading for cath.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/cath/internal/assets"
	"github.com/zjrosen/cath/internal/log"
)

// ProjectConfigPath is checked before the user config.
const ProjectConfigPath = ".cath/config.yaml"

// Config holds all configuration options for cath.
type Config struct {
	Theme       string `mapstructure:"theme"`
	LineNumbers bool   `mapstructure:"line_numbers"`
	Format      string `mapstructure:"format"`     // terminal (default), html or plain
	Color       string `mapstructure:"color"`      // auto (default), always or never
	Background  bool   `mapstructure:"background"` // paint theme background colors
	TabWidth    int    `mapstructure:"tab_width"`  // 0 keeps tabs
	// Languages maps file extensions to grammar names, e.g. {"h": "C"}.
	Languages    map[string]string `mapstructure:"languages"`
	GrammarDir   string            `mapstructure:"grammar_dir"`
	ThemeDir     string            `mapstructure:"theme_dir"`
	ChromaThemes bool              `mapstructure:"chroma_themes"`
	Cache        CacheConfig       `mapstructure:"cache"`
	Tracing      TracingConfig     `mapstructure:"tracing"`
}

// CacheConfig configures the resolved style cache.
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"` // none, file, stdout or otlp
	FilePath     string  `mapstructure:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// DefaultConfigPath returns ~/.config/cath/config.yaml.
func DefaultConfigPath() string {
	if dir := assets.ConfigDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return ""
}

// DefaultTracesFilePath returns ~/.config/cath/traces/traces.jsonl.
func DefaultTracesFilePath() string {
	if dir := assets.ConfigDir(); dir != "" {
		return filepath.Join(dir, "traces", "traces.jsonl")
	}
	return ""
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Theme:        "base16-ocean.dark",
		Format:       "terminal",
		Color:        "auto",
		ChromaThemes: true,
		Cache: CacheConfig{
			TTL:             10 * time.Minute,
			CleanupInterval: 30 * time.Minute,
		},
		Tracing: TracingConfig{
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("theme", d.Theme)
	v.SetDefault("line_numbers", d.LineNumbers)
	v.SetDefault("format", d.Format)
	v.SetDefault("color", d.Color)
	v.SetDefault("background", d.Background)
	v.SetDefault("tab_width", d.TabWidth)
	v.SetDefault("grammar_dir", d.GrammarDir)
	v.SetDefault("theme_dir", d.ThemeDir)
	v.SetDefault("chroma_themes", d.ChromaThemes)
	v.SetDefault("cache::ttl", d.Cache.TTL)
	v.SetDefault("cache::cleanup_interval", d.Cache.CleanupInterval)
	v.SetDefault("tracing::enabled", d.Tracing.Enabled)
	v.SetDefault("tracing::exporter", d.Tracing.Exporter)
	v.SetDefault("tracing::file_path", d.Tracing.FilePath)
	v.SetDefault("tracing::otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing::sample_rate", d.Tracing.SampleRate)
}

// newViper uses "::" as the key delimiter so that extensions with dots,
// such as "d.ts" under languages, stay single keys.
func newViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	setDefaults(v)
	v.SetEnvPrefix("cath")
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. A non-empty path is used as is and must
// exist. Otherwise .cath/config.yaml and then ~/.config/cath/config.yaml are
// tried, and finding neither is not an error. used is the file read, if any.
func Load(path string) (cfg Config, used string, err error) {
	v := newViper()

	switch {
	case path != "":
		v.SetConfigFile(path)
	case fileExists(ProjectConfigPath):
		v.SetConfigFile(ProjectConfigPath)
	default:
		if dir := assets.ConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "no config file found, using defaults")
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("decoding config: %w", err)
	}
	used = v.ConfigFileUsed()
	if used != "" && !fileExists(used) {
		used = ""
	}
	log.Debug(log.CatConfig, "config loaded", "path", used, "theme", cfg.Theme, "format", cfg.Format)
	return cfg, used, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Validate checks cfg for values the CLI cannot act on.
func Validate(cfg Config) error {
	switch cfg.Format {
	case "terminal", "html", "plain":
	default:
		return fmt.Errorf("format must be \"terminal\", \"html\" or \"plain\", got %q", cfg.Format)
	}
	switch cfg.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("color must be \"auto\", \"always\" or \"never\", got %q", cfg.Color)
	}
	if cfg.TabWidth < 0 {
		return fmt.Errorf("tab_width must not be negative, got %d", cfg.TabWidth)
	}
	for ext, name := range cfg.Languages {
		if ext == "" || name == "" {
			return fmt.Errorf("languages: empty extension or grammar name (%q: %q)", ext, name)
		}
	}
	if cfg.Cache.TTL < 0 || cfg.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache durations must not be negative")
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Endpoint requirements only matter when tracing is on.
	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# cath configuration

# Theme name (run 'cath themes' to list them)
theme: base16-ocean.dark

# Show a line number gutter
line_numbers: false

# Output format: terminal, html or plain
format: terminal

# Color output: auto (only when stdout is a terminal), always or never
color: auto

# Paint theme background colors in the terminal
background: false

# Expand tabs to this many columns (0 keeps tabs)
tab_width: 0

# Map file extensions to grammar names (run 'cath grammars' to list them)
# languages:
#   h: C
#   bats: Shell

# Extra definition directories (default: ~/.config/cath/grammars and ~/.config/cath/themes)
# grammar_dir: ~/.config/cath/grammars
# theme_dir: ~/.config/cath/themes

# Offer the styles bundled with chroma as themes named "chroma:<style>"
chroma_themes: true

# Resolved style cache
cache:
  ttl: 10m
  cleanup_interval: 30m

# Tracing configuration
tracing:
  enabled: false                 # Enable/disable tracing
  exporter: file                 # Export backend: none, file, stdout, otlp
  # file_path: ~/.config/cath/traces/traces.jsonl
  otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
  sample_rate: 1.0               # Trace sampling rate 0.0-1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist and refuses to overwrite an existing file.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	if fileExists(configPath) {
		return fmt.Errorf("config file %s already exists", configPath)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
