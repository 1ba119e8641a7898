// Package assets holds the bundled grammar and theme definitions and the
// Source type the registries load from.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	stdpath "path"
	"path/filepath"
	"strings"
)

// bundled embeds the built-in definitions. The structure is:
//   - grammars/<language>.yaml
//   - themes/<theme>.yaml
//
//go:embed grammars themes
var bundled embed.FS

// Origin records where a definition came from.
type Origin int

const (
	OriginBuiltIn Origin = iota
	OriginUser
)

func (o Origin) String() string {
	switch o {
	case OriginBuiltIn:
		return "built-in"
	case OriginUser:
		return "user"
	default:
		return "unknown"
	}
}

// Kind selects how a Source is read.
type Kind int

const (
	// KindYAML sources hold *.yaml definition files under Root.
	KindYAML Kind = iota
	// KindChroma stands for the styles compiled into the chroma library.
	KindChroma
)

// Source is a place definitions are loaded from.
type Source struct {
	FS     fs.FS
	Root   string
	Origin Origin
	Kind   Kind
	// Label identifies the source in logs, e.g. the user directory.
	Label string
}

// File is one definition file read from a Source.
type File struct {
	Path string
	Data []byte
}

// BuiltinGrammars returns the embedded grammar definitions.
func BuiltinGrammars() Source {
	return Source{FS: bundled, Root: "grammars", Origin: OriginBuiltIn, Label: "embedded:grammars"}
}

// BuiltinThemes returns the embedded theme definitions.
func BuiltinThemes() Source {
	return Source{FS: bundled, Root: "themes", Origin: OriginBuiltIn, Label: "embedded:themes"}
}

// ChromaSource returns the source standing for chroma's bundled styles.
func ChromaSource() Source {
	return Source{Origin: OriginBuiltIn, Kind: KindChroma, Label: "chroma"}
}

// UserSource returns a source rooted at dir. ok is false when dir is empty,
// missing or not a directory; that is not an error.
func UserSource(dir string) (Source, bool) {
	if dir == "" {
		return Source{}, false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Source{}, false
	}
	return Source{FS: os.DirFS(dir), Root: ".", Origin: OriginUser, Label: dir}, true
}

// ConfigDir returns ~/.config/cath, or an empty string if the home
// directory cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cath")
}

// UserGrammarDir returns ~/.config/cath/grammars.
func UserGrammarDir() string {
	if dir := ConfigDir(); dir != "" {
		return filepath.Join(dir, "grammars")
	}
	return ""
}

// UserThemeDir returns ~/.config/cath/themes.
func UserThemeDir() string {
	if dir := ConfigDir(); dir != "" {
		return filepath.Join(dir, "themes")
	}
	return ""
}

// ReadDefinitions returns every *.yaml / *.yml file under the source root in
// lexical path order.
func ReadDefinitions(src Source) ([]File, error) {
	if src.Kind != KindYAML {
		return nil, fmt.Errorf("source %s: not a YAML source", src.Label)
	}
	if src.FS == nil {
		return nil, fmt.Errorf("source %s: no filesystem", src.Label)
	}
	root := src.Root
	if root == "" {
		root = "."
	}

	var files []File
	err := fs.WalkDir(src.FS, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		// Use path.Ext (not filepath.Ext) since fs.FS always uses forward slashes
		ext := strings.ToLower(stdpath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(src.FS, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, File{Path: path, Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", src.Label, err)
	}
	return files, nil
}
